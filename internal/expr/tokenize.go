package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokOpen
	tokClose
)

type token struct {
	kind  tokenKind
	value float64
	op    rune
	pos   int
}

func (t token) String() string {
	switch t.kind {
	case tokNumber:
		return strconv.FormatFloat(t.value, 'g', -1, 64)
	case tokOperator:
		return string(t.op)
	case tokOpen:
		return "("
	default:
		return ")"
	}
}

// canonicalOperator maps the accepted spellings onto + - × ÷.
func canonicalOperator(r rune) (rune, bool) {
	switch r {
	case '+':
		return '+', true
	case '-', '−':
		return '-', true
	case '×', '*', 'x', 'X', '·':
		return '×', true
	case '÷', '/', ':':
		return '÷', true
	}
	return 0, false
}

// tokenize splits an expression into numbers, operators and brackets.
// Whitespace is dropped. Unary signs stay operator tokens; they are folded
// later once bracket groups have become numbers.
func (e *Evaluator) tokenize(s string) ([]token, error) {
	var tokens []token
	sep, sepSize := utf8.DecodeRuneInString(e.separator)

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(' || r == '[':
			tokens = appendImplicit(tokens, i)
			tokens = append(tokens, token{kind: tokOpen, pos: i})
			i += size
		case r == ')' || r == ']':
			tokens = append(tokens, token{kind: tokClose, pos: i})
			i += size
		case unicode.IsDigit(r) || r == sep || r == '.':
			end, v, err := e.scanNumber(s, i, sep, sepSize)
			if err != nil {
				return nil, err
			}
			if n := len(tokens); n > 0 && tokens[n-1].kind == tokClose {
				tokens = append(tokens, token{kind: tokOperator, op: '×', pos: i})
			}
			tokens = append(tokens, token{kind: tokNumber, value: v, pos: i})
			i = end
		default:
			op, ok := canonicalOperator(r)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformedExpression, r, i)
			}
			tokens = append(tokens, token{kind: tokOperator, op: op, pos: i})
			i += size
		}
	}
	return tokens, nil
}

// appendImplicit inserts × when a group directly follows a number or
// another group, as in 2(3+4) or (1)(2).
func appendImplicit(tokens []token, pos int) []token {
	if n := len(tokens); n > 0 && (tokens[n-1].kind == tokNumber || tokens[n-1].kind == tokClose) {
		return append(tokens, token{kind: tokOperator, op: '×', pos: pos})
	}
	return tokens
}

// scanNumber reads digits, one decimal separator and an optional exponent
// (1.5e12, 2e-8) starting at i.
func (e *Evaluator) scanNumber(s string, i int, sep rune, sepSize int) (int, float64, error) {
	var b strings.Builder
	start := i
	seenSep := false
	digits := 0

	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			digits++
			i += size
			continue
		case (r == sep || r == '.') && !seenSep:
			seenSep = true
			b.WriteByte('.')
			if r == sep {
				i += sepSize
			} else {
				i += size
			}
			continue
		}
		break
	}

	// exponent only when followed by digits, so "2e" never swallows input
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') && digits > 0 {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			b.WriteString("e")
			b.WriteString(s[i+1 : k])
			i = k
		}
	}

	text := b.String()
	if digits == 0 {
		// a lone separator is the calculator's "0."
		return i, 0, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad number %q at offset %d", ErrMalformedExpression, s[start:i], start)
	}
	return i, v, nil
}
