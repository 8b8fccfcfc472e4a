package calc

import "strings"

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
}

func number(text string) token      { return token{kind: tokNumber, text: text} }
func operator(op Operator) token    { return token{kind: tokOperator, text: string(op)} }
func openBracket() token            { return token{kind: tokOpen, text: "("} }
func closeBracket() token           { return token{kind: tokClose, text: ")"} }
func (t token) is(k tokenKind) bool { return t.kind == k }

// isSign reports whether a number token holds only a unary minus typed
// right after "(" or an operator.
func (t token) isSign() bool {
	return t.kind == tokNumber && t.text == "-"
}

// formula is the live expression as an ordered token list. Text is rendered
// on demand so the current operand can be replaced without string surgery.
type formula struct {
	tokens []token
}

func (f *formula) reset(tokens ...token) {
	f.tokens = append(f.tokens[:0], tokens...)
}

func (f *formula) push(t token) { f.tokens = append(f.tokens, t) }

func (f *formula) last() (token, bool) {
	if len(f.tokens) == 0 {
		return token{}, false
	}
	return f.tokens[len(f.tokens)-1], true
}

func (f *formula) setLast(t token) {
	f.tokens[len(f.tokens)-1] = t
}

func (f *formula) pop() {
	if len(f.tokens) > 0 {
		f.tokens = f.tokens[:len(f.tokens)-1]
	}
}

// trailingOperandStart returns the index just past the last operator at
// bracket depth zero, which is where the current operand begins.
func (f *formula) trailingOperandStart() int {
	depth := 0
	start := 0
	for i, t := range f.tokens {
		switch t.kind {
		case tokOpen:
			depth++
		case tokClose:
			if depth > 0 {
				depth--
			}
		case tokOperator:
			if depth == 0 {
				start = i + 1
			}
		}
	}
	return start
}

// replaceTrailingOperand swaps whatever follows the last top-level
// operator (a number or a whole bracket group) for the given tokens.
func (f *formula) replaceTrailingOperand(tokens ...token) {
	f.tokens = append(f.tokens[:f.trailingOperandStart()], tokens...)
}

// depth returns open minus close brackets from index from onwards.
func (f *formula) depth(from int) int {
	d := 0
	for _, t := range f.tokens[from:] {
		switch t.kind {
		case tokOpen:
			d++
		case tokClose:
			d--
		}
	}
	return d
}

func (f *formula) hasBrackets() bool {
	for _, t := range f.tokens {
		if t.kind == tokOpen || t.kind == tokClose {
			return true
		}
	}
	return false
}

// balanced returns a copy with unmatched ")" dropped and missing ")"
// appended.
func (f *formula) balanced() formula {
	out := formula{tokens: make([]token, 0, len(f.tokens)+2)}
	depth := 0
	for _, t := range f.tokens {
		switch t.kind {
		case tokOpen:
			depth++
		case tokClose:
			if depth == 0 {
				continue
			}
			depth--
		}
		out.tokens = append(out.tokens, t)
	}
	for ; depth > 0; depth-- {
		out.tokens = append(out.tokens, closeBracket())
	}
	return out
}

func (f *formula) String() string {
	return render(f.tokens)
}

// render joins tokens with single spaces, except directly inside brackets
// and after a bare unary minus: "5 × (2 + 3)", "(-(1 + 2))".
func render(tokens []token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			prev := tokens[i-1]
			if !prev.is(tokOpen) && !t.is(tokClose) && !prev.isSign() {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.text)
	}
	return b.String()
}
