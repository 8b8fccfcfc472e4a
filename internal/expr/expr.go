// Package expr collapses flat calculator expressions with brackets into a
// single number.
//
// Evaluation resolves the innermost bracket group first (the group closed by
// the first ")"), splices its value back, and repeats. Each bracket-free run
// is then folded left to right in two passes: × and ÷ first, then + and -.
// Unary signs are folded into the following number before the passes run.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrDivisionByZero aborts an evaluation that divides by zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrMalformedExpression means the text could not be reduced to one number.
	ErrMalformedExpression = errors.New("malformed expression")
)

// Evaluator holds the decimal separator numbers are written with.
type Evaluator struct {
	separator string
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithDecimalSeparator accepts sep (for example ",") as the decimal
// separator in addition to ".".
func WithDecimalSeparator(sep string) Option {
	return func(e *Evaluator) {
		if sep != "" {
			e.separator = sep
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{separator: "."}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEvaluator = New()

// Evaluate collapses expression with the default evaluator.
func Evaluate(expression string) (float64, error) {
	return defaultEvaluator.Evaluate(expression)
}

// Evaluate collapses expression to a number. Stray ")" without a matching
// "(" are dropped; an unmatched "(" or any leftover operator is an error.
func (e *Evaluator) Evaluate(expression string) (float64, error) {
	if strings.TrimSpace(expression) == "" {
		return 0, fmt.Errorf("%w: empty expression", ErrMalformedExpression)
	}

	tokens, err := e.tokenize(expression)
	if err != nil {
		return 0, err
	}

	for {
		closeIdx := indexOf(tokens, tokClose)
		if closeIdx < 0 {
			break
		}

		openIdx := -1
		for i := closeIdx - 1; i >= 0; i-- {
			if tokens[i].kind == tokOpen {
				openIdx = i
				break
			}
		}
		if openIdx < 0 {
			tokens = append(tokens[:closeIdx], tokens[closeIdx+1:]...)
			continue
		}

		v, err := reduceFlat(tokens[openIdx+1 : closeIdx])
		if err != nil {
			return 0, err
		}

		collapsed := token{kind: tokNumber, value: v, pos: tokens[openIdx].pos}
		rest := append([]token{collapsed}, tokens[closeIdx+1:]...)
		tokens = append(tokens[:openIdx], rest...)
	}

	if indexOf(tokens, tokOpen) >= 0 {
		return 0, fmt.Errorf("%w: unclosed bracket", ErrMalformedExpression)
	}
	return reduceFlat(tokens)
}

func indexOf(tokens []token, kind tokenKind) int {
	for i, t := range tokens {
		if t.kind == kind {
			return i
		}
	}
	return -1
}

// reduceFlat folds a bracket-free token run into one value.
func reduceFlat(in []token) (float64, error) {
	if len(in) == 0 {
		return 0, fmt.Errorf("%w: empty group", ErrMalformedExpression)
	}

	tokens, err := foldSigns(in)
	if err != nil {
		return 0, err
	}

	tokens, err = foldPass(tokens, '×', '÷')
	if err != nil {
		return 0, err
	}
	tokens, err = foldPass(tokens, '+', '-')
	if err != nil {
		return 0, err
	}

	if len(tokens) != 1 || tokens[0].kind != tokNumber {
		return 0, fmt.Errorf("%w: %s", ErrMalformedExpression, render(tokens))
	}
	return tokens[0].value, nil
}

// foldSigns turns "-" or "+" at the start of a run, or directly after an
// operator, into the sign of the next number.
func foldSigns(in []token) ([]token, error) {
	out := make([]token, 0, len(in))
	negate := false
	pendingSign := false

	for _, t := range in {
		unaryPosition := len(out) == 0 || out[len(out)-1].kind == tokOperator
		if t.kind == tokOperator && unaryPosition {
			switch t.op {
			case '-':
				negate = !negate
				pendingSign = true
				continue
			case '+':
				pendingSign = true
				continue
			default:
				return nil, fmt.Errorf("%w: operator %q without left operand", ErrMalformedExpression, t.op)
			}
		}
		if t.kind == tokNumber && pendingSign {
			if negate {
				t.value = -t.value
			}
			negate, pendingSign = false, false
		}
		out = append(out, t)
	}
	if pendingSign {
		return nil, fmt.Errorf("%w: dangling sign", ErrMalformedExpression)
	}
	return out, nil
}

// foldPass applies the given operators left to right.
func foldPass(in []token, ops ...rune) ([]token, error) {
	out := make([]token, 0, len(in))
	for i := 0; i < len(in); i++ {
		t := in[i]
		if t.kind == tokOperator && containsOp(ops, t.op) {
			if len(out) == 0 || out[len(out)-1].kind != tokNumber || i+1 >= len(in) || in[i+1].kind != tokNumber {
				return nil, fmt.Errorf("%w: operator %q needs two operands", ErrMalformedExpression, t.op)
			}
			left := out[len(out)-1]
			right := in[i+1]
			v, err := apply(t.op, left.value, right.value)
			if err != nil {
				return nil, err
			}
			out[len(out)-1] = token{kind: tokNumber, value: v, pos: left.pos}
			i++
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func containsOp(ops []rune, op rune) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func apply(op rune, a, b float64) (float64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '×':
		return a * b, nil
	case '÷':
		if b == 0 {
			return math.NaN(), ErrDivisionByZero
		}
		return a / b, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrMalformedExpression, op)
}

func render(tokens []token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
