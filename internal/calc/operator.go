package calc

import "math"

// Operator is a binary arithmetic operator.
type Operator string

const (
	OpNone     Operator = ""
	OpAdd      Operator = "+"
	OpSubtract Operator = "-"
	OpMultiply Operator = "×"
	OpDivide   Operator = "÷"
)

// ParseOperator accepts the display symbols plus the ASCII spellings
// typed on a keyboard.
func ParseOperator(s string) (Operator, bool) {
	switch s {
	case "+":
		return OpAdd, true
	case "-", "−":
		return OpSubtract, true
	case "×", "*", "x", "X":
		return OpMultiply, true
	case "÷", "/":
		return OpDivide, true
	}
	return OpNone, false
}

// PerformBinaryOp applies op to a and b. Division by zero yields NaN rather
// than an error; OpNone returns a unchanged.
func PerformBinaryOp(op Operator, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	case OpDivide:
		if b == 0 {
			return math.NaN()
		}
		return a / b
	default:
		return a
	}
}
