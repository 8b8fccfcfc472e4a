package calc

import (
	"errors"

	"github.com/codefionn/tapcalc/internal/expr"
)

// Errors returned by Engine methods. They describe what happened to the
// input; the engine state is always left displayable, so callers may log
// them and carry on.
var (
	// ErrDivisionByZero: the display shows the error sentinel, or, when the
	// division happened inside a bracket collapse, the state is unchanged.
	ErrDivisionByZero = expr.ErrDivisionByZero
	// ErrMalformedExpression: a bracket expression could not be reduced;
	// the state is unchanged.
	ErrMalformedExpression = expr.ErrMalformedExpression
	// ErrInvalidFactorialArgument: x! of a negative or non-integer value.
	ErrInvalidFactorialArgument = errors.New("factorial needs a non-negative integer")
	// ErrUnparsableOperand: the display does not hold a number where one is
	// needed. Policy is no-op: nothing is changed.
	ErrUnparsableOperand = errors.New("display does not hold a number")
	// ErrDomain: a scientific function was applied outside its domain,
	// such as √ of a negative number.
	ErrDomain = errors.New("value outside function domain")
	// ErrInvalidInput: unknown digit, operator, function or memory key.
	ErrInvalidInput = errors.New("invalid input")
)
