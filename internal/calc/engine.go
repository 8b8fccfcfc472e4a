// Package calc implements the keystroke-driven calculator state machine.
//
// An Engine is fed one input event at a time (digits, operators, brackets,
// scientific functions, memory keys) and keeps the display value, the live
// formula and the pending binary operation in sync. Bracketed input is
// handed to the expr package for collapsing.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/codefionn/tapcalc/internal/expr"
	"github.com/codefionn/tapcalc/internal/format"
	"github.com/codefionn/tapcalc/internal/logger"
)

// NumberFormatter turns values into display text and back.
type NumberFormatter interface {
	Format(v float64) string
	Parse(s string) (float64, error)
	DecimalSeparator() string
}

// HistoryAppender receives one entry per completed evaluation.
type HistoryAppender interface {
	Append(expression, result string) error
}

type discardHistory struct{}

func (discardHistory) Append(string, string) error { return nil }

// trigEpsilon snaps results like sin(180°) to zero.
const trigEpsilon = 1e-15

// Engine is the calculator state machine. It is not safe for concurrent
// use; feed it from a single input stream.
type Engine struct {
	formatter NumberFormatter
	history   HistoryAppender
	log       *logger.Logger
	evaluator *expr.Evaluator

	display     string
	formula     formula
	historyLine string
	// group is the index in formula of the outermost "(" of the bracket
	// group being typed, or -1.
	group int

	first      *float64
	second     *float64
	pending    Operator
	starting   bool
	lastResult *float64

	// repeatOp and repeatOperand replay the last binary op on "=".
	repeatOp      Operator
	repeatOperand float64

	// juxtaposable is set when the current operand was just typed or
	// inserted, so a following "(" means multiplication.
	juxtaposable bool

	angle  AngleMode
	memory float64
	mode   Mode
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithAngleMode sets the initial angle mode.
func WithAngleMode(a AngleMode) Option {
	return func(e *Engine) { e.angle = a }
}

// WithMode sets the initial calculator mode.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// New creates an engine. A nil formatter falls back to format.Default and
// a nil history discards entries.
func New(formatter NumberFormatter, history HistoryAppender, opts ...Option) *Engine {
	if formatter == nil {
		formatter = format.Default()
	}
	if history == nil {
		history = discardHistory{}
	}
	e := &Engine{
		formatter: formatter,
		history:   history,
		log:       logger.Global().WithPrefix("calc"),
		angle:     Radians,
		mode:      ModeScientific,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.evaluator = expr.New(expr.WithDecimalSeparator(formatter.DecimalSeparator()))
	e.HandleClear()
	return e
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	return State{
		DisplayValue:       e.display,
		InputFormula:       e.formula.String(),
		FormulaHistoryLine: e.historyLine,
		FirstOperand:       copyPtr(e.first),
		SecondOperand:      copyPtr(e.second),
		PendingOperator:    e.pending,
		IsStartingNewInput: e.starting,
		LastResult:         copyPtr(e.lastResult),
		AngleMode:          e.angle,
		MemoryRegister:     e.memory,
		Mode:               e.mode,
	}
}

// Display returns the current display value.
func (e *Engine) Display() string { return e.display }

// Formula returns the live formula text.
func (e *Engine) Formula() string { return e.formula.String() }

// HistoryLine returns the last evaluated expression.
func (e *Engine) HistoryLine() string { return e.historyLine }

// AngleMode returns how trigonometric functions read their input.
func (e *Engine) AngleMode() AngleMode { return e.angle }

// Mode returns the current calculator layout.
func (e *Engine) Mode() Mode { return e.mode }

// DecimalSeparator returns the formatter's decimal separator.
func (e *Engine) DecimalSeparator() string { return e.formatter.DecimalSeparator() }

// Memory returns the memory register.
func (e *Engine) Memory() float64 { return e.memory }

// InputDigit handles a digit key or the decimal point. Both "." and the
// locale separator are accepted for the decimal point.
func (e *Engine) InputDigit(key string) error {
	digit, err := e.normalizeDigit(key)
	if err != nil {
		return err
	}
	e.log.Debug("digit %q", digit)

	if e.inOpenGroup() {
		e.appendDigitToGroup(digit)
		return nil
	}
	if e.group >= 0 {
		// A closed group that failed to collapse is replaced by new input.
		e.group = -1
		e.starting = true
	}

	sep := e.formatter.DecimalSeparator()
	if e.starting {
		e.display = digit
		e.starting = false
		e.second = nil
		if e.pending == OpNone {
			e.first = nil
		}
	} else {
		switch {
		case digit == sep && strings.Contains(e.display, sep):
			return nil
		case e.display == "0" && digit != sep:
			e.display = digit
		case e.display == "-0" && digit != sep:
			e.display = "-" + digit
		default:
			e.display += digit
		}
	}
	e.juxtaposable = true
	e.syncOperand()
	return nil
}

func (e *Engine) normalizeDigit(key string) (string, error) {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return key, nil
	}
	if key == "." || key == e.formatter.DecimalSeparator() {
		return e.formatter.DecimalSeparator(), nil
	}
	return "", fmt.Errorf("%w: digit %q", ErrInvalidInput, key)
}

func (e *Engine) appendDigitToGroup(digit string) {
	sep := e.formatter.DecimalSeparator()
	last, _ := e.formula.last()
	switch {
	case last.isSign():
		if digit == sep {
			digit = "0" + sep
		}
		e.formula.setLast(number("-" + digit))
	case last.is(tokNumber):
		text := last.text
		switch {
		case digit == sep && strings.Contains(text, sep):
			return
		case (text == "0" || text == "-0") && digit != sep:
			text = strings.TrimSuffix(text, "0") + digit
		default:
			text += digit
		}
		e.formula.setLast(number(text))
	default:
		if last.is(tokClose) {
			e.formula.push(operator(OpMultiply))
		}
		if digit == sep {
			digit = "0" + sep
		}
		e.formula.push(number(digit))
	}
	e.syncGroupDisplay()
	e.starting = false
	e.juxtaposable = true
}

// InputOperator handles a binary operator key. Outside brackets a pending
// operation with a second operand is resolved first; inside an open
// bracket group the operator is only recorded.
func (e *Engine) InputOperator(symbol string) error {
	op, ok := ParseOperator(symbol)
	if !ok {
		return fmt.Errorf("%w: operator %q", ErrInvalidInput, symbol)
	}
	e.log.Debug("operator %s", op)

	if e.inOpenGroup() {
		e.appendOperatorToGroup(op)
		return nil
	}

	var resolveErr error
	switch {
	case e.pending != OpNone && (e.second != nil || !e.starting):
		b, err := e.pendingSecond()
		if err != nil {
			return err
		}
		a := e.firstValue()
		r := PerformBinaryOp(e.pending, a, b)
		e.historyLine = e.describe(a, e.pending, b)
		e.setResult(r)
		e.first = ptr(r)
		if e.pending == OpDivide && b == 0 {
			resolveErr = ErrDivisionByZero
		}
	case e.pending != OpNone:
		// Operator pressed twice: the new one replaces the old.
	default:
		v, err := e.currentOperand()
		if err != nil {
			return err
		}
		e.first = ptr(v)
	}

	e.second = nil
	e.pending = op
	e.repeatOp = OpNone
	e.group = -1
	e.formula.reset(number(e.formatter.Format(*e.first)), operator(op))
	e.starting = true
	e.juxtaposable = false
	return resolveErr
}

func (e *Engine) appendOperatorToGroup(op Operator) {
	last, _ := e.formula.last()
	switch {
	case last.is(tokOpen):
		if op != OpSubtract {
			return
		}
		e.formula.push(number("-"))
	case last.isSign():
		return
	case last.is(tokOperator):
		e.formula.setLast(operator(op))
	default:
		e.formula.push(operator(op))
	}
	e.syncGroupDisplay()
	e.starting = true
	e.juxtaposable = false
}

// InputEqual evaluates the formula. With brackets present the whole
// formula, auto-balanced, goes to the bracket evaluator; otherwise the
// pending operation is applied. Pressing it again replays the last
// operation against the result.
func (e *Engine) InputEqual() error {
	e.log.Debug("equal")
	if e.formula.hasBrackets() {
		return e.evaluateFormula()
	}
	switch {
	case e.pending != OpNone:
		b, err := e.pendingSecond()
		if err != nil {
			return err
		}
		return e.finish(e.firstValue(), e.pending, b)
	case e.repeatOp != OpNone:
		a, err := e.currentOperand()
		if err != nil {
			return err
		}
		return e.finish(a, e.repeatOp, e.repeatOperand)
	}
	return nil
}

func (e *Engine) evaluateFormula() error {
	balanced := e.formula.balanced()
	expression := balanced.String()
	v, err := e.evaluator.Evaluate(expression)
	if err != nil {
		e.log.Debug("evaluate %q: %v", expression, err)
		return err
	}
	e.setResult(v)
	e.historyLine = expression
	e.record(expression, e.display)

	e.first, e.second = nil, nil
	e.pending, e.repeatOp = OpNone, OpNone
	e.formula.reset()
	e.group = -1
	e.starting = true
	e.juxtaposable = false
	return nil
}

func (e *Engine) finish(a float64, op Operator, b float64) error {
	r := PerformBinaryOp(op, a, b)
	expression := e.describe(a, op, b)
	e.setResult(r)
	e.historyLine = expression
	e.record(expression, e.display)

	e.first = ptr(r)
	e.second = nil
	e.pending = OpNone
	e.repeatOp, e.repeatOperand = op, b
	e.formula.reset()
	e.group = -1
	e.starting = true
	e.juxtaposable = false
	if op == OpDivide && b == 0 {
		return ErrDivisionByZero
	}
	return nil
}

// HandleClear resets everything except memory, angle mode and mode.
func (e *Engine) HandleClear() {
	e.display = "0"
	e.formula.reset()
	e.historyLine = ""
	e.group = -1
	e.first, e.second, e.lastResult = nil, nil, nil
	e.pending, e.repeatOp = OpNone, OpNone
	e.repeatOperand = 0
	e.starting = true
	e.juxtaposable = false
}

// HandleToggleSign negates the current operand.
func (e *Engine) HandleToggleSign() error {
	e.log.Debug("toggle sign")
	if e.inOpenGroup() {
		e.toggleGroupSign()
		return nil
	}
	if !e.starting && e.group < 0 {
		// Flip the typed text so a trailing separator or zeros survive.
		if strings.HasPrefix(e.display, "-") {
			e.display = e.display[1:]
		} else {
			e.display = "-" + e.display
		}
		e.syncOperand()
		return nil
	}
	v, err := e.currentOperand()
	if err != nil {
		return err
	}
	e.applyToOperand(-v)
	return nil
}

func (e *Engine) toggleGroupSign() {
	last, _ := e.formula.last()
	switch {
	case last.isSign():
		e.formula.pop()
	case last.is(tokNumber):
		if strings.HasPrefix(last.text, "-") {
			e.formula.setLast(number(last.text[1:]))
		} else {
			e.formula.setLast(number("-" + last.text))
		}
	case last.is(tokClose):
		return
	default:
		e.formula.push(number("-"))
	}
	e.syncGroupDisplay()
}

// HandlePercentage divides the current operand by 100.
func (e *Engine) HandlePercentage() error {
	e.log.Debug("percent")
	if e.inOpenGroup() {
		return e.transformGroupNumber(func(v float64) (float64, error) {
			return v / 100, nil
		})
	}
	v, err := e.currentOperand()
	if err != nil {
		return err
	}
	e.applyToOperand(v / 100)
	return nil
}

// HandleScientificFunction applies a unary function to the current
// operand. Names are the canonical key labels or their aliases (see
// CanonicalFunction).
func (e *Engine) HandleScientificFunction(name string) error {
	canonical, ok := CanonicalFunction(name)
	if !ok {
		return fmt.Errorf("%w: function %q", ErrInvalidInput, name)
	}
	fn := scientificFuncs[canonical]
	e.log.Debug("function %s (%s)", canonical, e.angle)

	domainErr := func(r float64) error {
		if !math.IsNaN(r) {
			return nil
		}
		if canonical == "x!" {
			return ErrInvalidFactorialArgument
		}
		return ErrDomain
	}

	if e.inOpenGroup() {
		return e.transformGroupNumber(func(v float64) (float64, error) {
			r := e.applyFunction(fn, v)
			return r, domainErr(r)
		})
	}

	v, err := e.currentOperand()
	if err != nil {
		return err
	}
	r := e.applyFunction(fn, v)
	e.historyLine = fn.label(e.formatter.Format(v))
	e.lastResult = ptr(r)
	e.applyToOperand(r)
	return domainErr(r)
}

func (e *Engine) applyFunction(fn scientificFunc, v float64) float64 {
	if fn.trig && e.angle == Degrees {
		v = v * math.Pi / 180
	}
	r := fn.apply(v)
	if fn.inverseTrig && e.angle == Degrees {
		r = r * 180 / math.Pi
	}
	if fn.trig && math.Abs(r) < trigEpsilon {
		r = 0
	}
	return r
}

// transformGroupNumber rewrites the trailing number inside an open bracket
// group. Failures leave the group untouched.
func (e *Engine) transformGroupNumber(fn func(float64) (float64, error)) error {
	last, _ := e.formula.last()
	if !last.is(tokNumber) || last.isSign() {
		return ErrUnparsableOperand
	}
	v, err := e.formatter.Parse(last.text)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsableOperand, err)
	}
	r, err := fn(v)
	if err != nil {
		return err
	}
	if math.IsInf(r, 0) {
		return ErrDomain
	}
	e.formula.setLast(number(e.formatter.Format(r)))
	e.syncGroupDisplay()
	e.juxtaposable = true
	return nil
}

// HandleMemoryOperation handles mc, m+, m- and mr.
func (e *Engine) HandleMemoryOperation(op string) error {
	e.log.Debug("memory %s", op)
	switch strings.ToLower(op) {
	case "mc":
		e.memory = 0
	case "m+", "m-":
		v, err := e.currentOperand()
		if err != nil {
			return err
		}
		if strings.HasSuffix(op, "+") {
			e.memory += v
		} else {
			e.memory -= v
		}
		if e.pending != OpNone {
			e.second = ptr(v)
		}
		e.starting = true
	case "mr":
		e.insertValue(e.memory)
	default:
		return fmt.Errorf("%w: memory operation %q", ErrInvalidInput, op)
	}
	return nil
}

// InputConstant inserts π or e as the current operand.
func (e *Engine) InputConstant(name string) error {
	var v float64
	switch strings.ToLower(name) {
	case "π", "pi":
		v = math.Pi
	case "e":
		v = math.E
	default:
		return fmt.Errorf("%w: constant %q", ErrInvalidInput, name)
	}
	e.log.Debug("constant %s", name)
	e.insertValue(v)
	return nil
}

// RecallAnswer inserts the last result, or 0 before any result exists.
func (e *Engine) RecallAnswer() error {
	v := 0.0
	if e.lastResult != nil {
		v = *e.lastResult
	}
	e.log.Debug("recall answer")
	e.insertValue(v)
	return nil
}

func (e *Engine) insertValue(v float64) {
	if !e.inOpenGroup() {
		e.applyToOperand(v)
		return
	}
	text := e.formatter.Format(v)
	last, _ := e.formula.last()
	switch {
	case last.isSign():
		if strings.HasPrefix(text, "-") {
			text = text[1:]
		} else {
			text = "-" + text
		}
		e.formula.setLast(number(text))
	case last.is(tokNumber) || last.is(tokClose):
		e.formula.push(operator(OpMultiply))
		e.formula.push(number(text))
	default:
		e.formula.push(number(text))
	}
	e.syncGroupDisplay()
	e.starting = false
	e.juxtaposable = true
}

// HandleParenthesis is the single bracket key: it closes the open group
// when the last token can be closed over, and opens a group otherwise.
func (e *Engine) HandleParenthesis() error {
	if e.inOpenGroup() && e.closable() {
		return e.CloseParenthesis()
	}
	return e.OpenParenthesis()
}

func (e *Engine) closable() bool {
	last, ok := e.formula.last()
	return ok && ((last.is(tokNumber) && !last.isSign()) || last.is(tokClose))
}

// OpenParenthesis starts a bracket group, nested if one is already open.
// A "(" right after an operand multiplies.
func (e *Engine) OpenParenthesis() error {
	e.log.Debug("open bracket")
	if e.inOpenGroup() {
		if e.closable() {
			e.formula.push(operator(OpMultiply))
		}
		e.formula.push(openBracket())
		e.syncGroupDisplay()
		e.starting = false
		e.juxtaposable = false
		return nil
	}
	if e.group >= 0 {
		return fmt.Errorf("%w: unresolved bracket group", ErrMalformedExpression)
	}

	if e.juxtaposable && e.display != "0" {
		if err := e.InputOperator(string(OpMultiply)); err != nil && !errors.Is(err, ErrDivisionByZero) {
			return err
		}
	}
	if e.pending != OpNone {
		e.formula.replaceTrailingOperand(openBracket())
		e.group = len(e.formula.tokens) - 1
	} else {
		e.first = nil
		e.formula.reset(openBracket())
		e.group = 0
	}
	e.second = nil
	e.syncGroupDisplay()
	e.starting = false
	e.juxtaposable = false
	return nil
}

// CloseParenthesis closes the innermost open group. Closing the outermost
// group collapses it to a number, which becomes the current operand.
func (e *Engine) CloseParenthesis() error {
	if !e.inOpenGroup() {
		return fmt.Errorf("%w: no open bracket", ErrMalformedExpression)
	}
	e.log.Debug("close bracket")

	// A dangling operator or sign is dropped before closing.
	end := len(e.formula.tokens)
	for end > e.group+1 {
		t := e.formula.tokens[end-1]
		if !t.is(tokOperator) && !t.isSign() {
			break
		}
		end--
	}
	if e.formula.tokens[end-1].is(tokOpen) {
		return fmt.Errorf("%w: empty brackets", ErrMalformedExpression)
	}
	e.formula.tokens = e.formula.tokens[:end]
	e.formula.push(closeBracket())
	e.syncGroupDisplay()
	if e.formula.depth(e.group) > 0 {
		return nil
	}
	return e.collapseGroup()
}

func (e *Engine) collapseGroup() error {
	v, err := e.evaluator.Evaluate(e.display)
	if err != nil {
		e.log.Debug("collapse %q: %v", e.display, err)
		return err
	}
	e.setResult(v)
	if e.pending != OpNone {
		e.second = ptr(v)
	} else {
		e.first = ptr(v)
	}
	e.group = -1
	e.starting = true
	e.juxtaposable = true
	return nil
}

// ToggleAngleMode flips between radians and degrees.
func (e *Engine) ToggleAngleMode() {
	if e.angle == Degrees {
		e.angle = Radians
	} else {
		e.angle = Degrees
	}
	e.log.Debug("angle mode %s", e.angle)
}

// SetAngleMode selects a in place of the current angle mode.
func (e *Engine) SetAngleMode(a AngleMode) { e.angle = a }

// SwitchMode changes the calculator layout. Leaving scientific mode
// discards an unfinished bracket group, which basic mode cannot edit.
func (e *Engine) SwitchMode(m Mode) {
	if m == e.mode {
		return
	}
	e.mode = m
	if m == ModeBasic && e.group >= 0 {
		e.HandleClear()
	}
	e.log.Debug("mode %s", m)
}

func (e *Engine) inOpenGroup() bool {
	return e.group >= 0 && e.formula.depth(e.group) > 0
}

func (e *Engine) syncGroupDisplay() {
	e.display = render(e.formula.tokens[e.group:])
}

// syncOperand mirrors the display into the formula's trailing operand.
func (e *Engine) syncOperand() {
	if e.pending == OpNone {
		e.formula.reset(number(e.display))
		return
	}
	e.formula.replaceTrailingOperand(number(e.display))
}

// applyToOperand replaces the current operand with a computed value.
func (e *Engine) applyToOperand(v float64) {
	e.display = e.formatter.Format(v)
	e.group = -1
	if e.pending != OpNone {
		e.second = ptr(v)
	} else {
		e.first = ptr(v)
	}
	e.syncOperand()
	e.starting = true
	e.juxtaposable = true
}

// currentOperand reads the display as a number. A closed bracket group
// that has not been collapsed yet is evaluated.
func (e *Engine) currentOperand() (float64, error) {
	if e.inOpenGroup() {
		return 0, fmt.Errorf("%w: bracket group still open", ErrUnparsableOperand)
	}
	if e.group >= 0 {
		return e.evaluator.Evaluate(e.display)
	}
	v, err := e.formatter.Parse(e.display)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnparsableOperand, err)
	}
	return v, nil
}

func (e *Engine) pendingSecond() (float64, error) {
	if e.second != nil && e.starting {
		return *e.second, nil
	}
	return e.currentOperand()
}

func (e *Engine) firstValue() float64 {
	if e.first == nil {
		return 0
	}
	return *e.first
}

func (e *Engine) setResult(v float64) {
	e.display = e.formatter.Format(v)
	e.lastResult = ptr(v)
}

func (e *Engine) describe(a float64, op Operator, b float64) string {
	return fmt.Sprintf("%s %s %s", e.formatter.Format(a), op, e.formatter.Format(b))
}

func (e *Engine) record(expression, result string) {
	if err := e.history.Append(expression, result); err != nil {
		e.log.Warn("history append failed: %v", err)
	}
}
