package calc

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/tapcalc/internal/format"
)

type recordedEntry struct {
	expression string
	result     string
}

type fakeHistory struct {
	entries []recordedEntry
	err     error
}

func (f *fakeHistory) Append(expression, result string) error {
	f.entries = append(f.entries, recordedEntry{expression, result})
	return f.err
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *fakeHistory) {
	t.Helper()
	h := &fakeHistory{}
	return New(format.Default(), h, opts...), h
}

// press feeds a space separated key list. Function names go to
// HandleScientificFunction, "()" is the bracket toggle, and any other
// unrecognised key is typed one rune at a time as digits.
func press(t *testing.T, e *Engine, keys string) error {
	t.Helper()
	var last error
	for _, key := range strings.Fields(keys) {
		var err error
		switch key {
		case "+", "-", "×", "÷":
			err = e.InputOperator(key)
		case "=":
			err = e.InputEqual()
		case "(":
			err = e.OpenParenthesis()
		case ")":
			err = e.CloseParenthesis()
		case "()":
			err = e.HandleParenthesis()
		case "C":
			e.HandleClear()
		case "±":
			err = e.HandleToggleSign()
		case "%":
			err = e.HandlePercentage()
		case "mc", "m+", "m-", "mr":
			err = e.HandleMemoryOperation(key)
		case "π":
			err = e.InputConstant(key)
		case "Ans":
			err = e.RecallAnswer()
		default:
			if _, ok := CanonicalFunction(key); ok {
				err = e.HandleScientificFunction(key)
				break
			}
			for _, r := range key {
				if err = e.InputDigit(string(r)); err != nil {
					break
				}
			}
		}
		if err != nil {
			last = err
		}
	}
	return last
}

func TestBinaryOperations(t *testing.T) {
	tests := []struct {
		keys string
		want string
	}{
		{"7 + 8 =", "15"},
		{"10 ÷ 4 =", "2.5"},
		{"9 - 12 =", "-3"},
		{"6 × 7 =", "42"},
		{"0.1 + 0.2 =", "0.3"},
		{"1 ÷ 3 =", "0.333333333333333"},
		{"2 + 3 × 4 =", "20"},
		{"100000 × 100000 × 10 =", "1e11"},
	}

	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			e, _ := newTestEngine(t)
			require.NoError(t, press(t, e, tt.keys))
			assert.Equal(t, tt.want, e.Display())
		})
	}
}

func TestPerformBinaryOp(t *testing.T) {
	assert.Equal(t, 5.0, PerformBinaryOp(OpAdd, 2, 3))
	assert.Equal(t, -1.0, PerformBinaryOp(OpSubtract, 2, 3))
	assert.Equal(t, 6.0, PerformBinaryOp(OpMultiply, 2, 3))
	assert.Equal(t, 0.5, PerformBinaryOp(OpDivide, 1, 2))
	assert.True(t, math.IsNaN(PerformBinaryOp(OpDivide, 1, 0)))
	assert.Equal(t, 2.0, PerformBinaryOp(OpNone, 2, 3))
}

func TestDivisionByZeroThenClear(t *testing.T) {
	e, h := newTestEngine(t)

	err := press(t, e, "5 ÷ 0 =")
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, format.ErrorSentinel, e.Display())
	require.Len(t, h.entries, 1)
	assert.Equal(t, recordedEntry{"5 ÷ 0", "Error"}, h.entries[0])

	e.HandleClear()
	s := e.State()
	assert.Equal(t, "0", s.DisplayValue)
	assert.Empty(t, s.InputFormula)
	assert.Empty(t, s.FormulaHistoryLine)
	assert.Nil(t, s.FirstOperand)
	assert.Nil(t, s.SecondOperand)
	assert.Equal(t, OpNone, s.PendingOperator)
	assert.True(t, s.IsStartingNewInput)
}

func TestClearIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "12 + 3 m+"))

	e.HandleClear()
	once := e.State()
	e.HandleClear()
	assert.Equal(t, once, e.State())
	assert.Equal(t, 3.0, once.MemoryRegister, "memory survives clear")
}

func TestClearKeepsAngleMode(t *testing.T) {
	e, _ := newTestEngine(t)
	e.ToggleAngleMode()
	e.HandleClear()
	assert.Equal(t, Degrees, e.AngleMode())
}

func TestOperatorChaining(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, press(t, e, "2 + 3"))
	assert.Equal(t, "2 + 3", e.Formula())

	require.NoError(t, press(t, e, "×"))
	s := e.State()
	assert.Equal(t, "5", s.DisplayValue)
	assert.Equal(t, "5 ×", s.InputFormula)
	assert.Equal(t, "2 + 3", s.FormulaHistoryLine)
	assert.Equal(t, OpMultiply, s.PendingOperator)
	require.NotNil(t, s.FirstOperand)
	assert.Equal(t, 5.0, *s.FirstOperand)
}

func TestOperatorReplacesPendingOperator(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "8 + - ×"))
	assert.Equal(t, "8 ×", e.Formula())
	require.NoError(t, press(t, e, "2 ="))
	assert.Equal(t, "16", e.Display())
}

func TestEqualWithoutSecondOperandUsesDisplay(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "4 × ="))
	assert.Equal(t, "16", e.Display())
}

func TestDecimalInput(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, press(t, e, "."))
	assert.Equal(t, ".", e.Display())

	require.NoError(t, press(t, e, "5 . 2"))
	assert.Equal(t, ".52", e.Display(), "second separator is ignored")

	e.HandleClear()
	require.NoError(t, press(t, e, "0 0 7"))
	assert.Equal(t, "7", e.Display(), "leading zero is replaced")
}

func TestInvalidDigit(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.InputDigit("a")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "0", e.Display())
}

func TestLocaleSeparator(t *testing.T) {
	f, err := format.New("de")
	require.NoError(t, err)
	e := New(f, nil)

	require.NoError(t, press(t, e, "1.5 + 1.25 ="))
	assert.Equal(t, "2,75", e.Display())

	require.NoError(t, press(t, e, "C ( 1.5 + 1 ) × 2 ="))
	assert.Equal(t, "5", e.Display())
}

func TestBracketCollapse(t *testing.T) {
	tests := []struct {
		keys string
		want string
	}{
		{"( 2 + 3 ) × 4 =", "20"},
		{"( ( 1 + 2 ) × ( 3 + 4 ) ) =", "21"},
		{"( 2 + 3 × 4 ) =", "14"},
		{"5 × ( 2 + 3 ) =", "25"},
		{"10 - ( 4 - 1 ) =", "7"},
		{"( - 3 + 1 ) =", "-2"},
		{"2 ( 3 ) =", "6"},
		{"( 2 ) ( 3 ) =", "6"},
	}

	for _, tt := range tests {
		t.Run(tt.keys, func(t *testing.T) {
			e, _ := newTestEngine(t)
			require.NoError(t, press(t, e, tt.keys))
			assert.Equal(t, tt.want, e.Display())
		})
	}
}

func TestBracketGroupDisplay(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, press(t, e, "5 × ( 2 +"))
	s := e.State()
	assert.Equal(t, "(2 +", s.DisplayValue)
	assert.Equal(t, "5 × (2 +", s.InputFormula)
	assert.True(t, s.IsStartingNewInput)

	require.NoError(t, press(t, e, "3"))
	assert.False(t, e.State().IsStartingNewInput)

	require.NoError(t, press(t, e, ")"))
	s = e.State()
	assert.Equal(t, "5", s.DisplayValue)
	assert.Equal(t, "5 × (2 + 3)", s.InputFormula)
	require.NotNil(t, s.SecondOperand)
	assert.Equal(t, 5.0, *s.SecondOperand)
	require.NotNil(t, s.LastResult)
	assert.Equal(t, 5.0, *s.LastResult)
}

func TestCollapseWithoutPendingSetsFirstOperand(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "( 6 ÷ 2 )"))
	s := e.State()
	assert.Equal(t, "3", s.DisplayValue)
	require.NotNil(t, s.FirstOperand)
	assert.Equal(t, 3.0, *s.FirstOperand)
	assert.True(t, s.IsStartingNewInput)
}

func TestUnbalancedBracketsAutoClose(t *testing.T) {
	e, h := newTestEngine(t)
	require.NoError(t, press(t, e, "( 3 + 4 ="))
	assert.Equal(t, "7", e.Display())
	assert.Equal(t, "(3 + 4)", e.HistoryLine())
	require.Len(t, h.entries, 1)
	assert.Equal(t, recordedEntry{"(3 + 4)", "7"}, h.entries[0])
	assert.Empty(t, e.Formula())
}

func TestParenthesisToggle(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "() 2 + () 1 + 1 () × 3 () ="))
	assert.Equal(t, "8", e.Display())
}

func TestParenthesisToggleOpensAfterOperator(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "() 2 ×"))
	require.NoError(t, e.HandleParenthesis())
	assert.Equal(t, "(2 × (", e.Display())
}

func TestCloseWithoutOpenBracket(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "4"))
	before := e.State()
	err := e.CloseParenthesis()
	assert.ErrorIs(t, err, ErrMalformedExpression)
	assert.Equal(t, before, e.State())
}

func TestCloseEmptyGroup(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "("))
	before := e.State()
	assert.ErrorIs(t, e.CloseParenthesis(), ErrMalformedExpression)
	assert.Equal(t, before, e.State())
}

func TestCloseDropsDanglingOperator(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "( 4 + )"))
	assert.Equal(t, "4", e.Display())
}

func TestBracketDivisionByZeroLeavesState(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "( 1 ÷ 0"))
	before := e.State()

	err := e.InputEqual()
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, before, e.State())
}

func TestFailedCollapseIsReplacedByDigits(t *testing.T) {
	e, _ := newTestEngine(t)
	err := press(t, e, "2 + ( 1 ÷ 0 )")
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, "(1 ÷ 0)", e.Display())

	require.NoError(t, press(t, e, "3 ="))
	assert.Equal(t, "5", e.Display())
}

func TestChainedEquals(t *testing.T) {
	e, h := newTestEngine(t)

	require.NoError(t, press(t, e, "5 + 3 ="))
	assert.Equal(t, "8", e.Display())

	require.NoError(t, press(t, e, "="))
	assert.Equal(t, "11", e.Display())
	assert.Equal(t, "8 + 3", e.HistoryLine())

	require.NoError(t, press(t, e, "="))
	assert.Equal(t, "14", e.Display())
	assert.Len(t, h.entries, 3)
}

func TestChainedEqualsAgainstNewValue(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "2 × 5 = 7 ="))
	assert.Equal(t, "35", e.Display())
}

func TestEqualWithNothingPending(t *testing.T) {
	e, h := newTestEngine(t)
	require.NoError(t, press(t, e, "42 ="))
	assert.Equal(t, "42", e.Display())
	assert.Empty(t, h.entries)
}

func TestScientificFunctions(t *testing.T) {
	tests := []struct {
		name  string
		keys  string
		angle AngleMode
		want  string
	}{
		{"sin degrees", "90 sin", Degrees, "1"},
		{"sin 180 degrees snaps to zero", "180 sin", Degrees, "0"},
		{"cos radians", "0 cos", Radians, "1"},
		{"log", "100 log", Radians, "2"},
		{"ln", "1 ln", Radians, "0"},
		{"sqrt", "144 √", Radians, "12"},
		{"cbrt negative", "27 ± ∛", Radians, "-3"},
		{"reciprocal", "4 1/x", Radians, "0.25"},
		{"square", "12 x²", Radians, "144"},
		{"cube", "3 x³", Radians, "27"},
		{"ten to the x", "3 10ˣ", Radians, "1000"},
		{"factorial", "5 x!", Radians, "120"},
		{"zero factorial", "0 x!", Radians, "1"},
		{"alias", "16 sqrt", Radians, "4"},
		{"x to the y squares", "3 xʸ", Radians, "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, WithAngleMode(tt.angle))
			require.NoError(t, press(t, e, tt.keys))
			assert.Equal(t, tt.want, e.Display())
		})
	}
}

func TestInverseTrigInDegrees(t *testing.T) {
	e, _ := newTestEngine(t, WithAngleMode(Degrees))
	require.NoError(t, press(t, e, "1 sin⁻¹"))
	v, err := e.formatter.Parse(e.Display())
	require.NoError(t, err)
	assert.InDelta(t, 90, v, 1e-9)

	e.SetAngleMode(Radians)
	require.NoError(t, press(t, e, "C 1 tan⁻¹"))
	v, err = e.formatter.Parse(e.Display())
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, v, 1e-12)
}

func TestScientificFunctionErrors(t *testing.T) {
	e, _ := newTestEngine(t)

	err := press(t, e, "5 ± x!")
	assert.ErrorIs(t, err, ErrInvalidFactorialArgument)
	assert.Equal(t, format.ErrorSentinel, e.Display())

	e.HandleClear()
	err = press(t, e, "2.5 x!")
	assert.ErrorIs(t, err, ErrInvalidFactorialArgument)

	e.HandleClear()
	err = press(t, e, "4 ± √")
	assert.ErrorIs(t, err, ErrDomain)
	assert.Equal(t, format.ErrorSentinel, e.Display())

	e.HandleClear()
	err = e.HandleScientificFunction("sinh")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "0", e.Display())
}

func TestLargeFactorialOverflows(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "171 x!"))
	assert.Equal(t, format.PosInfinity, e.Display())
}

func TestScientificFunctionHistoryLine(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "9 √"))
	assert.Equal(t, "√(9)", e.HistoryLine())

	require.NoError(t, press(t, e, "C 4 x!"))
	assert.Equal(t, "4!", e.HistoryLine())

	require.NoError(t, press(t, e, "C 3 x²"))
	assert.Equal(t, "3²", e.HistoryLine())
}

func TestScientificFunctionWithPendingOperator(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "10 + 9 √"))
	s := e.State()
	assert.Equal(t, "3", s.DisplayValue)
	assert.Equal(t, "10 + 3", s.InputFormula)
	require.NotNil(t, s.SecondOperand)
	assert.Equal(t, 3.0, *s.SecondOperand)
	assert.Equal(t, OpAdd, s.PendingOperator)

	require.NoError(t, press(t, e, "="))
	assert.Equal(t, "13", e.Display())
}

func TestScientificFunctionResultSeedsNextOperation(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "3 x² + 1 ="))
	assert.Equal(t, "10", e.Display())
}

func TestScientificFunctionInsideGroup(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "( 1 + 9 √"))
	assert.Equal(t, "(1 + 3", e.Display())
	require.NoError(t, press(t, e, ") ="))
	assert.Equal(t, "4", e.Display())
}

func TestMemory(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, press(t, e, "5 m+ 3 m+ mr"))
	assert.Equal(t, "8", e.Display())
	assert.Equal(t, 8.0, e.Memory())

	require.NoError(t, press(t, e, "2 × 4 = m+"))
	assert.Equal(t, 16.0, e.Memory())

	require.NoError(t, press(t, e, "1 m-"))
	assert.Equal(t, 15.0, e.Memory())

	require.NoError(t, press(t, e, "C mr"))
	assert.Equal(t, "15", e.Display())

	require.NoError(t, press(t, e, "mc"))
	assert.Equal(t, 0.0, e.Memory())

	assert.ErrorIs(t, e.HandleMemoryOperation("ms"), ErrInvalidInput)
}

func TestMemoryAddKeepsPendingOperand(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "2 + 3 m+ × 4 ="))
	assert.Equal(t, "20", e.Display())
	assert.Equal(t, 3.0, e.Memory())
}

func TestMemoryRecallAsOperand(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "6 m+ C 7 × mr ="))
	assert.Equal(t, "42", e.Display())
}

func TestMemoryUnparsableDisplay(t *testing.T) {
	e, _ := newTestEngine(t)
	_ = press(t, e, "1 ÷ 0 =")
	err := e.HandleMemoryOperation("m+")
	assert.ErrorIs(t, err, ErrUnparsableOperand)
	assert.Equal(t, 0.0, e.Memory())
}

func TestPercentage(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "50 %"))
	assert.Equal(t, "0.5", e.Display())

	require.NoError(t, press(t, e, "C 200 + 50 % ="))
	assert.Equal(t, "200.5", e.Display(), "percent is a literal division by 100")
}

func TestToggleSign(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, press(t, e, "5 ±"))
	assert.Equal(t, "-5", e.Display())
	assert.Equal(t, "-5", e.Formula())

	require.NoError(t, press(t, e, "±"))
	assert.Equal(t, "5", e.Display())

	require.NoError(t, press(t, e, "C 3 + 4 ± ="))
	assert.Equal(t, "-1", e.Display())

	require.NoError(t, press(t, e, "±"))
	assert.Equal(t, "1", e.Display())
}

func TestToggleSignKeepsTypedSeparator(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "2. ± 5"))
	assert.Equal(t, "-2.5", e.Display())
}

func TestToggleSignInsideGroup(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "( ± 3 + 2 ) ="))
	assert.Equal(t, "-1", e.Display())
}

func TestConstantsAndAnswer(t *testing.T) {
	e, _ := newTestEngine(t)

	require.NoError(t, press(t, e, "2 × π ="))
	assert.Equal(t, e.formatter.Format(2*math.Pi), e.Display())

	require.NoError(t, e.InputConstant("e"))
	assert.Equal(t, e.formatter.Format(math.E), e.Display())

	require.NoError(t, press(t, e, "C 6 + 4 = Ans × 2 ="))
	assert.Equal(t, "20", e.Display())

	assert.ErrorIs(t, e.InputConstant("tau"), ErrInvalidInput)
}

func TestConstantJuxtaposedInsideGroup(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "( 2 π"))
	assert.Equal(t, "(2 × "+e.formatter.Format(math.Pi), e.Display())
}

func TestImplicitMultiplicationBeforeBracket(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "3 ("))
	s := e.State()
	assert.Equal(t, "3 × (", s.InputFormula)
	assert.Equal(t, OpMultiply, s.PendingOperator)

	require.NoError(t, press(t, e, "1 + 1 ) ="))
	assert.Equal(t, "6", e.Display())
}

func TestBracketAfterEqualsStartsFresh(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "3 + 3 = ( 2 ) ="))
	assert.Equal(t, "2", e.Display())
}

func TestUnparsableOperandIsNoOp(t *testing.T) {
	e, _ := newTestEngine(t)
	_ = press(t, e, "1 ÷ 0 =")
	before := e.State()
	require.Equal(t, format.ErrorSentinel, before.DisplayValue)
	require.NotNil(t, before.FirstOperand)
	assert.True(t, math.IsNaN(*before.FirstOperand))

	err := e.InputOperator("+")
	assert.ErrorIs(t, err, ErrUnparsableOperand)
	if diff := cmp.Diff(before, e.State(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("state changed after operator (-before +after):\n%s", diff)
	}

	err = e.HandlePercentage()
	assert.ErrorIs(t, err, ErrUnparsableOperand)
	if diff := cmp.Diff(before, e.State(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("state changed after percent (-before +after):\n%s", diff)
	}
}

func TestHistoryFailureIsLoggedNotReturned(t *testing.T) {
	h := &fakeHistory{err: errors.New("disk full")}
	e := New(format.Default(), h)
	require.NoError(t, press(t, e, "1 + 1 ="))
	assert.Equal(t, "2", e.Display())
}

func TestSwitchModeClearsOpenGroup(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "( 1 +"))
	e.SwitchMode(ModeBasic)
	assert.Equal(t, ModeBasic, e.Mode())
	assert.Equal(t, "0", e.Display())
}

func TestStateSnapshotIsIndependent(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, press(t, e, "4 +"))
	s := e.State()
	require.NotNil(t, s.FirstOperand)
	*s.FirstOperand = 99
	assert.Equal(t, 4.0, *e.State().FirstOperand)
}

func TestParseModes(t *testing.T) {
	a, err := ParseAngleMode("DEG")
	require.NoError(t, err)
	assert.Equal(t, Degrees, a)
	_, err = ParseAngleMode("grad")
	assert.Error(t, err)

	m, err := ParseMode("basic")
	require.NoError(t, err)
	assert.Equal(t, ModeBasic, m)
	assert.Equal(t, "scientific", ModeScientific.String())
}
