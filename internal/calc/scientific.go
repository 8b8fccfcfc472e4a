package calc

import (
	"math"
	"sort"
)

// maxFactorial is the largest n with a finite n! in float64.
const maxFactorial = 170

type scientificFunc struct {
	apply func(float64) float64
	// label renders the history line from the formatted input.
	label func(string) string
	// trig inputs are converted from degrees in Degrees mode.
	trig bool
	// inverseTrig results are converted to degrees in Degrees mode.
	inverseTrig bool
}

func call(name string) func(string) string {
	return func(x string) string { return name + "(" + x + ")" }
}

func postfix(suffix string) func(string) string {
	return func(x string) string { return x + suffix }
}

func prefix(p string) func(string) string {
	return func(x string) string { return p + x }
}

var scientificFuncs = map[string]scientificFunc{
	"sin":   {apply: math.Sin, label: call("sin"), trig: true},
	"cos":   {apply: math.Cos, label: call("cos"), trig: true},
	"tan":   {apply: math.Tan, label: call("tan"), trig: true},
	"sin⁻¹": {apply: math.Asin, label: call("sin⁻¹"), inverseTrig: true},
	"cos⁻¹": {apply: math.Acos, label: call("cos⁻¹"), inverseTrig: true},
	"tan⁻¹": {apply: math.Atan, label: call("tan⁻¹"), inverseTrig: true},
	"ln":    {apply: math.Log, label: call("ln")},
	"log":   {apply: math.Log10, label: call("log")},
	"√":     {apply: math.Sqrt, label: call("√")},
	"∛":     {apply: math.Cbrt, label: call("∛")},
	"1/x":   {apply: func(x float64) float64 { return 1 / x }, label: call("1/")},
	"eˣ":    {apply: math.Exp, label: prefix("e^")},
	"10ˣ":   {apply: func(x float64) float64 { return math.Pow(10, x) }, label: prefix("10^")},
	"x²":    {apply: func(x float64) float64 { return x * x }, label: postfix("²")},
	"x³":    {apply: func(x float64) float64 { return x * x * x }, label: postfix("³")},
	// xʸ without a second operand squares its input.
	"xʸ": {apply: func(x float64) float64 { return math.Pow(x, 2) }, label: postfix("²")},
	"x!": {apply: factorial, label: postfix("!")},
}

// functionAliases maps keyboard spellings onto the canonical names.
var functionAliases = map[string]string{
	"asin":  "sin⁻¹",
	"acos":  "cos⁻¹",
	"atan":  "tan⁻¹",
	"sqrt":  "√",
	"cbrt":  "∛",
	"recip": "1/x",
	"exp":   "eˣ",
	"pow10": "10ˣ",
	"sq":    "x²",
	"x^2":   "x²",
	"cube":  "x³",
	"x^3":   "x³",
	"x^y":   "xʸ",
	"fact":  "x!",
	"!":     "x!",
}

// CanonicalFunction resolves a function name or alias.
func CanonicalFunction(name string) (string, bool) {
	if _, ok := scientificFuncs[name]; ok {
		return name, true
	}
	if canonical, ok := functionAliases[name]; ok {
		return canonical, true
	}
	return "", false
}

// FunctionNames lists the canonical scientific function names, sorted.
func FunctionNames() []string {
	names := make([]string, 0, len(scientificFuncs))
	for name := range scientificFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// factorial accepts integers from 0; anything else is NaN. Inputs past
// maxFactorial overflow to +Inf without looping.
func factorial(n float64) float64 {
	if n < 0 || n != math.Trunc(n) || math.IsInf(n, 0) {
		return math.NaN()
	}
	if n > maxFactorial {
		return math.Inf(1)
	}
	result := 1.0
	for i := 2.0; i <= n; i++ {
		result *= i
	}
	return result
}
