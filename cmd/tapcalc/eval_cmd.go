package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/codefionn/tapcalc/internal/calc"
	"github.com/codefionn/tapcalc/internal/expr"
	"github.com/codefionn/tapcalc/internal/keypad"
)

var (
	dumpState    bool
	showFormula  bool
	recordResult bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <keys>...",
	Short: "Press a key sequence and print the display",
	Long: `Eval presses the given keys in order, exactly as the keypad would, and
prints the resulting display. Keys are separated by spaces: numbers,
operators (+ - × ÷ * /), "=", "(", ")", function names such as sin or √,
memory keys (mc m+ m- mr) and events in the kind:"value" form.

Example:
  tapcalc eval 2 + 3 × 4 =
  tapcalc --angle deg eval 30 sin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return evalKeys(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.engine, strings.Join(args, " "))
	},
}

// evalKeys runs seq on engine. Key errors are printed and the run
// continues; only an unparseable sequence fails.
func evalKeys(out, errOut io.Writer, engine *calc.Engine, seq string) error {
	events, err := keypad.ParseSequence(seq, keypad.WithDecimalSeparator(engine.DecimalSeparator()))
	if err != nil {
		return err
	}

	errs := keypad.Run(engine, events)
	for _, i := range slices.Sorted(maps.Keys(errs)) {
		fmt.Fprintf(errOut, "%s: %v\n", events[i], errs[i])
	}

	if showFormula {
		if line := engine.HistoryLine(); line != "" {
			fmt.Fprintln(out, formulaColor.Sprint(line))
		}
		if formula := engine.Formula(); formula != "" {
			fmt.Fprintln(out, formulaColor.Sprint(formula))
		}
	}
	fmt.Fprintln(out, displayLine(engine))

	if dumpState {
		fmt.Fprint(out, spew.Sdump(engine.State()))
	}
	return nil
}

var exprCmd = &cobra.Command{
	Use:   "expr <expression>",
	Short: "Evaluate a typed bracket expression",
	Long: `Expr evaluates a whole expression at once, with × and ÷ binding tighter
than + and -. Brackets may be nested and a number directly before "("
multiplies.

Example:
  tapcalc expr "2(3 + 4) ÷ 7"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		expression := strings.Join(args, " ")
		result, err := evalExpression(a, expression)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resultColor.Sprint(result))
		return nil
	},
}

// evalExpression evaluates expression with the locale's separator and,
// with --record, appends it to the history.
func evalExpression(a *app, expression string) (string, error) {
	evaluator := expr.New(expr.WithDecimalSeparator(a.formatter.DecimalSeparator()))
	value, err := evaluator.Evaluate(expression)
	if err != nil {
		return "", fmt.Errorf("%s: %w", expression, err)
	}

	result := a.formatter.Format(value)
	if recordResult {
		if err := a.history.Append(strings.TrimSpace(expression), result); err != nil {
			return "", fmt.Errorf("record history: %w", err)
		}
	}
	return result, nil
}

func init() {
	evalCmd.Long += "\n\nFunctions:\n  " + strings.Join(calc.FunctionNames(), " ")
	evalCmd.Flags().BoolVar(&dumpState, "dump", false, "Print the full engine state after the keys")
	evalCmd.Flags().BoolVar(&showFormula, "formula", false, "Print the formula lines above the display")
	exprCmd.Flags().BoolVar(&recordResult, "record", false, "Append the calculation to the history")
}
