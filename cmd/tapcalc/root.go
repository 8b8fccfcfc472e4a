package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/codefionn/tapcalc/internal/calc"
	"github.com/codefionn/tapcalc/internal/config"
	"github.com/codefionn/tapcalc/internal/format"
	"github.com/codefionn/tapcalc/internal/keypad"
	"github.com/codefionn/tapcalc/internal/logger"
	"github.com/codefionn/tapcalc/internal/tui"
)

func runRoot(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return runTUI(ctx, a)
	}
	return runLines(os.Stdin, os.Stdout, os.Stderr, a.engine)
}

func runTUI(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.New(a.engine, a.history, a.cfg)
	if updates, err := config.Watch(ctx, a.configPath); err != nil {
		logger.Warn("Config reload disabled: %v", err)
	} else {
		model.WatchConfig(updates)
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// runLines reads one key sequence per line and prints the display after
// each. Bad keys are reported on errOut and do not stop the run.
func runLines(in io.Reader, out, errOut io.Writer, engine *calc.Engine) error {
	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		events, err := keypad.ParseSequence(line, keypad.WithDecimalSeparator(engine.DecimalSeparator()))
		if err != nil {
			fmt.Fprintf(errOut, "line %d: %v\n", lineNo, err)
			continue
		}
		errs := keypad.Run(engine, events)
		for _, i := range slices.Sorted(maps.Keys(errs)) {
			logger.Debug("line %d key %s: %v", lineNo, events[i], errs[i])
			fmt.Fprintf(errOut, "line %d: %s: %v\n", lineNo, events[i], errs[i])
		}
		fmt.Fprintln(out, displayLine(engine))
	}
	return scanner.Err()
}

var (
	resultColor  = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	formulaColor = color.New(color.FgHiBlack)
)

// displayLine renders the display value, red when it shows an error.
func displayLine(engine *calc.Engine) string {
	display := engine.Display()
	if display == format.ErrorSentinel {
		return errorColor.Sprint(display)
	}
	return resultColor.Sprint(display)
}
