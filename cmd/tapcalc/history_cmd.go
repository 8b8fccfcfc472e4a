package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/codefionn/tapcalc/internal/history"
)

var (
	historyJSON  bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the calculation history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past calculations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.history.LoadAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[:historyLimit]
		}
		return printHistory(cmd.OutOrStdout(), entries, historyJSON)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored calculation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.history.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
		return nil
	},
}

func printHistory(w io.Writer, entries []history.Entry, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []history.Entry{}
		}
		return enc.Encode(entries)
	}

	md := historyMarkdown(entries)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprint(w, md)
		return nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Fprint(w, md)
		return nil
	}
	fmt.Fprint(w, out)
	return nil
}

// historyMarkdown renders entries as a markdown table.
func historyMarkdown(entries []history.Entry) string {
	if len(entries) == 0 {
		return "_No calculations yet._\n"
	}

	var sb strings.Builder
	sb.WriteString("| # | Expression | Result | Time |\n")
	sb.WriteString("|---|---|---|---|\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n",
			i+1,
			escapeCell(e.Expression),
			escapeCell(e.Result),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
		)
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "Print entries as JSON")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show at most n entries")
	historyCmd.AddCommand(historyListCmd, historyClearCmd)
}
