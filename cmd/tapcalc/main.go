package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile     string
	logLevel       string
	locale         string
	angleMode      string
	calcMode       string
	historyBackend string
	historyPath    string
	noHistory      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tapcalc",
	Short: "Keystroke driven scientific calculator",
	Long: `tapcalc is a calculator that works like a pocket scientific calculator:
digits, operators and function keys are applied one press at a time.

Run without arguments on a terminal to open the interactive keypad. When
stdin is not a terminal every input line is read as a key sequence, for
example "12.5 × ( 3 + 4 ) =", and the display is printed after each line.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoot(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (JSON), defaults to the user config directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, none")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Locale for the decimal separator, e.g. en or de")
	rootCmd.PersistentFlags().StringVar(&angleMode, "angle", "", "Angle mode for trigonometric keys: rad or deg")
	rootCmd.PersistentFlags().StringVar(&calcMode, "mode", "", "Calculator mode: basic or scientific")
	rootCmd.PersistentFlags().StringVar(&historyBackend, "history-backend", "", "History store: sqlite, bolt, file or memory")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history-path", "", "History store location")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Keep history in memory only")

	rootCmd.AddCommand(evalCmd, exprCmd, historyCmd)
}
