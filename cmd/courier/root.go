package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Courier runs distributed-algorithm experiments on a logical-clock communication substrate.",
	Long: `Courier runs distributed-algorithm experiments on a logical-clock ` +
		`communication substrate. Each process gets a Lamport clock, a holding ` +
		`buffer for out-of-order traffic, and tagged send/receive/broadcast ` +
		`operations; runs are recorded into SQLite and can be monitored live.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logLevel.Set(slog.LevelDebug)
		}
	},
}

// Execute adds all child commands to the root command, runs it, and exits
// through atexit so that recorder flush handlers run.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log every message event")
}
