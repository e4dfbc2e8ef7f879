package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/distlab/courier/comm"
	"github.com/distlab/courier/examples/ring"
	"github.com/distlab/courier/testbed"
)

var (
	demoProcesses   int
	demoRounds      int
	demoMonitor     bool
	demoMonitorPort int
	demoOutput      string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the token-ring demo on an in-process testbed.",
	RunE: func(_ *cobra.Command, _ []string) error {
		b := testbed.MakeBuilder().
			WithRankCount(demoProcesses).
			WithLogger(slog.Default())

		if demoOutput != "" {
			b = b.WithOutputFileName(demoOutput)
		}

		if demoMonitor {
			b = b.WithMonitoring(demoMonitorPort)
		}

		tb := b.Build()
		defer tb.Terminate()

		if verbose {
			logger := comm.NewMsgLogger(slog.Default())
			for _, p := range tb.Processes() {
				p.AcceptHook(logger)
				p.Buffer().AcceptHook(logger)
			}
		}

		return tb.Run(func(p *comm.Process) error {
			return ring.Run(p, demoProcesses, demoRounds)
		})
	},
}

func init() {
	demoCmd.Flags().IntVarP(&demoProcesses, "processes", "n", 4,
		"number of ranks in the ring")
	demoCmd.Flags().IntVarP(&demoRounds, "rounds", "r", 3,
		"full circulations of the token")
	demoCmd.Flags().BoolVar(&demoMonitor, "monitor", false,
		"start the monitoring server")
	demoCmd.Flags().IntVar(&demoMonitorPort, "monitor-port", 0,
		"port of the monitoring server, 0 picks a free one")
	demoCmd.Flags().StringVarP(&demoOutput, "output", "o", "",
		"name of the recording database")

	rootCmd.AddCommand(demoCmd)
}
