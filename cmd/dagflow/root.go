package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/dagflow/internal/logging"
)

// Flags holds the scheduler tunables exposed on the root command.
type Flags struct {
	LogLevel           string
	Workers            int
	PollInterval       time.Duration
	DelayBetweenStages time.Duration
}

func newRootCmd() *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:           "dagflow <document>",
		Short:         "Run a DAG specification document to completion",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(logging.Options{Level: flags.LogLevel, Component: "dagflow"})
			if err != nil {
				return err
			}

			correlationID := generateCorrelationID()
			ctx := logging.WithCorrelationID(context.Background(), correlationID)

			return runProcess(ctx, log, args[0], flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().IntVar(&flags.Workers, "workers", 4, "worker pool size")
	cmd.PersistentFlags().DurationVar(&flags.PollInterval, "poll-interval", 5*time.Millisecond, "queue poll interval")
	cmd.PersistentFlags().DurationVar(&flags.DelayBetweenStages, "stage-delay", time.Millisecond, "delay between stage runs within a task")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command, returning a non-nil error on any failure
// processing the DAG. Exit code mapping happens in main.
func Execute() error {
	return newRootCmd().Execute()
}
