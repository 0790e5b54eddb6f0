// Command miner runs the confirmation watcher against a ledger node. It
// polls the stats endpoint, declares buried events final, and runs the
// post-confirmation follow-ups.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"insurechain/internal/confirm"
	"insurechain/internal/platform/logger"
)

func main() {
	var (
		rpcURL       string
		threshold    uint64
		pollInterval time.Duration
		logLevel     string
	)

	rootCmd := &cobra.Command{
		Use:   "miner",
		Short: "Confirmation watcher for the policy ledger",
		Long:  "Polls a ledger node's stats endpoint and confirms events once they are buried below the confirmation threshold.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(logLevel)

			watcher := confirm.New(rpcURL,
				confirm.WithThreshold(threshold),
				confirm.WithPollInterval(pollInterval),
				confirm.WithLogger(log),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("confirmation watcher stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVar(&rpcURL, "rpc-url", "http://localhost:8080/ledger/stats", "ledger stats endpoint")
	rootCmd.Flags().Uint64Var(&threshold, "confirmation-threshold", confirm.DefaultThreshold, "sequence depth required for confirmation")
	rootCmd.Flags().DurationVar(&pollInterval, "poll-interval", confirm.DefaultPollInterval, "time between polls")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
