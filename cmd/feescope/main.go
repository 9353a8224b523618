package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "feescope",
		Short:        "Off-chain uncollected-fee estimator for concentrated-liquidity positions",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Compute uncollected fees for one position",
		RunE:  runFees,
	}
	addCommonFlags(feesCmd)
	feesCmd.Flags().String("position-id", "", "position token id")

	root.AddCommand(feesCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Scan an owner's positions and compute uncollected fees",
		RunE:  runPositions,
	}
	addCommonFlags(positionsCmd)
	positionsCmd.Flags().String("owner", "", "owner address")

	root.AddCommand(positionsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().String("manager", "", "position manager contract address")
	cmd.Flags().String("protocol", "fee-tier", "protocol variant (fee-tier, tick-spacing)")
	cmd.Flags().String("out", "", "optional output JSONL path")
	cmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts per chain read")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
