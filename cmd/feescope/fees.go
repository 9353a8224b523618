package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feeScope/internal/model"
)

func runFees(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.PositionID == "" {
		return fmt.Errorf("position-id is required")
	}
	id, ok := new(big.Int).SetString(a.cfg.PositionID, 10)
	if !ok {
		return fmt.Errorf("invalid position-id %q", a.cfg.PositionID)
	}

	a.logger.Info("compute fees",
		zap.String("position_id", id.String()),
		zap.String("protocol", string(a.variant)),
		zap.Uint64("chain_id", a.chainID),
		zap.Uint64("block", a.block),
	)

	position, err := a.adapter.ResolvePosition(ctx, id)
	if err != nil {
		return err
	}

	rep, err := a.builder.Build(ctx, position, a.chainID, a.block)
	if err != nil {
		return err
	}

	if err := printReports([]model.FeeReport{rep}); err != nil {
		return err
	}

	return a.writeReports(ctx, []model.FeeReport{rep})
}

func printReports(reports []model.FeeReport) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	for _, rep := range reports {
		if err := encoder.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	}
	return nil
}
