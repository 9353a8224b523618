package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feeScope/internal/model"
	"feeScope/internal/scan"
	"feeScope/internal/storage/postgres"
)

func runPositions(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if !common.IsHexAddress(a.cfg.Owner) {
		return fmt.Errorf("valid owner address is required")
	}
	owner := common.HexToAddress(a.cfg.Owner)

	a.logger.Info("scan positions",
		zap.String("owner", owner.Hex()),
		zap.String("protocol", string(a.variant)),
		zap.Uint64("chain_id", a.chainID),
		zap.Uint64("block", a.block),
	)

	aggregator := scan.NewAggregator(a.adapter, a.src, a.logger)
	positions, err := aggregator.PositionsForOwner(ctx, owner)
	if err != nil {
		return err
	}

	reports := make([]model.FeeReport, 0, len(positions))
	for _, position := range positions {
		rep, err := a.builder.Build(ctx, position, a.chainID, a.block)
		if err != nil {
			// A single position failing to price must not sink the scan.
			a.logger.Warn("fee report failed, skipping",
				zap.String("position_id", position.ID.String()),
				zap.Error(err))
			continue
		}
		reports = append(reports, rep)
	}

	a.logger.Info("scan complete",
		zap.Int("positions", len(positions)),
		zap.Int("reports", len(reports)),
	)

	if err := printReports(reports); err != nil {
		return err
	}
	if err := a.writeReports(ctx, reports); err != nil {
		return err
	}

	if a.cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.SaveScanState(ctx, owner.Hex(), a.block); err != nil {
			return fmt.Errorf("save scan state: %w", err)
		}
	}

	return nil
}
