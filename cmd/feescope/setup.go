package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feeScope/internal/chain"
	"feeScope/internal/config"
	"feeScope/internal/dex"
	"feeScope/internal/model"
	"feeScope/internal/report"
	"feeScope/internal/storage"
	"feeScope/internal/storage/postgres"
)

// app bundles the wired-up collaborators a command needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	src     *dex.EthDataSource
	adapter dex.ProtocolAdapter
	builder *report.Builder
	variant dex.Variant
	chainID uint64
	block   uint64
}

func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Manager) {
		return nil, fmt.Errorf("valid manager address is required")
	}

	variant, err := dex.ParseVariant(cfg.Protocol)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	block, err := client.LatestBlockNumber(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("get latest block: %w", err)
	}

	src, err := dex.NewEthDataSource(client, dex.SourceConfig{
		Manager:      common.HexToAddress(cfg.Manager),
		Variant:      variant,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	var adapter dex.ProtocolAdapter
	if variant == dex.VariantTickSpacing {
		adapter = dex.NewTickSpacingAdapter(src, logger)
	} else {
		adapter = dex.NewFeeTierAdapter(src, logger)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		src:     src,
		adapter: adapter,
		builder: report.NewBuilder(adapter, src, variant, logger),
		variant: variant,
		chainID: chainID.Uint64(),
		block:   block,
	}, nil
}

func (a *app) Close() {
	a.client.Close()
	_ = a.logger.Sync()
}

// writeReports fans reports out to the configured sinks.
func (a *app) writeReports(ctx context.Context, reports []model.FeeReport) error {
	if len(reports) == 0 {
		return nil
	}

	if a.cfg.Out != "" {
		var sink storage.Sink = storage.NewJsonlSink(a.cfg.Out)
		if err := sink.PutReports(reports); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
		a.logger.Info("reports written", zap.String("out", a.cfg.Out), zap.Int("count", len(reports)))
	}

	if a.cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.UpsertReports(ctx, reports); err != nil {
			return fmt.Errorf("upsert reports: %w", err)
		}
		a.logger.Info("reports upserted", zap.Int("count", len(reports)))
	}

	return nil
}
