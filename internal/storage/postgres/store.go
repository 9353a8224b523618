package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feeScope/internal/model"
)

// Store provides Postgres persistence for fee reports.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertReports inserts or updates fee reports keyed by (chain_id, position_id).
func (s *Store) UpsertReports(ctx context.Context, reports []model.FeeReport) error {
	if len(reports) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range reports {
		batch.Queue(`
			INSERT INTO fee_reports (
				chain_id, position_id, pool_address,
				token0_address, token0_symbol, token0_decimals,
				token1_address, token1_symbol, token1_decimals,
				fee_tier, tick_lower, tick_upper, current_tick, in_range,
				liquidity, uncollected_fee0, uncollected_fee1,
				block_number, computed_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
			ON CONFLICT (chain_id, position_id)
			DO UPDATE SET
				pool_address = EXCLUDED.pool_address,
				current_tick = EXCLUDED.current_tick,
				in_range = EXCLUDED.in_range,
				liquidity = EXCLUDED.liquidity,
				uncollected_fee0 = EXCLUDED.uncollected_fee0,
				uncollected_fee1 = EXCLUDED.uncollected_fee1,
				block_number = EXCLUDED.block_number,
				computed_at = EXCLUDED.computed_at,
				updated_at = now()
		`,
			int64(r.ChainID),
			r.PositionID,
			r.PoolAddress,
			r.Token0Address,
			r.Token0Symbol,
			r.Token0Decimals,
			r.Token1Address,
			r.Token1Symbol,
			r.Token1Decimals,
			r.FeeTier,
			r.TickLower,
			r.TickUpper,
			r.CurrentTick,
			r.InRange,
			r.Liquidity,
			r.UncollectedFee0,
			r.UncollectedFee1,
			int64(r.BlockNumber),
			r.ComputedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range reports {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadScanState returns the last scanned block for an owner, if recorded.
func (s *Store) LoadScanState(ctx context.Context, owner string) (uint64, bool, error) {
	if owner == "" {
		return 0, false, fmt.Errorf("owner required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_scanned_block FROM scan_state WHERE owner=$1`, owner)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveScanState upserts the last scanned block for an owner.
func (s *Store) SaveScanState(ctx context.Context, owner string, block uint64) error {
	if owner == "" {
		return fmt.Errorf("owner required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_state (owner, last_scanned_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (owner) DO UPDATE
		SET last_scanned_block = EXCLUDED.last_scanned_block, updated_at = now()
	`, owner, block)
	return err
}
