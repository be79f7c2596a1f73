package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/onnwee/palette/internal/color"
)

// PostgresStore implements Store using PostgreSQL. Batch writes run inside
// a single transaction so the all-or-nothing guarantee holds even when a
// statement fails mid-batch.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// channelColumn maps a channel to its table column. Channels are validated
// before reaching the store, so the fallback is never hit in practice.
func channelColumn(ch Channel) string {
	switch ch {
	case ChannelOutline:
		return "outline"
	case ChannelFlame:
		return "flame"
	case ChannelDiamond:
		return "diamond"
	case ChannelSquare:
		return "square"
	}
	return "outline"
}

// scanOptional converts a nullable text scan into an optional string.
func scanOptional(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// AddressColor returns one channel of an address's global defaults.
func (s *PostgresStore) AddressColor(ctx context.Context, address string, ch Channel) (*string, error) {
	query := fmt.Sprintf(`SELECT %s FROM address_palettes WHERE address = $1`, channelColumn(ch))

	var ns sql.NullString
	err := s.db.QueryRowContext(ctx, query, address).Scan(&ns)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query address color: %w", err)
	}
	return scanOptional(ns), nil
}

// ItemColor returns one channel of an item's override set.
func (s *PostgresStore) ItemColor(ctx context.Context, collection string, item uint64, ch Channel) (*string, error) {
	query := fmt.Sprintf(`SELECT %s FROM item_palettes WHERE collection = $1 AND item_id = $2`, channelColumn(ch))

	var ns sql.NullString
	err := s.db.QueryRowContext(ctx, query, collection, int64(item)).Scan(&ns)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item color: %w", err)
	}
	return scanOptional(ns), nil
}

// TopAffiliate returns an item's top affiliate color.
func (s *PostgresStore) TopAffiliate(ctx context.Context, collection string, item uint64) (*string, error) {
	var ns sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT top_affiliate FROM item_palettes WHERE collection = $1 AND item_id = $2`,
		collection, int64(item)).Scan(&ns)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query top affiliate: %w", err)
	}
	return scanOptional(ns), nil
}

// TrophyOuter returns an item's trophy outer percentage.
func (s *PostgresStore) TrophyOuter(ctx context.Context, collection string, item uint64) (*uint32, error) {
	var ni sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT trophy_outer FROM item_palettes WHERE collection = $1 AND item_id = $2`,
		collection, int64(item)).Scan(&ni)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query trophy outer: %w", err)
	}
	if !ni.Valid {
		return nil, nil
	}
	v := uint32(ni.Int64)
	return &v, nil
}

// SetAddressColors upserts an address's four channel defaults.
func (s *PostgresStore) SetAddressColors(ctx context.Context, address string, colors ColorSet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO address_palettes (address, outline, flame, diamond, square)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE SET
			outline = EXCLUDED.outline,
			flame = EXCLUDED.flame,
			diamond = EXCLUDED.diamond,
			square = EXCLUDED.square,
			updated_at = now()
	`, address, colors.Outline, colors.Flame, colors.Diamond, colors.Square)
	if err != nil {
		return fmt.Errorf("upsert address colors: %w", err)
	}
	return nil
}

// SetItemAttributes applies the same decisions to every item in one
// transaction.
func (s *PostgresStore) SetItemAttributes(ctx context.Context, collection string, items []uint64, colors ColorSet, trophy color.PercentOutcome) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = int64(item)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// No-op after a successful commit.
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warn("failed to rollback item batch", "error", err)
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO item_palettes (collection, item_id, outline, flame, diamond, square)
		SELECT $1, unnest($2::bigint[]), $3, $4, $5, $6
		ON CONFLICT (collection, item_id) DO UPDATE SET
			outline = EXCLUDED.outline,
			flame = EXCLUDED.flame,
			diamond = EXCLUDED.diamond,
			square = EXCLUDED.square,
			updated_at = now()
	`, collection, pq.Array(ids), colors.Outline, colors.Flame, colors.Diamond, colors.Square)
	if err != nil {
		return fmt.Errorf("upsert item colors: %w", err)
	}

	switch trophy.Action {
	case color.PercentClear:
		_, err = tx.ExecContext(ctx, `
			UPDATE item_palettes SET trophy_outer = NULL, updated_at = now()
			WHERE collection = $1 AND item_id = ANY($2::bigint[])
		`, collection, pq.Array(ids))
	case color.PercentSet:
		_, err = tx.ExecContext(ctx, `
			UPDATE item_palettes SET trophy_outer = $3, updated_at = now()
			WHERE collection = $1 AND item_id = ANY($2::bigint[])
		`, collection, pq.Array(ids), int64(trophy.Value))
	}
	if err != nil {
		return fmt.Errorf("update trophy outer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item batch: %w", err)
	}
	return nil
}

// SetTopAffiliate upserts or clears an item's affiliate color.
func (s *PostgresStore) SetTopAffiliate(ctx context.Context, collection string, item uint64, c *string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_palettes (collection, item_id, top_affiliate)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, item_id) DO UPDATE SET
			top_affiliate = EXCLUDED.top_affiliate,
			updated_at = now()
	`, collection, int64(item), c)
	if err != nil {
		return fmt.Errorf("upsert top affiliate: %w", err)
	}
	return nil
}
