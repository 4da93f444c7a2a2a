package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN         string        `envconfig:"DSN" required:"true"`
	DialTimeout time.Duration `split_words:"true" default:"5s"`
}

type runRow struct {
	bun.BaseModel `bun:"table:crew_runs"`

	RunID     string    `bun:"run_id,pk"`
	Status    string    `bun:"status,notnull"`
	Payload   string    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// PostgresStore persists RunState rows in the crew_runs table.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	store := &PostgresStore{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreFromDB wraps an existing connection; the table is created
// if missing.
func NewPostgresStoreFromDB(ctx context.Context, db *bun.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	store := &PostgresStore{db: db}
	if err := store.migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*runRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create crew_runs table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, runID string) (*RunState, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, ErrInvalidRun
	}

	row := new(runRow)
	err := s.db.NewSelect().Model(row).Where("run_id = ?", runID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("select run state: %w", err)
	}
	return decodeRunState([]byte(row.Payload))
}

func (s *PostgresStore) Save(ctx context.Context, st *RunState) error {
	payload, err := encodeRunState(st)
	if err != nil {
		return err
	}

	row := &runRow{
		RunID:     strings.TrimSpace(st.RunID),
		Status:    string(st.Status),
		Payload:   string(payload),
		UpdatedAt: st.UpdatedAt,
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (run_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert run state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, runID string) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ErrInvalidRun
	}
	if _, err := s.db.NewDelete().Model((*runRow)(nil)).Where("run_id = ?", runID).Exec(ctx); err != nil {
		return fmt.Errorf("delete run state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
