// Package surrealdb provides a SurrealDB-backed portfolio store
package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
)

const (
	portfolioTable = "portfolio"

	defaultMaxRetries = 3
)

// Store implements interfaces.PortfolioStore using SurrealDB. Updates use
// optimistic concurrency on the version field.
type Store struct {
	db         *surrealdb.DB
	logger     *common.Logger
	maxRetries int
	now        func() time.Time
}

// NewStore connects to SurrealDB and ensures the portfolio table exists.
func NewStore(ctx context.Context, logger *common.Logger, config common.StorageConfig) (*Store, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	s, err := newStore(ctx, db, logger, config.MaxRetries)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB portfolio store initialized")

	return s, nil
}

// newStore wraps an already selected database connection.
func newStore(ctx context.Context, db *surrealdb.DB, logger *common.Logger, maxRetries int) (*Store, error) {
	// SurrealDB v3 errors on querying non-existent tables
	sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", portfolioTable)
	if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
		return nil, fmt.Errorf("failed to define table %s: %w", portfolioTable, err)
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Store{db: db, logger: logger, maxRetries: maxRetries, now: time.Now}, nil
}

func rid(owner string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(portfolioTable, owner)
}

func (s *Store) Create(ctx context.Context, p *models.Portfolio) error {
	record := toRecord(p)
	record.Version = 1
	now := s.now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	sql := "CREATE $rid CONTENT $record"
	vars := map[string]any{"rid": rid(p.Owner), "record": record}

	if _, err := surrealdb.Query[[]portfolioRecord](ctx, s.db, sql, vars); err != nil {
		if isAlreadyExistsError(err) {
			return fmt.Errorf("portfolio %s: %w", p.Owner, common.ErrConflict)
		}
		return fmt.Errorf("failed to create portfolio %s: %w", p.Owner, err)
	}
	p.Version = record.Version
	return nil
}

func (s *Store) Get(ctx context.Context, owner string) (*models.Portfolio, error) {
	record, err := surrealdb.Select[portfolioRecord](ctx, s.db, rid(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to select portfolio %s: %w", owner, err)
	}
	if record == nil || record.Owner == "" {
		return nil, common.ErrNotFound
	}
	return record.toModel(), nil
}

func (s *Store) List(ctx context.Context) ([]*models.Portfolio, error) {
	sql := fmt.Sprintf("SELECT * FROM %s ORDER BY owner ASC", portfolioTable)
	results, err := surrealdb.Query[[]portfolioRecord](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	out := make([]*models.Portfolio, 0)
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			out = append(out, (*results)[0].Result[i].toModel())
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, owner string) (*models.Portfolio, error) {
	sql := "DELETE $rid RETURN BEFORE"
	vars := map[string]any{"rid": rid(owner)}

	results, err := surrealdb.Query[[]portfolioRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to delete portfolio %s: %w", owner, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, common.ErrNotFound
	}
	return (*results)[0].Result[0].toModel(), nil
}

// Update reads the portfolio, applies fn and writes it back only if the
// stored version is unchanged. On a version clash the whole cycle is
// retried, up to maxRetries attempts, after which common.ErrConflict is
// returned.
func (s *Store) Update(ctx context.Context, owner string, fn interfaces.UpdateFunc) (*models.Portfolio, error) {
	sql := "UPDATE $rid CONTENT $record WHERE version = $expected RETURN AFTER"

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		current, err := s.Get(ctx, owner)
		if err != nil {
			return nil, err
		}

		expected := current.Version
		if err := fn(current); err != nil {
			return nil, err
		}
		current.Owner = owner
		current.Version = expected + 1

		vars := map[string]any{
			"rid":      rid(owner),
			"record":   toRecord(current),
			"expected": expected,
		}
		results, err := surrealdb.Query[[]portfolioRecord](ctx, s.db, sql, vars)
		if err != nil {
			return nil, fmt.Errorf("failed to update portfolio %s: %w", owner, err)
		}
		if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
			return (*results)[0].Result[0].toModel(), nil
		}

		s.logger.Debug().Str("owner", owner).Int64("version", expected).Int("attempt", attempt).Msg("Portfolio version conflict, retrying")
	}

	return nil, fmt.Errorf("portfolio %s changed concurrently %d times: %w", owner, s.maxRetries, common.ErrConflict)
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, s.db, "RETURN true", nil); err != nil {
		return fmt.Errorf("surrealdb ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

func isAlreadyExistsError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

var _ interfaces.PortfolioStore = (*Store)(nil)
