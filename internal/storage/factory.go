// Package storage selects the portfolio store backend.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/storage/memory"
	"github.com/bobmcallan/stocktrader/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendMemory    = "memory"
	BackendSurrealDB = "surrealdb"
)

// NewPortfolioStore creates a store based on the configuration.
// Supported backends: "memory" (default), "surrealdb".
func NewPortfolioStore(ctx context.Context, logger *common.Logger, config common.StorageConfig) (interfaces.PortfolioStore, error) {
	backend := strings.ToLower(strings.TrimSpace(config.Backend))
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		logger.Info().Msg("Using in-memory portfolio store")
		return memory.NewStore(logger), nil

	case BackendSurrealDB:
		return surrealdb.NewStore(ctx, logger, config)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: memory, surrealdb)", backend)
	}
}
