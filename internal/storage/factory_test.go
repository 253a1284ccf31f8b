package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/storage/memory"
)

func TestNewPortfolioStore_DefaultsToMemory(t *testing.T) {
	for _, backend := range []string{"", "memory", " MEMORY "} {
		store, err := NewPortfolioStore(context.Background(), common.NewSilentLogger(), common.StorageConfig{Backend: backend})
		require.NoError(t, err, backend)
		assert.IsType(t, &memory.Store{}, store)
	}
}

func TestNewPortfolioStore_UnknownBackend(t *testing.T) {
	_, err := NewPortfolioStore(context.Background(), common.NewSilentLogger(), common.StorageConfig{Backend: "badger"})
	assert.Error(t, err)
}
