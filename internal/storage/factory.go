// Package storage opens the chart cache slot for the configured backend.
package storage

import (
	"context"
	"fmt"

	"github.com/bobmcallan/timesup-portal/internal/cache"
	"github.com/bobmcallan/timesup-portal/internal/common"
	"github.com/bobmcallan/timesup-portal/internal/config"
	"github.com/bobmcallan/timesup-portal/internal/interfaces"
	"github.com/bobmcallan/timesup-portal/internal/storage/badger"
)

// NewChartStore returns the chart cache slot for cfg.Cache.Backend. The
// storage manager is nil for the memory backend; otherwise the caller closes it.
func NewChartStore(ctx context.Context, cfg *config.Config, logger *common.Logger) (cache.Store, interfaces.StorageManager, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemoryStore(), nil, nil
	case "badger":
		mgr, err := badger.NewManager(logger, &cfg.Storage.Badger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open chart cache storage: %w", err)
		}
		store, err := cache.NewPersistedStore(ctx, mgr.KeyValueStorage(), config.DeployMarker(), logger)
		if err != nil {
			mgr.Close()
			return nil, nil, err
		}
		return store, mgr, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
