// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/config"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/clients"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/configcache"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/groups"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/layout"
)

// services is the object graph every storage command works against. One
// cache is shared by both registries for the life of the command.
type services struct {
	paths   layout.Paths
	store   *docstore.Store
	cache   *configcache.Cache
	clients *clients.Registry
	groups  *groups.Registry

	shutdownMetrics func(context.Context) error
}

// openServices verifies the storage root is writable and wires the
// registries. Callers must Close the result.
func openServices(cfg *config.Config) (*services, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	paths := layout.New(cfg.Root)
	if err := paths.EnsureWritable(); err != nil {
		return nil, err
	}

	shutdownMetrics, err := setupMetrics(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	cache := configcache.New(cfg.Cache.TTL)
	opts := cfg.StoreOptions()
	opts.Logger = logger
	opts.Invalidator = cache
	store := docstore.New(opts)

	slog.Debug("Storage opened",
		slog.String("root", cfg.Root),
		slog.String("author", store.Author()),
		slog.Duration("cacheTTL", cfg.Cache.TTL))

	return &services{
		paths:   paths,
		store:   store,
		cache:   cache,
		clients: clients.NewRegistry(paths, store, cache, logger),
		groups:  groups.NewRegistry(paths, store, cache, logger),

		shutdownMetrics: shutdownMetrics,
	}, nil
}

// Close flushes collected metrics.
func (s *services) Close() {
	if err := s.shutdownMetrics(context.Background()); err != nil {
		slog.Warn("Failed to flush metrics", slog.Any("error", err))
	}
}
