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

// Package clients manages client profiles: one directory per client holding
// a general config and a domain config, each read through the shared cache
// and written through the document store.
package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/configcache"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/layout"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/migration"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/storeerr"
)

type Registry struct {
	paths  layout.Paths
	store  *docstore.Store
	cache  *configcache.Cache
	logger *slog.Logger
	now    func() time.Time
}

func NewRegistry(paths layout.Paths, store *docstore.Store, cache *configcache.Cache, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		paths:  paths,
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("component", "clients")),
		now:    time.Now,
	}
}

// resolve canonicalizes clientID. ok is false for ids that could never name
// a client, which also keeps path components out of file names.
func resolve(clientID string) (string, bool) {
	id := Canonical(clientID)
	ok, _ := ValidateClientID(id)
	return id, ok
}

// ClientExists reports whether the client's directory exists.
func (r *Registry) ClientExists(clientID string) bool {
	id, ok := resolve(clientID)
	if !ok {
		return false
	}
	info, err := os.Stat(r.paths.ClientDir(id))
	return err == nil && info.IsDir()
}

// CreateClientProfile creates the client directory with default documents
// and the client's session directory. It returns false without error when
// the client already exists. If anything fails after the directory was
// made, the directory is removed again.
func (r *Registry) CreateClientProfile(ctx context.Context, clientID, clientName string) (bool, error) {
	id := Canonical(clientID)
	if ok, reason := ValidateClientID(id); !ok {
		return false, validationError(clientID, reason)
	}
	if clientName == "" {
		clientName = id
	}

	if err := os.MkdirAll(r.paths.ClientsDir(), 0755); err != nil {
		return false, fmt.Errorf("create clients dir: %w", err)
	}
	dir := r.paths.ClientDir(id)
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			r.logger.Info("Client profile already exists", slog.String("clientID", id))
			return false, nil
		}
		return false, fmt.Errorf("create client dir: %w", err)
	}

	if err := r.populateProfile(ctx, id, clientName); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			r.logger.Error("Failed to roll back partial client profile",
				slog.String("clientID", id), slog.String("dir", dir), slog.Any("error", rmErr))
		}
		return false, fmt.Errorf("create client %s: %w", id, err)
	}

	r.logger.Info("Created client profile", slog.String("clientID", id), slog.String("clientName", clientName))
	return true, nil
}

func (r *Registry) populateProfile(ctx context.Context, id, name string) error {
	now := r.now()
	if err := os.MkdirAll(layout.BackupsDir(r.paths.GeneralConfigFile(id)), 0755); err != nil {
		return fmt.Errorf("create backups dir: %w", err)
	}
	if err := r.SaveGeneralConfig(ctx, id, profile.DefaultGeneralConfig(id, name, now)); err != nil {
		return err
	}
	if err := r.SaveDomainConfig(ctx, id, profile.DefaultDomainConfig(id, name, now)); err != nil {
		return err
	}
	if err := os.MkdirAll(r.paths.ClientSessionsDir(id), 0755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}
	return nil
}

// LoadGeneralConfig returns the client's general config, or nil if the
// client does not exist. The returned value may be shared with other
// callers until the cache entry expires; copy it before mutating.
func (r *Registry) LoadGeneralConfig(ctx context.Context, clientID string) (*profile.GeneralConfig, error) {
	id, ok := resolve(clientID)
	if !ok || !r.ClientExists(id) {
		return nil, nil
	}
	path := r.paths.GeneralConfigFile(id)
	return configcache.GetOrLoad(r.cache, path, func() (*profile.GeneralConfig, error) {
		return r.readGeneralConfig(id)
	})
}

// readGeneralConfig reads the document from disk, bypassing the cache.
// Read-modify-write paths use it so they never build on a stale copy.
func (r *Registry) readGeneralConfig(id string) (*profile.GeneralConfig, error) {
	defaults := profile.DefaultGeneralConfig(id, id, r.now())
	cfg, err := docstore.Load(r.store, r.paths.GeneralConfigFile(id), defaults)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = defaults
	}
	cfg.UISettings.Normalize()
	return cfg, nil
}

// LoadClientConfigExtended merges the general config with derived metadata.
func (r *Registry) LoadClientConfigExtended(ctx context.Context, clientID string) (*profile.ExtendedGeneralConfig, error) {
	cfg, err := r.LoadGeneralConfig(ctx, clientID)
	if err != nil || cfg == nil {
		return nil, err
	}
	return &profile.ExtendedGeneralConfig{
		GeneralConfig: *cfg.Clone(),
		Metadata:      r.CalculateMetadata(clientID),
	}, nil
}

// SaveGeneralConfig replaces the client's general config. The client must
// already exist; profiles are only created by CreateClientProfile.
func (r *Registry) SaveGeneralConfig(ctx context.Context, clientID string, cfg *profile.GeneralConfig) error {
	id, err := r.requireClient(clientID)
	if err != nil {
		return err
	}
	path := r.paths.GeneralConfigFile(id)
	if err := r.store.Save(ctx, path, cfg); err != nil {
		return err
	}
	r.cache.Invalidate(path)
	return nil
}

// LoadDomainConfig returns the client's domain config at the current
// schema version, or nil if the client does not exist. If the stored
// document needed migrating, the migrated form is saved before returning.
func (r *Registry) LoadDomainConfig(ctx context.Context, clientID string) (*profile.DomainConfig, error) {
	id, ok := resolve(clientID)
	if !ok || !r.ClientExists(id) {
		return nil, nil
	}
	path := r.paths.DomainConfigFile(id)
	return configcache.GetOrLoad(r.cache, path, func() (*profile.DomainConfig, error) {
		cfg, _, err := r.loadAndMigrate(ctx, id, path)
		return cfg, err
	})
}

// MigrateDomainConfig upgrades the stored domain config in place, reading
// it from disk rather than the cache. It returns the names of the steps
// that were applied; none means the document was already current.
func (r *Registry) MigrateDomainConfig(ctx context.Context, clientID string) ([]string, error) {
	id, ok := resolve(clientID)
	if !ok || !r.ClientExists(id) {
		return nil, fmt.Errorf("%w: client %s", storeerr.ErrNotFound, Canonical(clientID))
	}
	path := r.paths.DomainConfigFile(id)
	_, applied, err := r.loadAndMigrate(ctx, id, path)
	if err != nil {
		return nil, err
	}
	if len(applied) > 0 {
		r.cache.Invalidate(path)
	}
	return applied, nil
}

func (r *Registry) loadAndMigrate(ctx context.Context, id, path string) (*profile.DomainConfig, []string, error) {
	raw, err := docstore.Load[migration.Document](r.store, path, nil)
	if err != nil {
		return nil, nil, err
	}
	cfg, applied, err := migration.Migrate(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("client %s domain config: %w", id, err)
	}
	if len(applied) == 0 {
		return cfg, nil, nil
	}

	if cfg.ClientID == "" {
		cfg.ClientID = id
	}
	r.logger.Info("Migrated domain config",
		slog.String("clientID", id),
		slog.Any("steps", applied))
	if err := r.store.Save(ctx, path, cfg); err != nil {
		return nil, nil, fmt.Errorf("persist migrated domain config for %s: %w", id, err)
	}
	return cfg, applied, nil
}

// SaveDomainConfig replaces the client's domain config. The client must
// already exist.
func (r *Registry) SaveDomainConfig(ctx context.Context, clientID string, cfg *profile.DomainConfig) error {
	id, err := r.requireClient(clientID)
	if err != nil {
		return err
	}
	path := r.paths.DomainConfigFile(id)
	if err := r.store.Save(ctx, path, cfg); err != nil {
		return err
	}
	r.cache.Invalidate(path)
	return nil
}

// GetUISettings returns the client's UI settings, or the defaults when the
// client does not exist.
func (r *Registry) GetUISettings(ctx context.Context, clientID string) (profile.UISettings, error) {
	cfg, err := r.LoadGeneralConfig(ctx, clientID)
	if err != nil {
		return profile.DefaultUISettings(), err
	}
	if cfg == nil {
		return profile.DefaultUISettings(), nil
	}
	return cfg.UISettings.Clone(), nil
}

// UpdateUISettings merges patch into the stored settings. Fields the patch
// leaves nil keep their stored values. It returns false when the client
// does not exist.
func (r *Registry) UpdateUISettings(ctx context.Context, clientID string, patch profile.UISettingsPatch) (bool, error) {
	id, ok := resolve(clientID)
	if !ok || !r.ClientExists(id) {
		return false, nil
	}
	cfg, err := r.readGeneralConfig(id)
	if err != nil {
		return false, err
	}

	cfg.UISettings = cfg.UISettings.Apply(patch)
	if err := r.SaveGeneralConfig(ctx, id, cfg); err != nil {
		return false, err
	}
	return true, nil
}

// ListClients returns the canonical ids of every client directory, sorted.
// Read failures are logged and produce an empty list.
func (r *Registry) ListClients(ctx context.Context) []string {
	entries, err := os.ReadDir(r.paths.ClientsDir())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("Failed to list clients", slog.String("dir", r.paths.ClientsDir()), slog.Any("error", err))
		}
		return []string{}
	}

	ids := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if id, ok := layout.ClientIDFromDirName(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// requireClient resolves clientID to an existing client.
func (r *Registry) requireClient(clientID string) (string, error) {
	id, ok := resolve(clientID)
	if !ok {
		return "", validationError(clientID, "not a valid client id")
	}
	if !r.ClientExists(id) {
		return "", fmt.Errorf("%w: client %s", storeerr.ErrNotFound, id)
	}
	return id, nil
}

// requireDomainConfig reads the domain config from disk for mutation. The
// result is private to the caller.
func (r *Registry) requireDomainConfig(ctx context.Context, clientID string) (*profile.DomainConfig, error) {
	id, err := r.requireClient(clientID)
	if err != nil {
		if errors.Is(err, storeerr.ErrValidationFailed) {
			return nil, fmt.Errorf("%w: client %s", storeerr.ErrNotFound, Canonical(clientID))
		}
		return nil, err
	}
	path := r.paths.DomainConfigFile(id)
	cfg, applied, err := r.loadAndMigrate(ctx, id, path)
	if err != nil {
		return nil, err
	}
	if len(applied) > 0 {
		r.cache.Invalidate(path)
	}
	return cfg, nil
}
