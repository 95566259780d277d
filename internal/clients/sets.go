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

package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/storeerr"
)

// GetSetDecoders returns a copy of the client's bundle definitions. An
// unknown client has none.
func (r *Registry) GetSetDecoders(ctx context.Context, clientID string) (map[string][]profile.SetComponent, error) {
	cfg, err := r.LoadDomainConfig(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return map[string][]profile.SetComponent{}, nil
	}
	return profile.CloneSetDecoders(cfg.SetDecoders), nil
}

// AddSet creates or replaces the bundle setSKU. The component list is
// validated before anything is read or written.
func (r *Registry) AddSet(ctx context.Context, clientID, setSKU string, components []profile.SetComponent) error {
	setSKU = strings.TrimSpace(setSKU)
	if err := validateSet(setSKU, components); err != nil {
		return err
	}

	cfg, err := r.requireDomainConfig(ctx, clientID)
	if err != nil {
		return err
	}
	_, replaced := cfg.SetDecoders[setSKU]
	cfg.SetDecoders[setSKU] = slices.Clone(components)
	if err := r.SaveDomainConfig(ctx, clientID, cfg); err != nil {
		return err
	}

	r.logger.Info("Saved set",
		slog.String("clientID", Canonical(clientID)),
		slog.String("set", setSKU),
		slog.Int("components", len(components)),
		slog.Bool("replaced", replaced))
	return nil
}

// DeleteSet removes the bundle setSKU. It returns false when the client or
// the set does not exist.
func (r *Registry) DeleteSet(ctx context.Context, clientID, setSKU string) (bool, error) {
	cfg, err := r.requireDomainConfig(ctx, clientID)
	if errors.Is(err, storeerr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	setSKU = strings.TrimSpace(setSKU)
	if _, ok := cfg.SetDecoders[setSKU]; !ok {
		return false, nil
	}

	delete(cfg.SetDecoders, setSKU)
	if err := r.SaveDomainConfig(ctx, clientID, cfg); err != nil {
		return false, err
	}
	r.logger.Info("Deleted set", slog.String("clientID", Canonical(clientID)), slog.String("set", setSKU))
	return true, nil
}

// SaveSetDecoders replaces every bundle definition at once. All entries
// are validated first; one bad entry rejects the whole batch.
func (r *Registry) SaveSetDecoders(ctx context.Context, clientID string, sets map[string][]profile.SetComponent) error {
	for sku, components := range sets {
		if err := validateSet(sku, components); err != nil {
			return err
		}
	}

	cfg, err := r.requireDomainConfig(ctx, clientID)
	if err != nil {
		return err
	}
	cfg.SetDecoders = profile.CloneSetDecoders(sets)
	return r.SaveDomainConfig(ctx, clientID, cfg)
}

func validateSet(setSKU string, components []profile.SetComponent) error {
	if strings.TrimSpace(setSKU) == "" {
		return fmt.Errorf("%w: set sku cannot be empty", ErrInvalidSet)
	}
	if err := profile.ValidateSetComponents(components); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSet, setSKU, err)
	}
	return nil
}
