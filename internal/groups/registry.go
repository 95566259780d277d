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

// Package groups manages the shared groups.json document: user-defined
// client groups plus the two built-in groups, which can never be removed.
package groups

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/configcache"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/idgen"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/layout"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/storeerr"
)

var (
	ErrEmptyName     = fmt.Errorf("%w: group name cannot be empty", storeerr.ErrValidationFailed)
	ErrDuplicateName = fmt.Errorf("%w: group name already exists", storeerr.ErrValidationFailed)
	ErrSpecialGroup  = fmt.Errorf("%w: built-in groups cannot be modified", storeerr.ErrValidationFailed)
	ErrGroupNotFound = fmt.Errorf("%w: group", storeerr.ErrNotFound)
)

// ClientDirectory is the view of the client registry that group
// operations need. *clients.Registry implements it.
type ClientDirectory interface {
	ListClients(ctx context.Context) []string
	GetUISettings(ctx context.Context, clientID string) (profile.UISettings, error)
	UpdateUISettings(ctx context.Context, clientID string, patch profile.UISettingsPatch) (bool, error)
}

// GroupUpdate carries the fields to change. Nil fields are left alone.
type GroupUpdate struct {
	Name  *string
	Color *string
}

type Registry struct {
	path   string
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
		path:   paths.GroupsFile(),
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("component", "groups")),
		now:    time.Now,
	}
}

// Load returns the groups document. A missing or unreadable document is
// replaced by a fresh one holding only the built-in groups, and that fresh
// document is written back before Load returns. The result may be shared;
// use Clone before changing it.
func (r *Registry) Load(ctx context.Context) (*Document, error) {
	return configcache.GetOrLoad(r.cache, r.path, func() (*Document, error) {
		return r.read(ctx)
	})
}

// read loads the document from disk, bypassing the cache, and writes back
// any repair it needed. Mutations start from read so that a group another
// workstation added since this process cached the document is kept.
func (r *Registry) read(ctx context.Context) (*Document, error) {
	doc, err := docstore.Load[*Document](r.store, r.path, nil)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = newDocument()
		r.logger.Info("Initializing groups document", slog.String("path", r.path))
	} else if !doc.repair() {
		return doc, nil
	} else {
		r.logger.Warn("Groups document was incomplete or invalid, repaired", slog.String("path", r.path))
	}
	if err := r.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save writes doc and drops the cached copy.
func (r *Registry) Save(ctx context.Context, doc *Document) error {
	if err := r.store.Save(ctx, r.path, doc); err != nil {
		return err
	}
	r.cache.Invalidate(r.path)
	return nil
}

// CreateGroup appends a new group after every existing one.
func (r *Registry) CreateGroup(ctx context.Context, name, color string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, ErrEmptyName
	}
	if color == "" {
		color = DefaultColor
	}

	doc, err := r.read(ctx)
	if err != nil {
		return Group{}, err
	}
	if err := checkDuplicate(doc, name, ""); err != nil {
		return Group{}, err
	}

	g := Group{
		ID:           idgen.NewGroupID(),
		Name:         name,
		Color:        color,
		DisplayOrder: doc.nextDisplayOrder(),
		CreatedAt:    r.now().Format(time.RFC3339),
	}
	doc.Groups = append(doc.Groups, g)
	if err := r.Save(ctx, doc); err != nil {
		return Group{}, err
	}

	r.logger.Info("Created group", slog.String("groupID", g.ID), slog.String("name", g.Name))
	return g, nil
}

// UpdateGroup renames or recolors a group.
func (r *Registry) UpdateGroup(ctx context.Context, id string, upd GroupUpdate) (Group, error) {
	if IsSpecial(id) {
		return Group{}, fmt.Errorf("%w: %s", ErrSpecialGroup, id)
	}

	var name string
	if upd.Name != nil {
		name = strings.TrimSpace(*upd.Name)
		if name == "" {
			return Group{}, ErrEmptyName
		}
	}

	doc, err := r.read(ctx)
	if err != nil {
		return Group{}, err
	}
	i := doc.indexOf(id)
	if i < 0 {
		return Group{}, fmt.Errorf("%w %s", ErrGroupNotFound, id)
	}

	g := doc.Groups[i]
	if upd.Name != nil {
		if err := checkDuplicate(doc, name, id); err != nil {
			return Group{}, err
		}
		g.Name = name
	}
	if upd.Color != nil {
		g.Color = *upd.Color
	}
	doc.Groups[i] = g

	if err := r.Save(ctx, doc); err != nil {
		return Group{}, err
	}
	return g, nil
}

// DeleteGroup removes a group. When clients is non-nil, every client
// assigned to the group is unassigned first; a failure for one client is
// logged and does not stop the others. It returns false if no group has
// that id.
func (r *Registry) DeleteGroup(ctx context.Context, id string, clients ClientDirectory) (bool, error) {
	if IsSpecial(id) {
		return false, fmt.Errorf("%w: %s", ErrSpecialGroup, id)
	}

	doc, err := r.read(ctx)
	if err != nil {
		return false, err
	}
	if doc.indexOf(id) < 0 {
		return false, nil
	}

	if clients != nil {
		r.unassignAll(ctx, id, clients)
	}

	// Reload in case unassignment took long enough for another writer to
	// change the document.
	doc, err = r.read(ctx)
	if err != nil {
		return false, err
	}
	i := doc.indexOf(id)
	if i < 0 {
		return false, nil
	}
	doc.Groups = slices.Delete(doc.Groups, i, i+1)
	if err := r.Save(ctx, doc); err != nil {
		return false, err
	}

	r.logger.Info("Deleted group", slog.String("groupID", id))
	return true, nil
}

func (r *Registry) unassignAll(ctx context.Context, id string, clients ClientDirectory) {
	members := r.GetClientsInGroup(ctx, id, clients)

	var errs *multierror.Error
	for _, clientID := range members {
		if _, err := clients.UpdateUISettings(ctx, clientID, profile.ClearGroup()); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("client %s: %w", clientID, err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		r.logger.Warn("Some clients could not be removed from deleted group",
			slog.String("groupID", id),
			slog.Int("failed", errs.Len()),
			slog.Int("members", len(members)),
			slog.Any("error", err))
	}
}

// ListGroups returns the user-defined groups ordered by display order.
func (r *Registry) ListGroups(ctx context.Context) ([]Group, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(doc.Groups)
	slices.SortStableFunc(out, func(a, b Group) int {
		return cmp.Compare(a.DisplayOrder, b.DisplayOrder)
	})
	return out, nil
}

// GetGroup looks up a user-defined group by id.
func (r *Registry) GetGroup(ctx context.Context, id string) (Group, bool, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return Group{}, false, err
	}
	i := doc.indexOf(id)
	if i < 0 {
		return Group{}, false, nil
	}
	return doc.Groups[i], true, nil
}

// GetClientsInGroup scans every client for an assignment to id. Clients
// whose settings cannot be read are logged and skipped.
func (r *Registry) GetClientsInGroup(ctx context.Context, id string, clients ClientDirectory) []string {
	members := []string{}
	for _, clientID := range clients.ListClients(ctx) {
		ui, err := clients.GetUISettings(ctx, clientID)
		if err != nil {
			r.logger.Warn("Skipping client with unreadable settings",
				slog.String("clientID", clientID), slog.Any("error", err))
			continue
		}
		if ui.GroupIDValue() == id {
			members = append(members, clientID)
		}
	}
	return members
}

// checkDuplicate rejects name if another group (other than exceptID)
// already uses it, ignoring case.
func checkDuplicate(doc *Document, name, exceptID string) error {
	for _, g := range doc.Groups {
		if g.ID != exceptID && strings.EqualFold(g.Name, name) {
			return fmt.Errorf("%w: %q", ErrDuplicateName, g.Name)
		}
	}
	return nil
}
