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

// Package profile defines the per-client documents kept on the shared store.
package profile

import (
	"maps"
	"slices"
	"time"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore"
)

const (
	DefaultCustomColor = "#4CAF50"
	tableViewVersion   = 1
)

// GeneralConfig is client_config.json.
type GeneralConfig struct {
	docstore.Stamp `yaml:",inline"`

	ClientID   string     `json:"client_id" yaml:"client_id"`
	ClientName string     `json:"client_name" yaml:"client_name"`
	CreatedAt  string     `json:"created_at" yaml:"created_at"`
	UISettings UISettings `json:"ui_settings" yaml:"ui_settings"`
}

type UISettings struct {
	IsPinned     bool           `json:"is_pinned" yaml:"is_pinned"`
	GroupID      *string        `json:"group_id" yaml:"group_id"`
	CustomColor  string         `json:"custom_color" yaml:"custom_color"`
	CustomBadges []string       `json:"custom_badges" yaml:"custom_badges"`
	DisplayOrder int            `json:"display_order" yaml:"display_order"`
	TableView    map[string]any `json:"table_view" yaml:"table_view"`
}

// UISettingsPatch is a partial update. Nil fields are left unchanged.
// GroupID pointing at the empty string clears the group assignment.
type UISettingsPatch struct {
	IsPinned     *bool
	GroupID      *string
	CustomColor  *string
	CustomBadges *[]string
	DisplayOrder *int
	TableView    map[string]any
}

// ClearGroup returns a patch that removes the group assignment.
func ClearGroup() UISettingsPatch {
	empty := ""
	return UISettingsPatch{GroupID: &empty}
}

// AssignGroup returns a patch that moves the client into groupID.
func AssignGroup(groupID string) UISettingsPatch {
	return UISettingsPatch{GroupID: &groupID}
}

// ClientMetadata is derived from the session directories on every read and
// never persisted.
type ClientMetadata struct {
	TotalSessions   int    `json:"total_sessions" yaml:"total_sessions"`
	LastSessionDate string `json:"last_session_date,omitempty" yaml:"last_session_date,omitempty"`
	LastAccessed    string `json:"last_accessed,omitempty" yaml:"last_accessed,omitempty"`
}

// ExtendedGeneralConfig is the general config merged with its metadata.
type ExtendedGeneralConfig struct {
	GeneralConfig `yaml:",inline"`
	Metadata      ClientMetadata `json:"metadata" yaml:"metadata"`
}

func DefaultUISettings() UISettings {
	return UISettings{
		CustomColor:  DefaultCustomColor,
		CustomBadges: []string{},
		TableView:    defaultTableView(),
	}
}

func defaultTableView() map[string]any {
	return map[string]any{
		"version":         tableViewVersion,
		"visible_columns": map[string]any{},
		"column_order":    []any{},
		"column_widths":   map[string]any{},
	}
}

func DefaultGeneralConfig(clientID, clientName string, now time.Time) *GeneralConfig {
	return &GeneralConfig{
		ClientID:   clientID,
		ClientName: clientName,
		CreatedAt:  now.Format(time.RFC3339),
		UISettings: DefaultUISettings(),
	}
}

// Normalize fills fields that older documents may lack.
func (u *UISettings) Normalize() {
	if u.CustomColor == "" {
		u.CustomColor = DefaultCustomColor
	}
	if u.CustomBadges == nil {
		u.CustomBadges = []string{}
	}
	if u.TableView == nil {
		u.TableView = defaultTableView()
	}
	if u.GroupID != nil && *u.GroupID == "" {
		u.GroupID = nil
	}
}

// Apply returns a copy of u with the patch merged in.
func (u UISettings) Apply(p UISettingsPatch) UISettings {
	out := u.Clone()
	if p.IsPinned != nil {
		out.IsPinned = *p.IsPinned
	}
	if p.GroupID != nil {
		if *p.GroupID == "" {
			out.GroupID = nil
		} else {
			id := *p.GroupID
			out.GroupID = &id
		}
	}
	if p.CustomColor != nil {
		out.CustomColor = *p.CustomColor
	}
	if p.CustomBadges != nil {
		out.CustomBadges = slices.Clone(*p.CustomBadges)
	}
	if p.DisplayOrder != nil {
		out.DisplayOrder = *p.DisplayOrder
	}
	if p.TableView != nil {
		out.TableView = maps.Clone(p.TableView)
	}
	return out
}

// Clone copies the settings. TableView is copied one level deep; its
// nested values are treated as opaque and never mutated in place.
func (u UISettings) Clone() UISettings {
	out := u
	if u.GroupID != nil {
		id := *u.GroupID
		out.GroupID = &id
	}
	out.CustomBadges = slices.Clone(u.CustomBadges)
	out.TableView = maps.Clone(u.TableView)
	return out
}

// GroupIDValue returns the assigned group or "" when unassigned.
func (u UISettings) GroupIDValue() string {
	if u.GroupID == nil {
		return ""
	}
	return *u.GroupID
}

func (g *GeneralConfig) Clone() *GeneralConfig {
	out := *g
	out.UISettings = g.UISettings.Clone()
	return &out
}
