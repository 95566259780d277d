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

package groups

import (
	"maps"
	"slices"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore"
)

const (
	DocumentVersion = 1

	PinnedID = "pinned"
	AllID    = "all"

	DefaultColor = "#2196F3"
)

// Group is a user-defined grouping of clients.
type Group struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Color        string `json:"color" yaml:"color"`
	DisplayOrder int    `json:"display_order" yaml:"display_order"`
	CreatedAt    string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Special carries display metadata for a built-in grouping. Membership of
// special groups is computed by the UI, never stored.
type Special struct {
	Name  string `json:"name" yaml:"name"`
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}

// Document is groups.json.
type Document struct {
	docstore.Stamp `yaml:",inline"`

	Version       int                `json:"version" yaml:"version"`
	Groups        []Group            `json:"groups" yaml:"groups"`
	SpecialGroups map[string]Special `json:"special_groups" yaml:"special_groups"`
}

func specialGroups() map[string]Special {
	return map[string]Special{
		PinnedID: {Name: "Pinned", Icon: "pin", Color: "#FFC107"},
		AllID:    {Name: "All Clients", Icon: "list", Color: "#9E9E9E"},
	}
}

// SpecialGroup returns the display metadata of a built-in group.
func SpecialGroup(id string) (Special, bool) {
	s, ok := specialGroups()[id]
	return s, ok
}

// IsSpecial reports whether id names one of the built-in groups.
func IsSpecial(id string) bool {
	return id == PinnedID || id == AllID
}

func newDocument() *Document {
	return &Document{
		Version:       DocumentVersion,
		Groups:        []Group{},
		SpecialGroups: specialGroups(),
	}
}

// repair restores the parts of the document every reader relies on. It
// reports whether anything had to change.
func (d *Document) repair() bool {
	changed := false
	if d.Version == 0 {
		d.Version = DocumentVersion
		changed = true
	}
	if d.Groups == nil {
		d.Groups = []Group{}
		changed = true
	}
	// Built-in ids are reserved; a custom entry using one is dropped.
	if n := len(d.Groups); n > 0 {
		d.Groups = slices.DeleteFunc(d.Groups, func(g Group) bool { return IsSpecial(g.ID) })
		changed = changed || len(d.Groups) != n
	}
	if d.SpecialGroups == nil {
		d.SpecialGroups = map[string]Special{}
	}
	for id, s := range specialGroups() {
		if _, ok := d.SpecialGroups[id]; !ok {
			d.SpecialGroups[id] = s
			changed = true
		}
	}
	return changed
}

func (d *Document) Clone() *Document {
	out := *d
	out.Groups = slices.Clone(d.Groups)
	out.SpecialGroups = maps.Clone(d.SpecialGroups)
	return &out
}

func (d *Document) indexOf(id string) int {
	return slices.IndexFunc(d.Groups, func(g Group) bool { return g.ID == id })
}

func (d *Document) nextDisplayOrder() int {
	if len(d.Groups) == 0 {
		return 0
	}
	highest := d.Groups[0].DisplayOrder
	for _, g := range d.Groups[1:] {
		highest = max(highest, g.DisplayOrder)
	}
	return highest + 1
}
