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

// Package migration upgrades domain config documents to the current schema.
//
// Documents arrive as untyped JSON objects because their shape depends on the
// version that wrote them. Each Step checks its own precondition and reports
// whether it changed anything, so running the pipeline on a current document
// is a no-op. Untyped documents never leave this package: Migrate returns the
// typed profile.DomainConfig.
package migration

import (
	"encoding/json"
	"fmt"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
)

// Document is a decoded JSON object of any schema version.
type Document = map[string]any

// Step is a pure upgrade: it never mutates its input.
type Step struct {
	Name  string
	Apply func(Document) (Document, bool)
}

// Steps run in this order on every load.
var Steps = []Step{
	{Name: "column_mappings_v2", Apply: upgradeColumnMappings},
	{Name: "split_csv_delimiter", Apply: splitCSVDelimiter},
	{Name: "tag_categories_baseline", Apply: backfillTagCategories},
}

// Run applies every step and returns the upgraded document together with
// the names of the steps that changed it.
func Run(doc Document) (Document, []string) {
	var applied []string
	for _, step := range Steps {
		next, changed := step.Apply(doc)
		if changed {
			applied = append(applied, step.Name)
		}
		doc = next
	}
	return doc, applied
}

// Migrate upgrades doc and decodes it. A non-empty applied list means the
// caller must persist the returned config.
func Migrate(doc Document) (*profile.DomainConfig, []string, error) {
	if doc == nil {
		doc = Document{}
	}
	upgraded, applied := Run(doc)
	cfg, err := decode(upgraded)
	if err != nil {
		return nil, nil, err
	}
	return cfg, applied, nil
}

func decode(doc Document) (*profile.DomainConfig, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode migrated document: %w", err)
	}
	var cfg profile.DomainConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode migrated document: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// cloneValue deep-copies decoded JSON.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneDocument(doc Document) Document {
	return cloneValue(doc).(map[string]any)
}
