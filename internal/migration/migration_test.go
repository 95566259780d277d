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

package migration

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func parse(t *testing.T, s string) Document {
	t.Helper()
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

const legacyDoc = `{
  "client_id": "M",
  "column_mappings": {
    "orders_required": ["Name", "Lineitem sku", "Fulfillment Status"],
    "stock_required": ["Артикул", "Наличност"]
  },
  "settings": {"low_stock_threshold": 3, "csv_delimiter": "|", "repeat_detection_days": 7},
  "tag_categories": {"fragile": {"label": "Fragile", "color": "#000000", "order": 9, "tags": ["GLASS"]}},
  "rules": [{"name": "keep me"}],
  "packaging_rules": [{"x": 1}]
}`

func TestMigrate_LegacyDocument(t *testing.T) {
	cfg, applied, err := Migrate(parse(t, legacyDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"column_mappings_v2", "split_csv_delimiter"}, applied)

	assert.Equal(t, profile.ColumnMappingsVersion, cfg.ColumnMappings.Version)
	assert.Equal(t, profile.FieldOrderNumber, cfg.ColumnMappings.Orders["Name"])
	assert.Equal(t, "Fulfillment Status", cfg.ColumnMappings.Orders["Fulfillment Status"])
	assert.Equal(t, profile.FieldStock, cfg.ColumnMappings.Stock["Наличност"])

	assert.Equal(t, 3, cfg.Settings.LowStockThreshold)
	assert.Equal(t, "|", cfg.Settings.StockCSVDelimiter)
	assert.Equal(t, profile.DefaultOrderCSVDelimiter, cfg.Settings.OrderCSVDelimiter)

	assert.Equal(t, []string{"fragile"}, keys(cfg.TagCategories))

	assert.JSONEq(t, `[{"name": "keep me"}]`, string(cfg.Rules))
	assert.JSONEq(t, `[{"x": 1}]`, string(cfg.Extra["packaging_rules"]))
	assert.JSONEq(t, `7`, string(cfg.Settings.Extra["repeat_detection_days"]))
}

func TestMigrate_UnknownKeysSurviveReencoding(t *testing.T) {
	cfg, _, err := Migrate(parse(t, legacyDoc))
	require.NoError(t, err)

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	out := parse(t, string(raw))

	assert.Equal(t, []any{map[string]any{"x": float64(1)}}, out["packaging_rules"])
	settings := out["settings"].(map[string]any)
	assert.Equal(t, float64(7), settings["repeat_detection_days"])
	assert.NotContains(t, settings, "csv_delimiter")
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func TestBackfillTagCategories(t *testing.T) {
	baseline := keys(profile.BaselineTagCategories())

	tests := []struct {
		name    string
		doc     string
		want    []string
		changed bool
	}{
		{"section missing", `{}`, baseline, true},
		{"section not an object", `{"tag_categories": []}`, baseline, true},
		{"baseline entry removed by user", `{"tag_categories": {"priority": {"label": "Priority"}}}`, []string{"priority"}, false},
		{"emptied by user", `{"tag_categories": {}}`, []string{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed := backfillTagCategories(parse(t, tt.doc))
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, keys(out["tag_categories"].(map[string]any)))
		})
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	once, applied := Run(parse(t, legacyDoc))
	require.NotEmpty(t, applied)

	for _, step := range Steps {
		_, changed := step.Apply(once)
		assert.False(t, changed, "step %s changed an already migrated document", step.Name)
	}

	twice, applied := Run(once)
	assert.Empty(t, applied)
	assert.Equal(t, once, twice)
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	in := parse(t, legacyDoc)
	snapshot := parse(t, legacyDoc)

	_, applied := Run(in)
	require.NotEmpty(t, applied)
	assert.Equal(t, snapshot, in)
}

func TestMigrate_EmptyDocumentGetsDefaults(t *testing.T) {
	cfg, applied, err := Migrate(nil)
	require.NoError(t, err)
	assert.Len(t, applied, 3)
	assert.Equal(t, profile.DefaultColumnMappings(), cfg.ColumnMappings)
	assert.Equal(t, profile.DefaultSettings(), cfg.Settings)
	assert.NotNil(t, cfg.SetDecoders)
}

func TestMigrate_CurrentDocumentUnchanged(t *testing.T) {
	current := profile.DefaultDomainConfig("M", "M", fixedTime)
	raw, err := json.Marshal(current)
	require.NoError(t, err)

	cfg, applied, err := Migrate(parse(t, string(raw)))
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Equal(t, current.ColumnMappings, cfg.ColumnMappings)
	assert.Equal(t, current.TagCategories, cfg.TagCategories)
}

func TestSplitCSVDelimiter(t *testing.T) {
	tests := []struct {
		name      string
		settings  string
		wantOrder string
		wantStock string
		changed   bool
	}{
		{"legacy only", `{"csv_delimiter": ";"}`, ",", ";", true},
		{"legacy with order present", `{"csv_delimiter": "\t", "order_csv_delimiter": ";"}`, ";", "\t", true},
		{"missing both", `{"low_stock_threshold": 1}`, ",", ";", true},
		{"already split", `{"order_csv_delimiter": ";", "stock_csv_delimiter": ","}`, ";", ",", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, `{"settings": `+tt.settings+`}`)
			out, changed := splitCSVDelimiter(doc)
			assert.Equal(t, tt.changed, changed)
			s := out["settings"].(map[string]any)
			assert.Equal(t, tt.wantOrder, s["order_csv_delimiter"])
			assert.Equal(t, tt.wantStock, s["stock_csv_delimiter"])
			assert.NotContains(t, s, "csv_delimiter")
		})
	}
}

func TestColumnMappingsVersion(t *testing.T) {
	assert.Equal(t, 0, columnMappingsVersion(nil))
	assert.Equal(t, 0, columnMappingsVersion("nonsense"))
	assert.Equal(t, 1, columnMappingsVersion(map[string]any{"orders_required": []any{}}))
	assert.Equal(t, 2, columnMappingsVersion(map[string]any{"version": float64(2)}))
}

func TestMigrate_UndecodableDocument(t *testing.T) {
	_, _, err := Migrate(parse(t, `{"set_decoders": {"SET-1": "not a list"}}`))
	assert.Error(t, err)
}
