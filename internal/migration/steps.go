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

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
)

const (
	keyColumnMappings = "column_mappings"
	keySettings       = "settings"
	keyTagCategories  = "tag_categories"

	keyLegacyDelimiter = "csv_delimiter"
	keyOrderDelimiter  = "order_csv_delimiter"
	keyStockDelimiter  = "stock_csv_delimiter"
)

// v1 column mappings: flat lists of the headers each input had to contain.
type columnMappingsV1 struct {
	OrdersRequired []string `json:"orders_required"`
	StockRequired  []string `json:"stock_required"`
}

// columnMappingsVersion returns 0 when the section is missing, the explicit
// version when present, and 1 for the unversioned legacy shape.
func columnMappingsVersion(section any) int {
	m, ok := section.(map[string]any)
	if !ok {
		return 0
	}
	if v, ok := m["version"].(float64); ok {
		return int(v)
	}
	return 1
}

func upgradeColumnMappings(doc Document) (Document, bool) {
	version := columnMappingsVersion(doc[keyColumnMappings])
	if version >= profile.ColumnMappingsVersion {
		return doc, false
	}

	out := cloneDocument(doc)
	mappings := profile.DefaultColumnMappings()
	if version == 1 {
		var legacy columnMappingsV1
		if err := convert(doc[keyColumnMappings], &legacy); err == nil {
			addIdentityColumns(mappings.Orders, legacy.OrdersRequired)
			addIdentityColumns(mappings.Stock, legacy.StockRequired)
		}
	}
	out[keyColumnMappings] = toValue(mappings)
	return out, true
}

// addIdentityColumns keeps required headers that the default mapping does
// not know about, mapped onto a field of the same name.
func addIdentityColumns(mapping map[string]string, required []string) {
	for _, col := range required {
		if col == "" {
			continue
		}
		if _, ok := mapping[col]; !ok {
			mapping[col] = col
		}
	}
}

// splitCSVDelimiter replaces the single legacy delimiter, which described
// the stock export, with separate stock and order delimiters.
func splitCSVDelimiter(doc Document) (Document, bool) {
	settings, ok := doc[keySettings].(map[string]any)
	if !ok {
		out := cloneDocument(doc)
		out[keySettings] = toValue(profile.DefaultSettings())
		return out, true
	}

	legacy, hasLegacy := settings[keyLegacyDelimiter]
	_, hasOrder := settings[keyOrderDelimiter]
	_, hasStock := settings[keyStockDelimiter]
	if !hasLegacy && hasOrder && hasStock {
		return doc, false
	}

	out := cloneDocument(doc)
	s := out[keySettings].(map[string]any)
	if hasLegacy {
		if !hasStock {
			s[keyStockDelimiter] = legacy
			hasStock = true
		}
		delete(s, keyLegacyDelimiter)
	}
	if !hasStock {
		s[keyStockDelimiter] = profile.DefaultStockCSVDelimiter
	}
	if !hasOrder {
		s[keyOrderDelimiter] = profile.DefaultOrderCSVDelimiter
	}
	return out, true
}

// backfillTagCategories seeds the baseline categories into documents that
// predate tag categories. A section that exists is left alone, including
// one from which the user removed baseline entries.
func backfillTagCategories(doc Document) (Document, bool) {
	if _, ok := doc[keyTagCategories].(map[string]any); ok {
		return doc, false
	}

	out := cloneDocument(doc)
	out[keyTagCategories] = toValue(profile.BaselineTagCategories())
	return out, true
}

// toValue converts a typed value into its decoded-JSON form.
func toValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func convert(in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
