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

package profile

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore"
)

// ColumnMappingsVersion is the only column mapping shape callers ever see.
// Older shapes exist solely inside the migration package.
const ColumnMappingsVersion = 2

// Internal field names that input columns are mapped onto.
const (
	FieldOrderNumber        = "Order_Number"
	FieldSKU                = "SKU"
	FieldQuantity           = "Quantity"
	FieldProductName        = "Product_Name"
	FieldShippingProvider   = "Shipping_Provider"
	FieldDestinationCountry = "Destination_Country"
	FieldTags               = "Tags"
	FieldNotes              = "Notes"
	FieldTotalPrice         = "Total_Price"
	FieldStock              = "Stock"
)

const (
	DefaultOrderCSVDelimiter = ","
	DefaultStockCSVDelimiter = ";"
	DefaultLowStockThreshold = 5
)

// DomainConfig is shopify_config.json.
type DomainConfig struct {
	docstore.Stamp `yaml:",inline"`

	ClientID        string                    `json:"client_id" yaml:"client_id"`
	ClientName      string                    `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	CreatedAt       string                    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	ColumnMappings  ColumnMappings            `json:"column_mappings" yaml:"column_mappings"`
	CourierMappings map[string]CourierMapping `json:"courier_mappings" yaml:"courier_mappings"`
	Settings        Settings                  `json:"settings" yaml:"settings"`
	SetDecoders     map[string][]SetComponent `json:"set_decoders" yaml:"set_decoders"`
	TagCategories   map[string]TagCategory    `json:"tag_categories" yaml:"tag_categories"`

	// Owned by the rule engine and report generators; carried verbatim.
	Rules              json.RawMessage `json:"rules,omitempty" yaml:"-"`
	OrderRules         json.RawMessage `json:"order_rules,omitempty" yaml:"-"`
	PackingListConfigs json.RawMessage `json:"packing_list_configs,omitempty" yaml:"-"`
	StockExportConfigs json.RawMessage `json:"stock_export_configs,omitempty" yaml:"-"`

	// Extra keeps top-level keys this package does not model.
	Extra Extra `json:"-" yaml:"-"`
}

type domainConfigFields DomainConfig

var domainConfigKeys = jsonKeys(reflect.TypeOf(domainConfigFields{}))

func (d DomainConfig) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(domainConfigFields(d))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, d.Extra)
}

func (d *DomainConfig) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	var fields domainConfigFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitExtra(data, domainConfigKeys)
	if err != nil {
		return err
	}
	*d = DomainConfig(fields)
	d.Extra = extra
	return nil
}

// ColumnMappings maps source column headers to internal field names,
// separately for each input kind.
type ColumnMappings struct {
	Version int               `json:"version" yaml:"version"`
	Orders  map[string]string `json:"orders" yaml:"orders"`
	Stock   map[string]string `json:"stock" yaml:"stock"`
}

type CourierMapping struct {
	Patterns      []string `json:"patterns" yaml:"patterns"`
	CaseSensitive bool     `json:"case_sensitive" yaml:"case_sensitive"`
}

type Settings struct {
	LowStockThreshold int    `json:"low_stock_threshold" yaml:"low_stock_threshold"`
	OrderCSVDelimiter string `json:"order_csv_delimiter" yaml:"order_csv_delimiter"`
	StockCSVDelimiter string `json:"stock_csv_delimiter" yaml:"stock_csv_delimiter"`

	Extra Extra `json:"-" yaml:"-"`
}

type settingsFields Settings

var settingsKeys = jsonKeys(reflect.TypeOf(settingsFields{}))

func (s Settings) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(settingsFields(s))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, s.Extra)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		return nil
	}
	var fields settingsFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitExtra(data, settingsKeys)
	if err != nil {
		return err
	}
	*s = Settings(fields)
	s.Extra = extra
	return nil
}

// SetComponent is one line of a bundle: Quantity units of SKU.
type SetComponent struct {
	SKU      string `json:"sku" yaml:"sku"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

type TagCategory struct {
	Label string   `json:"label" yaml:"label"`
	Color string   `json:"color" yaml:"color"`
	Order int      `json:"order" yaml:"order"`
	Tags  []string `json:"tags" yaml:"tags"`
}

// DefaultOrderColumns is the Shopify order export header mapping.
func DefaultOrderColumns() map[string]string {
	return map[string]string{
		"Name":              FieldOrderNumber,
		"Lineitem sku":      FieldSKU,
		"Lineitem quantity": FieldQuantity,
		"Lineitem name":     FieldProductName,
		"Shipping Method":   FieldShippingProvider,
		"Shipping Country":  FieldDestinationCountry,
		"Tags":              FieldTags,
		"Notes":             FieldNotes,
		"Total":             FieldTotalPrice,
	}
}

// DefaultStockColumns is the warehouse stock export header mapping.
func DefaultStockColumns() map[string]string {
	return map[string]string{
		"Артикул":   FieldSKU,
		"Име":       FieldProductName,
		"Наличност": FieldStock,
	}
}

func DefaultColumnMappings() ColumnMappings {
	return ColumnMappings{
		Version: ColumnMappingsVersion,
		Orders:  DefaultOrderColumns(),
		Stock:   DefaultStockColumns(),
	}
}

func DefaultCourierMappings() map[string]CourierMapping {
	return map[string]CourierMapping{
		"DHL":    {Patterns: []string{"dhl"}},
		"DPD":    {Patterns: []string{"dpd"}},
		"Speedy": {Patterns: []string{"speedy"}},
	}
}

func DefaultSettings() Settings {
	return Settings{
		LowStockThreshold: DefaultLowStockThreshold,
		OrderCSVDelimiter: DefaultOrderCSVDelimiter,
		StockCSVDelimiter: DefaultStockCSVDelimiter,
	}
}

// BaselineTagCategories are the categories every client has at minimum.
func BaselineTagCategories() map[string]TagCategory {
	return map[string]TagCategory{
		"packaging": {Label: "Packaging", Color: "#2196F3", Order: 1, Tags: []string{"BOX", "BAG", "ENVELOPE"}},
		"priority":  {Label: "Priority", Color: "#F44336", Order: 2, Tags: []string{"URGENT", "VIP"}},
		"status":    {Label: "Status", Color: "#9E9E9E", Order: 3, Tags: []string{"CHECKED", "ON_HOLD"}},
		"custom":    {Label: "Custom", Color: "#607D8B", Order: 4, Tags: []string{}},
	}
}

func DefaultDomainConfig(clientID, clientName string, now time.Time) *DomainConfig {
	return &DomainConfig{
		ClientID:        clientID,
		ClientName:      clientName,
		CreatedAt:       now.Format(time.RFC3339),
		ColumnMappings:  DefaultColumnMappings(),
		CourierMappings: DefaultCourierMappings(),
		Settings:        DefaultSettings(),
		Rules:           json.RawMessage(`[]`),
		OrderRules:      json.RawMessage(`[]`),
		SetDecoders:     map[string][]SetComponent{},
		TagCategories:   BaselineTagCategories(),
	}
}

// Normalize replaces nil collections with empty ones.
func (d *DomainConfig) Normalize() {
	if d.ColumnMappings.Orders == nil {
		d.ColumnMappings.Orders = map[string]string{}
	}
	if d.ColumnMappings.Stock == nil {
		d.ColumnMappings.Stock = map[string]string{}
	}
	if d.CourierMappings == nil {
		d.CourierMappings = map[string]CourierMapping{}
	}
	if d.SetDecoders == nil {
		d.SetDecoders = map[string][]SetComponent{}
	}
	if d.TagCategories == nil {
		d.TagCategories = map[string]TagCategory{}
	}
}

// Clone deep-copies the document. Raw sections are copied byte for byte.
func (d *DomainConfig) Clone() *DomainConfig {
	out := *d
	out.ColumnMappings.Orders = maps.Clone(d.ColumnMappings.Orders)
	out.ColumnMappings.Stock = maps.Clone(d.ColumnMappings.Stock)
	out.CourierMappings = make(map[string]CourierMapping, len(d.CourierMappings))
	for k, v := range d.CourierMappings {
		v.Patterns = slices.Clone(v.Patterns)
		out.CourierMappings[k] = v
	}
	out.SetDecoders = CloneSetDecoders(d.SetDecoders)
	out.TagCategories = make(map[string]TagCategory, len(d.TagCategories))
	for k, v := range d.TagCategories {
		v.Tags = slices.Clone(v.Tags)
		out.TagCategories[k] = v
	}
	out.Rules = slices.Clone(d.Rules)
	out.OrderRules = slices.Clone(d.OrderRules)
	out.PackingListConfigs = slices.Clone(d.PackingListConfigs)
	out.StockExportConfigs = slices.Clone(d.StockExportConfigs)
	out.Settings.Extra = d.Settings.Extra.Clone()
	out.Extra = d.Extra.Clone()
	return &out
}

func CloneSetDecoders(in map[string][]SetComponent) map[string][]SetComponent {
	out := make(map[string][]SetComponent, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

// ValidateSetComponents checks a bundle definition: at least one component,
// each with a SKU and a positive quantity.
func ValidateSetComponents(components []SetComponent) error {
	if len(components) == 0 {
		return fmt.Errorf("set must have at least one component")
	}
	for i, c := range components {
		if c.SKU == "" {
			return fmt.Errorf("component %d has no sku", i+1)
		}
		if c.Quantity <= 0 {
			return fmt.Errorf("component %d (%s) has non-positive quantity %d", i+1, c.SKU, c.Quantity)
		}
	}
	return nil
}
