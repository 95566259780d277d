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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUISettingsApply(t *testing.T) {
	base := DefaultUISettings()
	base.CustomBadges = []string{"A"}

	pinned := true
	badges := []string{"B", "C"}
	got := base.Apply(UISettingsPatch{IsPinned: &pinned, CustomBadges: &badges})

	assert.True(t, got.IsPinned)
	assert.Equal(t, []string{"B", "C"}, got.CustomBadges)
	assert.Equal(t, DefaultCustomColor, got.CustomColor)
	assert.Equal(t, []string{"A"}, base.CustomBadges, "receiver must not change")

	badges[0] = "Z"
	assert.Equal(t, "B", got.CustomBadges[0], "patch slices are copied")

	got = got.Apply(AssignGroup("g1"))
	assert.Equal(t, "g1", got.GroupIDValue())
	got = got.Apply(ClearGroup())
	assert.Nil(t, got.GroupID)
	assert.Equal(t, "", got.GroupIDValue())
}

func TestUISettingsNormalize(t *testing.T) {
	empty := ""
	u := UISettings{GroupID: &empty}
	u.Normalize()

	assert.Nil(t, u.GroupID)
	assert.Equal(t, DefaultCustomColor, u.CustomColor)
	assert.NotNil(t, u.CustomBadges)
	assert.Equal(t, tableViewVersion, u.TableView["version"])
}

func TestDomainConfigClone(t *testing.T) {
	d := DefaultDomainConfig("M", "Acme", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	d.SetDecoders["SET"] = []SetComponent{{SKU: "A", Quantity: 1}}

	c := d.Clone()
	c.SetDecoders["SET"][0].Quantity = 9
	c.ColumnMappings.Orders["X"] = FieldNotes
	c.Rules[0] = '{'

	assert.Equal(t, 1, d.SetDecoders["SET"][0].Quantity)
	assert.NotContains(t, d.ColumnMappings.Orders, "X")
	assert.Equal(t, "[]", string(d.Rules))
	assert.Equal(t, "2025-01-02T03:04:05Z", d.CreatedAt)
}

func TestDomainConfigNormalize(t *testing.T) {
	var d DomainConfig
	d.Normalize()
	assert.NotNil(t, d.ColumnMappings.Orders)
	assert.NotNil(t, d.ColumnMappings.Stock)
	assert.NotNil(t, d.CourierMappings)
	assert.NotNil(t, d.SetDecoders)
	assert.NotNil(t, d.TagCategories)
}

func TestValidateSetComponents(t *testing.T) {
	require.NoError(t, ValidateSetComponents([]SetComponent{{SKU: "A", Quantity: 2}}))
	assert.Error(t, ValidateSetComponents(nil))
	assert.Error(t, ValidateSetComponents([]SetComponent{{SKU: "", Quantity: 1}}))
	assert.Error(t, ValidateSetComponents([]SetComponent{{SKU: "A", Quantity: 0}}))
}
