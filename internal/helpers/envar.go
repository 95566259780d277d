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

// Package helpers holds small environment lookups shared by the CLI and
// the configuration loader.
package helpers

import (
	"os"
	"strings"
)

var (
	truthy = map[string]bool{"true": true, "1": true, "yes": true, "on": true, "enable": true, "enabled": true}
	falsy  = map[string]bool{"false": true, "0": true, "no": true, "off": true, "disable": true, "disabled": true}
)

// GetStringEnv returns the value of envVar with surrounding whitespace
// removed. ok is false when the variable is unset or blank.
func GetStringEnv(envVar string) (value string, ok bool) {
	value = strings.TrimSpace(os.Getenv(envVar))
	return value, value != ""
}

// GetBoolEnv reads a boolean switch such as FULFILLMENT_DEBUG. Recognised
// words are matched case-insensitively. Blank or unset yields defaultValue,
// and any other non-empty value counts as true.
func GetBoolEnv(envVar string, defaultValue bool) bool {
	raw, ok := GetStringEnv(envVar)
	if !ok {
		return defaultValue
	}
	word := strings.ToLower(raw)
	switch {
	case truthy[word]:
		return true
	case falsy[word]:
		return false
	default:
		return true
	}
}
