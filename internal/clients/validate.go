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
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/layout"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/storeerr"
)

const MaxClientIDLength = 20

var (
	ErrInvalidClientID = fmt.Errorf("%w: invalid client id", storeerr.ErrValidationFailed)
	ErrInvalidSet      = fmt.Errorf("%w: invalid set definition", storeerr.ErrValidationFailed)
)

// reservedNames cannot be used as directory names on Windows file shares.
var reservedNames = mapset.NewSet(
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
)

// Canonical returns the stored form of a client id.
func Canonical(clientID string) string {
	return strings.ToUpper(strings.TrimSpace(clientID))
}

// ValidateClientID reports whether clientID may name a client, and if not,
// a reason suitable for showing to the operator.
func ValidateClientID(clientID string) (bool, string) {
	if clientID == "" {
		return false, "Client ID cannot be empty"
	}
	if len(clientID) > MaxClientIDLength {
		return false, fmt.Sprintf("Client ID too long (max %d characters)", MaxClientIDLength)
	}
	for _, r := range clientID {
		if !isIDRune(r) {
			return false, "Client ID can only contain letters, numbers, and underscore"
		}
	}

	upper := strings.ToUpper(clientID)
	if strings.HasPrefix(upper, layout.ClientPrefix) {
		return false, fmt.Sprintf("Don't include %q prefix, it will be added automatically", layout.ClientPrefix)
	}
	if reservedNames.Contains(upper) {
		return false, fmt.Sprintf("%q is a reserved system name", clientID)
	}
	return true, ""
}

func isIDRune(r rune) bool {
	return r == '_' ||
		(r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9')
}

func validationError(clientID, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidClientID, clientID, reason)
}
