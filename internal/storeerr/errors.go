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

// Package storeerr holds the error taxonomy shared by the configuration store.
// Packages wrap these sentinels with context; callers match them with errors.Is.
package storeerr

import "errors"

var (
	// ErrUnavailable means the storage root cannot be created or written.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrValidationFailed is returned before any write when input is malformed.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNotFound is only returned by operations that document it; most lookups
	// report absence through a boolean or zero value instead.
	ErrNotFound = errors.New("not found")

	// ErrResourceLocked means the write-lock retry budget was exhausted.
	ErrResourceLocked = errors.New("resource locked")
)
