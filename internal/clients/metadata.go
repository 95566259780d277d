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
	"errors"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
)

// Session directories are named <YYYY-MM-DD>_<n> by the session manager.
var sessionDirPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_\d+$`)

// CalculateMetadata derives session statistics from the client's session
// directories. Nothing here is persisted; an unknown client or a missing
// sessions directory yields zero values.
func (r *Registry) CalculateMetadata(clientID string) profile.ClientMetadata {
	var meta profile.ClientMetadata
	id, ok := resolve(clientID)
	if !ok {
		return meta
	}

	dir := r.paths.ClientSessionsDir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("Failed to scan sessions", slog.String("clientID", id), slog.Any("error", err))
		}
		return meta
	}

	var latest time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := sessionDirPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		meta.TotalSessions++
		// ISO dates order lexicographically.
		if m[1] > meta.LastSessionDate {
			meta.LastSessionDate = m[1]
		}
		if info, err := e.Info(); err == nil && info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	if !latest.IsZero() {
		meta.LastAccessed = latest.Format(time.RFC3339)
	}
	return meta
}
