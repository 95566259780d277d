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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FULFILLMENT_SERVER_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ProductionRoot, cfg.Root)
	require.False(t, cfg.DevMode)
	require.Equal(t, 60*time.Second, cfg.Cache.TTL)
	require.Equal(t, 10, cfg.Lock.Attempts)
	require.Equal(t, time.Second, cfg.Lock.Delay)
	require.Equal(t, 10, cfg.Backup.Retention)
	require.Empty(t, cfg.Log.File)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FULFILLMENT_SERVER_PATH", "")
	t.Setenv("FULFILLMENT_ROOT", "/mnt/share")
	t.Setenv("FULFILLMENT_AUTHOR", "packing-station-3")
	t.Setenv("FULFILLMENT_CACHE_TTL", "5s")
	t.Setenv("FULFILLMENT_LOCK_ATTEMPTS", "3")
	t.Setenv("FULFILLMENT_LOCK_DELAY", "250ms")
	t.Setenv("FULFILLMENT_BACKUP_RETENTION", "4")
	t.Setenv("FULFILLMENT_LOG_FILE", "/tmp/store.log")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/mnt/share", cfg.Root)
	require.False(t, cfg.DevMode)
	require.Equal(t, "packing-station-3", cfg.Author)
	require.Equal(t, 5*time.Second, cfg.Cache.TTL)
	require.Equal(t, 3, cfg.Lock.Attempts)
	require.Equal(t, 250*time.Millisecond, cfg.Lock.Delay)
	require.Equal(t, 4, cfg.Backup.Retention)
	require.Equal(t, "/tmp/store.log", cfg.Log.File)

	opts := cfg.StoreOptions()
	require.Equal(t, 3, opts.LockAttempts)
	require.Equal(t, 250*time.Millisecond, opts.LockDelay)
	require.Equal(t, 4, opts.BackupRetention)
	require.Equal(t, "packing-station-3", opts.Author)
}

func TestLoadDevMode(t *testing.T) {
	t.Setenv("FULFILLMENT_ROOT", "/mnt/share")
	t.Setenv("FULFILLMENT_SERVER_PATH", "/home/dev/fulfillment")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/home/dev/fulfillment", cfg.Root)
	require.True(t, cfg.DevMode)
}
