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

package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/layout"
)

func TestSave_BackupRetention(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	ctx := context.Background()
	path := filepath.Join(dir, "client_config.json")

	for i := 0; i < 15; i++ {
		require.NoError(t, s.Save(ctx, path, &testDoc{Name: fmt.Sprintf("v%d", i)}))
	}

	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, DefaultBackupRetention)

	// The newest backup holds the version written just before the last save.
	newest, err := os.ReadFile(backups[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(newest), `"v13"`)
}

func TestSave_FirstSaveMakesNoBackup(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, s.Save(context.Background(), path, &testDoc{Name: "first"}))

	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestPruneBackups_OnlyTouchesOwnDocument(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, func(o *Options) { o.BackupRetention = 2 })
	ctx := context.Background()
	general := filepath.Join(dir, "client_config.json")
	domain := filepath.Join(dir, "shopify_config.json")

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Save(ctx, general, &testDoc{Name: "g"}))
		require.NoError(t, s.Save(ctx, domain, &testDoc{Name: "d"}))
	}

	g, err := ListBackups(general)
	require.NoError(t, err)
	d, err := ListBackups(domain)
	require.NoError(t, err)
	assert.Len(t, g, 2)
	assert.Len(t, d, 2)

	// Unrelated files in backups/ are left alone.
	stray := filepath.Join(layout.BackupsDir(general), "client_config_notes.txt")
	require.NoError(t, os.WriteFile(stray, []byte("keep"), 0644))
	require.NoError(t, s.Save(ctx, general, &testDoc{Name: "g"}))
	_, err = os.Stat(stray)
	assert.NoError(t, err)
}

func TestBackupName_MatchesPattern(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join("x", "groups.json")
	name := s.backupName(path, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))

	assert.Regexp(t, `^groups_20250102_030405_[0-9A-Z]{26}\.json$`, name)
	assert.True(t, backupPattern(path).MatchString(name))
	assert.False(t, backupPattern(filepath.Join("x", "group.json")).MatchString(name))
}

func TestListBackups_NoDirectory(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "doc.json"))
	require.NoError(t, err)
	assert.Empty(t, backups)
}
