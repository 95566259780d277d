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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/storeerr"
)

type testDoc struct {
	Stamp
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingInvalidator) Invalidate(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func newTestStore(t *testing.T, mutate ...func(*Options)) *Store {
	t.Helper()
	opts := Options{
		LockAttempts: 5,
		LockDelay:    5 * time.Millisecond,
		Author:       "test-host",
	}
	for _, m := range mutate {
		m(&opts)
	}
	return New(opts)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 10, opts.LockAttempts)
	assert.Equal(t, time.Second, opts.LockDelay)
	assert.Equal(t, 10, opts.BackupRetention)

	s := New(Options{})
	assert.Equal(t, 10, s.opts.LockAttempts)
	assert.Equal(t, time.Second, s.opts.LockDelay)
	assert.NotEmpty(t, s.Author())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	path := filepath.Join(dir, "absent.json")

	got, err := Load(s, path, testDoc{Name: "default"})
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "load must not create the document")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoad_CorruptedFileIsQuarantined(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	path := filepath.Join(dir, "doc.json")
	garbage := []byte(`{"name": "half-writ`)
	require.NoError(t, os.WriteFile(path, garbage, 0644))

	got, err := Load(s, path, testDoc{Name: "fallback"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", got.Name)

	preserved, err := os.ReadFile(path + CorruptedSuffix)
	require.NoError(t, err)
	assert.Equal(t, garbage, preserved)
}

func TestSaveThenLoad_RoundTripWithStamp(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	s := newTestStore(t, func(o *Options) { o.Clock = func() time.Time { return fixed } })
	path := filepath.Join(dir, "nested", "doc.json")

	in := &testDoc{Name: "alpha", Items: []string{"a", "b"}}
	require.NoError(t, s.Save(context.Background(), path, in))

	out, err := Load(s, path, testDoc{})
	require.NoError(t, err)
	assert.Equal(t, "alpha", out.Name)
	assert.Equal(t, []string{"a", "b"}, out.Items)
	assert.Equal(t, "2025-03-14T09:26:53Z", out.LastUpdated)
	assert.Equal(t, "test-host", out.UpdatedBy)

	leftovers, err := filepath.Glob(filepath.Join(dir, "nested", ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp files must not survive a successful save")
}

func TestSave_StampsPlainMaps(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, s.Save(context.Background(), path, map[string]any{"k": "v"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "v", m["k"])
	assert.Equal(t, "test-host", m["updated_by"])
	assert.NotEmpty(t, m["last_updated"])
}

func TestSave_InvalidatesCacheKey(t *testing.T) {
	dir := t.TempDir()
	inv := &recordingInvalidator{}
	s := newTestStore(t, func(o *Options) { o.Invalidator = inv })
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, s.Save(context.Background(), path, &testDoc{Name: "x"}))
	assert.Equal(t, []string{path}, inv.keys)
}

func TestSave_ResourceLockedAfterRetryBudget(t *testing.T) {
	dir := t.TempDir()
	inv := &recordingInvalidator{}
	s := newTestStore(t, func(o *Options) {
		o.LockAttempts = 3
		o.LockDelay = time.Millisecond
		o.Invalidator = inv
	})
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, s.Save(context.Background(), path, &testDoc{Name: "original"}))
	inv.keys = nil

	held, err := FileLocker{}.TryLock(path + LockSuffix)
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	err = s.Save(context.Background(), path, &testDoc{Name: "blocked"})
	require.ErrorIs(t, err, storeerr.ErrResourceLocked)
	assert.Empty(t, inv.keys, "a failed save must not invalidate")

	got, err := Load(s, path, testDoc{})
	require.NoError(t, err)
	assert.Equal(t, "original", got.Name)
}

func TestSave_ContextCancelledWhileWaiting(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, func(o *Options) {
		o.LockAttempts = 100
		o.LockDelay = time.Second
	})
	path := filepath.Join(dir, "doc.json")

	held, err := FileLocker{}.TryLock(path + LockSuffix)
	require.NoError(t, err)
	defer func() { _ = held.Release() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = s.Save(ctx, path, &testDoc{Name: "never"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSave_ConcurrentWritersNeverInterleave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	payload := func(tag string) *testDoc {
		items := make([]string, 2000)
		for i := range items {
			items[i] = strings.Repeat(tag, 16)
		}
		return &testDoc{Name: tag, Items: items}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, tag := range []string{"A", "B"} {
		wg.Add(1)
		go func(i int, tag string) {
			defer wg.Done()
			s := newTestStore(t, func(o *Options) {
				o.LockAttempts = 1000
				o.LockDelay = time.Millisecond
			})
			for n := 0; n < 10 && errs[i] == nil; n++ {
				errs[i] = s.Save(context.Background(), path, payload(tag))
			}
		}(i, tag)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	got, err := Load(newTestStore(t), path, testDoc{})
	require.NoError(t, err)
	require.Contains(t, []string{"A", "B"}, got.Name)
	want := strings.Repeat(got.Name, 16)
	require.Len(t, got.Items, 2000)
	for _, item := range got.Items {
		require.Equal(t, want, item, "document mixes payloads of two writers")
	}
}

func TestRestore_WritesBackupContentAndKeepsCurrentAsBackup(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	ctx := context.Background()
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, s.Save(ctx, path, &testDoc{Name: "v1"}))
	require.NoError(t, s.Save(ctx, path, &testDoc{Name: "v2"}))

	backups, err := ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)

	require.NoError(t, s.Restore(ctx, path, backups[0].Path))

	got, err := Load(s, path, testDoc{})
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Name)

	backups, err = ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	newest, err := os.ReadFile(backups[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(newest), `"v2"`)
}

func TestRestore_RejectsInvalidBackup(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0644))

	err := s.Restore(context.Background(), filepath.Join(dir, "doc.json"), bad)
	require.ErrorIs(t, err, storeerr.ErrValidationFailed)
}
