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

// Package docstore loads and saves single JSON documents on a filesystem that
// several uncoordinated processes share.
//
// Writes are serialized across processes by a non-blocking exclusive lock on
// a sibling lock file, retried a bounded number of times. While the lock is
// held the previous version is copied into backups/, the new payload is
// written to a temp file in the same directory, synced, and renamed over the
// target. Readers therefore see either the old or the new document, never a
// mixture.
//
// Loads never fail on corruption: an unparsable file is copied to a
// .corrupted.bak sibling and the caller's defaults are returned.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/idgen"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/storeerr"
)

const (
	DefaultLockAttempts    = 10
	DefaultLockDelay       = time.Second
	DefaultBackupRetention = 10

	CorruptedSuffix = ".corrupted.bak"
	LockSuffix      = ".lock"
)

// Invalidator drops cached copies of a document after it is rewritten.
type Invalidator interface {
	Invalidate(key string)
}

// Stamper is implemented by documents that record who wrote them last.
type Stamper interface {
	SetStamp(at time.Time, by string)
}

// Stamp is embedded by documents to carry last_updated/updated_by.
type Stamp struct {
	LastUpdated string `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	UpdatedBy   string `json:"updated_by,omitempty" yaml:"updated_by,omitempty"`
}

func (s *Stamp) SetStamp(at time.Time, by string) {
	s.LastUpdated = at.Format(time.RFC3339)
	s.UpdatedBy = by
}

type Options struct {
	LockAttempts    int
	LockDelay       time.Duration
	BackupRetention int

	// Author is written into updated_by. Defaults to the hostname.
	Author string

	Logger *slog.Logger
	Locker Locker

	// Invalidator, if set, is told the document path after every successful save.
	Invalidator Invalidator

	Clock func() time.Time
}

func DefaultOptions() Options {
	return Options{
		LockAttempts:    DefaultLockAttempts,
		LockDelay:       DefaultLockDelay,
		BackupRetention: DefaultBackupRetention,
	}
}

type Store struct {
	opts   Options
	logger *slog.Logger
	locker Locker
	ids    *idgen.ULIDGenerator
	now    func() time.Time
}

func New(opts Options) *Store {
	def := DefaultOptions()
	if opts.LockAttempts <= 0 {
		opts.LockAttempts = def.LockAttempts
	}
	if opts.LockDelay <= 0 {
		opts.LockDelay = def.LockDelay
	}
	if opts.BackupRetention <= 0 {
		opts.BackupRetention = def.BackupRetention
	}
	if opts.Author == "" {
		opts.Author = defaultAuthor()
	}
	if opts.Locker == nil {
		opts.Locker = FileLocker{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		opts:   opts,
		logger: logger.With(slog.String("component", "docstore")),
		locker: opts.Locker,
		ids:    idgen.DefaultULIDGenerator,
		now:    opts.Clock,
	}
}

func defaultAuthor() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}

// Author returns the name stamped into updated_by.
func (s *Store) Author() string {
	return s.opts.Author
}

// Load reads the document at path. A missing file yields defaults without
// touching disk; a corrupted file is quarantined and also yields defaults.
// Only genuine read failures (permissions, I/O) are returned as errors.
func Load[T any](s *Store, path string, defaults T) (T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("read %s: %w", path, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.quarantine(path, data, err)
		return defaults, nil
	}
	return v, nil
}

func (s *Store) quarantine(path string, data []byte, cause error) {
	countFor(corruptedCounter, path)
	bak := path + CorruptedSuffix
	if err := os.WriteFile(bak, data, 0644); err != nil {
		s.logger.Warn("Corrupted document could not be preserved",
			slog.String("path", path),
			slog.Any("parseError", cause),
			slog.Any("error", err))
		return
	}
	s.logger.Warn("Corrupted document replaced with defaults",
		slog.String("path", path),
		slog.String("preservedAs", bak),
		slog.Any("parseError", cause))
}

// Save writes value to path. It returns an error wrapping
// storeerr.ErrResourceLocked if the lock could not be taken within the
// retry budget; in that case nothing on disk has changed.
func (s *Store) Save(ctx context.Context, path string, value any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	stamp(value, s.now(), s.opts.Author)
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	lock, err := s.acquire(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn("Failed to release document lock", slog.String("path", path), slog.Any("error", err))
		}
	}()

	if err := s.backupCurrent(path); err != nil {
		s.logger.Warn("Backup before save failed", slog.String("path", path), slog.Any("error", err))
	}

	if err := writeAtomic(path, data); err != nil {
		return err
	}
	if err := syncDir(dir); err != nil {
		s.logger.Debug("Directory sync failed (document still written)", slog.String("dir", dir), slog.Any("error", err))
	}

	countFor(savesCounter, path)
	if s.opts.Invalidator != nil {
		s.opts.Invalidator.Invalidate(path)
	}
	return nil
}

// Restore replaces the document with the contents of one of its backups.
// The replacement goes through Save, so the version being replaced is
// itself backed up first.
func (s *Store) Restore(ctx context.Context, path, backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: backup %s is not a valid document: %v", storeerr.ErrValidationFailed, backupPath, err)
	}
	return s.Save(ctx, path, doc)
}

func (s *Store) acquire(ctx context.Context, path string) (Releaser, error) {
	lockPath := path + LockSuffix
	for attempt := 1; ; attempt++ {
		r, err := s.locker.TryLock(lockPath)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, err
		}

		countFor(lockRetriesCounter, path)
		if attempt >= s.opts.LockAttempts {
			countFor(lockExhaustedCounter, path)
			return nil, fmt.Errorf("%w: %s is being written by another workstation (gave up after %d attempts)",
				storeerr.ErrResourceLocked, filepath.Base(path), attempt)
		}
		s.logger.Debug("Document locked, retrying",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.Duration("delay", s.opts.LockDelay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.opts.LockDelay):
		}
	}
}

func stamp(value any, at time.Time, by string) {
	switch v := value.(type) {
	case Stamper:
		v.SetStamp(at, by)
	case map[string]any:
		v["last_updated"] = at.Format(time.RFC3339)
		v["updated_by"] = by
	}
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := true
	defer func() {
		if cleanup {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	cleanup = false
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
