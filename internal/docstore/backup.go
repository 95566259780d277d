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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/layout"
)

const backupTimeFormat = "20060102_150405"

// BackupInfo describes one backup copy of a document.
type BackupInfo struct {
	Path    string    `yaml:"path"`
	Name    string    `yaml:"name"`
	Size    int64     `yaml:"size"`
	ModTime time.Time `yaml:"mod_time"`
}

func splitName(documentPath string) (stem, ext string) {
	base := filepath.Base(documentPath)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

// backupPattern matches <stem>_<YYYYMMDD_HHMMSS>_<ULID><ext> and nothing else,
// so documents whose names share a prefix never prune each other's backups.
func backupPattern(documentPath string) *regexp.Regexp {
	stem, ext := splitName(documentPath)
	return regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `_\d{8}_\d{6}_[0-9A-HJKMNP-TV-Z]{26}` + regexp.QuoteMeta(ext) + `$`)
}

func (s *Store) backupName(documentPath string, at time.Time) string {
	stem, ext := splitName(documentPath)
	return fmt.Sprintf("%s_%s_%s%s", stem, at.Format(backupTimeFormat), s.ids.Make(at), ext)
}

// backupCurrent copies the document as it exists now into the backups
// directory, then prunes old copies beyond the retention count.
func (s *Store) backupCurrent(documentPath string) error {
	src, err := os.Open(documentPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open document for backup: %w", err)
	}
	defer src.Close()

	dir := layout.BackupsDir(documentPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create backups dir: %w", err)
	}

	dstPath := filepath.Join(dir, s.backupName(documentPath, s.now()))
	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dstPath)
		return fmt.Errorf("copy backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}

	return s.pruneBackups(documentPath)
}

func (s *Store) pruneBackups(documentPath string) error {
	names, err := backupNames(documentPath)
	if err != nil {
		return err
	}
	if len(names) <= s.opts.BackupRetention {
		return nil
	}

	dir := layout.BackupsDir(documentPath)
	for _, name := range names[:len(names)-s.opts.BackupRetention] {
		p := filepath.Join(dir, name)
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to remove old backup", slog.String("path", p), slog.Any("error", err))
		}
	}
	return nil
}

// backupNames returns the backup file names of one document, oldest first.
func backupNames(documentPath string) ([]string, error) {
	entries, err := os.ReadDir(layout.BackupsDir(documentPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}

	re := backupPattern(documentPath)
	var names []string
	for _, e := range entries {
		if !e.IsDir() && re.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListBackups returns the backups of a document, newest first.
func ListBackups(documentPath string) ([]BackupInfo, error) {
	names, err := backupNames(documentPath)
	if err != nil {
		return nil, err
	}

	dir := layout.BackupsDir(documentPath)
	ret := make([]BackupInfo, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		p := filepath.Join(dir, names[i])
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		ret = append(ret, BackupInfo{
			Path:    p,
			Name:    names[i],
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return ret, nil
}
