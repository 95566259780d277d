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
	"os"
)

// ErrLockHeld is returned by TryLock when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another writer")

// Locker takes an exclusive lock without ever blocking: it either acquires
// the lock immediately or returns ErrLockHeld.
type Locker interface {
	TryLock(path string) (Releaser, error)
}

type Releaser interface {
	Release() error
}

// FileLocker locks a dedicated lock file with the platform primitive
// (flock on Unix, LockFileEx on Windows). The lock file is never renamed
// or replaced, so every writer of a document contends on the same inode.
type FileLocker struct{}

var _ Locker = FileLocker{}

type heldFileLock struct {
	f *os.File
}

func (FileLocker) TryLock(path string) (Releaser, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := tryLockFile(f); err != nil {
		_ = f.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &heldFileLock{f: f}, nil
}

func (l *heldFileLock) Release() error {
	unlockErr := unlockFile(l.f)
	closeErr := l.f.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

var errWouldBlock = errors.New("would block")
