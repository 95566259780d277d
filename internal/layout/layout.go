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

// Package layout names every path under the shared storage root.
//
//	root/
//	  Clients/groups.json
//	  Clients/backups/
//	  Clients/CLIENT_<ID>/client_config.json
//	  Clients/CLIENT_<ID>/shopify_config.json
//	  Clients/CLIENT_<ID>/backups/
//	  Sessions/CLIENT_<ID>/<date>_<n>/
package layout

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/storeerr"
)

const (
	ClientsDirName  = "Clients"
	SessionsDirName = "Sessions"
	StatsDirName    = "Stats"
	LogsDirName     = "Logs"
	BackupsDirName  = "backups"

	// ClientPrefix is prepended to every client id to form its directory name.
	// It is applied automatically and never accepted as part of a user-supplied id.
	ClientPrefix = "CLIENT_"

	GroupsFileName        = "groups.json"
	GeneralConfigFileName = "client_config.json"
	DomainConfigFileName  = "shopify_config.json"

	// ServerPathEnv selects a development root in place of the production share.
	ServerPathEnv = "FULFILLMENT_SERVER_PATH"

	probeFileName = ".write_probe"
)

// Paths resolves locations under one storage root.
type Paths struct {
	Root string
}

func New(root string) Paths {
	return Paths{Root: root}
}

func (p Paths) ClientsDir() string {
	return filepath.Join(p.Root, ClientsDirName)
}

func (p Paths) SessionsDir() string {
	return filepath.Join(p.Root, SessionsDirName)
}

func (p Paths) GroupsFile() string {
	return filepath.Join(p.ClientsDir(), GroupsFileName)
}

// ClientDirName returns the directory name for a canonical client id.
func ClientDirName(clientID string) string {
	return ClientPrefix + clientID
}

// ClientIDFromDirName reverses ClientDirName. ok is false for names that
// do not follow the convention.
func ClientIDFromDirName(name string) (string, bool) {
	id, ok := strings.CutPrefix(name, ClientPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (p Paths) ClientDir(clientID string) string {
	return filepath.Join(p.ClientsDir(), ClientDirName(clientID))
}

func (p Paths) GeneralConfigFile(clientID string) string {
	return filepath.Join(p.ClientDir(clientID), GeneralConfigFileName)
}

func (p Paths) DomainConfigFile(clientID string) string {
	return filepath.Join(p.ClientDir(clientID), DomainConfigFileName)
}

func (p Paths) ClientSessionsDir(clientID string) string {
	return filepath.Join(p.SessionsDir(), ClientDirName(clientID))
}

// BackupsDir returns the backups directory that sits next to a document.
func BackupsDir(documentPath string) string {
	return filepath.Join(filepath.Dir(documentPath), BackupsDirName)
}

// EnsureWritable creates the top-level directories and proves the root is
// writable by creating and removing a probe file. Any failure is reported
// as storeerr.ErrUnavailable with remediation text.
func (p Paths) EnsureWritable() error {
	for _, dir := range []string{p.ClientsDir(), p.SessionsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return p.unavailable(err)
		}
	}

	probe := filepath.Join(p.ClientsDir(), probeFileName)
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return p.unavailable(err)
	}
	if err := os.Remove(probe); err != nil {
		slog.Warn("Failed to remove write probe", slog.String("path", probe), slog.Any("error", err))
	}
	return nil
}

func (p Paths) unavailable(cause error) error {
	return fmt.Errorf("%w: cannot write to storage root %q: %v. "+
		"Check that the network share is mounted and that this workstation has write access, "+
		"or set %s to a local directory for development",
		storeerr.ErrUnavailable, p.Root, cause, ServerPathEnv)
}
