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

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	migrateAll      bool
	migrateParallel int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [CLIENT_ID...]",
	Short: "Upgrade stored domain configs to the current schema",
	Long: `Upgrade stored domain configs to the current schema.

Configs are also upgraded transparently whenever they are loaded; this
command does it ahead of time so every document on the share is current.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateAll == (len(args) > 0) {
			return fmt.Errorf("pass client ids or --all, not both or neither")
		}

		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		ids := args
		if migrateAll {
			ids = svc.clients.ListClients(ctx)
		}

		results, err := migrateClients(ctx, svc.clients, ids, migrateParallel)
		if rerr := render(cmd.OutOrStdout(), results, func(w io.Writer) error {
			printMigrationResults(w, results)
			return nil
		}); rerr != nil {
			return rerr
		}
		return err
	},
}

type domainMigrator interface {
	MigrateDomainConfig(ctx context.Context, clientID string) ([]string, error)
}

type migrationResult struct {
	ClientID string   `yaml:"client_id"`
	Applied  []string `yaml:"applied"`
	Error    string   `yaml:"error,omitempty"`
}

// migrateClients upgrades each client with at most parallel workers. A
// failure for one client does not stop the others; all failures are
// returned together.
func migrateClients(ctx context.Context, m domainMigrator, ids []string, parallel int) ([]migrationResult, error) {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]migrationResult, len(ids))
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, id := range ids {
		g.Go(func() error {
			applied, err := m.MigrateDomainConfig(ctx, id)
			results[i] = migrationResult{ClientID: id, Applied: applied}
			if err != nil {
				results[i].Error = err.Error()
				slog.Warn("Migration failed", slog.String("clientID", id), slog.Any("error", err))
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("client %s: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errs.ErrorOrNil()
}

func printMigrationResults(w io.Writer, results []migrationResult) {
	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "%s: FAILED: %s\n", r.ClientID, r.Error)
		case len(r.Applied) == 0:
			fmt.Fprintf(w, "%s: up to date\n", r.ClientID)
		default:
			fmt.Fprintf(w, "%s: applied %s\n", r.ClientID, strings.Join(r.Applied, ", "))
		}
	}
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateAll, "all", false, "Migrate every client on the storage root")
	migrateCmd.Flags().IntVar(&migrateParallel, "parallel", 4, "Number of clients migrated at once")
}
