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
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/clients"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/docstore"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/layout"
)

const (
	docGeneral = "general"
	docDomain  = "domain"
	docGroups  = "groups"
)

var backupFlags struct {
	client string
	doc    string
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List and restore document backups",
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups of one document, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := documentPath(layout.New(loadedConfig.Root), backupFlags.client, backupFlags.doc)
		if err != nil {
			return err
		}
		backups, err := docstore.ListBackups(path)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), backups, func(w io.Writer) error {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Name, b.Size, b.ModTime.Format(time.DateTime))
			}
			return tw.Flush()
		})
	},
}

var backupsRestoreCmd = &cobra.Command{
	Use:   "restore BACKUP_NAME",
	Short: "Replace a document with one of its backups",
	Long: `Replace a document with one of its backups. The current version is
itself backed up first, so a restore can be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		path, err := documentPath(svc.paths, backupFlags.client, backupFlags.doc)
		if err != nil {
			return err
		}
		backup, err := findBackup(path, args[0])
		if err != nil {
			return err
		}

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		if err := svc.store.Restore(ctx, path, backup.Path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", path, backup.Name)
		return nil
	},
}

// documentPath resolves the --client/--doc flags to a document on disk.
func documentPath(paths layout.Paths, clientID, doc string) (string, error) {
	if doc == docGroups {
		if clientID != "" {
			return "", fmt.Errorf("--client does not apply to the groups document")
		}
		return paths.GroupsFile(), nil
	}

	if clientID == "" {
		return "", fmt.Errorf("--client is required for the %s document", doc)
	}
	id := clients.Canonical(clientID)
	if ok, reason := clients.ValidateClientID(id); !ok {
		return "", fmt.Errorf("%w %q: %s", clients.ErrInvalidClientID, clientID, reason)
	}

	switch doc {
	case docGeneral:
		return paths.GeneralConfigFile(id), nil
	case docDomain:
		return paths.DomainConfigFile(id), nil
	default:
		return "", fmt.Errorf("unknown document %q (want %s, %s or %s)", doc, docGeneral, docDomain, docGroups)
	}
}

// findBackup only accepts names that ListBackups reports for path, so a
// crafted name cannot point outside the backups directory.
func findBackup(path, name string) (docstore.BackupInfo, error) {
	backups, err := docstore.ListBackups(path)
	if err != nil {
		return docstore.BackupInfo{}, err
	}
	for _, b := range backups {
		if b.Name == name {
			return b, nil
		}
	}
	return docstore.BackupInfo{}, fmt.Errorf("no backup named %q for %s", name, path)
}

func init() {
	for _, c := range []*cobra.Command{backupsListCmd, backupsRestoreCmd} {
		c.Flags().StringVar(&backupFlags.client, "client", "", "Client id")
		c.Flags().StringVar(&backupFlags.doc, "doc", docDomain, "Document: general, domain or groups")
	}

	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsRestoreCmd)
}
