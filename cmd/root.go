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
	"os"

	"github.com/spf13/cobra"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/config"
)

var (
	rootOverride string
	outputFormat string

	loadedConfig *config.Config
	closeLog     = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fulfillstore",
	Short: "Inspect and maintain the shared fulfillment configuration store",
	Long: `Read and update client profiles, client groups and their backups on the
shared storage root used by every fulfillment workstation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if rootOverride != "" {
			cfg.Root = rootOverride
		}
		switch outputFormat {
		case outputText, outputYAML:
		default:
			return fmt.Errorf("unknown output format %q (want %s or %s)", outputFormat, outputText, outputYAML)
		}

		closer, err := setupLogging(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		closeLog = closer
		loadedConfig = cfg
		return nil
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeLog()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOverride, "root", "", "Storage root (overrides configuration)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputText, "Output format: text or yaml")

	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(setsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(backupsCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
