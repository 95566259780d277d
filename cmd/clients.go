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
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/clients"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage client profiles",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every client on the storage root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ids := svc.clients.ListClients(cmd.Context())
		return render(cmd.OutOrStdout(), ids, func(w io.Writer) error {
			for _, id := range ids {
				fmt.Fprintln(w, id)
			}
			return nil
		})
	},
}

var clientsCreateCmd = &cobra.Command{
	Use:   "create CLIENT_ID [NAME]",
	Short: "Create a client profile with default documents",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		created, err := svc.clients.CreateClientProfile(ctx, args[0], name)
		if err != nil {
			return err
		}
		id := clients.Canonical(args[0])
		if !created {
			fmt.Fprintf(cmd.OutOrStdout(), "client %s already exists\n", id)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created client %s\n", id)
		return nil
	},
}

var showDomain bool

var clientsShowCmd = &cobra.Command{
	Use:   "show CLIENT_ID",
	Short: "Show a client's profile and session metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		if showDomain {
			cfg, err := svc.clients.LoadDomainConfig(ctx, args[0])
			if err != nil {
				return err
			}
			if cfg == nil {
				return fmt.Errorf("client %s does not exist", clients.Canonical(args[0]))
			}
			return render(cmd.OutOrStdout(), cfg, func(w io.Writer) error {
				return printDomainSummary(w, cfg)
			})
		}

		ext, err := svc.clients.LoadClientConfigExtended(ctx, args[0])
		if err != nil {
			return err
		}
		if ext == nil {
			return fmt.Errorf("client %s does not exist", clients.Canonical(args[0]))
		}
		return render(cmd.OutOrStdout(), ext, func(w io.Writer) error {
			return printClientSummary(w, ext)
		})
	},
}

var clientsValidateCmd = &cobra.Command{
	Use:   "validate CLIENT_ID",
	Short: "Check whether a string is usable as a client id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ok, reason := clients.ValidateClientID(args[0]); !ok {
			return fmt.Errorf("%s", reason)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
		return nil
	},
}

var uiFlags struct {
	pinned     bool
	color      string
	group      string
	clearGroup bool
	badges     []string
	order      int
}

var clientsUICmd = &cobra.Command{
	Use:   "ui CLIENT_ID",
	Short: "Update a client's UI settings; only flags given are changed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := uiPatchFromFlags(cmd)
		if err != nil {
			return err
		}

		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		if patch.GroupID != nil && *patch.GroupID != "" {
			if _, found, err := svc.groups.GetGroup(ctx, *patch.GroupID); err != nil {
				return err
			} else if !found {
				return fmt.Errorf("group %s does not exist", *patch.GroupID)
			}
		}

		ok, err := svc.clients.UpdateUISettings(ctx, args[0], patch)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("client %s does not exist", clients.Canonical(args[0]))
		}
		ui, err := svc.clients.GetUISettings(ctx, args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), ui, func(w io.Writer) error {
			printUISettings(w, ui)
			return nil
		})
	},
}

func uiPatchFromFlags(cmd *cobra.Command) (profile.UISettingsPatch, error) {
	var patch profile.UISettingsPatch
	flags := cmd.Flags()

	if flags.Changed("group") && uiFlags.clearGroup {
		return patch, fmt.Errorf("--group and --clear-group are mutually exclusive")
	}
	if flags.Changed("pinned") {
		patch.IsPinned = &uiFlags.pinned
	}
	if flags.Changed("color") {
		patch.CustomColor = &uiFlags.color
	}
	if flags.Changed("group") {
		if uiFlags.group == "" {
			return patch, fmt.Errorf("--group needs a group id; use --clear-group to unassign")
		}
		patch.GroupID = &uiFlags.group
	}
	if uiFlags.clearGroup {
		patch.GroupID = profile.ClearGroup().GroupID
	}
	if flags.Changed("badges") {
		badges := uiFlags.badges
		if badges == nil {
			badges = []string{}
		}
		patch.CustomBadges = &badges
	}
	if flags.Changed("order") {
		patch.DisplayOrder = &uiFlags.order
	}
	return patch, nil
}

func printClientSummary(w io.Writer, ext *profile.ExtendedGeneralConfig) error {
	fmt.Fprintf(w, "Client:        %s\n", ext.ClientID)
	fmt.Fprintf(w, "Name:          %s\n", ext.ClientName)
	fmt.Fprintf(w, "Created:       %s\n", ext.CreatedAt)
	fmt.Fprintf(w, "Last updated:  %s by %s\n", ext.LastUpdated, ext.UpdatedBy)
	fmt.Fprintf(w, "Sessions:      %d\n", ext.Metadata.TotalSessions)
	if ext.Metadata.LastSessionDate != "" {
		fmt.Fprintf(w, "Last session:  %s\n", ext.Metadata.LastSessionDate)
	}
	printUISettings(w, ext.UISettings)
	return nil
}

func printUISettings(w io.Writer, ui profile.UISettings) {
	group := ui.GroupIDValue()
	if group == "" {
		group = "-"
	}
	fmt.Fprintf(w, "Pinned:        %t\n", ui.IsPinned)
	fmt.Fprintf(w, "Group:         %s\n", group)
	fmt.Fprintf(w, "Color:         %s\n", ui.CustomColor)
	fmt.Fprintf(w, "Badges:        %s\n", strings.Join(ui.CustomBadges, ", "))
	fmt.Fprintf(w, "Display order: %d\n", ui.DisplayOrder)
}

func printDomainSummary(w io.Writer, cfg *profile.DomainConfig) error {
	fmt.Fprintf(w, "Client:            %s\n", cfg.ClientID)
	fmt.Fprintf(w, "Mappings version:  %d\n", cfg.ColumnMappings.Version)
	fmt.Fprintf(w, "Order columns:     %d\n", len(cfg.ColumnMappings.Orders))
	fmt.Fprintf(w, "Stock columns:     %d\n", len(cfg.ColumnMappings.Stock))
	fmt.Fprintf(w, "Couriers:          %d\n", len(cfg.CourierMappings))
	fmt.Fprintf(w, "Sets:              %d\n", len(cfg.SetDecoders))
	fmt.Fprintf(w, "Tag categories:    %d\n", len(cfg.TagCategories))
	fmt.Fprintf(w, "Low stock:         %d\n", cfg.Settings.LowStockThreshold)
	fmt.Fprintf(w, "Order delimiter:   %q\n", cfg.Settings.OrderCSVDelimiter)
	fmt.Fprintf(w, "Stock delimiter:   %q\n", cfg.Settings.StockCSVDelimiter)
	return nil
}

func init() {
	clientsShowCmd.Flags().BoolVar(&showDomain, "domain", false, "Show the domain config instead of the general profile")

	f := clientsUICmd.Flags()
	f.BoolVar(&uiFlags.pinned, "pinned", false, "Pin or unpin the client")
	f.StringVar(&uiFlags.color, "color", "", "Custom color, e.g. #4CAF50")
	f.StringVar(&uiFlags.group, "group", "", "Assign the client to this group id")
	f.BoolVar(&uiFlags.clearGroup, "clear-group", false, "Remove the client from its group")
	f.StringSliceVar(&uiFlags.badges, "badges", nil, "Replace the custom badges")
	f.IntVar(&uiFlags.order, "order", 0, "Display order")

	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsCreateCmd)
	clientsCmd.AddCommand(clientsShowCmd)
	clientsCmd.AddCommand(clientsValidateCmd)
	clientsCmd.AddCommand(clientsUICmd)
}
