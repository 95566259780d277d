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

	"github.com/spf13/cobra"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/groups"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage client groups",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user-defined groups in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		list, err := svc.groups.ListGroups(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), list, func(w io.Writer) error {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tID\tNAME\tCOLOR")
			for _, g := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.DisplayOrder, g.ID, g.Name, g.Color)
			}
			return tw.Flush()
		})
	},
}

var groupColor string

var groupsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		g, err := svc.groups.CreateGroup(ctx, args[0], groupColor)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), g, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "created group %s (%s)\n", g.Name, g.ID)
			return err
		})
	},
}

var groupsUpdateCmd = &cobra.Command{
	Use:   "update GROUP_ID",
	Short: "Rename or recolor a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var upd groups.GroupUpdate
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			upd.Name = &name
		}
		if cmd.Flags().Changed("color") {
			color, _ := cmd.Flags().GetString("color")
			upd.Color = &color
		}
		if upd.Name == nil && upd.Color == nil {
			return fmt.Errorf("nothing to update: pass --name and/or --color")
		}

		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		g, err := svc.groups.UpdateGroup(ctx, args[0], upd)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), g, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "updated group %s (%s)\n", g.Name, g.ID)
			return err
		})
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:   "delete GROUP_ID",
	Short: "Delete a group and unassign its clients",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		deleted, err := svc.groups.DeleteGroup(ctx, args[0], svc.clients)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("group %s does not exist", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted group %s\n", args[0])
		return nil
	},
}

var groupsMembersCmd = &cobra.Command{
	Use:   "members GROUP_ID",
	Short: "List the clients assigned to a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		members := svc.groups.GetClientsInGroup(ctx, args[0], svc.clients)
		return render(cmd.OutOrStdout(), members, func(w io.Writer) error {
			for _, id := range members {
				fmt.Fprintln(w, id)
			}
			return nil
		})
	},
}

func init() {
	groupsCreateCmd.Flags().StringVar(&groupColor, "color", groups.DefaultColor, "Group color")
	groupsUpdateCmd.Flags().String("name", "", "New group name")
	groupsUpdateCmd.Flags().String("color", "", "New group color")

	groupsCmd.AddCommand(groupsListCmd)
	groupsCmd.AddCommand(groupsCreateCmd)
	groupsCmd.AddCommand(groupsUpdateCmd)
	groupsCmd.AddCommand(groupsDeleteCmd)
	groupsCmd.AddCommand(groupsMembersCmd)
}
