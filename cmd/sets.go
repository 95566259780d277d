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
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/clients"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/profile"
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "Manage a client's bundle (set) definitions",
}

var setsListCmd = &cobra.Command{
	Use:   "list CLIENT_ID",
	Short: "List bundle definitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		sets, err := svc.clients.GetSetDecoders(ctx, args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), sets, func(w io.Writer) error {
			skus := make([]string, 0, len(sets))
			for sku := range sets {
				skus = append(skus, sku)
			}
			slices.Sort(skus)
			for _, sku := range skus {
				parts := make([]string, 0, len(sets[sku]))
				for _, c := range sets[sku] {
					parts = append(parts, fmt.Sprintf("%s:%d", c.SKU, c.Quantity))
				}
				fmt.Fprintf(w, "%s = %s\n", sku, strings.Join(parts, " "))
			}
			return nil
		})
	},
}

var setsAddCmd = &cobra.Command{
	Use:   "add CLIENT_ID SET_SKU SKU:QTY [SKU:QTY...]",
	Short: "Create or replace a bundle definition",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := parseComponents(args[2:])
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

		if err := svc.clients.AddSet(ctx, args[0], args[1], components); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved set %s for client %s\n", args[1], clients.Canonical(args[0]))
		return nil
	},
}

var setsDeleteCmd = &cobra.Command{
	Use:   "delete CLIENT_ID SET_SKU",
	Short: "Delete a bundle definition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(loadedConfig)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		deleted, err := svc.clients.DeleteSet(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Fprintf(cmd.OutOrStdout(), "set %s not found\n", args[1])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted set %s\n", args[1])
		return nil
	},
}

// parseComponents reads SKU:QTY pairs. The SKU may itself contain colons;
// the quantity is whatever follows the last one.
func parseComponents(args []string) ([]profile.SetComponent, error) {
	out := make([]profile.SetComponent, 0, len(args))
	for _, arg := range args {
		i := strings.LastIndex(arg, ":")
		if i <= 0 || i == len(arg)-1 {
			return nil, fmt.Errorf("%w: component %q is not SKU:QTY", clients.ErrInvalidSet, arg)
		}
		qty, err := strconv.Atoi(arg[i+1:])
		if err != nil {
			return nil, fmt.Errorf("%w: component %q has a non-numeric quantity", clients.ErrInvalidSet, arg)
		}
		out = append(out, profile.SetComponent{SKU: arg[:i], Quantity: qty})
	}
	return out, nil
}

func init() {
	setsCmd.AddCommand(setsListCmd)
	setsCmd.AddCommand(setsAddCmd)
	setsCmd.AddCommand(setsDeleteCmd)
}
