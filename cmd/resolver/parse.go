package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entity-resolver/internal/normalize"
)

func createParseCmd() *cobra.Command {
	var address, name string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Show how a name and address are normalised",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" && name == "" {
				return errors.New("--address or --name is required")
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if name != "" {
				fmt.Fprintf(out, "%-14s %s\n", "name", normalize.NormalizeName(name))
			}
			if address == "" {
				return nil
			}

			canon := newCanonicalizer()
			comps, err := canon.Components(ctx, address)
			if err != nil {
				return fmt.Errorf("parse address: %w", err)
			}
			for _, f := range []struct{ label, value string }{
				{"house_number", comps.HouseNumber},
				{"road", comps.Road},
				{"unit", comps.Unit},
				{"city", comps.City},
				{"state", comps.State},
				{"postcode", comps.Postcode},
			} {
				if f.value != "" {
					fmt.Fprintf(out, "%-14s %s\n", f.label, f.value)
				}
			}
			fmt.Fprintf(out, "%-14s %s\n", "canonical", canon.CanonicalAddress(ctx, address))
			fmt.Fprintf(out, "%-14s %s\n", "simple", canon.SimpleAddress(ctx, address))
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "raw address")
	cmd.Flags().StringVar(&name, "name", "", "raw party name")
	return cmd
}
