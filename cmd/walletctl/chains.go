package main

import (
	"fmt"
	"text/tabwriter"

	"walletclear/internal/domain"

	"github.com/spf13/cobra"
)

func newChainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List supported chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tSYMBOL\tCHAIN ID\tEXPLORER")
			for _, chain := range domain.SupportedChains() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", chain.Key, chain.Name, chain.Symbol, chain.ChainID, chain.Explorer)
			}
			return w.Flush()
		},
	}
}
