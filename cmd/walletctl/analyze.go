package main

import (
	"walletclear/internal/application"
	"walletclear/internal/bootstrap"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		req     application.AnalyzeRequest
		persist bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch, classify and summarize a wallet page from the live explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, _, err := application.ValidateRequest(req); err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			wallet, err := bootstrap.NewWallet(cfg, bootstrap.Options{Persist: persist})
			if err != nil {
				return err
			}
			defer wallet.Close()

			summary, err := wallet.Service.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&req.Address, "address", "", "wallet address")
	cmd.Flags().StringVar(&req.Chain, "chain", "ethereum", "chain key")
	cmd.Flags().IntVar(&req.Page, "page", 1, "history page")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the summary in the configured database")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
