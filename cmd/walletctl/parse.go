package main

import (
	"encoding/json"
	"fmt"
	"os"

	"walletclear/internal/analysis"
	"walletclear/internal/application"
	"walletclear/internal/bootstrap"
	"walletclear/internal/domain"

	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var (
		file    string
		address string
		chain   string
		price   float64
		workers int
	)
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Classify a JSON array of raw explorer records offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var raw []domain.RawTransaction
			if err := json.Unmarshal(payload, &raw); err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}

			subject, target, _, err := application.ValidateRequest(application.AnalyzeRequest{Address: address, Chain: chain})
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.ParserWorkers = workers
			}

			parsed := bootstrap.NewParser(cfg).Parse(raw, subject, target, price)
			return printJSON(cmd.OutOrStdout(), analysis.Summarize(subject, target.Key, parsed))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON array of raw records")
	cmd.Flags().StringVar(&address, "address", "", "wallet address the records belong to")
	cmd.Flags().StringVar(&chain, "chain", "ethereum", "chain key")
	cmd.Flags().Float64Var(&price, "price", 0, "native token price in USD")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel parser workers")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
