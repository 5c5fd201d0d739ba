package main

import (
	"encoding/json"
	"fmt"
	"io"

	"walletclear/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "walletctl",
		Short:         "Inspect wallet histories for spam and address poisoning",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file first")

	root.AddCommand(newParseCmd(), newAnalyzeCmd(), newChainsCmd())
	return root
}

func loadConfig() (config.Config, error) {
	return config.Load(config.FromEnviron())
}

func printJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
