package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/kindred/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadPartial()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		if !cfg.LLM.HasProvider() {
			printWarning("no LLM provider configured; talk and serve will refuse to start")
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadPartial()
		if err != nil {
			return err
		}
		v, err := config.GetKey(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: fmt.Sprintf(`Set a configuration value.

Secret keys (API keys, server.api_token) go to the platform secret store.

Valid keys:
  %s`, strings.Join(config.ValidKeys(), "\n  ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
