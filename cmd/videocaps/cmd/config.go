package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/eternnoir/videocaps/pkg/config"
	"github.com/eternnoir/videocaps/pkg/logger"
)

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ".videocaps.yaml"
		if len(args) > 0 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		if err := config.CreateSampleConfig(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := appLoader
		v := loader.Viper()
		keys := v.AllKeys()
		sort.Strings(keys)

		tw := table.NewWriter()
		if logger.IsTerminal(os.Stdout) {
			tw.SetStyle(table.StyleRounded)
		} else {
			tw.SetStyle(table.StyleLight)
		}
		tw.AppendHeader(table.Row{"Key", "Value"})
		for _, key := range keys {
			tw.AppendRow(table.Row{key, fmt.Sprint(v.Get(key))})
		}
		if used := loader.GetConfigFile(); used != "" {
			tw.SetCaption("from %s", used)
		}
		fmt.Println(tw.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}
