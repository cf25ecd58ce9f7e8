package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/b4b-group/leadrank/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with every default filled in",
	Long: `Generates a starter config.yaml from the built-in defaults.
Credentials are intentionally left blank; set them in the file, in
.env, or via LEADRANK_-prefixed environment variables.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "config.yaml"

		if _, err := os.Stat(path); err == nil && !configInitForce {
			return eris.Errorf("config: %s already exists (use --force to overwrite)", path)
		}

		v := viper.New()
		config.SetDefaults(v)

		data, err := yaml.Marshal(v.AllSettings())
		if err != nil {
			return eris.Wrap(err, "config: marshal defaults")
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrapf(err, "config: write %s", path)
		}

		cmd.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
