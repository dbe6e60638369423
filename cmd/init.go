package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/supportdesk/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize supportdesk configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure supportdesk and writes the config file (default .supportdesk.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		if key := config.APIKeyEnvVar(cfg.Provider); key != "" && cfg.Analysis.Enabled {
			fmt.Printf("Remember to export %s before starting the server.\n", key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
