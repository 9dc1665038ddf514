// Package cmd provides the CLI commands for the passcode application.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/snowmerak/passcode/internal/config"
	"github.com/snowmerak/passcode/internal/logging"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "passcode",
	Short: "One-time passcode derivation utilities",
	Long: `Derive one-time passcodes from a shared key and a challenge using
keyed-hash algorithms, computed inside a sandboxed WASM module when one
is available.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}

		cfg := config.Get()
		debug, _ := cmd.Flags().GetBool("debug")
		human := cfg.Log.Format == "human"
		if cmd.Flags().Changed("human") {
			human, _ = cmd.Flags().GetBool("human")
		}
		logging.InitLogger(debug || cfg.Log.Level == "debug", human)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("human", false, "Human-readable log output instead of JSON")
}
