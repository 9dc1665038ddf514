package cmd

import (
	"github.com/spf13/cobra"
)

// backendCmd reports which compute backend the current configuration
// resolves to, which is useful when diagnosing sandbox or bridge setup.
var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Show the compute backend the engine selects",
	Long: `Probe the configured backends in order (sandbox, bridge, native) and
print the one a new engine would use.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		cmd.Println(engine.BackendName())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendCmd)

	backendCmd.Flags().String("backend", "", "Backend mode: auto, sandbox, bridge, native")
	backendCmd.Flags().String("module", "", "Path to the sandbox WASM module")
}
