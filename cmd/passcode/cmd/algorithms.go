package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/snowmerak/passcode/pkg/otp"
)

// algorithmsCmd represents the algorithms command
var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List supported keyed-hash algorithms",
	Long:  `List all supported keyed-hash algorithms with their identifiers and parameter shapes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tName\tParameters")
		fmt.Fprintln(w, "--\t----\t----------")

		for _, alg := range otp.Algorithms() {
			fmt.Fprintf(w, "%d\t%s\t%s\n", uint32(alg), alg, parameterShape(alg))
		}

		return w.Flush()
	},
}

func parameterShape(alg otp.Algorithm) string {
	switch alg {
	case otp.SHA3KMAC128, otp.SHA3KMAC256:
		return "key, label, challenge"
	default:
		return "key, challenge"
	}
}

func init() {
	rootCmd.AddCommand(algorithmsCmd)
}
