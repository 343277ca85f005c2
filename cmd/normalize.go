package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wagner-austin/tree-bot/internal/normalize"
)

var normalizeText bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize <name...>",
	Short: "Print the normalized form of compound names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fn := normalize.Compound
		if normalizeText {
			fn = normalize.Text
		}
		for _, a := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a, fn(a))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().BoolVar(&normalizeText, "text", false, "apply generic text normalization only")
}
