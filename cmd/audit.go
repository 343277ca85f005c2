package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wagner-austin/tree-bot/internal/audit"
	"github.com/wagner-austin/tree-bot/internal/resolve"
)

var (
	auditClasses      string
	auditMaxFragments int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Lint the compound class map with naming heuristics",
	Long: `Report the class distribution, mappings whose class disagrees with naming heuristics,
and short single-token keys. Findings are advisory and include false positives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := auditClasses
		if path == "" && cfg != nil {
			path = cfg.ClassesPath
		}
		if path == "" {
			return errors.New("--classes is required (or set classes_path in config)")
		}
		m, err := resolve.LoadClassMap(path)
		if err != nil {
			return err
		}
		rep := audit.Run(m)
		fmt.Fprint(cmd.OutOrStdout(), rep.Markdown(auditMaxFragments))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&auditClasses, "classes", "", "compound class map YAML (default: classes_path from config)")
	auditCmd.Flags().IntVar(&auditMaxFragments, "max-fragments", 20, "short entries to list (0 lists all)")
}
