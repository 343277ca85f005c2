package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wagner-austin/tree-bot/internal/table"
	"github.com/wagner-austin/tree-bot/internal/workbook"
)

var inspectSchema string

var inspectCmd = &cobra.Command{
	Use:   "inspect <workbook>",
	Short: "Locate the result table on every sheet and report its schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		schema := table.DefaultSchemaConfig()
		path := c.SchemaPath
		if cmd.Flags().Changed("schema") {
			path = inspectSchema
		}
		if path != "" {
			if schema, err = table.LoadSchemaConfig(path); err != nil {
				return err
			}
		}
		sheets, err := workbook.ReadSheets(args[0])
		if err != nil {
			return err
		}
		loc := table.NewLocator(schema, c.ScanLimit)
		out := cmd.OutOrStdout()
		for _, s := range sheets {
			if s.ReadErr != nil {
				fmt.Fprintf(out, "⚠ %s: %s (%v)\n", s.Name, table.ReasonReadError, s.ReadErr)
				continue
			}
			in, skipped := loc.Locate(s.Name, s.Grid)
			if skipped != nil {
				fmt.Fprintf(out, "⚠ %s: skipped (%s)\n", s.Name, skipped.Reason)
				continue
			}
			fmt.Fprintf(out, "✓ %s: %s schema, header row %d, %d data rows\n", s.Name, in.Schema, in.HeaderRow, in.Table.Len())
			fmt.Fprintf(out, "  columns: %v\n", loc.Headers().Normalize(in.Table.Columns))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectSchema, "schema", "", "schema YAML (default: built-in)")
}
