package walletscan

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/walletscan/walletscan/internal/rules"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "rules",
		Short: "List filename and content rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Class", "Pattern", "Description", "Sensitive")
			all := append(rules.FilenameRules(), rules.ContentRules()...)
			for _, r := range all {
				sensitive := "no"
				if r.Sensitive {
					sensitive = "YES"
				}
				if err := table.Append([]string{string(r.Class), r.ID, r.Description, sensitive}); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Patterns are matched case-insensitively; the first match in each class wins.")
			return nil
		},
	})
}
