package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/zachtilly/childcare-api/report"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the data quality report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := report.Load(cmd.Context(), a.store)
		if err != nil {
			return err
		}
		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		rep.Render(os.Stdout)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")
}
