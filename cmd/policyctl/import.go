package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zachtilly/childcare-api/importer"
)

const previewRows = 5

var importYes bool

var importCSVCmd = &cobra.Command{
	Use:   "import-csv <file>",
	Short: "Import policy values from a CSV file",
	Long: `Validate and import a CSV of policy values.

Required columns: state_code, metric_slug, value, data_source, confidence_level
Optional columns: effective_date, source_url, notes

The whole file is validated first; nothing is written if any line has a
problem. Existing current values are updated, new ones inserted.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportCSV,
}

func init() {
	importCSVCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Import without asking for confirmation")
}

func runImportCSV(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	rows, err := importer.Parse(f)
	if err != nil {
		if errors.Is(err, importer.ErrNoRows) {
			fmt.Println("No data rows found in CSV")
			return nil
		}
		return err
	}
	fmt.Printf("Found %d rows\n\n", len(rows))

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	im := importer.New(a.svc, a.log)
	plan, problems, err := im.Check(ctx, rows)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		fmt.Println("Validation errors:")
		for _, p := range problems {
			fmt.Println("  " + p)
		}
		return fmt.Errorf("%d validation errors, nothing imported", len(problems))
	}

	fmt.Println("Preview:")
	for _, r := range plan.Preview(previewRows) {
		fmt.Printf("  %s  %-28s %-16s %s\n", r.StateCode, r.MetricSlug, r.Value, r.ConfidenceLevel)
	}
	if len(rows) > previewRows {
		fmt.Printf("  ... and %d more\n", len(rows)-previewRows)
	}
	fmt.Println("\nRows per state:")
	for _, sc := range plan.Summary() {
		fmt.Printf("  %s: %d\n", sc.StateCode, sc.Rows)
	}
	fmt.Println()

	if !importYes {
		in := bufio.NewReader(os.Stdin)
		if !confirm(in, fmt.Sprintf("Import %d rows? (yes/no): ", len(rows))) {
			fmt.Println("Import cancelled")
			return nil
		}
	}

	res := im.Import(ctx, plan)
	fmt.Printf("\nInserted: %d\nUpdated:  %d\nErrors:   %d\n", res.Inserted, res.Updated, len(res.Errors))
	for _, e := range res.Errors {
		fmt.Printf("  Line %d: %s\n", e.Line, e.Error)
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d rows failed", len(res.Errors))
	}
	return nil
}

// prompt prints label and returns the trimmed line typed in reply.
func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func confirm(in *bufio.Reader, label string) bool {
	switch strings.ToLower(prompt(in, label)) {
	case "y", "yes":
		return true
	}
	return false
}
