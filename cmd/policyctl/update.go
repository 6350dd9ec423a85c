package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zachtilly/childcare-api/policy"
)

const (
	createdByUpdate      = "manual-update-script"
	createdByInteractive = "interactive-entry"
)

var updateCmd = &cobra.Command{
	Use:   "update <state_code> <metric_slug> <value> [source] [source_url] [confidence]",
	Short: "Set the current value of one metric for one state",
	Example: `  policyctl update CA income-eligibility-fpl 200 "CA DSS" "https://..." high
  policyctl update TX subsidy-rate-infant 950 "TX HHS"
  policyctl update FL annual-inspection true "FL DCF"`,
	Args: cobra.RangeArgs(3, 6),
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return saveValue(cmd.Context(), a, entry{
		stateCode:  arg(0),
		metricSlug: arg(1),
		value:      arg(2),
		source:     arg(3),
		sourceURL:  arg(4),
		confidence: arg(5),
		createdBy:  createdByUpdate,
	})
}

// entry is a value typed by an operator, before it is resolved.
type entry struct {
	stateCode  string
	metricSlug string
	value      string
	source     string
	sourceURL  string
	confidence string
	createdBy  string
}

func saveValue(ctx context.Context, a *app, e entry) error {
	store := a.svc.Store()
	state, err := store.GetStateByCode(ctx, strings.ToUpper(e.stateCode))
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("state '%s' not found", e.stateCode)
	}
	metric, err := store.GetMetric(ctx, e.metricSlug)
	if err != nil {
		return err
	}
	if metric == nil {
		return fmt.Errorf("metric '%s' not found", e.metricSlug)
	}

	value, err := metric.DataType.FormatCSV(e.value)
	if err != nil {
		return err
	}
	if problems := metric.DataType.Validate(value, metric.AllowedValues); len(problems) > 0 {
		return fmt.Errorf("invalid value: %s", strings.Join(problems, "; "))
	}

	fmt.Printf("\nUpdating policy data:\n")
	fmt.Printf("  State:      %s (%s)\n", state.Name, state.Code)
	fmt.Printf("  Metric:     %s\n", metric.Name)
	fmt.Printf("  New value:  %s\n", value)
	fmt.Printf("  Source:     %s\n", orDefault(e.source, "Not specified"))
	fmt.Printf("  Confidence: %s\n\n", orDefault(e.confidence, string(policy.ConfidenceMedium)))

	rec, outcome, err := a.svc.Upsert(ctx, state.ID, metric.ID, value, policy.Metadata{
		DataSource:      e.source,
		SourceURL:       e.sourceURL,
		ConfidenceLevel: policy.ConfidenceLevel(strings.ToLower(e.confidence)),
		CreatedBy:       e.createdBy,
	})
	if err != nil {
		return fmt.Errorf("failed to update policy: %s", policy.ErrorMessage(err))
	}

	switch outcome {
	case policy.OutcomeInserted:
		fmt.Println("Created new policy data entry")
	case policy.OutcomeSuperseded:
		fmt.Println("Closed previous value and recorded a new one")
	default:
		fmt.Println("Updated existing policy data")
	}
	fmt.Printf("  Record ID: %s\n", rec.ID)
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// =============================================================================
// INTERACTIVE ENTRY
// =============================================================================

var enterCmd = &cobra.Command{
	Use:   "enter",
	Short: "Enter policy values interactively",
	Args:  cobra.NoArgs,
	RunE:  runEnter,
}

func runEnter(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	store := a.svc.Store()
	states, err := store.ListStates(ctx)
	if err != nil {
		return err
	}
	metrics, err := store.ListMetrics(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Child Care Policy Data Entry")
	fmt.Println(strings.Repeat("=", 40))

	in := bufio.NewReader(os.Stdin)
	for {
		if err := enterOne(ctx, a, in, states, metrics); err != nil {
			fmt.Println("Error:", err)
		}
		if !confirm(in, "\nEnter another policy? (yes/no): ") {
			break
		}
		fmt.Println()
	}
	fmt.Println("Goodbye!")
	return nil
}

func enterOne(ctx context.Context, a *app, in *bufio.Reader, states []policy.State, metrics []policy.Metric) error {
	codes := make([]string, len(states))
	for i, s := range states {
		codes[i] = s.Code
	}
	fmt.Println("Available states:", strings.Join(codes, ", "))

	code := strings.ToUpper(prompt(in, "Enter state code (e.g., CA): "))
	var state *policy.State
	for i := range states {
		if states[i].Code == code {
			state = &states[i]
		}
	}
	if state == nil {
		return fmt.Errorf("invalid state code %q", code)
	}
	fmt.Printf("\nSelected: %s\n\nAvailable metrics:\n", state.Name)

	for i, m := range metrics {
		fmt.Printf("  %d. %s (%s)\n", i+1, m.Name, m.Slug)
		if m.Unit != "" {
			fmt.Printf("     Type: %s, Unit: %s\n", m.DataType, m.Unit)
		} else {
			fmt.Printf("     Type: %s\n", m.DataType)
		}
	}
	n, err := strconv.Atoi(prompt(in, "\nEnter metric number: "))
	if err != nil || n < 1 || n > len(metrics) {
		return fmt.Errorf("invalid metric number")
	}
	metric := metrics[n-1]
	fmt.Printf("\nSelected: %s\n%s\n\n", metric.Name, metric.Description)

	label := "Enter value: "
	switch metric.DataType {
	case policy.DataBoolean:
		label = "Enter value (yes/no or true/false): "
	case policy.DataCurrency:
		label = "Enter value (USD, numbers only): "
	case policy.DataEnum:
		label = fmt.Sprintf("Enter value (%s): ", strings.Join(metric.AllowedValues, ", "))
	}

	e := entry{
		stateCode:  state.Code,
		metricSlug: metric.Slug,
		createdBy:  createdByInteractive,
	}
	e.value = prompt(in, label)
	e.source = prompt(in, "Data source (e.g., \"CA Department of Social Services\"): ")
	e.sourceURL = prompt(in, "Source URL (optional, press enter to skip): ")
	e.confidence = prompt(in, "Confidence level (high/medium/low, default: medium): ")

	if !confirm(in, "Save this data? (yes/no): ") {
		fmt.Println("Cancelled")
		return nil
	}
	return saveValue(ctx, a, e)
}
