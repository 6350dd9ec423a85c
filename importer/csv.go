/*
csv.go - Bulk import of policy values from a spreadsheet export

PURPOSE:
  Reads a CSV file of current values keyed by state code and metric slug,
  checks every row before anything is written, then upserts each row
  through policy.Service with created_by "csv-import".

FILE FORMAT:
  state_code,metric_slug,value,effective_date,data_source,source_url,confidence_level,notes
  CA,infant-cost,"$17,500",2024-01-01,CA Dept of Social Services,,high,

  Header names are case-insensitive. state_code, metric_slug, value,
  data_source and confidence_level are required columns; effective_date,
  source_url and notes are optional. Blank lines are skipped.

TWO PHASES:
  Check    Pure validation, no writes. Any problem stops the import and
           every problem is reported with its file line number.
  Import   One upsert per row. A failing row is counted and reported but
           never stops the rest.

SEE ALSO:
  - policy/value.go: FormatCSV coercion
  - cmd/policyctl/import.go: interactive front end
*/
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/zachtilly/childcare-api/logger"
	"github.com/zachtilly/childcare-api/policy"
)

var (
	requiredColumns = []string{"state_code", "metric_slug", "value", "data_source", "confidence_level"}
	optionalColumns = []string{"effective_date", "source_url", "notes"}
)

// ErrNoRows is returned by Parse for a file with a header and no data.
var ErrNoRows = errors.New("no data rows found in CSV")

// Row is one data line. Line is the 1-based line number in the file.
type Row struct {
	Line            int
	StateCode       string
	MetricSlug      string
	Value           string
	EffectiveDate   string
	DataSource      string
	SourceURL       string
	ConfidenceLevel string
	Notes           string
}

// =============================================================================
// PARSING
// =============================================================================

// Parse reads the header and every data row.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		rows = append(rows, Row{
			Line:            line,
			StateCode:       get("state_code"),
			MetricSlug:      get("metric_slug"),
			Value:           get("value"),
			EffectiveDate:   get("effective_date"),
			DataSource:      get("data_source"),
			SourceURL:       get("source_url"),
			ConfidenceLevel: strings.ToLower(get("confidence_level")),
			Notes:           get("notes"),
		})
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Columns lists the recognized header names, required first.
func Columns() []string {
	return append(append([]string{}, requiredColumns...), optionalColumns...)
}

// =============================================================================
// CHECKING
// =============================================================================

// ValidateRow reports format problems that need no database lookup.
func ValidateRow(row Row) []string {
	var errs []string
	prefix := fmt.Sprintf("Line %d: ", row.Line)
	if row.StateCode == "" {
		errs = append(errs, prefix+"Missing state_code")
	} else if !policy.ValidStateCode(row.StateCode) {
		errs = append(errs, fmt.Sprintf("%sInvalid state_code '%s' (must be 2 uppercase letters)", prefix, row.StateCode))
	}
	if row.MetricSlug == "" {
		errs = append(errs, prefix+"Missing metric_slug")
	}
	if row.Value == "" {
		errs = append(errs, prefix+"Missing value")
	}
	if row.DataSource == "" {
		errs = append(errs, prefix+"Missing data_source")
	}
	if row.ConfidenceLevel == "" {
		errs = append(errs, prefix+"Missing confidence_level")
	} else if !policy.ConfidenceLevel(row.ConfidenceLevel).Valid() {
		errs = append(errs, fmt.Sprintf("%sInvalid confidence_level '%s' (must be high, medium, or low)", prefix, row.ConfidenceLevel))
	}
	if row.EffectiveDate != "" && !policy.ValidDate(row.EffectiveDate) {
		errs = append(errs, fmt.Sprintf("%sInvalid effective_date '%s' (must be YYYY-MM-DD)", prefix, row.EffectiveDate))
	}
	return errs
}

// Plan is a checked file ready to import.
type Plan struct {
	Rows    []Row
	states  map[string]*policy.State
	metrics map[string]*policy.Metric
}

// StateCount is one line of the per-state summary.
type StateCount struct {
	StateCode string
	Rows      int
}

// Preview returns up to n leading rows.
func (p *Plan) Preview(n int) []Row {
	if n > len(p.Rows) {
		n = len(p.Rows)
	}
	return p.Rows[:n]
}

// Summary counts rows per state, ordered by state code.
func (p *Plan) Summary() []StateCount {
	counts := make(map[string]int)
	for _, r := range p.Rows {
		counts[r.StateCode]++
	}
	out := make([]StateCount, 0, len(counts))
	for code, n := range counts {
		out = append(out, StateCount{StateCode: code, Rows: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StateCode < out[j].StateCode })
	return out
}

// =============================================================================
// IMPORTING
// =============================================================================

type Importer struct {
	svc *policy.Service
	log *logger.Logger
}

func New(svc *policy.Service, log *logger.Logger) *Importer {
	return &Importer{svc: svc, log: log.With("component", "importer")}
}

// Check validates every row and resolves states and metrics. The returned
// problems are non-empty when the file must not be imported.
func (im *Importer) Check(ctx context.Context, rows []Row) (*Plan, []string, error) {
	var problems []string
	for _, r := range rows {
		problems = append(problems, ValidateRow(r)...)
	}
	if len(problems) > 0 {
		return nil, problems, nil
	}

	store := im.svc.Store()
	states, err := store.ListStates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load states: %w", err)
	}
	metrics, err := store.ListMetrics(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	plan := &Plan{
		Rows:    rows,
		states:  make(map[string]*policy.State, len(states)),
		metrics: make(map[string]*policy.Metric, len(metrics)),
	}
	for i := range states {
		plan.states[states[i].Code] = &states[i]
	}
	for i := range metrics {
		plan.metrics[metrics[i].Slug] = &metrics[i]
	}

	var unknownStates, unknownMetrics []string
	for _, r := range rows {
		if _, ok := plan.states[r.StateCode]; !ok {
			unknownStates = append(unknownStates, fmt.Sprintf("Line %d: Unknown state '%s'", r.Line, r.StateCode))
		}
		if _, ok := plan.metrics[r.MetricSlug]; !ok {
			unknownMetrics = append(unknownMetrics, fmt.Sprintf("Line %d: Unknown metric '%s'", r.Line, r.MetricSlug))
		}
	}
	problems = append(unknownStates, unknownMetrics...)
	if len(problems) > 0 {
		return nil, problems, nil
	}
	return plan, nil, nil
}

type RowError struct {
	Line  int
	Error string
}

type Result struct {
	Inserted int
	Updated  int
	Errors   []RowError
}

// Import upserts every row of a checked plan.
func (im *Importer) Import(ctx context.Context, plan *Plan) Result {
	var res Result
	for _, r := range plan.Rows {
		state, metric := plan.states[r.StateCode], plan.metrics[r.MetricSlug]

		value, err := metric.DataType.FormatCSV(r.Value)
		if err == nil {
			var outcome policy.Outcome
			_, outcome, err = im.svc.Upsert(ctx, state.ID, metric.ID, value, policy.Metadata{
				EffectiveDate:   r.EffectiveDate,
				DataSource:      r.DataSource,
				SourceURL:       r.SourceURL,
				ConfidenceLevel: policy.ConfidenceLevel(r.ConfidenceLevel),
				Notes:           r.Notes,
				CreatedBy:       policy.CreatedByImport,
			})
			if err == nil {
				if outcome == policy.OutcomeInserted {
					res.Inserted++
				} else {
					res.Updated++
				}
				continue
			}
		}

		msg := policy.ErrorMessage(err)
		res.Errors = append(res.Errors, RowError{Line: r.Line, Error: msg})
		im.log.Warn("row failed", "line", r.Line, "state", r.StateCode, "metric", r.MetricSlug, "error", msg)
	}
	im.log.Info("import finished", "inserted", res.Inserted, "updated", res.Updated, "errors", len(res.Errors))
	return res
}
