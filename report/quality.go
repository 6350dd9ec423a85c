/*
quality.go - Data-quality report over current policy values

PURPOSE:
  Summarizes how complete and how trustworthy the current dataset is:
  coverage of the state x metric grid, confidence mix, share of
  generated (estimated) values, and where to focus data entry next.

SCORING:
  score = (high*1.0 + medium*0.6 + low*0.3) / records * 100

  >= 80  Excellent
  >= 60  Good
  >= 40  Fair
  else   Poor

  Percentages are rounded half-up to one decimal place.

SEE ALSO:
  - api/admin.go: GET /api/admin/report
  - cmd/policyctl/report.go: text rendering
*/
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/zachtilly/childcare-api/policy"
)

const (
	generatedStateThreshold   = 50.0
	lowConfidenceMetricThresh = 30.0
	maxListedMissing          = 20
	maxPriorityStates         = 10
)

// Rating bands for the overall score.
const (
	RatingExcellent = "Excellent"
	RatingGood      = "Good"
	RatingFair      = "Fair"
	RatingPoor      = "Poor"
)

type MissingPair struct {
	StateCode  string `json:"state_code"`
	MetricSlug string `json:"metric_slug"`
}

type ConfidenceBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type StateFlag struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	GeneratedPct float64 `json:"generated_pct"`
}

type MetricFlag struct {
	Slug             string  `json:"slug"`
	Name             string  `json:"name"`
	LowConfidencePct float64 `json:"low_confidence_pct"`
}

type Report struct {
	States          int                 `json:"states"`
	Metrics         int                 `json:"metrics"`
	Records         int                 `json:"records"`
	ExpectedRecords int                 `json:"expected_records"`
	Completeness    float64             `json:"completeness"`
	Missing         []MissingPair       `json:"missing"`
	Confidence      ConfidenceBreakdown `json:"confidence"`
	Generated       int                 `json:"generated"`
	Manual          int                 `json:"manual"`
	PriorityStates  []StateFlag         `json:"priority_states"`
	WeakMetrics     []MetricFlag        `json:"weak_metrics"`
	Score           float64             `json:"score"`
	Rating          string              `json:"rating"`
	Recommendations []string            `json:"recommendations"`
}

// Source is the slice of policy.Store the report reads.
type Source interface {
	ListStates(ctx context.Context) ([]policy.State, error)
	ListMetrics(ctx context.Context) ([]policy.Metric, error)
	ListCurrentRecords(ctx context.Context) ([]policy.Record, error)
}

// Load fetches states, metrics and current records concurrently and builds
// the report.
func Load(ctx context.Context, src Source) (*Report, error) {
	var (
		states  []policy.State
		metrics []policy.Metric
		records []policy.Record
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		states, err = src.ListStates(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		metrics, err = src.ListMetrics(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = src.ListCurrentRecords(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load report data: %w", err)
	}
	return Build(states, metrics, records), nil
}

// IsGenerated reports whether a record holds a synthetic estimate rather
// than a sourced value.
func IsGenerated(r policy.Record) bool {
	return strings.Contains(r.CreatedBy, "generated") || strings.Contains(r.DataSource, "Generated based on")
}

// Build computes the report. Only current records should be passed in.
func Build(states []policy.State, metrics []policy.Metric, records []policy.Record) *Report {
	rep := &Report{
		States:          len(states),
		Metrics:         len(metrics),
		Records:         len(records),
		ExpectedRecords: len(states) * len(metrics),
		Missing:         []MissingPair{},
		PriorityStates:  []StateFlag{},
		WeakMetrics:     []MetricFlag{},
	}
	rep.Completeness = percent(rep.Records, rep.ExpectedRecords)

	type pair struct{ state, metric string }
	have := make(map[pair]bool, len(records))
	byState := make(map[string][]policy.Record)
	byMetric := make(map[string][]policy.Record)
	for _, r := range records {
		have[pair{r.StateID, r.MetricID}] = true
		byState[r.StateID] = append(byState[r.StateID], r)
		byMetric[r.MetricID] = append(byMetric[r.MetricID], r)

		switch r.ConfidenceLevel {
		case policy.ConfidenceHigh:
			rep.Confidence.High++
		case policy.ConfidenceMedium:
			rep.Confidence.Medium++
		case policy.ConfidenceLow:
			rep.Confidence.Low++
		}
		if IsGenerated(r) {
			rep.Generated++
		} else {
			rep.Manual++
		}
	}

	for _, s := range states {
		for _, m := range metrics {
			if !have[pair{s.ID, m.ID}] {
				rep.Missing = append(rep.Missing, MissingPair{StateCode: s.Code, MetricSlug: m.Slug})
			}
		}
	}
	sort.Slice(rep.Missing, func(i, j int) bool {
		if rep.Missing[i].StateCode != rep.Missing[j].StateCode {
			return rep.Missing[i].StateCode < rep.Missing[j].StateCode
		}
		return rep.Missing[i].MetricSlug < rep.Missing[j].MetricSlug
	})

	for _, s := range states {
		rs := byState[s.ID]
		gen := 0
		for _, r := range rs {
			if IsGenerated(r) {
				gen++
			}
		}
		if pct := percent(gen, len(rs)); pct > generatedStateThreshold {
			rep.PriorityStates = append(rep.PriorityStates, StateFlag{Code: s.Code, Name: s.Name, GeneratedPct: pct})
		}
	}
	sort.SliceStable(rep.PriorityStates, func(i, j int) bool {
		return rep.PriorityStates[i].GeneratedPct > rep.PriorityStates[j].GeneratedPct
	})

	for _, m := range metrics {
		rs := byMetric[m.ID]
		low := 0
		for _, r := range rs {
			if r.ConfidenceLevel == policy.ConfidenceLow {
				low++
			}
		}
		if pct := percent(low, len(rs)); pct > lowConfidenceMetricThresh {
			rep.WeakMetrics = append(rep.WeakMetrics, MetricFlag{Slug: m.Slug, Name: m.Name, LowConfidencePct: pct})
		}
	}

	rep.Score = score(rep.Confidence, rep.Records)
	rep.Rating = Rating(rep.Score)
	rep.Recommendations = recommend(rep)
	return rep
}

func score(c ConfidenceBreakdown, n int) float64 {
	if n == 0 {
		return 0
	}
	weighted := decimal.NewFromInt(int64(c.High)).
		Add(decimal.NewFromInt(int64(c.Medium)).Mul(decimal.RequireFromString("0.6"))).
		Add(decimal.NewFromInt(int64(c.Low)).Mul(decimal.RequireFromString("0.3")))
	f, _ := weighted.Div(decimal.NewFromInt(int64(n))).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return f
}

func Rating(score float64) string {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 60:
		return RatingGood
	case score >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}

func recommend(rep *Report) []string {
	var out []string
	if rep.Records < rep.ExpectedRecords {
		out = append(out, fmt.Sprintf("Fill in missing %d policy records", rep.ExpectedRecords-rep.Records))
	}
	if rep.Records > 0 && rep.Generated*2 > rep.Records {
		out = append(out, "Replace generated data with verified sources")
	}
	if rep.Confidence.Low > 0 {
		out = append(out, fmt.Sprintf("Improve %d low-confidence records", rep.Confidence.Low))
	}
	if len(rep.PriorityStates) > 0 {
		codes := make([]string, 0, 3)
		for i := 0; i < len(rep.PriorityStates) && i < 3; i++ {
			codes = append(codes, rep.PriorityStates[i].Code)
		}
		out = append(out, "Start with high-population states: "+strings.Join(codes, ", "))
	}
	out = append(out, "Use official state agency websites as sources")
	return out
}

// percent returns part/whole*100 rounded to one decimal, or 0 for an
// empty whole.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(whole)), 1).
		Float64()
	return f
}

// =============================================================================
// TEXT RENDERING
// =============================================================================

// Render writes the report in the plain-text layout used by the CLI.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintln(w, "Child Care Policy Data Validation Report")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "States: %d\nMetrics: %d\nPolicy records: %d\nExpected records: %d\n\n",
		r.States, r.Metrics, r.Records, r.ExpectedRecords)
	fmt.Fprintf(w, "Data completeness: %.1f%%\n\n", r.Completeness)

	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "Missing data: %d records\n", len(r.Missing))
		if len(r.Missing) <= maxListedMissing {
			for _, m := range r.Missing {
				fmt.Fprintf(w, "  - %s: %s\n", m.StateCode, m.MetricSlug)
			}
		} else {
			fmt.Fprintf(w, "  (too many to display, %d total)\n", len(r.Missing))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Confidence:")
	fmt.Fprintf(w, "  high:   %d (%.1f%%)\n", r.Confidence.High, percent(r.Confidence.High, r.Records))
	fmt.Fprintf(w, "  medium: %d (%.1f%%)\n", r.Confidence.Medium, percent(r.Confidence.Medium, r.Records))
	fmt.Fprintf(w, "  low:    %d (%.1f%%)\n\n", r.Confidence.Low, percent(r.Confidence.Low, r.Records))

	fmt.Fprintln(w, "Sources:")
	fmt.Fprintf(w, "  generated: %d (%.1f%%)\n", r.Generated, percent(r.Generated, r.Records))
	fmt.Fprintf(w, "  manual:    %d (%.1f%%)\n\n", r.Manual, percent(r.Manual, r.Records))

	if len(r.PriorityStates) > 0 {
		fmt.Fprintln(w, "Priority states needing real data (>50% generated):")
		for i, s := range r.PriorityStates {
			if i == maxPriorityStates {
				break
			}
			fmt.Fprintf(w, "  %s (%s): %.0f%% generated\n", s.Code, s.Name, s.GeneratedPct)
		}
		fmt.Fprintln(w)
	}
	if len(r.WeakMetrics) > 0 {
		fmt.Fprintln(w, "Metrics with low confidence data (>30%):")
		for _, m := range r.WeakMetrics {
			fmt.Fprintf(w, "  %s: %.0f%% low confidence\n", m.Name, m.LowConfidencePct)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Recommendations:")
	for i, rec := range r.Recommendations {
		fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
	}
	fmt.Fprintf(w, "\nOverall data quality score: %.1f/100 (%s)\n", r.Score, r.Rating)
}
