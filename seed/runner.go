/*
runner.go - Loads reference and demo data into a store

PURPOSE:
  Four independent steps, run in this order on an empty database:

    SeedStates     50 reference states (skipped if any state exists)
    SeedCatalog    5 categories and 12 metrics (existing slugs skipped)
    SeedSample     hand-collected values for 8 states, batches of 50
    SeedGenerated  regional estimates for the other 42, batches of 100

BATCHES:
  Records are written with InsertRecords, so each batch lands entirely or
  not at all. A failed batch (for example one that would open a second
  current record) is logged and skipped; later batches still run.

SEE ALSO:
  - cmd/policyctl/seed.go
*/
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zachtilly/childcare-api/logger"
	"github.com/zachtilly/childcare-api/policy"
)

const (
	SampleBatchSize    = 50
	GeneratedBatchSize = 100
	CreatedBySample    = "seed-script"
)

// BatchResult summarizes one record-seeding step.
type BatchResult struct {
	Prepared      int
	Inserted      int
	Skipped       int
	FailedBatches int
}

type Runner struct {
	svc   *policy.Service
	store policy.Store
	log   *logger.Logger
	now   func() time.Time
}

func NewRunner(svc *policy.Service, log *logger.Logger) *Runner {
	return &Runner{
		svc:   svc,
		store: svc.Store(),
		log:   log.With("component", "seed"),
		now:   time.Now,
	}
}

// SeedStates inserts the reference states unless any state already
// exists. It returns the number inserted.
func (r *Runner) SeedStates(ctx context.Context) (int, error) {
	existing, err := r.store.ListStates(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		r.log.Warn("states already present, skipping", "count", len(existing))
		return 0, nil
	}
	now := r.now().UTC()
	for _, st := range States {
		st.ID = uuid.NewString()
		st.CreatedAt = now
		if err := r.store.SaveState(ctx, st); err != nil {
			return 0, fmt.Errorf("failed to insert state %s: %w", st.Code, err)
		}
	}
	r.log.Info("states seeded", "count", len(States))
	return len(States), nil
}

// SeedCatalog creates every default category and metric whose slug is not
// taken yet. It returns the number of categories and metrics created.
func (r *Runner) SeedCatalog(ctx context.Context) (categories, metrics int, err error) {
	for _, c := range Categories {
		existing, err := r.store.GetCategory(ctx, c.Slug)
		if err != nil {
			return categories, metrics, err
		}
		if existing != nil {
			continue
		}
		if _, err := r.svc.CreateCategory(ctx, c); err != nil {
			return categories, metrics, fmt.Errorf("category %s: %w", c.Slug, err)
		}
		categories++
	}
	for _, cm := range Metrics {
		existing, err := r.store.GetMetric(ctx, cm.Metric.Slug)
		if err != nil {
			return categories, metrics, err
		}
		if existing != nil {
			continue
		}
		m := cm.Metric
		m.CategoryID = cm.CategorySlug
		if _, err := r.svc.CreateMetric(ctx, m); err != nil {
			return categories, metrics, fmt.Errorf("metric %s: %w", m.Slug, err)
		}
		metrics++
	}
	r.log.Info("catalog seeded", "categories", categories, "metrics", metrics)
	return categories, metrics, nil
}

type lookups struct {
	states  map[string]policy.State
	metrics map[string]policy.Metric
}

func (r *Runner) loadLookups(ctx context.Context) (lookups, error) {
	states, err := r.store.ListStates(ctx)
	if err != nil {
		return lookups{}, err
	}
	metrics, err := r.store.ListMetrics(ctx)
	if err != nil {
		return lookups{}, err
	}
	l := lookups{states: make(map[string]policy.State), metrics: make(map[string]policy.Metric)}
	for _, s := range states {
		l.states[s.Code] = s
	}
	for _, m := range metrics {
		l.metrics[m.Slug] = m
	}
	return l, nil
}

// SeedSample inserts the hand-collected sample values.
func (r *Runner) SeedSample(ctx context.Context) (BatchResult, error) {
	l, err := r.loadLookups(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	var (
		res     BatchResult
		records []policy.Record
	)
	for _, e := range Sample {
		st, okS := l.states[e.StateCode]
		m, okM := l.metrics[e.MetricSlug]
		if !okS || !okM {
			r.log.Warn("skipping sample entry", "state", e.StateCode, "metric", e.MetricSlug)
			res.Skipped++
			continue
		}
		records = append(records, r.record(st, m, e.Value, e.Source, e.Confidence, CreatedBySample))
	}
	return r.insertBatches(ctx, records, SampleBatchSize, res), nil
}

// SeedGenerated inserts regional estimates for every state outside
// SampleStates. The seed makes runs reproducible.
func (r *Runner) SeedGenerated(ctx context.Context, seed int64) (BatchResult, error) {
	l, err := r.loadLookups(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	sampled := make(map[string]bool, len(SampleStates))
	for _, c := range SampleStates {
		sampled[c] = true
	}

	gen := NewGenerator(seed)
	var (
		res     BatchResult
		records []policy.Record
	)
	// Iterate the fixed lists, not the maps, so a seed always yields the
	// same values.
	for _, ref := range States {
		st, ok := l.states[ref.Code]
		if !ok || sampled[ref.Code] {
			continue
		}
		for _, cm := range Metrics {
			m, ok := l.metrics[cm.Metric.Slug]
			if !ok {
				continue
			}
			v, ok := gen.Value(st, m.Slug)
			if !ok {
				res.Skipped++
				continue
			}
			records = append(records, r.record(st, m, v, GeneratedSource(st.Region), policy.ConfidenceMedium, CreatedByGenerated))
		}
	}
	return r.insertBatches(ctx, records, GeneratedBatchSize, res), nil
}

func (r *Runner) record(st policy.State, m policy.Metric, v policy.Envelope, source string, conf policy.ConfidenceLevel, createdBy string) policy.Record {
	now := r.now().UTC()
	return policy.Record{
		ID:              uuid.NewString(),
		StateID:         st.ID,
		MetricID:        m.ID,
		Value:           v,
		EffectiveDate:   SampleEffectiveDate,
		DataSource:      source,
		ConfidenceLevel: conf,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (r *Runner) insertBatches(ctx context.Context, records []policy.Record, size int, res BatchResult) BatchResult {
	res.Prepared = len(records)
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]
		if err := r.store.InsertRecords(ctx, batch); err != nil {
			res.FailedBatches++
			r.log.Error("batch failed, skipping", "batch", i/size+1, "size", len(batch), "error", err)
			continue
		}
		res.Inserted += len(batch)
		r.log.Debug("batch inserted", "batch", i/size+1, "inserted", res.Inserted, "prepared", res.Prepared)
	}
	r.log.Info("records seeded", "prepared", res.Prepared, "inserted", res.Inserted, "failed_batches", res.FailedBatches)
	return res
}
