package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zachtilly/childcare-api/logger"
	"github.com/zachtilly/childcare-api/policy"
	"github.com/zachtilly/childcare-api/policy/memstore"
)

func newTestRunner(t *testing.T) (*Runner, *memstore.Memory) {
	t.Helper()
	store := memstore.New()
	return NewRunner(policy.NewService(store, logger.Nop()), logger.Nop()), store
}

func TestReferenceData(t *testing.T) {
	assert.Len(t, States, 50)
	assert.Len(t, Categories, 5)
	assert.Len(t, Metrics, 12)

	codes := make(map[string]bool)
	for _, s := range States {
		assert.True(t, policy.ValidStateCode(s.Code), s.Code)
		assert.False(t, codes[s.Code], "duplicate %s", s.Code)
		codes[s.Code] = true
		_, ok := Patterns[s.Region]
		assert.True(t, ok, "no pattern for region %q", s.Region)
	}
	for _, c := range SampleStates {
		assert.True(t, codes[c], c)
	}
}

func TestSeedStatesSkipsWhenPresent(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	n, err := r.SeedStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	n, err = r.SeedStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	r, store := newTestRunner(t)
	ctx := context.Background()

	cats, metrics, err := r.SeedCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, cats)
	assert.Equal(t, 12, metrics)

	cats, metrics, err = r.SeedCatalog(ctx)
	require.NoError(t, err)
	assert.Zero(t, cats)
	assert.Zero(t, metrics)

	m, err := store.GetMetric(ctx, "ratio-infant")
	require.NoError(t, err)
	require.NotNil(t, m)
	c, err := store.GetCategory(ctx, m.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "quality-safety", c.Slug)
}

func TestSeedSampleAndGenerated(t *testing.T) {
	r, store := newTestRunner(t)
	ctx := context.Background()
	_, err := r.SeedStates(ctx)
	require.NoError(t, err)
	_, _, err = r.SeedCatalog(ctx)
	require.NoError(t, err)

	// WHEN: Sample data is seeded
	res, err := r.SeedSample(ctx)
	require.NoError(t, err)

	// THEN: Every entry lands in two batches
	assert.Equal(t, BatchResult{Prepared: 88, Inserted: 88}, res)

	// WHEN: Generated data is seeded for the remaining 42 states
	res, err = r.SeedGenerated(ctx, 1)
	require.NoError(t, err)

	// THEN: 11 covered metrics each, teacher-education-req skipped
	assert.Equal(t, 42*11, res.Prepared)
	assert.Equal(t, 42*11, res.Inserted)
	assert.Equal(t, 42, res.Skipped)
	assert.Zero(t, res.FailedBatches)

	records, err := store.ListCurrentRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 88+42*11)

	// AND: Re-running fails every batch without touching existing data
	res, err = r.SeedSample(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FailedBatches)
	assert.Zero(t, res.Inserted)

	records, err = store.ListCurrentRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 88+42*11)
}

func TestSampleValuesAreValid(t *testing.T) {
	bySlug := make(map[string]policy.Metric)
	for _, cm := range Metrics {
		bySlug[cm.Metric.Slug] = cm.Metric
	}
	for _, e := range Sample {
		m, ok := bySlug[e.MetricSlug]
		require.True(t, ok, e.MetricSlug)
		assert.Empty(t, m.DataType.Validate(e.Value, m.AllowedValues), "%s %s", e.StateCode, e.MetricSlug)
	}
}

func TestGeneratorIsDeterministicAndValid(t *testing.T) {
	a, b := NewGenerator(42), NewGenerator(42)

	for _, st := range States {
		for _, cm := range Metrics {
			va, okA := a.Value(st, cm.Metric.Slug)
			vb, okB := b.Value(st, cm.Metric.Slug)
			require.Equal(t, okA, okB)
			if !okA {
				continue
			}
			assert.True(t, va.Equal(vb), "%s %s: %s != %s", st.Code, cm.Metric.Slug, va, vb)
			assert.Empty(t, cm.Metric.DataType.Validate(va, cm.Metric.AllowedValues), "%s %s", st.Code, cm.Metric.Slug)
		}
	}
}

func TestGeneratorRegionalTiers(t *testing.T) {
	g := NewGenerator(7)
	rich := policy.State{Code: "NJ", Region: RegionNortheast, MedianHouseholdIncome: 89296}
	poor := policy.State{Code: "MS", Region: RegionSouth, MedianHouseholdIncome: 49111}

	v, ok := g.Value(rich, "income-eligibility-fpl")
	require.True(t, ok)
	assert.Equal(t, 150.0, *v.Numeric)

	v, _ = g.Value(poor, "subsidy-rate-infant")
	assert.Equal(t, int64(563), *v.Currency) // round(750 * 0.75)

	v, _ = g.Value(poor, "tax-credit-amount")
	assert.Equal(t, int64(0), *v.Currency)

	_, ok = g.Value(rich, "teacher-education-req")
	assert.False(t, ok)
}
