package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/zachtilly/childcare-api/logger"
	"github.com/zachtilly/childcare-api/policy"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// backends returns a fresh SQLite store, plus a PostgreSQL store when
// TEST_POSTGRES_DSN is set.
func backends(t *testing.T) map[string]*Store {
	t.Helper()
	out := make(map[string]*Store)

	lite, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })
	out["sqlite"] = lite

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := Open("pgx", dsn)
		require.NoError(t, err)
		_, err = pg.db.Exec(`TRUNCATE policy_data, state_childcare_context, policy_metrics, policy_categories, states CASCADE`)
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })
		out["postgres"] = pg
	}
	return out
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedBase(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveState(ctx, policy.State{ID: "st-ca", Code: "CA", Name: "California", Region: "West", Population: 39029342, CreatedAt: testNow}))
	require.NoError(t, s.SaveState(ctx, policy.State{ID: "st-tx", Code: "TX", Name: "Texas", Region: "South", CreatedAt: testNow}))
	require.NoError(t, s.SaveCategory(ctx, policy.Category{ID: "cat-aff", Name: "Affordability", Slug: "affordability", Description: "Cost", SortOrder: 1, CreatedAt: testNow, UpdatedAt: testNow}))
	require.NoError(t, s.SaveMetric(ctx, policy.Metric{
		ID: "m-rate", CategoryID: "cat-aff", Name: "Infant Subsidy Rate", Slug: "subsidy-rate-infant",
		Description: "Monthly rate", DataType: policy.DataCurrency, Unit: "USD/month", HigherIsBetter: true,
		SortOrder: 1, CreatedAt: testNow, UpdatedAt: testNow,
	}))
	require.NoError(t, s.SaveMetric(ctx, policy.Metric{
		ID: "m-ratio", CategoryID: "cat-aff", Name: "Infant Ratio", Slug: "ratio-infant",
		Description: "Staff ratio", DataType: policy.DataEnum, AllowedValues: []string{"1:3", "1:4"},
		SortOrder: 2, CreatedAt: testNow, UpdatedAt: testNow,
	}))
}

func record(id, stateID, metricID string, v policy.Envelope, effective string, end *string) policy.Record {
	return policy.Record{
		ID: id, StateID: stateID, MetricID: metricID, Value: v,
		EffectiveDate: effective, EndDate: end, DataSource: "test",
		ConfidenceLevel: policy.ConfidenceHigh, CreatedBy: "test",
		CreatedAt: testNow, UpdatedAt: testNow,
	}
}

func strPtr(s string) *string { return &s }

// =============================================================================
// RECORDS
// =============================================================================

func TestSingleOpenRecord(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)

			require.NoError(t, s.InsertRecord(ctx, record("r1", "st-ca", "m-rate", policy.CurrencyValue(1500), "2024-01-01", nil)))

			// WHEN: A second open record is inserted for the same pair
			err := s.InsertRecord(ctx, record("r2", "st-ca", "m-rate", policy.CurrencyValue(1600), "2024-06-01", nil))

			// THEN: The partial unique index refuses it
			assert.ErrorIs(t, err, policy.ErrOpenRecordExists)

			// AND: Closed records are unrestricted
			require.NoError(t, s.InsertRecord(ctx, record("r0", "st-ca", "m-rate", policy.CurrencyValue(1400), "2023-01-01", strPtr("2024-01-01"))))

			recs, err := s.Timeline(ctx, "st-ca", "m-rate")
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, "r0", recs[0].ID)
			assert.Equal(t, "2024-01-01", *recs[0].EndDate)
			assert.Equal(t, "r1", recs[1].ID)
			assert.True(t, policy.CurrencyValue(1500).Equal(recs[1].Value))

			n, err := s.CountRecordsByMetric(ctx, "m-rate")
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestInsertRecordsIsAtomic(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)

			err := s.InsertRecords(ctx, []policy.Record{
				record("r1", "st-ca", "m-rate", policy.CurrencyValue(1), "2024-01-01", nil),
				record("r2", "st-tx", "m-rate", policy.CurrencyValue(2), "2024-01-01", nil),
				record("r3", "st-ca", "m-rate", policy.CurrencyValue(3), "2024-01-01", nil),
			})
			assert.ErrorIs(t, err, policy.ErrOpenRecordExists)

			recs, err := s.ListCurrentRecords(ctx)
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestUpsertCurrent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)

			stored, inserted, err := s.UpsertCurrent(ctx, record("r1", "st-ca", "m-rate", policy.CurrencyValue(1500), "2024-01-01", nil))
			require.NoError(t, err)
			assert.True(t, inserted)
			assert.Equal(t, "r1", stored.ID)

			// WHEN: A new record arrives for the open pair
			next := record("r2", "st-ca", "m-rate", policy.CurrencyValue(1700), "2025-01-01", nil)
			next.DataSource = "CDSS"
			next.ConfidenceLevel = policy.ConfidenceLow
			next.Notes = "n2"
			stored, inserted, err = s.UpsertCurrent(ctx, next)
			require.NoError(t, err)

			// THEN: The open record is updated in place
			assert.False(t, inserted)
			assert.Equal(t, "r1", stored.ID)
			assert.Equal(t, "2024-01-01", stored.EffectiveDate)
			assert.Equal(t, "CDSS", stored.DataSource)
			assert.Equal(t, policy.ConfidenceLow, stored.ConfidenceLevel)
			assert.Equal(t, "n2", stored.Notes)
			assert.True(t, policy.CurrencyValue(1700).Equal(stored.Value))

			recs, err := s.Timeline(ctx, "st-ca", "m-rate")
			require.NoError(t, err)
			assert.Len(t, recs, 1)
		})
	}
}

func TestConcurrentUpsertsKeepOneOpenRecord(t *testing.T) {
	stores := backends(t)
	file, err := New(filepath.Join(t.TempDir(), "policy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })
	stores["sqlite-file"] = file

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)
			svc := policy.NewService(s, logger.Nop())

			// GIVEN: Many writers racing on the same state and metric
			var g errgroup.Group
			for i := 0; i < 25; i++ {
				i := i
				g.Go(func() error {
					r := record(fmt.Sprintf("r%d", i), "st-ca", "m-rate", policy.CurrencyValue(int64(1000+i)), "2024-01-01", nil)
					_, _, err := s.UpsertCurrent(ctx, r)
					return err
				})
				g.Go(func() error {
					_, _, err := svc.Upsert(ctx, "st-ca", "m-rate", policy.CurrencyValue(int64(2000+i)), policy.Metadata{})
					return err
				})
			}

			// WHEN: They all finish
			require.NoError(t, g.Wait())

			// THEN: Exactly one open record exists
			recs, err := s.Timeline(ctx, "st-ca", "m-rate")
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Nil(t, recs[0].EndDate)
		})
	}
}

func TestSupersedeCurrent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)

			closed, err := s.SupersedeCurrent(ctx, record("r1", "st-ca", "m-rate", policy.CurrencyValue(1500), "2024-01-01", nil))
			require.NoError(t, err)
			assert.Nil(t, closed)

			closed, err = s.SupersedeCurrent(ctx, record("r2", "st-ca", "m-rate", policy.CurrencyValue(1700), "2025-01-01", nil))
			require.NoError(t, err)
			require.NotNil(t, closed)
			assert.Equal(t, "r1", closed.ID)
			assert.Equal(t, "2025-01-01", *closed.EndDate)

			cur, err := s.CurrentRecord(ctx, "st-ca", "m-rate")
			require.NoError(t, err)
			assert.Equal(t, "r2", cur.ID)

			old, err := s.GetRecord(ctx, "r1")
			require.NoError(t, err)
			assert.False(t, old.IsCurrent())
		})
	}
}

func TestListCurrentValues(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)
			require.NoError(t, s.InsertRecords(ctx, []policy.Record{
				record("r1", "st-tx", "m-rate", policy.CurrencyValue(900), "2024-01-01", nil),
				record("r2", "st-ca", "m-rate", policy.CurrencyValue(1500), "2024-01-01", nil),
				record("r3", "st-ca", "m-ratio", policy.TextValue("1:4"), "2024-01-01", nil),
				record("r4", "st-ca", "m-ratio", policy.TextValue("1:3"), "2023-01-01", strPtr("2024-01-01")),
			}))

			all, err := s.ListCurrentValues(ctx, policy.CurrentFilter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			// ordered by state name, then metric name
			assert.Equal(t, []string{"r3", "r2", "r1"}, []string{all[0].ID, all[1].ID, all[2].ID})
			assert.Equal(t, "California", all[0].StateName)
			assert.Equal(t, "affordability", all[0].CategorySlug)
			assert.Equal(t, policy.DataEnum, all[0].DataType)

			byMetric, err := s.ListCurrentValues(ctx, policy.CurrentFilter{MetricSlugs: []string{"subsidy-rate-infant"}, StateCodes: []string{"TX"}})
			require.NoError(t, err)
			require.Len(t, byMetric, 1)
			assert.Equal(t, "r1", byMetric[0].ID)
			assert.Equal(t, "USD/month", byMetric[0].Unit)

			none, err := s.ListCurrentValues(ctx, policy.CurrentFilter{CategorySlug: "workforce"})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)
			r := record("r1", "st-ca", "m-rate", policy.CurrencyValue(1500), "2024-01-01", nil)
			require.NoError(t, s.InsertRecord(ctx, r))

			r.Notes = "checked"
			r.Value = policy.CurrencyValue(1550)
			require.NoError(t, s.UpdateRecord(ctx, r))

			got, err := s.GetRecord(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, "checked", got.Notes)
			assert.Equal(t, int64(1550), *got.Value.Currency)

			missing := record("nope", "st-ca", "m-rate", policy.CurrencyValue(1), "2024-01-01", strPtr("2024-02-01"))
			assert.ErrorIs(t, s.UpdateRecord(ctx, missing), policy.ErrRecordNotFound)

			require.NoError(t, s.DeleteRecord(ctx, "r1"))
			got, err = s.GetRecord(ctx, "r1")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func TestCatalog(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)

			m, err := s.GetMetric(ctx, "ratio-infant")
			require.NoError(t, err)
			require.NotNil(t, m)
			assert.Equal(t, "m-ratio", m.ID)
			assert.Equal(t, []string{"1:3", "1:4"}, m.AllowedValues)
			assert.Equal(t, "Affordability", m.CategoryName)

			byID, err := s.GetMetric(ctx, "m-rate")
			require.NoError(t, err)
			assert.True(t, byID.HigherIsBetter)
			assert.Empty(t, byID.AllowedValues)

			metrics, err := s.ListMetricsByCategory(ctx, "cat-aff")
			require.NoError(t, err)
			require.Len(t, metrics, 2)
			assert.Equal(t, "subsidy-rate-infant", metrics[0].Slug)

			err = s.SaveCategory(ctx, policy.Category{ID: "cat-2", Name: "Dup", Slug: "affordability", Description: "x", CreatedAt: testNow, UpdatedAt: testNow})
			assert.ErrorIs(t, err, policy.ErrSlugTaken)

			c, err := s.GetCategory(ctx, "affordability")
			require.NoError(t, err)
			assert.Equal(t, "cat-aff", c.ID)

			st, err := s.GetStateByCode(ctx, "CA")
			require.NoError(t, err)
			assert.Equal(t, int64(39029342), st.Population)

			missing, err := s.GetState(ctx, "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

// =============================================================================
// STATE CONTEXT
// =============================================================================

func TestStateContext(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedBase(t, s)
			workers, cost := int64(1000), 350.5

			first, err := s.UpsertStateContext(ctx, policy.StateContext{
				ID: "c1", StateID: "st-ca", AsOfDate: "2024-01-01", TotalWorkers: &workers,
				CreatedAt: testNow, UpdatedAt: testNow,
			})
			require.NoError(t, err)
			assert.Equal(t, "c1", first.ID)
			assert.Nil(t, first.InfantCostWeekly)

			// WHEN: The same date is written again under a new id
			more := int64(1100)
			second, err := s.UpsertStateContext(ctx, policy.StateContext{
				ID: "c2", StateID: "st-ca", AsOfDate: "2024-01-01", TotalWorkers: &more, InfantCostWeekly: &cost,
				CreatedAt: testNow, UpdatedAt: testNow,
			})
			require.NoError(t, err)

			// THEN: The existing row keeps its id and takes the new measurements
			assert.Equal(t, "c1", second.ID)
			assert.Equal(t, int64(1100), *second.TotalWorkers)
			assert.Equal(t, 350.5, *second.InfantCostWeekly)

			_, err = s.UpsertStateContext(ctx, policy.StateContext{ID: "c3", StateID: "st-ca", AsOfDate: "2025-01-01", CreatedAt: testNow, UpdatedAt: testNow})
			require.NoError(t, err)

			latest, err := s.LatestStateContext(ctx, "st-ca")
			require.NoError(t, err)
			assert.Equal(t, "c3", latest.ID)

			history, err := s.StateContextHistory(ctx, "st-ca")
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, "2025-01-01", history[0].AsOfDate)

			require.NoError(t, s.DeleteStateContext(ctx, "c3"))
			latest, err = s.LatestStateContext(ctx, "st-ca")
			require.NoError(t, err)
			assert.Equal(t, "c1", latest.ID)

			none, err := s.LatestStateContext(ctx, "st-tx")
			require.NoError(t, err)
			assert.Nil(t, none)
		})
	}
}

// =============================================================================
// QUERY PLUMBING
// =============================================================================

func TestRebind(t *testing.T) {
	lite := &Store{}
	pg := &Store{postgre: true}
	q := `SELECT * FROM t WHERE a = ? AND b IN (` + placeholders(2) + `)`

	assert.Equal(t, `SELECT * FROM t WHERE a = ? AND b IN (?, ?)`, lite.rebind(q))
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)`, pg.rebind(q))
	assert.Equal(t, "", placeholders(0))
}
