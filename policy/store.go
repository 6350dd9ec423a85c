/*
store.go - Storage interfaces

PURPOSE:
  Everything the Service and the HTTP layer need from persistence. The
  SQL implementation lives in store/sqlstore; policy/memstore provides an
  in-memory fake for tests.

CONVENTIONS:
  - Get* methods return (nil, nil) when the row does not exist.
  - Identifier lookups (GetCategory, GetMetric) accept either id or slug.
  - Save* methods insert or update by ID.
  - Unique slug violations surface as ErrSlugTaken, a second open record
    as ErrOpenRecordExists.

CURRENT-VALUE INVARIANT:
  Implementations MUST guarantee at most one record with a NULL end_date
  per (state_id, metric_id), whatever order or concurrency writes arrive in.

SEE ALSO:
  - store/sqlstore/sqlstore.go
  - memstore/memory.go
*/
package policy

import "context"

// StateStore reads and seeds the reference list of states.
type StateStore interface {
	ListStates(ctx context.Context) ([]State, error)
	GetState(ctx context.Context, id string) (*State, error)
	GetStateByCode(ctx context.Context, code string) (*State, error)
	SaveState(ctx context.Context, s State) error
}

// CatalogStore persists categories and metrics.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, identifier string) (*Category, error)
	SaveCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id string) error

	ListMetrics(ctx context.Context) ([]Metric, error)
	ListMetricsByCategory(ctx context.Context, categoryID string) ([]Metric, error)
	GetMetric(ctx context.Context, identifier string) (*Metric, error)
	SaveMetric(ctx context.Context, m Metric) error
	DeleteMetric(ctx context.Context, id string) error
	CountRecordsByMetric(ctx context.Context, metricID string) (int, error)
}

// RecordStore persists policy data records.
type RecordStore interface {
	GetRecord(ctx context.Context, id string) (*Record, error)
	InsertRecord(ctx context.Context, r Record) error
	// InsertRecords writes all records or none.
	InsertRecords(ctx context.Context, rs []Record) error
	UpdateRecord(ctx context.Context, r Record) error
	DeleteRecord(ctx context.Context, id string) error

	CurrentRecord(ctx context.Context, stateID, metricID string) (*Record, error)
	// UpsertCurrent atomically updates the open record for r's pair in place
	// (value, source, source URL, confidence, updated_at) or inserts r.
	// It returns the stored record and whether r was inserted.
	UpsertCurrent(ctx context.Context, r Record) (*Record, bool, error)
	// SupersedeCurrent closes the open record for r's pair at
	// r.EffectiveDate and inserts r, in one transaction. It returns the
	// record that was closed, or nil if there was none.
	SupersedeCurrent(ctx context.Context, r Record) (*Record, error)

	Timeline(ctx context.Context, stateID, metricID string) ([]Record, error)
	ListCurrentValues(ctx context.Context, f CurrentFilter) ([]CurrentValue, error)
	ListCurrentRecords(ctx context.Context) ([]Record, error)
}

// ContextStore persists state child-care context snapshots.
type ContextStore interface {
	GetStateContext(ctx context.Context, id string) (*StateContext, error)
	// UpsertStateContext inserts or replaces the snapshot for
	// (StateID, AsOfDate) and returns the stored row.
	UpsertStateContext(ctx context.Context, sc StateContext) (*StateContext, error)
	LatestStateContext(ctx context.Context, stateID string) (*StateContext, error)
	StateContextHistory(ctx context.Context, stateID string) ([]StateContext, error)
	DeleteStateContext(ctx context.Context, id string) error
}

type Store interface {
	StateStore
	CatalogStore
	RecordStore
	ContextStore
}
