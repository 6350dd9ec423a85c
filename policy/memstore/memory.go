// Package memstore provides an in-memory policy.Store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/zachtilly/childcare-api/policy"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	states     map[string]policy.State
	categories map[string]policy.Category
	metrics    map[string]policy.Metric
	records    map[string]policy.Record
	contexts   map[string]policy.StateContext

	// open indexes the current record id per (state, metric), mirroring
	// the partial unique index of the SQL store.
	open map[pair]string
}

type pair struct {
	StateID  string
	MetricID string
}

func New() *Memory {
	return &Memory{
		states:     make(map[string]policy.State),
		categories: make(map[string]policy.Category),
		metrics:    make(map[string]policy.Metric),
		records:    make(map[string]policy.Record),
		contexts:   make(map[string]policy.StateContext),
		open:       make(map[pair]string),
	}
}

var _ policy.Store = (*Memory)(nil)

// =============================================================================
// STATES
// =============================================================================

func (m *Memory) ListStates(_ context.Context) ([]policy.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]policy.State, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetState(_ context.Context, id string) (*policy.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.states[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) GetStateByCode(_ context.Context, code string) (*policy.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code = strings.ToUpper(code)
	for _, s := range m.states {
		if s.Code == code {
			return &s, nil
		}
	}
	return nil, nil
}

// SaveState upserts by code, keeping the existing id.
func (m *Memory) SaveState(_ context.Context, s policy.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.states {
		if existing.Code == s.Code {
			s.ID = id
		}
	}
	m.states[s.ID] = s
	return nil
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) ListCategories(_ context.Context) ([]policy.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]policy.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) GetCategory(_ context.Context, identifier string) (*policy.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.ID == identifier || c.Slug == identifier {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) SaveCategory(_ context.Context, c policy.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.categories {
		if other.Slug == c.Slug && other.ID != c.ID {
			return policy.ErrSlugTaken
		}
	}
	m.categories[c.ID] = c
	return nil
}

func (m *Memory) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.categories, id)
	return nil
}

func (m *Memory) ListMetrics(_ context.Context) ([]policy.Metric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]policy.Metric, 0, len(m.metrics))
	for _, mt := range m.metrics {
		out = append(out, m.withCategoryLocked(mt))
	}
	sortMetrics(out)
	return out, nil
}

func (m *Memory) ListMetricsByCategory(_ context.Context, categoryID string) ([]policy.Metric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []policy.Metric
	for _, mt := range m.metrics {
		if mt.CategoryID == categoryID {
			out = append(out, m.withCategoryLocked(mt))
		}
	}
	sortMetrics(out)
	return out, nil
}

func (m *Memory) GetMetric(_ context.Context, identifier string) (*policy.Metric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mt := range m.metrics {
		if mt.ID == identifier || mt.Slug == identifier {
			mt = m.withCategoryLocked(mt)
			return &mt, nil
		}
	}
	return nil, nil
}

func (m *Memory) SaveMetric(_ context.Context, mt policy.Metric) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.metrics {
		if other.Slug == mt.Slug && other.ID != mt.ID {
			return policy.ErrSlugTaken
		}
	}
	mt.CategoryName, mt.CategorySlug = "", ""
	m.metrics[mt.ID] = mt
	return nil
}

func (m *Memory) DeleteMetric(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.metrics, id)
	return nil
}

func (m *Memory) CountRecordsByMetric(_ context.Context, metricID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, r := range m.records {
		if r.MetricID == metricID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) withCategoryLocked(mt policy.Metric) policy.Metric {
	if c, ok := m.categories[mt.CategoryID]; ok {
		mt.CategoryName, mt.CategorySlug = c.Name, c.Slug
	}
	return mt
}

func sortMetrics(ms []policy.Metric) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].CategoryID != ms[j].CategoryID {
			return ms[i].CategoryID < ms[j].CategoryID
		}
		return ms[i].SortOrder < ms[j].SortOrder
	})
}

// =============================================================================
// RECORDS
// =============================================================================

func (m *Memory) GetRecord(_ context.Context, id string) (*policy.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *Memory) InsertRecord(_ context.Context, r policy.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(r)
}

// InsertRecords adds all records atomically.
func (m *Memory) InsertRecords(_ context.Context, rs []policy.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check the open-record index first (atomic check)
	seen := make(map[pair]bool)
	for _, r := range rs {
		if !r.IsCurrent() {
			continue
		}
		k := pair{r.StateID, r.MetricID}
		if _, ok := m.open[k]; ok || seen[k] {
			return policy.ErrOpenRecordExists
		}
		seen[k] = true
	}

	for _, r := range rs {
		if err := m.insertLocked(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) insertLocked(r policy.Record) error {
	k := pair{r.StateID, r.MetricID}
	if r.IsCurrent() {
		if _, ok := m.open[k]; ok {
			return policy.ErrOpenRecordExists
		}
		m.open[k] = r.ID
	}
	m.records[r.ID] = r
	return nil
}

func (m *Memory) UpdateRecord(_ context.Context, r policy.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.records[r.ID]
	if !ok {
		return policy.ErrRecordNotFound
	}
	oldKey, newKey := pair{old.StateID, old.MetricID}, pair{r.StateID, r.MetricID}
	if r.IsCurrent() {
		if id, ok := m.open[newKey]; ok && id != r.ID {
			return policy.ErrOpenRecordExists
		}
	}
	if old.IsCurrent() {
		delete(m.open, oldKey)
	}
	if r.IsCurrent() {
		m.open[newKey] = r.ID
	}
	m.records[r.ID] = r
	return nil
}

func (m *Memory) DeleteRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.records[id]; ok && r.IsCurrent() {
		delete(m.open, pair{r.StateID, r.MetricID})
	}
	delete(m.records, id)
	return nil
}

func (m *Memory) CurrentRecord(_ context.Context, stateID, metricID string) (*policy.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.open[pair{stateID, metricID}]
	if !ok {
		return nil, nil
	}
	r := m.records[id]
	return &r, nil
}

func (m *Memory) UpsertCurrent(_ context.Context, r policy.Record) (*policy.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := pair{r.StateID, r.MetricID}
	if id, ok := m.open[k]; ok {
		cur := m.records[id]
		cur.Value = r.Value
		cur.DataSource = r.DataSource
		cur.SourceURL = r.SourceURL
		cur.ConfidenceLevel = r.ConfidenceLevel
		cur.Notes = r.Notes
		cur.UpdatedAt = r.UpdatedAt
		m.records[id] = cur
		return &cur, false, nil
	}
	r.EndDate = nil
	if err := m.insertLocked(r); err != nil {
		return nil, false, err
	}
	return &r, true, nil
}

func (m *Memory) SupersedeCurrent(_ context.Context, r policy.Record) (*policy.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := pair{r.StateID, r.MetricID}
	var closed *policy.Record
	if id, ok := m.open[k]; ok {
		cur := m.records[id]
		end := r.EffectiveDate
		cur.EndDate = &end
		cur.UpdatedAt = r.UpdatedAt
		m.records[id] = cur
		delete(m.open, k)
		closed = &cur
	}
	r.EndDate = nil
	if err := m.insertLocked(r); err != nil {
		return nil, err
	}
	return closed, nil
}

func (m *Memory) Timeline(_ context.Context, stateID, metricID string) ([]policy.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []policy.Record
	for _, r := range m.records {
		if r.StateID == stateID && r.MetricID == metricID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveDate < out[j].EffectiveDate })
	return out, nil
}

func (m *Memory) ListCurrentValues(_ context.Context, f policy.CurrentFilter) ([]policy.CurrentValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []policy.CurrentValue
	for _, id := range m.open {
		r := m.records[id]
		s, okS := m.states[r.StateID]
		mt, okM := m.metrics[r.MetricID]
		if !okS || !okM {
			continue
		}
		c := m.categories[mt.CategoryID]
		if len(f.StateCodes) > 0 && !in(f.StateCodes, s.Code) {
			continue
		}
		if len(f.MetricSlugs) > 0 && !in(f.MetricSlugs, mt.Slug) {
			continue
		}
		if f.CategorySlug != "" && c.Slug != f.CategorySlug {
			continue
		}
		out = append(out, policy.CurrentValue{
			Record:       r,
			StateCode:    s.Code,
			StateName:    s.Name,
			MetricSlug:   mt.Slug,
			MetricName:   mt.Name,
			DataType:     mt.DataType,
			Unit:         mt.Unit,
			Category:     c.Name,
			CategorySlug: c.Slug,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.StateName != b.StateName {
			return a.StateName < b.StateName
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.MetricName < b.MetricName
	})
	return out, nil
}

func (m *Memory) ListCurrentRecords(_ context.Context) ([]policy.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]policy.Record, 0, len(m.open))
	for _, id := range m.open {
		out = append(out, m.records[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func in(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// =============================================================================
// STATE CONTEXT
// =============================================================================

func (m *Memory) GetStateContext(_ context.Context, id string) (*policy.StateContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sc, ok := m.contexts[id]; ok {
		return &sc, nil
	}
	return nil, nil
}

func (m *Memory) UpsertStateContext(_ context.Context, sc policy.StateContext) (*policy.StateContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.contexts {
		if existing.StateID == sc.StateID && existing.AsOfDate == sc.AsOfDate {
			sc.ID = id
			sc.CreatedAt = existing.CreatedAt
		}
	}
	m.contexts[sc.ID] = sc
	return &sc, nil
}

func (m *Memory) LatestStateContext(ctx context.Context, stateID string) (*policy.StateContext, error) {
	history, _ := m.StateContextHistory(ctx, stateID)
	if len(history) == 0 {
		return nil, nil
	}
	return &history[0], nil
}

func (m *Memory) StateContextHistory(_ context.Context, stateID string) ([]policy.StateContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []policy.StateContext
	for _, sc := range m.contexts {
		if sc.StateID == stateID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AsOfDate > out[j].AsOfDate })
	return out, nil
}

func (m *Memory) DeleteStateContext(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.contexts, id)
	return nil
}
