/*
service.go - Write-side business rules

PURPOSE:
  The Service is the only place that writes policy data. It validates
  input, applies defaults and delegates the atomic part of every write to
  the Store.

CURRENT-VALUE UPSERT:
  Upsert(state, metric, value, metadata):
    no open record            -> insert                    (OutcomeInserted)
    open record, update mode  -> update in place           (OutcomeUpdated)
    open record, supersede    -> close it at the new
                                 effective date, insert    (OutcomeSuperseded)

  In update mode the open record keeps its effective_date. Supersede mode
  falls back to an in-place update when the value is unchanged or the
  effective date is the same day, and rejects effective dates that would
  end the open record before it began.

BULK:
  BulkUpsert runs every entry through the same upsert. A failing entry is
  recorded with its 1-based row number and never stops the batch.

SEE ALSO:
  - catalog.go: category/metric writes and delete guards
  - records.go: direct record and state context writes
  - store.go: Store contract
*/
package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zachtilly/childcare-api/logger"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

type HistoryMode string

const (
	UpdateInPlace HistoryMode = "update_in_place"
	Supersede     HistoryMode = "supersede"
)

const (
	DefaultSortOrder  = 999
	DefaultDataSource = "Manual entry"

	CreatedByAPI    = "api"
	CreatedByImport = "csv-import"
)

type Outcome string

const (
	OutcomeInserted   Outcome = "inserted"
	OutcomeUpdated    Outcome = "updated"
	OutcomeSuperseded Outcome = "superseded"
)

type Service struct {
	store Store
	log   *logger.Logger
	mode  HistoryMode
	now   func() time.Time
}

type Option func(*Service)

func WithHistoryMode(m HistoryMode) Option {
	return func(s *Service) { s.mode = m }
}

// WithClock replaces time.Now. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log.With("component", "policy"),
		mode:  UpdateInPlace,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() Store { return s.store }

func (s *Service) HistoryMode() HistoryMode { return s.mode }

func (s *Service) today() string { return Today(s.now()) }

func newID() string { return uuid.NewString() }

// =============================================================================
// UPSERT
// =============================================================================

// Metadata is everything about a value except the value itself. Zero
// fields take defaults.
type Metadata struct {
	EffectiveDate   string
	DataSource      string
	SourceURL       string
	ConfidenceLevel ConfidenceLevel
	Notes           string
	CreatedBy       string
}

func (s *Service) withDefaults(m Metadata, createdBy string) Metadata {
	if m.EffectiveDate == "" {
		m.EffectiveDate = s.today()
	}
	if m.ConfidenceLevel == "" {
		m.ConfidenceLevel = ConfidenceMedium
	}
	if strings.TrimSpace(m.DataSource) == "" {
		m.DataSource = DefaultDataSource
	}
	if m.CreatedBy == "" {
		m.CreatedBy = createdBy
	}
	return m
}

func (m Metadata) validate() []string {
	var errs []string
	if !m.ConfidenceLevel.Valid() {
		errs = append(errs, "confidence_level must be one of: high, medium, low")
	}
	if !ValidDate(m.EffectiveDate) {
		errs = append(errs, "effective_date must be in YYYY-MM-DD format")
	}
	return errs
}

// Upsert sets the current value of metricID for stateID. Both are IDs.
func (s *Service) Upsert(ctx context.Context, stateID, metricID string, value Envelope, meta Metadata) (*Record, Outcome, error) {
	state, err := s.store.GetState(ctx, stateID)
	if err != nil {
		return nil, "", err
	}
	if state == nil {
		return nil, "", ErrStateNotFound
	}
	metric, err := s.store.GetMetric(ctx, metricID)
	if err != nil {
		return nil, "", err
	}
	if metric == nil {
		return nil, "", ErrMetricNotFound
	}
	return s.upsert(ctx, state, metric, value, s.withDefaults(meta, CreatedByAPI))
}

func (s *Service) upsert(ctx context.Context, state *State, metric *Metric, value Envelope, meta Metadata) (*Record, Outcome, error) {
	details := metric.DataType.Validate(value, metric.AllowedValues)
	details = append(details, meta.validate()...)
	if err := newValidationError(details); err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	rec := Record{
		ID:              newID(),
		StateID:         state.ID,
		MetricID:        metric.ID,
		Value:           value,
		EffectiveDate:   meta.EffectiveDate,
		DataSource:      meta.DataSource,
		SourceURL:       meta.SourceURL,
		ConfidenceLevel: meta.ConfidenceLevel,
		Notes:           meta.Notes,
		CreatedBy:       meta.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if s.mode == Supersede {
		supersede, err := s.shouldSupersede(ctx, rec)
		if err != nil {
			return nil, "", err
		}
		if supersede {
			if _, err := s.store.SupersedeCurrent(ctx, rec); err != nil {
				return nil, "", fmt.Errorf("failed to supersede current value: %w", err)
			}
			s.log.Debug("superseded current value", "state", state.Code, "metric", metric.Slug, "effective_date", rec.EffectiveDate)
			return &rec, OutcomeSuperseded, nil
		}
	}

	stored, inserted, err := s.store.UpsertCurrent(ctx, rec)
	if err != nil {
		return nil, "", fmt.Errorf("failed to upsert current value: %w", err)
	}
	outcome := OutcomeUpdated
	if inserted {
		outcome = OutcomeInserted
	}
	s.log.Debug("upserted current value", "state", state.Code, "metric", metric.Slug, "outcome", outcome)
	return stored, outcome, nil
}

// shouldSupersede decides whether rec opens a new history entry or
// corrects the open one.
func (s *Service) shouldSupersede(ctx context.Context, rec Record) (bool, error) {
	open, err := s.store.CurrentRecord(ctx, rec.StateID, rec.MetricID)
	if err != nil {
		return false, err
	}
	if open == nil || open.Value.Equal(rec.Value) || open.EffectiveDate == rec.EffectiveDate {
		return false, nil
	}
	if rec.EffectiveDate < open.EffectiveDate {
		return false, &ValidationError{Details: []string{
			fmt.Sprintf("effective_date must not be before the current value's effective_date (%s)", open.EffectiveDate),
		}}
	}
	return true, nil
}

// =============================================================================
// BULK UPSERT
// =============================================================================

type BulkEntry struct {
	StateCode       string          `json:"state_code"`
	MetricSlug      string          `json:"metric_slug"`
	Value           any             `json:"value"`
	EffectiveDate   string          `json:"effective_date,omitempty"`
	DataSource      string          `json:"data_source,omitempty"`
	SourceURL       string          `json:"source_url,omitempty"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

type BulkError struct {
	Row   int       `json:"row"`
	Entry BulkEntry `json:"entry"`
	Error string    `json:"error"`
}

type BulkResult struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Inserted   int         `json:"inserted"`
	Updated    int         `json:"updated"`
	Errors     []BulkError `json:"errors"`
}

// BulkUpsert upserts every entry independently. The returned error is only
// set when the lookup tables could not be loaded at all.
func (s *Service) BulkUpsert(ctx context.Context, entries []BulkEntry) (BulkResult, error) {
	return s.bulkUpsert(ctx, entries, CreatedByImport)
}

func (s *Service) bulkUpsert(ctx context.Context, entries []BulkEntry, createdBy string) (BulkResult, error) {
	result := BulkResult{Total: len(entries), Errors: []BulkError{}}

	states, err := s.store.ListStates(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load states: %w", err)
	}
	metrics, err := s.store.ListMetrics(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load metrics: %w", err)
	}
	stateByCode := make(map[string]*State, len(states))
	for i := range states {
		stateByCode[states[i].Code] = &states[i]
	}
	metricBySlug := make(map[string]*Metric, len(metrics))
	for i := range metrics {
		metricBySlug[metrics[i].Slug] = &metrics[i]
	}

	for i, entry := range entries {
		outcome, err := s.bulkEntry(ctx, entry, stateByCode, metricBySlug, createdBy)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkError{Row: i + 1, Entry: entry, Error: ErrorMessage(err)})
			s.log.Warn("bulk entry failed", "row", i+1, "state", entry.StateCode, "metric", entry.MetricSlug, "error", err)
			continue
		}
		result.Successful++
		if outcome == OutcomeInserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	s.log.Info("bulk upsert finished", "total", result.Total, "successful", result.Successful, "failed", result.Failed)
	return result, nil
}

func (s *Service) bulkEntry(ctx context.Context, e BulkEntry, states map[string]*State, metrics map[string]*Metric, createdBy string) (Outcome, error) {
	state, ok := states[strings.ToUpper(strings.TrimSpace(e.StateCode))]
	if !ok {
		return "", fmt.Errorf("Invalid state code: %s", e.StateCode)
	}
	metric, ok := metrics[strings.TrimSpace(e.MetricSlug)]
	if !ok {
		return "", fmt.Errorf("Invalid metric slug: %s", e.MetricSlug)
	}
	value, details := Coerce(e.Value, metric.DataType, metric.AllowedValues)
	if err := newValidationError(details); err != nil {
		return "", err
	}
	meta := s.withDefaults(Metadata{
		EffectiveDate:   e.EffectiveDate,
		DataSource:      e.DataSource,
		SourceURL:       e.SourceURL,
		ConfidenceLevel: e.ConfidenceLevel,
		Notes:           e.Notes,
	}, createdBy)
	_, outcome, err := s.upsert(ctx, state, metric, value, meta)
	return outcome, err
}

// ErrorMessage renders err for a response body or a report line.
// Validation errors become their joined details.
func ErrorMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return strings.Join(verr.Details, "; ")
	}
	return err.Error()
}
