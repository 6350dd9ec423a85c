/*
records.go - Direct record and state context writes

PURPOSE:
  Admin CRUD on individual policy data rows and state context snapshots.
  Unlike Upsert, CreateRecord inserts exactly what it is given; a second
  open record for a pair is refused by the store (ErrOpenRecordExists).

RECORD RULES:
  state_id, metric_id, value, effective_date, data_source and
  confidence_level are required. Dates are YYYY-MM-DD and effective_date
  must come before end_date. State and metric must exist and the value
  must validate against the metric's data type.

STATE CONTEXT RULES:
  state_id and as_of_date are required, the state must exist and every
  count or cost present must be non-negative.
*/
package policy

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// RECORDS
// =============================================================================

// RecordInput is a full record as supplied by an admin client.
type RecordInput struct {
	StateID         string
	MetricID        string
	Value           any
	EffectiveDate   string
	EndDate         *string
	DataSource      string
	SourceURL       string
	ConfidenceLevel ConfidenceLevel
	Notes           string
	CreatedBy       string
}

func validateRecordFields(r Record) []string {
	var errs []string
	if r.StateID == "" {
		errs = append(errs, "state_id is required")
	}
	if r.MetricID == "" {
		errs = append(errs, "metric_id is required")
	}
	if r.EffectiveDate == "" {
		errs = append(errs, "effective_date is required")
	}
	if strings.TrimSpace(r.DataSource) == "" {
		errs = append(errs, "data_source is required")
	}
	if r.ConfidenceLevel == "" {
		errs = append(errs, "confidence_level is required")
	} else if !r.ConfidenceLevel.Valid() {
		errs = append(errs, "confidence_level must be one of: high, medium, low")
	}
	if r.EffectiveDate != "" && !ValidDate(r.EffectiveDate) {
		errs = append(errs, "effective_date must be in YYYY-MM-DD format")
	}
	if r.EndDate != nil && !ValidDate(*r.EndDate) {
		errs = append(errs, "end_date must be in YYYY-MM-DD format")
	}
	if r.EndDate != nil && ValidDate(r.EffectiveDate) && ValidDate(*r.EndDate) && r.EffectiveDate >= *r.EndDate {
		errs = append(errs, "effective_date must be before end_date")
	}
	return errs
}

// resolveValue checks state and metric exist and coerces raw against the
// metric. It returns the envelope and any violations.
func (s *Service) resolveValue(ctx context.Context, stateID, metricID string, raw any) (Envelope, []string, error) {
	var errs []string
	if stateID != "" {
		st, err := s.store.GetState(ctx, stateID)
		if err != nil {
			return Envelope{}, nil, err
		}
		if st == nil {
			errs = append(errs, "Invalid state_id")
		}
	}
	if metricID == "" {
		return Envelope{}, errs, nil
	}
	m, err := s.store.GetMetric(ctx, metricID)
	if err != nil {
		return Envelope{}, nil, err
	}
	if m == nil {
		return Envelope{}, append(errs, "Invalid metric_id"), nil
	}
	if raw == nil {
		return Envelope{}, errs, nil
	}
	env, verrs := Coerce(raw, m.DataType, m.AllowedValues)
	return env, append(errs, verrs...), nil
}

func (s *Service) CreateRecord(ctx context.Context, in RecordInput) (*Record, error) {
	now := s.now().UTC()
	rec := Record{
		ID:              newID(),
		StateID:         in.StateID,
		MetricID:        in.MetricID,
		EffectiveDate:   in.EffectiveDate,
		EndDate:         in.EndDate,
		DataSource:      in.DataSource,
		SourceURL:       in.SourceURL,
		ConfidenceLevel: in.ConfidenceLevel,
		Notes:           in.Notes,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if rec.CreatedBy == "" {
		rec.CreatedBy = CreatedByAPI
	}

	errs := validateRecordFields(rec)
	if in.Value == nil {
		errs = append(errs, "value is required")
	}
	env, refErrs, err := s.resolveValue(ctx, rec.StateID, rec.MetricID, in.Value)
	if err != nil {
		return nil, err
	}
	if err := newValidationError(append(errs, refErrs...)); err != nil {
		return nil, err
	}
	rec.Value = env

	if err := s.store.InsertRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create policy data: %w", err)
	}
	return &rec, nil
}

func (s *Service) UpdateRecord(ctx context.Context, id string, p RecordPatch) (*Record, error) {
	existing, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrRecordNotFound
	}

	merged, errs := p.Apply(*existing)
	errs = append(errs, validateRecordFields(merged)...)

	// A new metric or a new value both need the value re-checked.
	var raw any = merged.Value
	if p.Value.Set && !p.Value.Null {
		raw = p.Value.Value
	}
	env, refErrs, err := s.resolveValue(ctx, merged.StateID, merged.MetricID, raw)
	if err != nil {
		return nil, err
	}
	if err := newValidationError(append(errs, refErrs...)); err != nil {
		return nil, err
	}
	merged.Value = env
	merged.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateRecord(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to update policy data: %w", err)
	}
	return &merged, nil
}

func (s *Service) DeleteRecord(ctx context.Context, id string) (*Record, error) {
	existing, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrRecordNotFound
	}
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete policy data: %w", err)
	}
	return existing, nil
}

// =============================================================================
// STATE CONTEXT
// =============================================================================

func validateStateContext(sc StateContext) []string {
	var errs []string
	if sc.StateID == "" {
		errs = append(errs, "state_id is required")
	}
	if sc.AsOfDate == "" {
		errs = append(errs, "as_of_date is required")
	} else if !ValidDate(sc.AsOfDate) {
		errs = append(errs, "as_of_date must be in YYYY-MM-DD format")
	}

	counts := []struct {
		name string
		v    *int64
	}{
		{"total_licensed_capacity", sc.TotalLicensedCapacity},
		{"infant_capacity", sc.InfantCapacity},
		{"toddler_capacity", sc.ToddlerCapacity},
		{"preschool_capacity", sc.PreschoolCapacity},
		{"school_age_capacity", sc.SchoolAgeCapacity},
		{"total_workers", sc.TotalWorkers},
		{"lead_teachers", sc.LeadTeachers},
		{"assistant_teachers", sc.AssistantTeachers},
		{"aides", sc.Aides},
	}
	for _, f := range counts {
		if f.v != nil && *f.v < 0 {
			errs = append(errs, f.name+" must be a non-negative number")
		}
	}
	costs := []struct {
		name string
		v    *float64
	}{
		{"infant_cost_weekly", sc.InfantCostWeekly},
		{"toddler_cost_weekly", sc.ToddlerCostWeekly},
		{"preschool_cost_weekly", sc.PreschoolCostWeekly},
		{"school_age_cost_weekly", sc.SchoolAgeCostWeekly},
	}
	for _, f := range costs {
		if f.v != nil && *f.v < 0 {
			errs = append(errs, f.name+" must be a non-negative number")
		}
	}
	return errs
}

// UpsertStateContext stores the snapshot for (StateID, AsOfDate),
// replacing any earlier snapshot for the same date.
func (s *Service) UpsertStateContext(ctx context.Context, sc StateContext) (*StateContext, error) {
	errs := validateStateContext(sc)
	if sc.StateID != "" {
		st, err := s.store.GetState(ctx, sc.StateID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			errs = append(errs, "Invalid state_id")
		}
	}
	if err := newValidationError(errs); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sc.ID = newID()
	sc.CreatedAt, sc.UpdatedAt = now, now
	stored, err := s.store.UpsertStateContext(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to save state context: %w", err)
	}
	return stored, nil
}

func (s *Service) DeleteStateContext(ctx context.Context, id string) (*StateContext, error) {
	existing, err := s.store.GetStateContext(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrContextNotFound
	}
	if err := s.store.DeleteStateContext(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete state context: %w", err)
	}
	return existing, nil
}
