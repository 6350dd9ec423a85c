/*
patch.go - Partial updates

PURPOSE:
  PUT endpoints accept any subset of an entity's fields. Each patch struct
  lists the writable fields as Optional values and has a single Apply that
  merges them onto the stored entity. The merged entity is then validated
  as a whole.

OPTIONAL:
  Optional[T] distinguishes three JSON states:
    field absent   -> Set == false
    field null     -> Set == true, Null == true
    field present  -> Set == true, Value holds it

  Null only matters for nullable columns (end_date). For required columns
  an explicit null is a validation error.
*/
package policy

import (
	"bytes"
	"encoding/json"
)

type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// apply writes the value into dst when present and non-null, and reports
// an explicit null so the caller can flag required fields.
func (o Optional[T]) apply(dst *T) (nulled bool) {
	if !o.Set {
		return false
	}
	if o.Null {
		return true
	}
	*dst = o.Value
	return false
}

// =============================================================================
// CATEGORY
// =============================================================================

type CategoryPatch struct {
	Name        Optional[string] `json:"name"`
	Slug        Optional[string] `json:"slug"`
	Description Optional[string] `json:"description"`
	SortOrder   Optional[int]    `json:"sort_order"`
}

// Apply returns c with the patch merged in. The second return value lists
// required fields the patch tried to null out.
func (p CategoryPatch) Apply(c Category) (Category, []string) {
	var errs []string
	if p.Name.apply(&c.Name) {
		errs = append(errs, "name is required")
	}
	if p.Slug.apply(&c.Slug) {
		errs = append(errs, "slug is required")
	}
	if p.Description.apply(&c.Description) {
		errs = append(errs, "description is required")
	}
	if p.SortOrder.apply(&c.SortOrder) {
		c.SortOrder = DefaultSortOrder
	}
	return c, errs
}

// =============================================================================
// METRIC
// =============================================================================

type MetricPatch struct {
	CategoryID     Optional[string]   `json:"category_id"`
	Name           Optional[string]   `json:"name"`
	Slug           Optional[string]   `json:"slug"`
	Description    Optional[string]   `json:"description"`
	DataType       Optional[DataType] `json:"data_type"`
	Unit           Optional[string]   `json:"unit"`
	AllowedValues  Optional[[]string] `json:"allowed_values"`
	HigherIsBetter Optional[bool]     `json:"higher_is_better"`
	SortOrder      Optional[int]      `json:"sort_order"`
}

func (p MetricPatch) Apply(m Metric) (Metric, []string) {
	var errs []string
	if p.CategoryID.apply(&m.CategoryID) {
		errs = append(errs, "category_id is required")
	}
	if p.Name.apply(&m.Name) {
		errs = append(errs, "name is required")
	}
	if p.Slug.apply(&m.Slug) {
		errs = append(errs, "slug is required")
	}
	if p.Description.apply(&m.Description) {
		errs = append(errs, "description is required")
	}
	if p.DataType.apply(&m.DataType) {
		errs = append(errs, "data_type is required")
	}
	if p.Unit.apply(&m.Unit) {
		m.Unit = ""
	}
	if p.AllowedValues.apply(&m.AllowedValues) {
		m.AllowedValues = nil
	}
	if p.HigherIsBetter.apply(&m.HigherIsBetter) {
		m.HigherIsBetter = false
	}
	if p.SortOrder.apply(&m.SortOrder) {
		m.SortOrder = DefaultSortOrder
	}
	return m, errs
}

// =============================================================================
// RECORD
// =============================================================================

type RecordPatch struct {
	StateID         Optional[string]          `json:"state_id"`
	MetricID        Optional[string]          `json:"metric_id"`
	Value           Optional[any]             `json:"value"`
	EffectiveDate   Optional[string]          `json:"effective_date"`
	EndDate         Optional[string]          `json:"end_date"`
	DataSource      Optional[string]          `json:"data_source"`
	SourceURL       Optional[string]          `json:"source_url"`
	ConfidenceLevel Optional[ConfidenceLevel] `json:"confidence_level"`
	Notes           Optional[string]          `json:"notes"`
}

// Apply merges everything except Value, which needs the (possibly new)
// metric's data type and is coerced by the service.
func (p RecordPatch) Apply(r Record) (Record, []string) {
	var errs []string
	if p.StateID.apply(&r.StateID) {
		errs = append(errs, "state_id is required")
	}
	if p.MetricID.apply(&r.MetricID) {
		errs = append(errs, "metric_id is required")
	}
	if p.EffectiveDate.apply(&r.EffectiveDate) {
		errs = append(errs, "effective_date is required")
	}
	if p.EndDate.Set {
		if p.EndDate.Null {
			r.EndDate = nil
		} else {
			end := p.EndDate.Value
			r.EndDate = &end
		}
	}
	if p.DataSource.apply(&r.DataSource) {
		errs = append(errs, "data_source is required")
	}
	if p.SourceURL.apply(&r.SourceURL) {
		r.SourceURL = ""
	}
	if p.ConfidenceLevel.apply(&r.ConfidenceLevel) {
		errs = append(errs, "confidence_level is required")
	}
	if p.Notes.apply(&r.Notes) {
		r.Notes = ""
	}
	if p.Value.Set && p.Value.Null {
		errs = append(errs, "value is required")
	}
	return r, errs
}
