/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types from
  package policy already carry JSON tags and are returned as-is; this file
  holds the response envelope, composite read models and request bodies.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *View:    Composite read models (entity plus related rows)

ENVELOPE:
  Every response is {success, data?, error?, details?, message?}.

VALIDATION:
  Validation is done by policy.Service, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go, admin.go: Use these types
*/
package api

import "github.com/zachtilly/childcare-api/policy"

// =============================================================================
// ENVELOPE
// =============================================================================

type Response struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
	Message string   `json:"message,omitempty"`
}

// =============================================================================
// READ MODELS
// =============================================================================

type StateView struct {
	policy.State
	Context *policy.StateContext `json:"context"`
}

type CategoryView struct {
	policy.Category
	Metrics []policy.Metric `json:"metrics"`
}

type TimelineView struct {
	Metric   policy.Metric   `json:"metric"`
	Timeline []policy.Record `json:"timeline"`
}

type CategoryPoliciesView struct {
	Category policy.Category       `json:"category"`
	Policies []policy.CurrentValue `json:"policies"`
}

// InfoView and HealthView are written at the top level, not under data.
type InfoView struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type HealthView struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// =============================================================================
// REQUESTS
// =============================================================================

type CreateRecordRequest struct {
	StateID         string                 `json:"state_id"`
	MetricID        string                 `json:"metric_id"`
	Value           any                    `json:"value"`
	EffectiveDate   string                 `json:"effective_date"`
	EndDate         *string                `json:"end_date"`
	DataSource      string                 `json:"data_source"`
	SourceURL       string                 `json:"source_url"`
	ConfidenceLevel policy.ConfidenceLevel `json:"confidence_level"`
	Notes           string                 `json:"notes"`
	CreatedBy       string                 `json:"created_by"`
}

func (r CreateRecordRequest) toInput() policy.RecordInput {
	return policy.RecordInput{
		StateID:         r.StateID,
		MetricID:        r.MetricID,
		Value:           r.Value,
		EffectiveDate:   r.EffectiveDate,
		EndDate:         r.EndDate,
		DataSource:      r.DataSource,
		SourceURL:       r.SourceURL,
		ConfidenceLevel: r.ConfidenceLevel,
		Notes:           r.Notes,
		CreatedBy:       r.CreatedBy,
	}
}

type BulkRequest struct {
	Entries []policy.BulkEntry `json:"entries"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	SortOrder   *int   `json:"sort_order"`
}

func (r CreateCategoryRequest) toCategory() policy.Category {
	c := policy.Category{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		SortOrder:   policy.DefaultSortOrder,
	}
	if r.SortOrder != nil {
		c.SortOrder = *r.SortOrder
	}
	return c
}

type CreateMetricRequest struct {
	CategoryID     string          `json:"category_id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	DataType       policy.DataType `json:"data_type"`
	Unit           string          `json:"unit"`
	AllowedValues  []string        `json:"allowed_values"`
	HigherIsBetter *bool           `json:"higher_is_better"`
	SortOrder      *int            `json:"sort_order"`
}

func (r CreateMetricRequest) toMetric() policy.Metric {
	m := policy.Metric{
		CategoryID:    r.CategoryID,
		Name:          r.Name,
		Slug:          r.Slug,
		Description:   r.Description,
		DataType:      r.DataType,
		Unit:          r.Unit,
		AllowedValues: r.AllowedValues,
		SortOrder:     policy.DefaultSortOrder,
	}
	if r.HigherIsBetter != nil {
		m.HigherIsBetter = *r.HigherIsBetter
	}
	if r.SortOrder != nil {
		m.SortOrder = *r.SortOrder
	}
	return m
}
