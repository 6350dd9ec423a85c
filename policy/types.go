/*
types.go - Core entities of the child-care policy dataset

ENTITIES:
  State         Reference data, one per U.S. state
  Category      Groups metrics (Affordability, Workforce, ...)
  Metric        A measurable policy attribute with a declared DataType
  Record        One value of a metric for a state over a date range
  StateContext  Point-in-time capacity/cost/workforce snapshot for a state
  CurrentValue  A Record joined with its state, metric and category names

CURRENT RECORD:
  A Record with EndDate == nil is the current value for its
  (StateID, MetricID) pair. At most one may exist per pair; the store
  enforces this with a partial unique index.

DATES:
  EffectiveDate, EndDate and AsOfDate are calendar dates kept as
  YYYY-MM-DD strings. CreatedAt/UpdatedAt are UTC instants.
*/
package policy

import (
	"regexp"
	"time"
)

const DateLayout = "2006-01-02"

var (
	slugPattern      = regexp.MustCompile(`^[a-z0-9-]+$`)
	stateCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

// =============================================================================
// CONFIDENCE
// =============================================================================

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// =============================================================================
// ENTITIES
// =============================================================================

type State struct {
	ID                    string    `json:"id"`
	Code                  string    `json:"code"`
	Name                  string    `json:"name"`
	Region                string    `json:"region"`
	Population            int64     `json:"population"`
	MedianHouseholdIncome int64     `json:"median_household_income"`
	CreatedAt             time.Time `json:"created_at"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Metric struct {
	ID             string    `json:"id"`
	CategoryID     string    `json:"category_id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	DataType       DataType  `json:"data_type"`
	Unit           string    `json:"unit,omitempty"`
	AllowedValues  []string  `json:"allowed_values,omitempty"`
	HigherIsBetter bool      `json:"higher_is_better"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Populated by list queries that join the owning category.
	CategoryName string `json:"category_name,omitempty"`
	CategorySlug string `json:"category_slug,omitempty"`
}

type Record struct {
	ID              string          `json:"id"`
	StateID         string          `json:"state_id"`
	MetricID        string          `json:"metric_id"`
	Value           Envelope        `json:"value"`
	EffectiveDate   string          `json:"effective_date"`
	EndDate         *string         `json:"end_date"`
	DataSource      string          `json:"data_source"`
	SourceURL       string          `json:"source_url,omitempty"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (r Record) IsCurrent() bool {
	return r.EndDate == nil
}

type StateContext struct {
	ID       string `json:"id"`
	StateID  string `json:"state_id"`
	AsOfDate string `json:"as_of_date"`

	TotalLicensedCapacity *int64 `json:"total_licensed_capacity"`
	InfantCapacity        *int64 `json:"infant_capacity"`
	ToddlerCapacity       *int64 `json:"toddler_capacity"`
	PreschoolCapacity     *int64 `json:"preschool_capacity"`
	SchoolAgeCapacity     *int64 `json:"school_age_capacity"`

	InfantCostWeekly    *float64 `json:"infant_cost_weekly"`
	ToddlerCostWeekly   *float64 `json:"toddler_cost_weekly"`
	PreschoolCostWeekly *float64 `json:"preschool_cost_weekly"`
	SchoolAgeCostWeekly *float64 `json:"school_age_cost_weekly"`

	TotalWorkers      *int64 `json:"total_workers"`
	LeadTeachers      *int64 `json:"lead_teachers"`
	AssistantTeachers *int64 `json:"assistant_teachers"`
	Aides             *int64 `json:"aides"`

	DataSource string    `json:"data_source,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CurrentValue is a current Record flattened with the names callers
// need to display it.
type CurrentValue struct {
	Record
	StateCode    string   `json:"state_code"`
	StateName    string   `json:"state_name"`
	MetricSlug   string   `json:"metric_slug"`
	MetricName   string   `json:"metric_name"`
	DataType     DataType `json:"data_type"`
	Unit         string   `json:"unit,omitempty"`
	Category     string   `json:"category"`
	CategorySlug string   `json:"category_slug"`
}

// CurrentFilter narrows ListCurrentValues. Empty fields match everything.
type CurrentFilter struct {
	StateCodes   []string
	MetricSlugs  []string
	CategorySlug string
}

// =============================================================================
// HELPERS
// =============================================================================

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

func ValidStateCode(s string) bool {
	return stateCodePattern.MatchString(s)
}

// Today returns now's calendar date in UTC.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}
