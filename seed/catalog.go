package seed

import "github.com/zachtilly/childcare-api/policy"

// Categories is the default category set, in display order.
var Categories = []policy.Category{
	{Name: "Eligibility & Access", Slug: "eligibility-access", Description: "Who qualifies for child care assistance and how many are waiting", SortOrder: 1},
	{Name: "Affordability", Slug: "affordability", Description: "Subsidy rates, tax credits and family leave", SortOrder: 2},
	{Name: "Quality & Safety", Slug: "quality-safety", Description: "Staffing ratios, inspections and educator requirements", SortOrder: 3},
	{Name: "Supply", Slug: "supply", Description: "Availability of licensed care", SortOrder: 4},
	{Name: "Workforce", Slug: "workforce", Description: "Pay and training of early educators", SortOrder: 5},
}

// CatalogMetric is a metric definition keyed by its category slug.
type CatalogMetric struct {
	CategorySlug string
	Metric       policy.Metric
}

// Metrics is the default metric catalog.
var Metrics = []CatalogMetric{
	{"eligibility-access", policy.Metric{
		Name: "Income Eligibility Limit", Slug: "income-eligibility-fpl",
		Description: "Maximum family income for subsidy eligibility as a percent of the federal poverty level",
		DataType:    policy.DataNumeric, Unit: "% FPL", HigherIsBetter: true, SortOrder: 1,
	}},
	{"eligibility-access", policy.Metric{
		Name: "Subsidy Waitlist Size", Slug: "subsidy-waitlist-size",
		Description: "Children waiting for a child care subsidy",
		DataType:    policy.DataNumeric, Unit: "children", SortOrder: 2,
	}},
	{"affordability", policy.Metric{
		Name: "Infant Subsidy Rate", Slug: "subsidy-rate-infant",
		Description: "Monthly subsidy reimbursement for center-based infant care",
		DataType:    policy.DataCurrency, Unit: "USD/month", HigherIsBetter: true, SortOrder: 1,
	}},
	{"affordability", policy.Metric{
		Name: "Child Care Tax Credit", Slug: "tax-credit-amount",
		Description: "Maximum state child care tax credit",
		DataType:    policy.DataCurrency, Unit: "USD", HigherIsBetter: true, SortOrder: 2,
	}},
	{"affordability", policy.Metric{
		Name: "Paid Family Leave", Slug: "paid-leave-weeks",
		Description: "Weeks of state paid family leave available to new parents",
		DataType:    policy.DataNumeric, Unit: "weeks", HigherIsBetter: true, SortOrder: 3,
	}},
	{"quality-safety", policy.Metric{
		Name: "Infant Staff Ratio", Slug: "ratio-infant",
		Description: "Maximum infants per caregiver in licensed centers",
		DataType:    policy.DataEnum, AllowedValues: []string{"1:3", "1:4", "1:5", "1:6"}, SortOrder: 1,
	}},
	{"quality-safety", policy.Metric{
		Name: "Annual Inspection", Slug: "annual-inspection",
		Description: "Licensed centers are inspected at least once a year",
		DataType:    policy.DataBoolean, HigherIsBetter: true, SortOrder: 2,
	}},
	{"quality-safety", policy.Metric{
		Name: "Lead Teacher Education", Slug: "teacher-education-req",
		Description: "Minimum education required of a lead teacher",
		DataType:    policy.DataText, SortOrder: 3,
	}},
	{"supply", policy.Metric{
		Name: "Centers per 1,000 Children", Slug: "centers-per-1000",
		Description: "Licensed centers per 1,000 children under five",
		DataType:    policy.DataNumeric, Unit: "centers", HigherIsBetter: true, SortOrder: 1,
	}},
	{"supply", policy.Metric{
		Name: "Child Care Desert Share", Slug: "childcare-desert-pct",
		Description: "Share of residents living in a child care desert",
		DataType:    policy.DataPercentage, Unit: "%", SortOrder: 2,
	}},
	{"workforce", policy.Metric{
		Name: "Average Worker Wage", Slug: "avg-worker-wage",
		Description: "Average annual wage of child care workers",
		DataType:    policy.DataCurrency, Unit: "USD/year", HigherIsBetter: true, SortOrder: 1,
	}},
	{"workforce", policy.Metric{
		Name: "Required Training Hours", Slug: "required-training-hours",
		Description: "Annual ongoing training hours required of center staff",
		DataType:    policy.DataNumeric, Unit: "hours", HigherIsBetter: true, SortOrder: 2,
	}},
}
