package seed

import "github.com/zachtilly/childcare-api/policy"

// SampleEffectiveDate is the effective date of every sample and generated
// record.
const SampleEffectiveDate = "2024-01-01"

// SampleEntry is one hand-collected value.
type SampleEntry struct {
	StateCode  string
	MetricSlug string
	Value      policy.Envelope
	Source     string
	Confidence policy.ConfidenceLevel
}

const (
	high = policy.ConfidenceHigh
	med  = policy.ConfidenceMedium
)

// SampleStates have hand-collected values; the generator skips them.
var SampleStates = []string{"CA", "TX", "NY", "FL", "MA", "WA", "MS", "CO"}

var Sample = []SampleEntry{
	// California
	{"CA", "income-eligibility-fpl", policy.NumericValue(85), "CA Department of Social Services", high},
	{"CA", "subsidy-waitlist-size", policy.NumericValue(50000), "CA DSS", med},
	{"CA", "subsidy-rate-infant", policy.CurrencyValue(1800), "CA DSS", high},
	{"CA", "ratio-infant", policy.TextValue("1:4"), "CA Licensing Standards", high},
	{"CA", "annual-inspection", policy.BooleanValue(true), "CA Licensing Standards", high},
	{"CA", "centers-per-1000", policy.NumericValue(8.5), "CA Child Care Resource Center", med},
	{"CA", "childcare-desert-pct", policy.NumericValue(28), "Center for American Progress", med},
	{"CA", "paid-leave-weeks", policy.NumericValue(8), "CA EDD", high},
	{"CA", "tax-credit-amount", policy.CurrencyValue(3000), "CA Franchise Tax Board", high},
	{"CA", "avg-worker-wage", policy.CurrencyValue(38500), "Bureau of Labor Statistics", high},
	{"CA", "required-training-hours", policy.NumericValue(24), "CA Licensing Standards", high},

	// Texas
	{"TX", "income-eligibility-fpl", policy.NumericValue(65), "TX Health and Human Services", high},
	{"TX", "subsidy-waitlist-size", policy.NumericValue(32000), "TX HHS", med},
	{"TX", "subsidy-rate-infant", policy.CurrencyValue(950), "TX HHS", high},
	{"TX", "ratio-infant", policy.TextValue("1:4"), "TX Minimum Standards", high},
	{"TX", "annual-inspection", policy.BooleanValue(true), "TX Minimum Standards", high},
	{"TX", "centers-per-1000", policy.NumericValue(6.2), "TX Child Care Data", med},
	{"TX", "childcare-desert-pct", policy.NumericValue(42), "Center for American Progress", med},
	{"TX", "paid-leave-weeks", policy.NumericValue(0), "TX Labor Code", high},
	{"TX", "tax-credit-amount", policy.CurrencyValue(0), "TX Tax Code", high},
	{"TX", "avg-worker-wage", policy.CurrencyValue(28500), "Bureau of Labor Statistics", high},
	{"TX", "required-training-hours", policy.NumericValue(24), "TX Minimum Standards", high},

	// New York
	{"NY", "income-eligibility-fpl", policy.NumericValue(85), "NY OCFS", high},
	{"NY", "subsidy-waitlist-size", policy.NumericValue(45000), "NY OCFS", med},
	{"NY", "subsidy-rate-infant", policy.CurrencyValue(1650), "NY OCFS", high},
	{"NY", "ratio-infant", policy.TextValue("1:4"), "NY OCFS Regulations", high},
	{"NY", "annual-inspection", policy.BooleanValue(true), "NY OCFS Regulations", high},
	{"NY", "centers-per-1000", policy.NumericValue(7.8), "NY Child Care Data", med},
	{"NY", "childcare-desert-pct", policy.NumericValue(31), "Center for American Progress", med},
	{"NY", "paid-leave-weeks", policy.NumericValue(12), "NY Paid Family Leave", high},
	{"NY", "tax-credit-amount", policy.CurrencyValue(2500), "NY Department of Taxation", high},
	{"NY", "avg-worker-wage", policy.CurrencyValue(36800), "Bureau of Labor Statistics", high},
	{"NY", "required-training-hours", policy.NumericValue(30), "NY OCFS Regulations", high},

	// Florida
	{"FL", "income-eligibility-fpl", policy.NumericValue(150), "FL Department of Children and Families", high},
	{"FL", "subsidy-waitlist-size", policy.NumericValue(28000), "FL DCF", med},
	{"FL", "subsidy-rate-infant", policy.CurrencyValue(850), "FL DCF", high},
	{"FL", "ratio-infant", policy.TextValue("1:4"), "FL Child Care Standards", high},
	{"FL", "annual-inspection", policy.BooleanValue(true), "FL Child Care Standards", high},
	{"FL", "centers-per-1000", policy.NumericValue(5.9), "FL Child Care Data", med},
	{"FL", "childcare-desert-pct", policy.NumericValue(38), "Center for American Progress", med},
	{"FL", "paid-leave-weeks", policy.NumericValue(0), "FL Statutes", high},
	{"FL", "tax-credit-amount", policy.CurrencyValue(0), "FL Tax Code", high},
	{"FL", "avg-worker-wage", policy.CurrencyValue(29200), "Bureau of Labor Statistics", high},
	{"FL", "required-training-hours", policy.NumericValue(20), "FL Child Care Standards", high},

	// Massachusetts
	{"MA", "income-eligibility-fpl", policy.NumericValue(85), "MA Department of Early Education", high},
	{"MA", "subsidy-waitlist-size", policy.NumericValue(12000), "MA EEC", med},
	{"MA", "subsidy-rate-infant", policy.CurrencyValue(1950), "MA EEC", high},
	{"MA", "ratio-infant", policy.TextValue("1:3"), "MA EEC Regulations", high},
	{"MA", "annual-inspection", policy.BooleanValue(true), "MA EEC Regulations", high},
	{"MA", "centers-per-1000", policy.NumericValue(9.2), "MA Child Care Data", med},
	{"MA", "childcare-desert-pct", policy.NumericValue(22), "Center for American Progress", med},
	{"MA", "paid-leave-weeks", policy.NumericValue(12), "MA Paid Family Leave", high},
	{"MA", "tax-credit-amount", policy.CurrencyValue(2800), "MA Department of Revenue", high},
	{"MA", "avg-worker-wage", policy.CurrencyValue(41200), "Bureau of Labor Statistics", high},
	{"MA", "required-training-hours", policy.NumericValue(20), "MA EEC Regulations", high},

	// Washington
	{"WA", "income-eligibility-fpl", policy.NumericValue(200), "WA Department of Children, Youth, and Families", high},
	{"WA", "subsidy-waitlist-size", policy.NumericValue(15000), "WA DCYF", med},
	{"WA", "subsidy-rate-infant", policy.CurrencyValue(1700), "WA DCYF", high},
	{"WA", "ratio-infant", policy.TextValue("1:4"), "WA Child Care Standards", high},
	{"WA", "annual-inspection", policy.BooleanValue(true), "WA Child Care Standards", high},
	{"WA", "centers-per-1000", policy.NumericValue(7.5), "WA Child Care Data", med},
	{"WA", "childcare-desert-pct", policy.NumericValue(30), "Center for American Progress", med},
	{"WA", "paid-leave-weeks", policy.NumericValue(12), "WA Paid Family Leave", high},
	{"WA", "tax-credit-amount", policy.CurrencyValue(1200), "WA Department of Revenue", high},
	{"WA", "avg-worker-wage", policy.CurrencyValue(39500), "Bureau of Labor Statistics", high},
	{"WA", "required-training-hours", policy.NumericValue(30), "WA Child Care Standards", high},

	// Mississippi
	{"MS", "income-eligibility-fpl", policy.NumericValue(85), "MS Department of Human Services", high},
	{"MS", "subsidy-waitlist-size", policy.NumericValue(8000), "MS DHS", med},
	{"MS", "subsidy-rate-infant", policy.CurrencyValue(650), "MS DHS", high},
	{"MS", "ratio-infant", policy.TextValue("1:5"), "MS Child Care Standards", high},
	{"MS", "annual-inspection", policy.BooleanValue(true), "MS Child Care Standards", high},
	{"MS", "centers-per-1000", policy.NumericValue(4.1), "MS Child Care Data", med},
	{"MS", "childcare-desert-pct", policy.NumericValue(52), "Center for American Progress", med},
	{"MS", "paid-leave-weeks", policy.NumericValue(0), "MS Labor Laws", high},
	{"MS", "tax-credit-amount", policy.CurrencyValue(0), "MS Tax Code", high},
	{"MS", "avg-worker-wage", policy.CurrencyValue(23800), "Bureau of Labor Statistics", high},
	{"MS", "required-training-hours", policy.NumericValue(15), "MS Child Care Standards", high},

	// Colorado
	{"CO", "income-eligibility-fpl", policy.NumericValue(185), "CO Department of Human Services", high},
	{"CO", "subsidy-waitlist-size", policy.NumericValue(18000), "CO DHS", med},
	{"CO", "subsidy-rate-infant", policy.CurrencyValue(1450), "CO DHS", high},
	{"CO", "ratio-infant", policy.TextValue("1:5"), "CO Child Care Regulations", high},
	{"CO", "annual-inspection", policy.BooleanValue(true), "CO Child Care Regulations", high},
	{"CO", "centers-per-1000", policy.NumericValue(6.8), "CO Child Care Data", med},
	{"CO", "childcare-desert-pct", policy.NumericValue(35), "Center for American Progress", med},
	{"CO", "paid-leave-weeks", policy.NumericValue(12), "CO FAMLI", high},
	{"CO", "tax-credit-amount", policy.CurrencyValue(2100), "CO Department of Revenue", high},
	{"CO", "avg-worker-wage", policy.CurrencyValue(35600), "Bureau of Labor Statistics", high},
	{"CO", "required-training-hours", policy.NumericValue(25), "CO Child Care Regulations", high},
}
