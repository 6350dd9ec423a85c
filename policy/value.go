/*
value.go - Typed policy values

PURPOSE:
  A policy value is stored as a small tagged object whose single field is
  implied by the owning metric's DataType:

    numeric, percentage  {"numeric": 12.5}
    currency             {"currency": 1800}
    boolean              {"boolean": true}
    text, enum           {"text": "1:4"}

  Each DataType maps to exactly one valueKind implementation. Formatting
  and validation go through that variant instead of switching on the
  type name at every call site.

TWO COERCION PATHS:
  Format     Values arriving through the JSON API. Currency is a direct
             integer parse ("1800.75" -> 1800, "$1800" -> no value).
  FormatCSV  Values arriving from spreadsheets. Currency first strips
             everything except digits and '.' ("$1,800.00" -> 1800).

  Neither path fails on bad input. An uncoercible value yields an empty
  Envelope which Validate then reports.

VALIDATION:
  Validate returns every violation found. An empty slice means valid.

SEE ALSO:
  - service.go: Upsert validates before writing
  - importer/csv.go: FormatCSV caller
*/
package policy

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATA TYPES
// =============================================================================

type DataType string

const (
	DataNumeric    DataType = "numeric"
	DataCurrency   DataType = "currency"
	DataPercentage DataType = "percentage"
	DataBoolean    DataType = "boolean"
	DataText       DataType = "text"
	DataEnum       DataType = "enum"
)

// DataTypes lists the closed set in display order.
var DataTypes = []DataType{DataNumeric, DataCurrency, DataPercentage, DataBoolean, DataText, DataEnum}

type valueKind interface {
	format(raw any) Envelope
	formatCSV(raw string) Envelope
	validate(env Envelope, allowed []string) []string
}

var kinds = map[DataType]valueKind{
	DataNumeric:    numericValue{},
	DataPercentage: numericValue{percent: true},
	DataCurrency:   currencyValue{},
	DataBoolean:    booleanValue{},
	DataText:       textValue{},
	DataEnum:       textValue{enum: true},
}

func (d DataType) Valid() bool {
	_, ok := kinds[d]
	return ok
}

func (d DataType) kind() (valueKind, error) {
	k, ok := kinds[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataType, string(d))
	}
	return k, nil
}

// Format coerces an API-supplied scalar into d's envelope.
func (d DataType) Format(raw any) (Envelope, error) {
	k, err := d.kind()
	if err != nil {
		return Envelope{}, err
	}
	return k.format(raw), nil
}

// FormatCSV coerces a spreadsheet cell into d's envelope.
func (d DataType) FormatCSV(raw string) (Envelope, error) {
	k, err := d.kind()
	if err != nil {
		return Envelope{}, err
	}
	return k.formatCSV(strings.TrimSpace(raw)), nil
}

// Validate checks env against d. allowed is only consulted for enums.
func (d DataType) Validate(env Envelope, allowed []string) []string {
	k, err := d.kind()
	if err != nil {
		return []string{fmt.Sprintf("Unknown data type: %s", d)}
	}
	return k.validate(env, allowed)
}

// Coerce turns whatever a client sent as "value" into a validated
// envelope. Objects are taken as envelopes, scalars are formatted through
// the API path.
func Coerce(raw any, d DataType, allowed []string) (Envelope, []string) {
	if !d.Valid() {
		return Envelope{}, []string{fmt.Sprintf("Unknown data type: %s", d)}
	}
	var env Envelope
	switch v := raw.(type) {
	case nil, []any:
		return Envelope{}, []string{"Value must be a valid object"}
	case Envelope:
		env = v
	case map[string]any:
		env = envelopeFromMap(v)
	default:
		env, _ = d.Format(v)
	}
	return env, d.Validate(env, allowed)
}

// =============================================================================
// ENVELOPE
// =============================================================================

// Envelope is the stored form of a value. A valid envelope has exactly the
// field its metric's DataType calls for.
type Envelope struct {
	Numeric  *float64 `json:"numeric,omitempty"`
	Currency *int64   `json:"currency,omitempty"`
	Boolean  *bool    `json:"boolean,omitempty"`
	Text     *string  `json:"text,omitempty"`
}

func NumericValue(v float64) Envelope { return Envelope{Numeric: &v} }
func CurrencyValue(v int64) Envelope  { return Envelope{Currency: &v} }
func BooleanValue(v bool) Envelope    { return Envelope{Boolean: &v} }
func TextValue(v string) Envelope     { return Envelope{Text: &v} }

func (e Envelope) IsZero() bool {
	return e.Numeric == nil && e.Currency == nil && e.Boolean == nil && e.Text == nil
}

func (e Envelope) Equal(o Envelope) bool {
	return eqPtr(e.Numeric, o.Numeric) && eqPtr(e.Currency, o.Currency) &&
		eqPtr(e.Boolean, o.Boolean) && eqPtr(e.Text, o.Text)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// UnmarshalJSON keeps fields whose JSON type matches the tag and drops the
// rest, so a malformed value surfaces as a validation message rather than
// a decode failure.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("value must be a JSON object, got %s", string(b))
	}
	*e = envelopeFromMap(m)
	return nil
}

// String renders the value for console output.
func (e Envelope) String() string {
	switch {
	case e.Numeric != nil:
		return strconv.FormatFloat(*e.Numeric, 'f', -1, 64)
	case e.Currency != nil:
		return "$" + strconv.FormatInt(*e.Currency, 10)
	case e.Boolean != nil:
		if *e.Boolean {
			return "Yes"
		}
		return "No"
	case e.Text != nil:
		return *e.Text
	}
	return "(empty)"
}

func envelopeFromMap(m map[string]any) Envelope {
	var env Envelope
	if v, ok := m["numeric"].(float64); ok {
		env.Numeric = &v
	}
	if v, ok := m["currency"].(float64); ok && v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
		c := int64(v)
		env.Currency = &c
	}
	if v, ok := m["boolean"].(bool); ok {
		env.Boolean = &v
	}
	if v, ok := m["text"].(string); ok {
		env.Text = &v
	}
	return env
}

// =============================================================================
// VARIANTS
// =============================================================================

type numericValue struct {
	percent bool
}

func (n numericValue) format(raw any) Envelope {
	switch v := raw.(type) {
	case float64:
		return NumericValue(v)
	case int:
		return NumericValue(float64(v))
	case int64:
		return NumericValue(float64(v))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return Envelope{}
		}
		f, _ := d.Float64()
		return NumericValue(f)
	}
	return Envelope{}
}

func (n numericValue) formatCSV(raw string) Envelope {
	return n.format(raw)
}

func (n numericValue) validate(env Envelope, _ []string) []string {
	if env.Numeric == nil || math.IsNaN(*env.Numeric) || math.IsInf(*env.Numeric, 0) {
		return []string{"Value must contain a numeric field with a number"}
	}
	if n.percent && (*env.Numeric < 0 || *env.Numeric > 100) {
		return []string{"Percentage must be between 0 and 100"}
	}
	return nil
}

type currencyValue struct{}

func (currencyValue) format(raw any) Envelope {
	switch v := raw.(type) {
	case float64:
		t := math.Trunc(v)
		if math.IsNaN(v) || t >= 1<<63 || t < -(1<<63) {
			return Envelope{}
		}
		return CurrencyValue(int64(t))
	case int:
		return CurrencyValue(int64(v))
	case int64:
		return CurrencyValue(v)
	case string:
		return truncateToCurrency(strings.TrimSpace(v))
	}
	return Envelope{}
}

func (c currencyValue) formatCSV(raw string) Envelope {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return truncateToCurrency(b.String())
}

func (currencyValue) validate(env Envelope, _ []string) []string {
	if env.Currency == nil || *env.Currency < 0 {
		return []string{"Value must contain a currency field with a non-negative number"}
	}
	return nil
}

var (
	maxCurrency = decimal.NewFromInt(math.MaxInt64)
	minCurrency = decimal.NewFromInt(math.MinInt64)
)

func truncateToCurrency(s string) Envelope {
	if s == "" {
		return Envelope{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Envelope{}
	}
	// IntPart wraps silently outside the int64 range.
	d = d.Truncate(0)
	if d.GreaterThan(maxCurrency) || d.LessThan(minCurrency) {
		return Envelope{}
	}
	return CurrencyValue(d.IntPart())
}

type booleanValue struct{}

func (booleanValue) format(raw any) Envelope {
	switch v := raw.(type) {
	case bool:
		return BooleanValue(v)
	case float64:
		return BooleanValue(v == 1)
	case int:
		return BooleanValue(v == 1)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return BooleanValue(true)
		}
	}
	return BooleanValue(false)
}

func (b booleanValue) formatCSV(raw string) Envelope {
	return b.format(raw)
}

func (booleanValue) validate(env Envelope, _ []string) []string {
	if env.Boolean == nil {
		return []string{"Value must contain a boolean field"}
	}
	return nil
}

type textValue struct {
	enum bool
}

func (textValue) format(raw any) Envelope {
	switch v := raw.(type) {
	case string:
		return TextValue(v)
	case float64:
		return TextValue(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		return TextValue(strconv.FormatBool(v))
	case nil:
		return Envelope{}
	}
	return TextValue(fmt.Sprint(raw))
}

func (t textValue) formatCSV(raw string) Envelope {
	return TextValue(raw)
}

func (t textValue) validate(env Envelope, allowed []string) []string {
	if env.Text == nil {
		if t.enum {
			return []string{"Value must contain a text field with a string for enum type"}
		}
		return []string{"Value must contain a text field with a string"}
	}
	if t.enum && !contains(allowed, *env.Text) {
		return []string{"Value must be one of: " + strings.Join(allowed, ", ")}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
