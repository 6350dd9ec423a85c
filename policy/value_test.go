package policy

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		typ  DataType
		raw  any
		want Envelope
	}{
		{"numeric float", DataNumeric, 12.5, NumericValue(12.5)},
		{"numeric string", DataNumeric, " 200 ", NumericValue(200)},
		{"numeric garbage", DataNumeric, "lots", Envelope{}},
		{"percentage", DataPercentage, 45.0, NumericValue(45)},
		{"currency truncates", DataCurrency, 1800.75, CurrencyValue(1800)},
		{"currency string", DataCurrency, "1800.75", CurrencyValue(1800)},
		{"currency symbol rejected", DataCurrency, "$1800", Envelope{}},
		{"currency float overflow", DataCurrency, 1e19, Envelope{}},
		{"currency string overflow", DataCurrency, "27670116110564327424", Envelope{}},
		{"currency max", DataCurrency, "9223372036854775807.9", CurrencyValue(math.MaxInt64)},
		{"boolean true", DataBoolean, true, BooleanValue(true)},
		{"boolean yes", DataBoolean, "YES", BooleanValue(true)},
		{"boolean one", DataBoolean, 1.0, BooleanValue(true)},
		{"boolean other", DataBoolean, "maybe", BooleanValue(false)},
		{"boolean upper true", DataBoolean, "TRUE", BooleanValue(true)},
		{"boolean zero string", DataBoolean, "0", BooleanValue(false)},
		{"text number", DataText, 3.0, TextValue("3")},
		{"enum", DataEnum, "1:4", TextValue("1:4")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.Format(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestFormatCSV(t *testing.T) {
	tests := []struct {
		typ  DataType
		raw  string
		want Envelope
	}{
		{DataCurrency, "$1,800.00", CurrencyValue(1800)},
		{DataCurrency, " 17,500.90 ", CurrencyValue(17500)},
		{DataCurrency, "n/a", Envelope{}},
		{DataCurrency, "18446744073709551617", Envelope{}},
		{DataCurrency, "$27,670,116,110,564,327,424", Envelope{}},
		{DataNumeric, "7.5", NumericValue(7.5)},
		{DataBoolean, "1", BooleanValue(true)},
		{DataBoolean, "no", BooleanValue(false)},
		{DataText, "  Bachelor's degree ", TextValue("Bachelor's degree")},
	}
	for _, tt := range tests {
		got, err := tt.typ.FormatCSV(tt.raw)
		require.NoError(t, err)
		assert.True(t, tt.want.Equal(got), "%s %q: want %s, got %s", tt.typ, tt.raw, tt.want, got)
	}
}

func TestFormatUnknownType(t *testing.T) {
	_, err := DataType("date").Format("2024-01-01")
	assert.ErrorIs(t, err, ErrUnknownDataType)
}

func TestValidate(t *testing.T) {
	ratios := []string{"1:3", "1:4"}

	tests := []struct {
		name string
		typ  DataType
		env  Envelope
		want []string
	}{
		{"numeric ok", DataNumeric, NumericValue(-3), nil},
		{"numeric wrong field", DataNumeric, TextValue("3"), []string{"Value must contain a numeric field with a number"}},
		{"percentage bounds", DataPercentage, NumericValue(150), []string{"Percentage must be between 0 and 100"}},
		{"percentage edge", DataPercentage, NumericValue(100), nil},
		{"currency negative", DataCurrency, CurrencyValue(-1), []string{"Value must contain a currency field with a non-negative number"}},
		{"boolean missing", DataBoolean, Envelope{}, []string{"Value must contain a boolean field"}},
		{"text missing", DataText, Envelope{}, []string{"Value must contain a text field with a string"}},
		{"enum missing", DataEnum, Envelope{}, []string{"Value must contain a text field with a string for enum type"}},
		{"enum not allowed", DataEnum, TextValue("1:9"), []string{"Value must be one of: 1:3, 1:4"}},
		{"enum ok", DataEnum, TextValue("1:3"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Validate(tt.env, ratios))
		})
	}
}

func TestCoerce(t *testing.T) {
	// GIVEN: An envelope object, as decoded from JSON
	env, errs := Coerce(map[string]any{"numeric": 42.0}, DataPercentage, nil)
	assert.Empty(t, errs)
	assert.True(t, NumericValue(42).Equal(env))

	// WHEN: The client sends a bare scalar
	env, errs = Coerce("950", DataCurrency, nil)

	// THEN: It goes through the API formatting path
	assert.Empty(t, errs)
	assert.True(t, CurrencyValue(950).Equal(env))

	for _, raw := range []any{nil, []any{1.0}} {
		_, errs = Coerce(raw, DataNumeric, nil)
		assert.Equal(t, []string{"Value must be a valid object"}, errs)
	}

	_, errs = Coerce(1.0, DataType("date"), nil)
	assert.Equal(t, []string{"Unknown data type: date"}, errs)
}

func TestEnvelopeJSON(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"currency": 12.5, "text": 3}`), &env))
	assert.True(t, env.IsZero(), "mistyped fields are dropped")

	require.Error(t, json.Unmarshal([]byte(`[1]`), &env))

	b, err := json.Marshal(BooleanValue(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"boolean": false}`, string(b))
}

func TestEnvelopeString(t *testing.T) {
	assert.Equal(t, "7.5", NumericValue(7.5).String())
	assert.Equal(t, "$1800", CurrencyValue(1800).String())
	assert.Equal(t, "Yes", BooleanValue(true).String())
	assert.Equal(t, "1:4", TextValue("1:4").String())
	assert.Equal(t, "(empty)", Envelope{}.String())
}
