package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalDistinguishesAbsentAndNull(t *testing.T) {
	var p RecordPatch
	require.NoError(t, json.Unmarshal([]byte(`{"notes": null, "data_source": "CDSS"}`), &p))

	assert.False(t, p.SourceURL.Set)
	assert.True(t, p.Notes.Set)
	assert.True(t, p.Notes.Null)
	assert.Equal(t, Some("CDSS"), p.DataSource)
}

func TestRecordPatchApply(t *testing.T) {
	end := "2025-01-01"
	rec := Record{
		StateID: "s1", MetricID: "m1", EffectiveDate: "2024-01-01", EndDate: &end,
		DataSource: "old", SourceURL: "https://example.org", ConfidenceLevel: ConfidenceLow, Notes: "n",
	}

	// GIVEN: A patch that clears optional fields and reopens the record
	var p RecordPatch
	require.NoError(t, json.Unmarshal([]byte(`{
		"source_url": null,
		"notes": null,
		"end_date": null,
		"confidence_level": "high"
	}`), &p))

	// WHEN: It is applied
	got, errs := p.Apply(rec)

	// THEN: Only the named fields change
	assert.Empty(t, errs)
	assert.Equal(t, "", got.SourceURL)
	assert.Equal(t, "", got.Notes)
	assert.Nil(t, got.EndDate)
	assert.Equal(t, ConfidenceHigh, got.ConfidenceLevel)
	assert.Equal(t, "old", got.DataSource)
	assert.Equal(t, "2024-01-01", got.EffectiveDate)
	assert.NotNil(t, rec.EndDate, "input is not modified")
}

func TestRecordPatchRequiredNulls(t *testing.T) {
	var p RecordPatch
	require.NoError(t, json.Unmarshal([]byte(`{"effective_date": null, "value": null, "data_source": null}`), &p))

	_, errs := p.Apply(Record{})

	assert.Equal(t, []string{
		"effective_date is required",
		"data_source is required",
		"value is required",
	}, errs)
}

func TestCategoryAndMetricPatch(t *testing.T) {
	c, errs := CategoryPatch{Name: Some("Supply"), SortOrder: Optional[int]{Set: true, Null: true}}.
		Apply(Category{Name: "Old", Slug: "supply", SortOrder: 4})
	assert.Empty(t, errs)
	assert.Equal(t, "Supply", c.Name)
	assert.Equal(t, DefaultSortOrder, c.SortOrder)

	m, errs := MetricPatch{
		DataType:      Optional[DataType]{Set: true, Null: true},
		AllowedValues: Some([]string{"1:3"}),
		Unit:          Optional[string]{Set: true, Null: true},
	}.Apply(Metric{Slug: "ratio-infant", DataType: DataEnum, Unit: "ratio"})
	assert.Equal(t, []string{"data_type is required"}, errs)
	assert.Equal(t, []string{"1:3"}, m.AllowedValues)
	assert.Empty(t, m.Unit)
}
