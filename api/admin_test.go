/*
admin_test.go - Tests for the authenticated write endpoints

Tests for:
- API key enforcement
- Policy data create/update/delete and the single-current-record rule
- Bulk upsert partial success
- Catalog writes and delete guards
- State context snapshots and the quality report
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zachtilly/childcare-api/policy"
	"github.com/zachtilly/childcare-api/report"
)

func TestAPIKeyAuth(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})
		code, resp := env.do(t, http.MethodGet, "/api/admin/report", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Missing API key. Include X-API-Key header.", resp.Error)
	})

	t.Run("wrong key", func(t *testing.T) {
		env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})
		code, resp := env.do(t, http.MethodGet, "/api/admin/report", nil, APIKeyHeader, "nope")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Invalid API key", resp.Error)
	})

	t.Run("correct key", func(t *testing.T) {
		env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})
		code, _ := env.admin(t, http.MethodGet, "/api/admin/report", nil)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("no key outside production", func(t *testing.T) {
		env := setupTestHandler(t, RouterConfig{})
		code, _ := env.do(t, http.MethodGet, "/api/admin/report", nil)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("no key in production", func(t *testing.T) {
		env := setupTestHandler(t, RouterConfig{Production: true})
		code, _ := env.do(t, http.MethodGet, "/api/admin/report", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
		code, resp := env.do(t, http.MethodGet, "/api/admin/report", nil, APIKeyHeader, "anything")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Invalid API key", resp.Error)
	})

	t.Run("read routes stay public", func(t *testing.T) {
		env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})
		code, _ := env.do(t, http.MethodGet, "/api/states", nil)
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestCreatePolicyData(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})

	body := map[string]any{
		"state_id":         env.ca.ID,
		"metric_id":        env.cost.ID,
		"value":            map[string]any{"currency": 15000},
		"effective_date":   "2024-01-01",
		"data_source":      "State agency",
		"confidence_level": "high",
	}

	// WHEN: The record is created
	code, resp := env.admin(t, http.MethodPost, "/api/admin/policy-data", body)
	require.Equal(t, http.StatusOK, code, resp.Error)
	rec := decodeData[policy.Record](t, resp)
	require.NotNil(t, rec.Value.Currency)
	assert.Equal(t, int64(15000), *rec.Value.Currency)
	assert.Equal(t, policy.CreatedByAPI, rec.CreatedBy)

	// THEN: A second open record for the same pair is refused
	code, resp = env.admin(t, http.MethodPost, "/api/admin/policy-data", body)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)

	// AND: A closed historical record is accepted
	body["end_date"] = "2023-12-31"
	body["effective_date"] = "2023-01-01"
	code, _ = env.admin(t, http.MethodPost, "/api/admin/policy-data", body)
	assert.Equal(t, http.StatusOK, code)
}

func TestCreatePolicyDataValidation(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})

	tests := []struct {
		name    string
		body    map[string]any
		details []string
	}{
		{
			name: "percentage out of range",
			body: map[string]any{
				"state_id": env.ca.ID, "metric_id": env.subsidy.ID, "value": map[string]any{"numeric": 150},
				"effective_date": "2024-01-01", "data_source": "x", "confidence_level": "high",
			},
			details: []string{"Percentage must be between 0 and 100"},
		},
		{
			name: "enum not allowed",
			body: map[string]any{
				"state_id": env.ca.ID, "metric_id": env.ratio.ID, "value": map[string]any{"text": "1:9"},
				"effective_date": "2024-01-01", "data_source": "x", "confidence_level": "high",
			},
			details: []string{"Value must be one of: 1:3, 1:4, 1:5"},
		},
		{
			name: "unknown state",
			body: map[string]any{
				"state_id": "missing", "metric_id": env.cost.ID, "value": map[string]any{"currency": 1},
				"effective_date": "2024-01-01", "data_source": "x", "confidence_level": "high",
			},
			details: []string{"Invalid state_id"},
		},
		{
			name: "array value",
			body: map[string]any{
				"state_id": env.ca.ID, "metric_id": env.cost.ID, "value": []int{1},
				"effective_date": "2024-01-01", "data_source": "x", "confidence_level": "high",
			},
			details: []string{"Value must be a valid object"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.admin(t, http.MethodPost, "/api/admin/policy-data", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "Validation failed", resp.Error)
			for _, d := range tt.details {
				assert.Contains(t, resp.Details, d)
			}
		})
	}
}

func TestUpdateAndDeletePolicyData(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})
	rec, _, err := env.svc.Upsert(context.Background(), env.ca.ID, env.subsidy.ID, policy.NumericValue(40),
		policy.Metadata{Notes: "initial", EffectiveDate: "2024-01-01"})
	require.NoError(t, err)

	// WHEN: A partial update changes confidence and clears notes
	code, resp := env.admin(t, http.MethodPut, "/api/admin/policy-data/"+rec.ID,
		`{"confidence_level": "high", "notes": null, "value": 55}`)
	require.Equal(t, http.StatusOK, code, resp.Details)

	// THEN: Untouched fields keep their values
	got := decodeData[policy.Record](t, resp)
	assert.Equal(t, policy.ConfidenceHigh, got.ConfidenceLevel)
	assert.Empty(t, got.Notes)
	assert.Equal(t, "2024-01-01", got.EffectiveDate)
	require.NotNil(t, got.Value.Numeric)
	assert.Equal(t, 55.0, *got.Value.Numeric)

	// AND: Nulling a required field is rejected
	code, resp = env.admin(t, http.MethodPut, "/api/admin/policy-data/"+rec.ID, `{"effective_date": null}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Details, "effective_date is required")

	code, resp = env.admin(t, http.MethodDelete, "/api/admin/policy-data/"+rec.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Policy data deleted successfully", resp.Message)

	code, resp = env.admin(t, http.MethodDelete, "/api/admin/policy-data/"+rec.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Policy data not found", resp.Error)
}

func TestBulkPolicyData(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})

	entries := []map[string]any{
		{"state_code": "CA", "metric_slug": "subsidy-rate", "value": map[string]any{"numeric": 45}},
		{"state_code": "ZZ", "metric_slug": "subsidy-rate", "value": map[string]any{"numeric": 45}},
		{"state_code": "TX", "metric_slug": "infant-cost", "value": map[string]any{"currency": 9000}},
	}

	// WHEN: Three entries are sent, one with an unknown state
	code, resp := env.admin(t, http.MethodPost, "/api/admin/policy-data/bulk", map[string]any{"entries": entries})
	require.Equal(t, http.StatusOK, code)

	// THEN: The valid two succeed
	result := decodeData[policy.BulkResult](t, resp)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Inserted)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "Invalid state code: ZZ", result.Errors[0].Error)

	// AND: Re-sending updates rather than inserts
	_, resp = env.admin(t, http.MethodPost, "/api/admin/policy-data/bulk", map[string]any{"entries": entries[:1]})
	result = decodeData[policy.BulkResult](t, resp)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Inserted)

	cur, err := env.store.CurrentRecord(context.Background(), env.ca.ID, env.subsidy.ID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, policy.CreatedByImport, cur.CreatedBy)
	assert.Equal(t, policy.DefaultDataSource, cur.DataSource)
}

func TestBulkPolicyDataRejectsEmpty(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})

	code, resp := env.admin(t, http.MethodPost, "/api/admin/policy-data/bulk", `{"entries": []}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "entries must be a non-empty array", resp.Error)

	code, _ = env.admin(t, http.MethodPost, "/api/admin/policy-data/bulk", `{"entries": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCatalogWrites(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})

	// Category create, duplicate slug, update
	code, resp := env.admin(t, http.MethodPost, "/api/admin/categories", map[string]any{
		"name": "Workforce", "slug": "workforce", "description": "Staff wages and training",
	})
	require.Equal(t, http.StatusOK, code, resp.Details)
	cat := decodeData[policy.Category](t, resp)
	assert.Equal(t, policy.DefaultSortOrder, cat.SortOrder)

	code, resp = env.admin(t, http.MethodPost, "/api/admin/categories", map[string]any{
		"name": "Workforce 2", "slug": "workforce", "description": "dup",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", resp.Error)

	code, resp = env.admin(t, http.MethodPut, "/api/admin/categories/workforce", `{"name": "Early Educator Workforce"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Early Educator Workforce", decodeData[policy.Category](t, resp).Name)

	// Metric create under the new category, then delete both
	code, resp = env.admin(t, http.MethodPost, "/api/admin/metrics", map[string]any{
		"category_id": cat.ID, "name": "Median Wage", "slug": "median-wage",
		"description": "Hourly median wage", "data_type": "currency",
	})
	require.Equal(t, http.StatusOK, code, resp.Details)

	code, resp = env.admin(t, http.MethodPost, "/api/admin/metrics", map[string]any{
		"category_id": cat.ID, "name": "Bad", "slug": "Bad Slug", "description": "x", "data_type": "colour",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, resp.Details)

	code, resp = env.admin(t, http.MethodDelete, "/api/admin/categories/workforce", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot delete category. It has 1 metrics.", resp.Error)
	assert.Equal(t, []string{"Median Wage"}, resp.Details)

	code, _ = env.admin(t, http.MethodDelete, "/api/admin/metrics/median-wage", nil)
	assert.Equal(t, http.StatusOK, code)
	code, resp = env.admin(t, http.MethodDelete, "/api/admin/categories/workforce", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Category deleted successfully", resp.Message)
}

func TestDeleteMetricInUse(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})
	_, _, err := env.svc.Upsert(context.Background(), env.ca.ID, env.cost.ID, policy.CurrencyValue(100), policy.Metadata{})
	require.NoError(t, err)

	code, resp := env.admin(t, http.MethodDelete, "/api/admin/metrics/"+env.cost.ID, nil)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot delete metric. It is used in 1 policy data entries.", resp.Error)

	code, resp = env.admin(t, http.MethodDelete, "/api/admin/metrics/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Metric not found", resp.Error)
}

func TestStateContextEndpoints(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})

	code, resp := env.admin(t, http.MethodPost, "/api/admin/state-context", map[string]any{
		"state_id": env.ca.ID, "as_of_date": "2024-01-01", "total_workers": 5000, "infant_cost_weekly": 410.5,
	})
	require.Equal(t, http.StatusOK, code, resp.Details)
	first := decodeData[policy.StateContext](t, resp)

	// Same date replaces, keeping the id
	code, resp = env.admin(t, http.MethodPost, "/api/admin/state-context", map[string]any{
		"state_id": env.ca.ID, "as_of_date": "2024-01-01", "total_workers": 5100,
	})
	require.Equal(t, http.StatusOK, code)
	second := decodeData[policy.StateContext](t, resp)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.TotalWorkers)
	assert.Equal(t, int64(5100), *second.TotalWorkers)

	code, resp = env.admin(t, http.MethodPost, "/api/admin/state-context", map[string]any{
		"state_id": env.ca.ID, "as_of_date": "2024-02-01", "aides": -1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Details, "aides must be a non-negative number")

	_, resp = env.admin(t, http.MethodGet, "/api/admin/state-context/CA/history", nil)
	assert.Len(t, decodeData[[]policy.StateContext](t, resp), 1)

	code, _ = env.admin(t, http.MethodDelete, "/api/admin/state-context/"+first.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.admin(t, http.MethodDelete, "/api/admin/state-context/"+first.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestReportEndpoint(t *testing.T) {
	env := setupTestHandler(t, RouterConfig{AdminAPIKey: testKey})
	_, _, err := env.svc.Upsert(context.Background(), env.ca.ID, env.cost.ID, policy.CurrencyValue(100),
		policy.Metadata{ConfidenceLevel: policy.ConfidenceHigh})
	require.NoError(t, err)

	code, resp := env.admin(t, http.MethodGet, "/api/admin/report", nil)

	require.Equal(t, http.StatusOK, code)
	rep := decodeData[report.Report](t, resp)
	assert.Equal(t, 6, rep.ExpectedRecords)
	assert.Equal(t, 1, rep.Records)
	assert.Len(t, rep.Missing, 5)
	assert.Equal(t, 100.0, rep.Score)
	assert.Equal(t, report.RatingExcellent, rep.Rating)
}
