package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zachtilly/childcare-api/logger"
	"github.com/zachtilly/childcare-api/policy"
	"github.com/zachtilly/childcare-api/store/sqlstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testKey = "test-admin-key"

// testEnv is an in-memory API with two states, one category and three
// metrics.
type testEnv struct {
	store   *sqlstore.Store
	svc     *policy.Service
	router  http.Handler
	ca, tx  policy.State
	subsidy *policy.Metric // percentage
	cost    *policy.Metric // currency
	ratio   *policy.Metric // enum
}

func setupTestHandler(t *testing.T, cfg RouterConfig) *testEnv {
	t.Helper()
	store, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := policy.NewService(store, logger.Nop(), policy.WithClock(func() time.Time { return fixed }))

	env := &testEnv{store: store, svc: svc}
	env.ca = policy.State{ID: uuid.NewString(), Code: "CA", Name: "California", Region: "West", CreatedAt: fixed}
	env.tx = policy.State{ID: uuid.NewString(), Code: "TX", Name: "Texas", Region: "South", CreatedAt: fixed}
	require.NoError(t, store.SaveState(ctx, env.ca))
	require.NoError(t, store.SaveState(ctx, env.tx))

	_, err = svc.CreateCategory(ctx, policy.Category{
		Name: "Affordability", Slug: "affordability", Description: "What families pay", SortOrder: 1,
	})
	require.NoError(t, err)

	env.subsidy, err = svc.CreateMetric(ctx, policy.Metric{
		CategoryID: "affordability", Name: "Subsidy Rate", Slug: "subsidy-rate",
		Description: "Share of cost covered", DataType: policy.DataPercentage, Unit: "%", SortOrder: 1,
	})
	require.NoError(t, err)
	env.cost, err = svc.CreateMetric(ctx, policy.Metric{
		CategoryID: "affordability", Name: "Infant Care Cost", Slug: "infant-cost",
		Description: "Annual infant care cost", DataType: policy.DataCurrency, Unit: "USD", SortOrder: 2,
	})
	require.NoError(t, err)
	env.ratio, err = svc.CreateMetric(ctx, policy.Metric{
		CategoryID: "affordability", Name: "Infant Ratio", Slug: "infant-ratio",
		Description: "Staff to infant ratio", DataType: policy.DataEnum,
		AllowedValues: []string{"1:3", "1:4", "1:5"}, SortOrder: 3,
	})
	require.NoError(t, err)

	h := NewHandler(svc, logger.Nop())
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}
	env.router = NewRouter(h, cfg)
	return env
}

// testResponse is Response with Data left raw for per-test decoding.
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details []string        `json:"details"`
	Message string          `json:"message"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (int, testResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp testResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

// admin sends an authenticated request.
func (e *testEnv) admin(t *testing.T, method, path string, body any) (int, testResponse) {
	return e.do(t, method, path, body, APIKeyHeader, testKey)
}

func decodeData[T any](t *testing.T, resp testResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v), string(resp.Data))
	return v
}
