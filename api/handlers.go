/*
handlers.go - HTTP request handlers (read side)

PURPOSE:
  Public, unauthenticated endpoints over the reference data and the
  current policy values. Reads go straight to the Store; every write goes
  through policy.Service (see admin.go).

HANDLER PATTERN:
  func (h *Handler) HandlerName(w http.ResponseWriter, r *http.Request) {
      // 1. Parse path/query params
      // 2. Query the store
      // 3. Write the envelope (writeJSON / writeError / writeServiceError)
  }

ERROR RESPONSES:
  400 - validation failure ({error, details}) or blocked delete
  401 - missing or wrong X-API-Key (middleware.go)
  404 - unknown state, metric, category or record
  409 - second current record for a state and metric
  500 - store failure

SEE ALSO:
  - admin.go: write endpoints
  - server.go: Route definitions
  - dto.go: Envelope and request/response types
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zachtilly/childcare-api/logger"
	"github.com/zachtilly/childcare-api/policy"
)

const Version = "1.0.0"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Store   policy.Store
	Service *policy.Service
	log     *logger.Logger
}

// NewHandler creates a new handler. Reads use the service's store.
func NewHandler(svc *policy.Service, log *logger.Logger) *Handler {
	return &Handler{
		Store:   svc.Store(),
		Service: svc,
		log:     log.With("component", "api"),
	}
}

// =============================================================================
// SERVICE ENDPOINTS
// =============================================================================

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeBody(w, http.StatusOK, InfoView{
		Success: true,
		Message: "Child Care Policy API",
		Version: Version,
		Endpoints: map[string]string{
			"states":     "/api/states",
			"policy":     "/api/policy",
			"policyData": "/api/data",
			"admin":      "/api/admin",
		},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "database unavailable: "+err.Error(), nil)
			return
		}
	}
	writeBody(w, http.StatusOK, HealthView{
		Success:   true,
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found", nil)
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

// =============================================================================
// STATES
// =============================================================================

func (h *Handler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.Store.ListStates(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, nonNil(states))
}

func (h *Handler) GetStateByID(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.GetState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "State not found", nil)
		return
	}
	writeOK(w, st)
}

func (h *Handler) GetStateByCode(w http.ResponseWriter, r *http.Request) {
	st, ok := h.stateByCode(w, r, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	writeOK(w, st)
}

// GetStateWithContext returns the state with its latest child-care
// context snapshot (null when none exists).
func (h *Handler) GetStateWithContext(w http.ResponseWriter, r *http.Request) {
	st, ok := h.stateByCode(w, r, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	sc, err := h.Store.LatestStateContext(r.Context(), st.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, StateView{State: *st, Context: sc})
}

// =============================================================================
// CATEGORIES & METRICS
// =============================================================================

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Store.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, nonNil(cats))
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := h.categoryBySlug(w, r, chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	metrics, err := h.Store.ListMetricsByCategory(r.Context(), c.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, CategoryView{Category: *c, Metrics: nonNil(metrics)})
}

func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Store.ListMetrics(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, nonNil(metrics))
}

func (h *Handler) GetMetric(w http.ResponseWriter, r *http.Request) {
	m, ok := h.metricBySlug(w, r, chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	writeOK(w, m)
}

// =============================================================================
// POLICY DATA
// =============================================================================

// StatePolicies returns every current value for one state.
func (h *Handler) StatePolicies(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	h.writeCurrent(w, r, policy.CurrentFilter{StateCodes: []string{code}})
}

// MetricComparison returns one metric's current value in every state.
func (h *Handler) MetricComparison(w http.ResponseWriter, r *http.Request) {
	h.writeCurrent(w, r, policy.CurrentFilter{MetricSlugs: []string{chi.URLParam(r, "slug")}})
}

func (h *Handler) CurrentValue(w http.ResponseWriter, r *http.Request) {
	values, err := h.Store.ListCurrentValues(r.Context(), policy.CurrentFilter{
		StateCodes:  []string{strings.ToUpper(chi.URLParam(r, "code"))},
		MetricSlugs: []string{chi.URLParam(r, "slug")},
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if len(values) == 0 {
		writeError(w, http.StatusNotFound, "Policy data not found", nil)
		return
	}
	writeOK(w, values[0])
}

// Timeline returns every record (current and historical) for a state and
// metric, oldest first.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	st, ok := h.stateByCode(w, r, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	m, ok := h.metricBySlug(w, r, chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	timeline, err := h.Store.Timeline(r.Context(), st.ID, m.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, TimelineView{Metric: *m, Timeline: nonNil(timeline)})
}

func (h *Handler) CategoryPolicies(w http.ResponseWriter, r *http.Request) {
	c, ok := h.categoryBySlug(w, r, chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	values, err := h.Store.ListCurrentValues(r.Context(), policy.CurrentFilter{CategorySlug: c.Slug})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, CategoryPoliciesView{Category: *c, Policies: nonNil(values)})
}

// Compare returns current values for several states, grouped by state
// code. ?stateCodes=CA,TX is required, ?metricSlugs=a,b is optional.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	codes := splitList(r.URL.Query().Get("stateCodes"), strings.ToUpper)
	if len(codes) == 0 {
		writeError(w, http.StatusBadRequest, "stateCodes query parameter is required", nil)
		return
	}
	slugs := splitList(r.URL.Query().Get("metricSlugs"), nil)

	values, err := h.Store.ListCurrentValues(r.Context(), policy.CurrentFilter{StateCodes: codes, MetricSlugs: slugs})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	grouped := make(map[string][]policy.CurrentValue, len(codes))
	for _, c := range codes {
		grouped[c] = []policy.CurrentValue{}
	}
	for _, v := range values {
		grouped[v.StateCode] = append(grouped[v.StateCode], v)
	}
	writeOK(w, grouped)
}

func (h *Handler) writeCurrent(w http.ResponseWriter, r *http.Request, f policy.CurrentFilter) {
	values, err := h.Store.ListCurrentValues(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, nonNil(values))
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================

// Each helper writes the 404/500 itself and reports whether the caller
// may continue.

func (h *Handler) stateByCode(w http.ResponseWriter, r *http.Request, code string) (*policy.State, bool) {
	st, err := h.Store.GetStateByCode(r.Context(), strings.ToUpper(code))
	if err != nil {
		h.writeServiceError(w, err)
		return nil, false
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "State not found", nil)
		return nil, false
	}
	return st, true
}

func (h *Handler) metricBySlug(w http.ResponseWriter, r *http.Request, slug string) (*policy.Metric, bool) {
	m, err := h.Store.GetMetric(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return nil, false
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Metric not found", nil)
		return nil, false
	}
	return m, true
}

func (h *Handler) categoryBySlug(w http.ResponseWriter, r *http.Request, slug string) (*policy.Category, bool) {
	c, err := h.Store.GetCategory(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Category not found", nil)
		return nil, false
	}
	return c, true
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	writeBody(w, status, resp)
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string, details []string) {
	writeJSON(w, status, Response{Success: false, Error: message, Details: details})
}

// writeServiceError maps policy errors onto statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		verr *policy.ValidationError
		derr *policy.DependentsError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "Validation failed", verr.Details)
	case errors.As(err, &derr):
		writeError(w, http.StatusBadRequest, derr.Error(), derr.Names)
	case errors.Is(err, policy.ErrStateNotFound):
		writeError(w, http.StatusNotFound, "State not found", nil)
	case errors.Is(err, policy.ErrMetricNotFound):
		writeError(w, http.StatusNotFound, "Metric not found", nil)
	case errors.Is(err, policy.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, "Category not found", nil)
	case errors.Is(err, policy.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "Policy data not found", nil)
	case errors.Is(err, policy.ErrContextNotFound):
		writeError(w, http.StatusNotFound, "State context not found", nil)
	case errors.Is(err, policy.ErrOpenRecordExists):
		writeError(w, http.StatusConflict, policy.ErrOpenRecordExists.Error(), nil)
	case errors.Is(err, policy.ErrSlugTaken):
		writeError(w, http.StatusBadRequest, "Validation failed", []string{policy.ErrSlugTaken.Error()})
	default:
		h.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// splitList splits a comma-separated query value, trimming blanks and
// applying norm (if any) to each item.
func splitList(raw string, norm func(string) string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if norm != nil {
			part = norm(part)
		}
		out = append(out, part)
	}
	return out
}
