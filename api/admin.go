/*
admin.go - HTTP request handlers (write side)

PURPOSE:
  Authenticated endpoints under /api/admin. Handlers decode the body,
  call policy.Service and map its errors through writeServiceError. No
  business rule lives here.

ENDPOINTS:
  POST   /policy-data              CreatePolicyData
  POST   /policy-data/bulk         BulkPolicyData
  PUT    /policy-data/{id}         UpdatePolicyData
  DELETE /policy-data/{id}         DeletePolicyData
  POST   /metrics                  CreateMetric
  PUT    /metrics/{identifier}     UpdateMetric
  DELETE /metrics/{identifier}     DeleteMetric
  POST   /categories               CreateCategory
  PUT    /categories/{identifier}  UpdateCategory
  DELETE /categories/{identifier}  DeleteCategory
  POST   /state-context                     UpsertStateContext
  GET    /state-context/{stateCode}/history StateContextHistory
  DELETE /state-context/{id}                DeleteStateContext
  GET    /report                   Report

PATCH SEMANTICS:
  PUT bodies are partial. An absent field keeps its stored value, an
  explicit null clears it (and is rejected for required fields).

SEE ALSO:
  - policy/service.go, policy/catalog.go, policy/records.go
  - report/quality.go
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zachtilly/childcare-api/policy"
	"github.com/zachtilly/childcare-api/report"
)

const invalidBody = "Invalid request body"

// =============================================================================
// POLICY DATA
// =============================================================================

func (h *Handler) CreatePolicyData(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBody, []string{err.Error()})
		return
	}
	rec, err := h.Service.CreateRecord(r.Context(), req.toInput())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, rec)
}

func (h *Handler) UpdatePolicyData(w http.ResponseWriter, r *http.Request) {
	var patch policy.RecordPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, invalidBody, []string{err.Error()})
		return
	}
	rec, err := h.Service.UpdateRecord(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, rec)
}

func (h *Handler) DeletePolicyData(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Policy data deleted successfully"})
}

// BulkPolicyData upserts {entries: [...]} keyed by state code and metric
// slug. Per-entry failures are reported in the result, not as an error
// status.
func (h *Handler) BulkPolicyData(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBody, []string{err.Error()})
		return
	}
	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "entries must be a non-empty array", nil)
		return
	}
	result, err := h.Service.BulkUpsert(r.Context(), req.Entries)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, result)
}

// =============================================================================
// METRICS
// =============================================================================

func (h *Handler) CreateMetric(w http.ResponseWriter, r *http.Request) {
	var req CreateMetricRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBody, []string{err.Error()})
		return
	}
	m, err := h.Service.CreateMetric(r.Context(), req.toMetric())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, m)
}

func (h *Handler) UpdateMetric(w http.ResponseWriter, r *http.Request) {
	var patch policy.MetricPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, invalidBody, []string{err.Error()})
		return
	}
	m, err := h.Service.UpdateMetric(r.Context(), chi.URLParam(r, "identifier"), patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, m)
}

func (h *Handler) DeleteMetric(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.DeleteMetric(r.Context(), chi.URLParam(r, "identifier")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Metric deleted successfully"})
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBody, []string{err.Error()})
		return
	}
	c, err := h.Service.CreateCategory(r.Context(), req.toCategory())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch policy.CategoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, invalidBody, []string{err.Error()})
		return
	}
	c, err := h.Service.UpdateCategory(r.Context(), chi.URLParam(r, "identifier"), patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.DeleteCategory(r.Context(), chi.URLParam(r, "identifier")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Category deleted successfully"})
}

// =============================================================================
// STATE CONTEXT
// =============================================================================

func (h *Handler) UpsertStateContext(w http.ResponseWriter, r *http.Request) {
	var sc policy.StateContext
	if err := decodeJSON(r, &sc); err != nil {
		writeError(w, http.StatusBadRequest, invalidBody, []string{err.Error()})
		return
	}
	stored, err := h.Service.UpsertStateContext(r.Context(), sc)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, stored)
}

func (h *Handler) StateContextHistory(w http.ResponseWriter, r *http.Request) {
	st, ok := h.stateByCode(w, r, chi.URLParam(r, "stateCode"))
	if !ok {
		return
	}
	history, err := h.Store.StateContextHistory(r.Context(), st.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, nonNil(history))
}

func (h *Handler) DeleteStateContext(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.DeleteStateContext(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "State context deleted successfully"})
}

// =============================================================================
// REPORT
// =============================================================================

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := report.Load(r.Context(), h.Store)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeOK(w, rep)
}
