package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"relgraph/internal/codec"
	"relgraph/internal/domain"
	"relgraph/internal/service"
)

// maxImportBytes bounds fixture uploads
const maxImportBytes = 10 << 20

// GraphHandler handles relationship graph API requests
type GraphHandler struct {
	graph  *service.RelationshipGraph
	logger *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graph *service.RelationshipGraph, logger *zap.Logger) *GraphHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphHandler{graph: graph, logger: logger.Named("handler")}
}

// Register adds every API route to mux
func (h *GraphHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", h.GetSnapshot)
	mux.HandleFunc("GET /api/view", h.GetView)
	mux.HandleFunc("POST /api/refresh", h.Refresh)

	mux.HandleFunc("POST /api/businesses", h.CreateBusiness)
	mux.HandleFunc("DELETE /api/businesses/{id}", h.DeleteBusiness)
	mux.HandleFunc("GET /api/businesses/{id}/employees", h.ListBusinessEmployees)
	mux.HandleFunc("PUT /api/businesses/{id}/departments/{department_id}", h.LinkDepartment)
	mux.HandleFunc("DELETE /api/businesses/{id}/departments/{department_id}", h.UnlinkDepartment)

	mux.HandleFunc("POST /api/departments", h.CreateDepartment)
	mux.HandleFunc("DELETE /api/departments/{id}", h.DeleteDepartment)

	mux.HandleFunc("POST /api/employees", h.CreateEmployee)
	mux.HandleFunc("PUT /api/employees/{id}", h.UpdateEmployee)
	mux.HandleFunc("DELETE /api/employees/{id}", h.DeleteEmployee)

	mux.HandleFunc("GET /api/export/{format}", h.Export)
	mux.HandleFunc("POST /api/import/{format}", h.Import)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CreateDepartmentRequest is the body of POST /api/departments
type CreateDepartmentRequest struct {
	Name        string   `json:"name"`
	BusinessIDs []string `json:"business_ids"`
	EmployeeID  string   `json:"employee_id,omitempty"`
}

// GetSnapshot returns the cached snapshot, including its loading state
func (h *GraphHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.graph.Snapshot(), http.StatusOK)
}

// GetView returns the snapshot with relationships resolved to names
func (h *GraphHandler) GetView(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.graph.View(), http.StatusOK)
}

// Refresh re-fetches every collection
func (h *GraphHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.graph.Refresh(r.Context()); err != nil {
		h.writeFailure(w, "Failed to refresh", err)
		return
	}
	h.writeJSON(w, h.graph.Snapshot(), http.StatusOK)
}

// CreateBusiness creates a business from {"name": ...}
func (h *GraphHandler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.graph.AddBusiness(r.Context(), req.Name)
	if err != nil {
		h.writeFailure(w, "Failed to create business", err)
		return
	}

	h.writeJSON(w, b, http.StatusCreated)
}

// DeleteBusiness deletes a business
func (h *GraphHandler) DeleteBusiness(w http.ResponseWriter, r *http.Request) {
	if err := h.graph.DeleteBusiness(r.Context(), r.PathValue("id")); err != nil {
		h.writeFailure(w, "Failed to delete business", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBusinessEmployees returns the employees of one business sorted by name
func (h *GraphHandler) ListBusinessEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.graph.EmployeesForBusiness(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, "Failed to list employees", err)
		return
	}
	h.writeJSON(w, employees, http.StatusOK)
}

// LinkDepartment adds the business/department edge. Repeating it is a no-op.
func (h *GraphHandler) LinkDepartment(w http.ResponseWriter, r *http.Request) {
	added, err := h.graph.UpdateBusinessDepartments(r.Context(), r.PathValue("id"), r.PathValue("department_id"))
	if err != nil {
		h.writeFailure(w, "Failed to link department", err)
		return
	}
	h.writeJSON(w, map[string]bool{"added": added}, http.StatusOK)
}

// UnlinkDepartment removes the business/department edge
func (h *GraphHandler) UnlinkDepartment(w http.ResponseWriter, r *http.Request) {
	removed, err := h.graph.RemoveBusinessDepartment(r.Context(), r.PathValue("id"), r.PathValue("department_id"))
	if err != nil {
		h.writeFailure(w, "Failed to unlink department", err)
		return
	}
	h.writeJSON(w, map[string]bool{"removed": removed}, http.StatusOK)
}

// CreateDepartment creates a department linked to the given businesses
func (h *GraphHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req CreateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.graph.AddDepartment(r.Context(), req.Name, req.BusinessIDs, req.EmployeeID)
	if err != nil {
		h.writeFailure(w, "Failed to create department", err)
		return
	}

	h.writeJSON(w, d, http.StatusCreated)
}

// DeleteDepartment deletes a department; its employees are kept
func (h *GraphHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.graph.DeleteDepartment(r.Context(), r.PathValue("id")); err != nil {
		h.writeFailure(w, "Failed to delete department", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateEmployee creates an employee
func (h *GraphHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in domain.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.graph.AddEmployee(r.Context(), in)
	if err != nil {
		h.writeFailure(w, "Failed to create employee", err)
		return
	}

	h.writeJSON(w, e, http.StatusCreated)
}

// UpdateEmployee applies a partial update to an employee
func (h *GraphHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var update domain.EmployeeUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if update.IsEmpty() {
		h.writeError(w, "Invalid request body", "no fields to update", http.StatusBadRequest)
		return
	}

	e, err := h.graph.AssignEmployee(r.Context(), r.PathValue("id"), update)
	if err != nil {
		h.writeFailure(w, "Failed to update employee", err)
		return
	}

	h.writeJSON(w, e, http.StatusOK)
}

// DeleteEmployee deletes an employee
func (h *GraphHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.graph.DeleteEmployee(r.Context(), r.PathValue("id")); err != nil {
		h.writeFailure(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export writes the snapshot as a downloadable fixture
func (h *GraphHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	snapshot := h.graph.Snapshot()
	if snapshot.IsLoading() {
		h.writeError(w, "Snapshot is loading", "retry once the refresh completes", http.StatusServiceUnavailable)
		return
	}

	if c.Format() == "json" {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "application/x-yaml")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=relgraph.%s", c.Format()))

	if err := c.Export(snapshot, w); err != nil {
		// Can't write error response as we already set headers
		h.logger.Error("Failed to export", zap.String("format", c.Format()), zap.Error(err))
	}
}

// Import applies an uploaded fixture
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	fixture, err := c.Parse(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		h.writeError(w, "Invalid fixture", err.Error(), http.StatusBadRequest)
		return
	}
	if err := fixture.Validate(); err != nil {
		h.writeError(w, "Invalid fixture", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.graph.Import(r.Context(), fixture)
	if err != nil {
		h.writeFailure(w, "Failed to import fixture", err)
		return
	}

	h.writeJSON(w, result, http.StatusOK)
}

// Helper methods

func (h *GraphHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("Failed to encode JSON", zap.Error(err))
	}
}

func (h *GraphHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Warn("Failed to encode error response", zap.Error(err))
	}
}

// writeFailure maps a graph error to its status code
func (h *GraphHandler) writeFailure(w http.ResponseWriter, message string, err error) {
	var (
		notFound   *domain.NotFoundError
		validation *domain.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
	case errors.As(err, &validation):
		h.writeError(w, message, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(message, zap.Error(err))
		h.writeError(w, message, err.Error(), http.StatusInternalServerError)
	}
}
