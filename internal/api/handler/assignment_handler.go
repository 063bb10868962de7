package handler

import (
	"encoding/json"
	"net/http"

	"codecrate/internal/app/service"
	"codecrate/internal/common"
	"codecrate/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

func NewAssignmentHandler(as *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: as}
}

func (h *AssignmentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listAssignments)              // GET /api/v1/assignments?status=active
	r.Get("/{assignmentID}", h.getAssignment)  // GET /api/v1/assignments/{id}
	r.Post("/", h.createAssignment)            // POST /api/v1/assignments
	r.Put("/{assignmentID}", h.editAssignment) // PUT /api/v1/assignments/{id}
	r.Post("/{assignmentID}/archive", h.archiveAssignment)
	r.Post("/{assignmentID}/repair", h.repairAssignment)
}

func (h *AssignmentHandler) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	a, err := h.assignmentService.CreateAssignment(r.Context(), req)
	if err != nil {
		respondPartialOrError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, a)
}

func (h *AssignmentHandler) getAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assignmentID")
	a, err := h.assignmentService.GetAssignment(r.Context(), id)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) listAssignments(w http.ResponseWriter, r *http.Request) {
	status := model.AssignmentStatus(r.URL.Query().Get("status"))

	assignments, err := h.assignmentService.ListAssignments(r.Context(), status)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) editAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assignmentID")
	var req editContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	a, err := h.assignmentService.EditAssignment(r.Context(), id, req.Files)
	if err != nil {
		respondPartialOrError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) archiveAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assignmentID")
	if err := h.assignmentService.ArchiveAssignment(r.Context(), id); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": string(model.AssignmentArchived)})
}

func (h *AssignmentHandler) repairAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assignmentID")
	var req repairRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	a, err := h.assignmentService.RepairAssignment(r.Context(), id, req.Files)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}
