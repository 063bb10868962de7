package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"codecrate/internal/api/middleware"
	"codecrate/internal/app/service"
	"codecrate/internal/common"

	"github.com/go-chi/chi/v5"
)

type AttemptHandler struct {
	attemptService *service.AttemptService
}

func NewAttemptHandler(as *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: as}
}

func (h *AttemptHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listMyAttempts)              // GET /api/v1/attempts
	r.Get("/{attemptID}", h.getAttempt)       // GET /api/v1/attempts/{id}
	r.Post("/", h.createAttempt)              // POST /api/v1/attempts
	r.Post("/{attemptID}/submit", h.submitForEval)
	r.Post("/{attemptID}/repair", h.repairAttempt)
	r.Get("/assignment/{assignmentID}", h.listByAssignment)
}

func (h *AttemptHandler) createAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	a, err := h.attemptService.CreateAttempt(r.Context(), userID, req)
	if err != nil {
		var already *common.AlreadyAttemptedError
		if errors.As(err, &already) {
			common.RespondWithJSON(w, http.StatusConflict, map[string]string{
				"error":      err.Error(),
				"attempt_id": already.AttemptID,
			})
			return
		}
		respondPartialOrError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, a)
}

func (h *AttemptHandler) submitForEval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attemptID")
	var req editContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	a, err := h.attemptService.SubmitForEval(r.Context(), id, req.Files)
	if err != nil {
		respondPartialOrError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}

func (h *AttemptHandler) getAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attemptID")
	a, err := h.attemptService.GetAttempt(r.Context(), id)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}

func (h *AttemptHandler) listMyAttempts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	attempts, err := h.attemptService.ListByUser(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempts)
}

func (h *AttemptHandler) repairAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attemptID")
	var req repairRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	a, err := h.attemptService.RepairAttempt(r.Context(), id, req.Files)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, a)
}

func (h *AttemptHandler) listByAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")
	attempts, err := h.attemptService.ListByAssignment(r.Context(), assignmentID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempts)
}
