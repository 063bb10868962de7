package handler

import (
	"encoding/json"
	"net/http"

	"codecrate/internal/app/service"
	"codecrate/internal/common"
	"codecrate/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type TemplateHandler struct {
	templateService *service.TemplateService
}

func NewTemplateHandler(ts *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: ts}
}

func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listTemplates)             // GET /api/v1/templates
	r.Get("/objects", h.listObjects)        // GET /api/v1/templates/objects
	r.Get("/{templateID}", h.getTemplate)   // GET /api/v1/templates/{id}
	r.Post("/", h.createTemplate)           // POST /api/v1/templates
	r.Put("/{templateID}", h.editTemplate)  // PUT /api/v1/templates/{id}
	r.Post("/{templateID}/repair", h.repairTemplate)
}

func (h *TemplateHandler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	t, err := h.templateService.CreateTemplate(r.Context(), req)
	if err != nil {
		respondPartialOrError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, t)
}

func (h *TemplateHandler) getTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")
	t, err := h.templateService.GetTemplate(r.Context(), id)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, t)
}

func (h *TemplateHandler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateService.ListTemplates(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) listObjects(w http.ResponseWriter, r *http.Request) {
	objects, err := h.templateService.ListTemplateObjects(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, objects)
}

type editContentRequest struct {
	Files model.FileTree `json:"files"`
}

func (h *TemplateHandler) editTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")
	var req editContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	t, err := h.templateService.EditTemplate(r.Context(), id, req.Files)
	if err != nil {
		respondPartialOrError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, t)
}

type repairRequest struct {
	Files *model.FileTree `json:"files,omitempty"`
}

func (h *TemplateHandler) repairTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")
	var req repairRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	t, err := h.templateService.RepairTemplate(r.Context(), id, req.Files)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, t)
}
