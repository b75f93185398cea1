package handler

import (
	"examforge/internal/model"
	"examforge/internal/service"
	"examforge/internal/transport/rest/middleware"
	"net/http"

	"github.com/gorilla/mux"
)

// TemplateHandler handles question template endpoints
type TemplateHandler struct {
	questionSvc *service.QuestionService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(questionSvc *service.QuestionService) *TemplateHandler {
	return &TemplateHandler{questionSvc: questionSvc}
}

// PreviewRequest carries an unsaved template and an optional seed
type PreviewRequest struct {
	Template model.QuestionTemplate `json:"template"`
	Seed     string                 `json:"seed"`
}

// PreviewResponse returns the materialized question and the seed used
type PreviewResponse struct {
	Question *model.ConcreteQuestion `json:"question"`
	Seed     string                  `json:"seed"`
}

// Create handles POST /v1/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var t model.QuestionTemplate
	if err := decode(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t.AuthorID = middleware.GetUserID(r.Context())

	if err := h.questionSvc.CreateTemplate(r.Context(), &t); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, &t)
}

// Preview handles POST /v1/templates/preview
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, seed, err := h.questionSvc.Preview(&req.Template, req.Seed)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PreviewResponse{Question: q, Seed: seed})
}

// Get handles GET /v1/templates/{id}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.questionSvc.GetTemplate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// List handles GET /v1/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.questionSvc.ListTemplates(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*model.QuestionTemplate{}
	}
	writeJSON(w, http.StatusOK, list)
}
