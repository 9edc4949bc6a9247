package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/pyramid/internal/api/middleware"
	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/service"
)

type PracticeHandler struct {
	svc *service.PracticeService
}

func NewPracticeHandler(svc *service.PracticeService) *PracticeHandler {
	return &PracticeHandler{svc: svc}
}

type createPracticeRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tier        string   `json:"tier,omitempty"`
	Contradicts []string `json:"contradicts,omitempty"`
}

func (h *PracticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createPracticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &domain.Practice{
		SchoolID:    school.ID,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Tier != "" {
		t := domain.Tier(strings.ToUpper(strings.TrimSpace(req.Tier)))
		p.Tier = &t
	}
	for _, c := range req.Contradicts {
		if c = strings.TrimSpace(c); c != "" {
			p.Contradicts = append(p.Contradicts, c)
		}
	}

	if err := h.svc.Create(r.Context(), p); err != nil {
		writeServiceError(w, r, err, "failed to create practice")
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

type listPracticesResponse struct {
	Practices []domain.Practice `json:"practices"`
	Count     int               `json:"count"`
}

func (h *PracticeHandler) List(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	practices, err := h.svc.List(r.Context(), school.ID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list practices")
		return
	}
	if practices == nil {
		practices = []domain.Practice{}
	}

	writeJSON(w, http.StatusOK, listPracticesResponse{Practices: practices, Count: len(practices)})
}

func (h *PracticeHandler) Get(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	name, ok := practiceName(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid practice name")
		return
	}

	p, err := h.svc.Get(r.Context(), school.ID, name)
	if err != nil {
		writeServiceError(w, r, err, "failed to get practice")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *PracticeHandler) Classification(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	name, ok := practiceName(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid practice name")
		return
	}

	c, err := h.svc.Classify(r.Context(), school.ID, name)
	if err != nil {
		writeServiceError(w, r, err, "failed to classify practice")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *PracticeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	name, ok := practiceName(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid practice name")
		return
	}

	summary, err := h.svc.Summary(r.Context(), school.ID, name)
	if err != nil {
		writeServiceError(w, r, err, "failed to summarize evidence")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type transitionsResponse struct {
	Transitions []domain.TierTransition `json:"transitions"`
	Count       int                     `json:"count"`
}

func (h *PracticeHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	name, ok := practiceName(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid practice name")
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	transitions, err := h.svc.Transitions(r.Context(), school.ID, name, limit)
	if err != nil {
		writeServiceError(w, r, err, "failed to list transitions")
		return
	}
	if transitions == nil {
		transitions = []domain.TierTransition{}
	}

	writeJSON(w, http.StatusOK, transitionsResponse{Transitions: transitions, Count: len(transitions)})
}

type similarResponse struct {
	Practice string                     `json:"practice"`
	Similar  []domain.SnapshotWithScore `json:"similar"`
}

func (h *PracticeHandler) Similar(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	name, ok := practiceName(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid practice name")
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	similar, err := h.svc.Similar(r.Context(), school.ID, name, limit)
	if err != nil {
		writeServiceError(w, r, err, "failed to find similar practices")
		return
	}
	if similar == nil {
		similar = []domain.SnapshotWithScore{}
	}

	writeJSON(w, http.StatusOK, similarResponse{Practice: name, Similar: similar})
}

type pyramidResponse struct {
	Layers domain.LayerAssignments `json:"layers"`
	Total  int                     `json:"total"`
}

func (h *PracticeHandler) Pyramid(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	layers, err := h.svc.Pyramid(r.Context(), school.ID)
	if err != nil {
		writeServiceError(w, r, err, "failed to build pyramid")
		return
	}

	total := 0
	for _, names := range layers {
		total += len(names)
	}
	writeJSON(w, http.StatusOK, pyramidResponse{Layers: layers, Total: total})
}
