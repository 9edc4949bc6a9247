package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/pyramid/internal/api/middleware"
	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/service"
)

type CascadeHandler struct {
	svc *service.CascadeService
}

func NewCascadeHandler(svc *service.CascadeService) *CascadeHandler {
	return &CascadeHandler{svc: svc}
}

func (h *CascadeHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	run, err := h.svc.Run(r.Context(), school.ID)
	if err != nil {
		writeServiceError(w, r, err, "cascade failed")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

type cascadeListResponse struct {
	Cascades []domain.CascadeRun `json:"cascades"`
	Count    int                 `json:"count"`
}

func (h *CascadeHandler) List(w http.ResponseWriter, r *http.Request) {
	school := middleware.SchoolFromContext(r.Context())
	if school == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := h.svc.List(r.Context(), school.ID, limit)
	if err != nil {
		writeServiceError(w, r, err, "failed to list cascades")
		return
	}
	if runs == nil {
		runs = []domain.CascadeRun{}
	}

	writeJSON(w, http.StatusOK, cascadeListResponse{Cascades: runs, Count: len(runs)})
}
