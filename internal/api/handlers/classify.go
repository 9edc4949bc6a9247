package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/service"
)

// ClassifyHandler classifies ad-hoc evidence without touching the catalog.
type ClassifyHandler struct {
	svc *service.PracticeService
}

func NewClassifyHandler(svc *service.PracticeService) *ClassifyHandler {
	return &ClassifyHandler{svc: svc}
}

type classifyRequest struct {
	PracticeName string               `json:"practice_name"`
	Observations []observationRequest `json:"observations"`
	PreviousTier string               `json:"previous_tier,omitempty"`
}

type classifyResponse struct {
	service.Classification
	Transition *domain.TierTransition `json:"transition,omitempty"`
}

func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.PracticeName = strings.TrimSpace(req.PracticeName)
	if req.PracticeName == "" {
		writeServiceError(w, r, service.ErrPracticeNameMissing, "failed to classify")
		return
	}

	var errs []error
	obs := make([]domain.Observation, 0, len(req.Observations))
	for i, item := range req.Observations {
		o, err := item.toObservation(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		obs = append(obs, o)
	}
	if len(errs) > 0 {
		writeServiceError(w, r, errors.Join(errs...), "failed to classify")
		return
	}

	body, err := domain.NewEvidenceBody(req.PracticeName, obs...)
	if err != nil {
		writeServiceError(w, r, err, "failed to classify")
		return
	}

	var previous *domain.Tier
	if req.PreviousTier != "" {
		t := domain.Tier(strings.ToUpper(strings.TrimSpace(req.PreviousTier)))
		if !t.Valid() {
			writeServiceError(w, r, service.ErrInvalidTier, "failed to classify")
			return
		}
		previous = &t
	}

	c, ev := h.svc.ClassifyBody(body, previous)
	writeJSON(w, http.StatusOK, classifyResponse{Classification: c, Transition: ev})
}
