package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/pyramid/internal/api/middleware"
	"github.com/Harshitk-cp/pyramid/internal/domain"
	"github.com/Harshitk-cp/pyramid/internal/service"
)

type ObservationHandler struct {
	svc *service.PracticeService
}

func NewObservationHandler(svc *service.PracticeService) *ObservationHandler {
	return &ObservationHandler{svc: svc}
}

// observationRequest accepts either a numeric quality_weight or a named
// quality_rating. The weight wins when both are sent.
type observationRequest struct {
	EffectMagnitude float64  `json:"effect_magnitude"`
	SampleSize      int      `json:"sample_size"`
	Significance    float64  `json:"significance"`
	QualityWeight   *float64 `json:"quality_weight,omitempty"`
	QualityRating   string   `json:"quality_rating,omitempty"`
	StudyType       string   `json:"study_type,omitempty"`
	Citation        string   `json:"citation,omitempty"`
	Year            int      `json:"year,omitempty"`
}

func (req observationRequest) toObservation(index int) (domain.Observation, error) {
	o := domain.Observation{
		EffectMagnitude: req.EffectMagnitude,
		SampleSize:      req.SampleSize,
		Significance:    req.Significance,
		StudyType:       domain.StudyType(req.StudyType),
		Citation:        req.Citation,
		Year:            req.Year,
	}

	switch {
	case req.QualityWeight != nil:
		o.QualityWeight = *req.QualityWeight
	case req.QualityRating != "":
		rating, ok := domain.ParseQualityRating(req.QualityRating)
		if !ok {
			return o, &domain.ValidationError{
				Subject: "observation", Index: index,
				Field: "quality_rating", Value: req.QualityRating,
				Reason: "is not a known quality rating",
			}
		}
		o.QualityWeight = rating.Weight()
	default:
		return o, &domain.ValidationError{
			Subject: "observation", Index: index,
			Field: "quality_weight", Value: nil,
			Reason: "is required (or quality_rating)",
		}
	}

	return o, nil
}

func (h *ObservationHandler) Record(w http.ResponseWriter, r *http.Request) {
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

	var req observationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := req.toObservation(-1)
	if err != nil {
		writeServiceError(w, r, err, "failed to record observation")
		return
	}

	res, err := h.svc.RecordObservation(r.Context(), school.ID, name, o)
	if err != nil {
		writeServiceError(w, r, err, "failed to record observation")
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

type evidenceResponse struct {
	domain.EvidenceBody
	Count int `json:"count"`
}

func (h *ObservationHandler) List(w http.ResponseWriter, r *http.Request) {
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

	body, err := h.svc.Evidence(r.Context(), school.ID, name)
	if err != nil {
		writeServiceError(w, r, err, "failed to load evidence")
		return
	}
	if body.Observations == nil {
		body.Observations = []domain.Observation{}
	}

	writeJSON(w, http.StatusOK, evidenceResponse{EvidenceBody: body, Count: body.Len()})
}
