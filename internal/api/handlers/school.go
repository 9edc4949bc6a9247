package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/pyramid/internal/api/middleware"
	"github.com/Harshitk-cp/pyramid/internal/domain"
)

type SchoolHandler struct {
	store domain.SchoolStore
}

func NewSchoolHandler(store domain.SchoolStore) *SchoolHandler {
	return &SchoolHandler{store: store}
}

type createSchoolRequest struct {
	Name string `json:"name"`
}

type createSchoolResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	apiKey, err := GenerateAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	school := &domain.School{
		Name:       req.Name,
		APIKeyHash: middleware.HashAPIKey(apiKey),
	}

	if err := h.store.Create(r.Context(), school); err != nil {
		writeServiceError(w, r, err, "failed to create school")
		return
	}

	writeJSON(w, http.StatusCreated, createSchoolResponse{
		ID:     school.ID.String(),
		Name:   school.Name,
		APIKey: apiKey,
	})
}

// GenerateAPIKey returns a fresh random school key.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "pk_" + hex.EncodeToString(b), nil
}
