package handler

import (
	"encoding/json"
	"net/http"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/service"
	"babylog-sync-server/pkg/response"
)

type SettingsHandler struct {
	service *service.SettingsService
}

func NewSettingsHandler(service *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, settings)
}

// Update applies a partial patch: absent fields stay, explicit nulls clear.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	settings, err := h.service.Update(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, settings)
}
