package handler

import (
	"encoding/json"
	"net/http"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/service"
	"babylog-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type SyncHandler struct {
	service  *service.EntrySyncService
	validate *validator.Validate
}

func NewSyncHandler(service *service.EntrySyncService) *SyncHandler {
	return &SyncHandler{
		service:  service,
		validate: newValidator(),
	}
}

// Sync runs one push/pull cycle for a device.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req domain.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Apply(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, resp)
}
