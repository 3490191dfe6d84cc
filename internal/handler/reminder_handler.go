package handler

import (
	"encoding/json"
	"net/http"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/service"
	"babylog-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type ReminderHandler struct {
	service  *service.ReminderService
	validate *validator.Validate
}

func NewReminderHandler(service *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	reminder, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Created(w, reminder)
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid reminder id")
		return
	}
	reminder, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, reminder)
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, reminders)
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid reminder id")
		return
	}
	var req domain.UpdateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	reminder, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, reminder)
}
