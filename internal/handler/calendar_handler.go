package handler

import (
	"encoding/json"
	"net/http"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/service"
	"babylog-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type CalendarHandler struct {
	service  *service.CalendarService
	validate *validator.Validate
}

func NewCalendarHandler(service *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCalendarEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	event, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Created(w, event)
}

func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid event id")
		return
	}
	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, event)
}

// Occurrences expands events over ?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *CalendarHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		response.BadRequest(w, "start and end are required")
		return
	}

	occurrences, err := h.service.Occurrences(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, occurrences)
}

func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid event id")
		return
	}
	var req domain.UpdateCalendarEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	event, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, event)
}

func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid event id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Event deleted"})
}
