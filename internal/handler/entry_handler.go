package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/service"
	"babylog-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type EntryHandler struct {
	service  *service.EntryService
	validate *validator.Validate
}

func NewEntryHandler(service *service.EntryService) *EntryHandler {
	return &EntryHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	entry, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Created(w, entry)
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, entry)
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.ListEntriesParams{
		Tenant:         q.Get("tenant"),
		Kind:           q.Get("kind"),
		Since:          q.Get("since"),
		Until:          q.Get("until"),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid limit")
			return
		}
		params.Limit = limit
	}

	entries, err := h.service.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, entries)
}

// Export returns every live entry oldest-first, uncapped. The CSV shaping
// itself happens client-side.
func (h *EntryHandler) Export(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Export(r.Context(), r.URL.Query().Get("tenant"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, entries)
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid entry id")
		return
	}
	var req domain.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	entry, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, entry)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid entry id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Entry deleted"})
}
