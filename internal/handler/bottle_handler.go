package handler

import (
	"encoding/json"
	"net/http"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/service"
	"babylog-sync-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type BottleHandler struct {
	service  *service.BottleService
	validate *validator.Validate
}

func NewBottleHandler(service *service.BottleService) *BottleHandler {
	return &BottleHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *BottleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBottleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	bottle, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Created(w, bottle)
}

func (h *BottleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid bottle id")
		return
	}
	bottle, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, bottle)
}

func (h *BottleHandler) List(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"
	bottles, err := h.service.List(r.Context(), includeDeleted)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, bottles)
}

func (h *BottleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid bottle id")
		return
	}
	var req domain.UpdateBottleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	bottle, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, bottle)
}

func (h *BottleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid bottle id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Bottle deleted"})
}
