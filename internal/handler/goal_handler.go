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

type GoalHandler struct {
	service  *service.GoalService
	validate *validator.Validate
}

func NewGoalHandler(service *service.GoalService) *GoalHandler {
	return &GoalHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	goal, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Created(w, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid goal id")
		return
	}
	goal, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, goal)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid limit")
			return
		}
		limit = parsed
	}
	goals, err := h.service.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, goals)
}

// Current returns the active goal, or null data when none has been set.
func (h *GoalHandler) Current(w http.ResponseWriter, r *http.Request) {
	goal, err := h.service.Current(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid goal id")
		return
	}
	var req domain.UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	goal, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.BadRequest(w, "Invalid goal id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Goal deleted"})
}
