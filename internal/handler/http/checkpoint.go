package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/patrolops/patrol-backend-go/internal/domain/checkpoint"
	"github.com/patrolops/patrol-backend-go/internal/handler/http/response"
)

type CheckpointHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	BulkAssign(w http.ResponseWriter, r *http.Request)
	BulkUnassign(w http.ResponseWriter, r *http.Request)
}

type checkpointHandlerImpl struct {
	checkpointService checkpoint.CheckpointService
}

func NewCheckpointHandler(checkpointService checkpoint.CheckpointService) CheckpointHandler {
	return &checkpointHandlerImpl{checkpointService: checkpointService}
}

// List implements CheckpointHandler.
func (h *checkpointHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	activeOnly, ok := boolQuery(w, r, "active_only")
	if !ok {
		return
	}

	checkpoints, err := h.checkpointService.List(r.Context(), checkpoint.ListCheckpointFilter{ActiveOnly: activeOnly})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, checkpoints)
}

// Get implements CheckpointHandler.
func (h *checkpointHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkpointService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Create implements CheckpointHandler.
func (h *checkpointHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req checkpoint.CreateCheckpointRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CreatedBy = claims.UserID

	result, err := h.checkpointService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checkpoint created successfully", result)
}

// Update implements CheckpointHandler.
func (h *checkpointHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req checkpoint.UpdateCheckpointRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.checkpointService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checkpoint updated successfully", result)
}

// Delete implements CheckpointHandler.
func (h *checkpointHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.checkpointService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checkpoint deleted successfully", nil)
}

// BulkAssign implements CheckpointHandler. Item failures are part of a
// successful response.
func (h *checkpointHandlerImpl) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req checkpoint.BulkAssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.checkpointService.BulkAssign(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// BulkUnassign implements CheckpointHandler.
func (h *checkpointHandlerImpl) BulkUnassign(w http.ResponseWriter, r *http.Request) {
	var req checkpoint.BulkUnassignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.checkpointService.BulkUnassign(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
