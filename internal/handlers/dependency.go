package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

// DependencyHandler coordinates task dependency HTTP handlers.
type DependencyHandler struct {
	dependencyService *services.DependencyService
}

// NewDependencyHandler creates a new DependencyHandler.
func NewDependencyHandler(dependencyService *services.DependencyService) *DependencyHandler {
	return &DependencyHandler{
		dependencyService: dependencyService,
	}
}

// AddDependency creates a typed edge from the task to a target task
func (h *DependencyHandler) AddDependency(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type AddDependencyRequest struct {
		TargetTaskID uint64                `json:"target_task_id" binding:"required"`
		Type         models.DependencyType `json:"type" binding:"required"`
	}

	var req AddDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.dependencyService.AddDependency(task.ID, req.TargetTaskID, req.Type)
	if err != nil {
		respondDependencyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*updated))
}

// RemoveDependency removes the edge from the task to a target task
func (h *DependencyHandler) RemoveDependency(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	targetID, ok := parseIDParam(c, "target_id")
	if !ok {
		return
	}

	updated, err := h.dependencyService.RemoveDependency(task.ID, targetID)
	if err != nil {
		respondDependencyError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// ListDependencies returns the task's outgoing edges with targets populated
func (h *DependencyHandler) ListDependencies(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	deps, err := h.dependencyService.ListDependencies(task.ID)
	if err != nil {
		respondDependencyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dependencies": dto.ToDependencyDTOs(deps)})
}

// respondDependencyError maps dependency service errors to HTTP responses.
// Circular dependencies get a dedicated error code so clients can show a
// specific remedy instead of a generic conflict.
func respondDependencyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrDependencyNotFound):
		apierrors.NotFound(c, "Dependency not found")
	case errors.Is(err, services.ErrInvalidDependencyType):
		apierrors.BadRequest(c, "Invalid dependency type")
	case errors.Is(err, services.ErrSelfDependency):
		apierrors.BadRequest(c, "A task cannot depend on itself")
	case errors.Is(err, services.ErrCrossBoardDependency):
		apierrors.BadRequest(c, "Tasks must belong to the same board")
	case errors.Is(err, services.ErrDependencyExists):
		apierrors.Conflict(c, "A dependency between these tasks already exists")
	case errors.Is(err, services.ErrCircularDependency):
		apierrors.ConflictWithCode(c, apierrors.ErrCodeCircularDependency,
			"This would create a circular dependency")
	default:
		apierrors.InternalError(c, "")
	}
}
