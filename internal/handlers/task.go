package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Chijioke91/Task-Api/internal/handlers/dto"
	"github.com/Chijioke91/Task-Api/internal/middleware"
	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks  *services.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

func (h *TaskHandler) Create(c *gin.Context) {
	ac := middleware.MustAuth(c)

	var in services.CreateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), ac.UserID, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// List GET /tasks?completed=true&limit=10&skip=20&sortBy=createdAt:desc
func (h *TaskHandler) List(c *gin.Context) {
	ac := middleware.MustAuth(c)

	var q dto.TaskListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := services.ListTasksQuery{Limit: q.Limit, Skip: q.Skip, SortBy: q.SortBy}
	if q.Completed != "" {
		completed, err := strconv.ParseBool(q.Completed)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "completed must be true or false"})
			return
		}
		query.Completed = &completed
	}

	tasks, err := h.tasks.List(c.Request.Context(), ac.UserID, query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(c *gin.Context) {
	ac := middleware.MustAuth(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), ac.UserID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

var taskFields = []string{"description", "completed"}

// Update принимает только description и completed
func (h *TaskHandler) Update(c *gin.Context) {
	ac := middleware.MustAuth(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	var in services.UpdateTaskInput
	if err := decodeStrict(c.Request.Body, &in, taskFields...); err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), ac.UserID, id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	ac := middleware.MustAuth(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Delete(c.Request.Context(), ac.UserID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// taskID невалидный id неотличим от чужой задачи: 404
func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return uuid.Nil, false
	}
	return id, true
}
