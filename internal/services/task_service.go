package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Chijioke91/Task-Api/internal/database"
	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/google/uuid"
)

type CreateTaskInput struct {
	Description string `json:"description" validate:"required"`
	Completed   bool   `json:"completed"`
}

type UpdateTaskInput struct {
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type ListTasksQuery struct {
	Completed *bool
	Limit     int
	Skip      int
	SortBy    string // "field:asc" или "field:desc"
}

var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

type TaskService struct {
	db     *database.Database
	events Events
}

func NewTaskService(db *database.Database, events Events) *TaskService {
	if events == nil {
		events = noopEvents{}
	}
	return &TaskService{db: db, events: events}
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*models.Task, error) {
	in.Description = cleanText(in.Description)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	task := &models.Task{
		Description: in.Description,
		Completed:   in.Completed,
		OwnerID:     ownerID,
	}
	if err := s.db.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.events.Publish(ownerID, EventTaskCreated, task)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID, q ListTasksQuery) ([]models.Task, error) {
	if q.Limit < 0 || q.Skip < 0 {
		return nil, fmt.Errorf("%w: limit and skip must not be negative", ErrValidation)
	}

	filter := database.TaskFilter{
		Completed: q.Completed,
		Limit:     q.Limit,
		Skip:      q.Skip,
	}
	if q.SortBy != "" {
		field, dir, _ := strings.Cut(q.SortBy, ":")
		column, ok := sortColumns[field]
		if !ok {
			return nil, fmt.Errorf("%w: cannot sort by %q", ErrValidation, field)
		}
		filter.SortBy = column
		filter.SortDesc = strings.EqualFold(dir, "desc")
	}

	return s.db.ListTasks(ctx, ownerID, filter)
}

func (s *TaskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	task, err := s.db.GetTask(ctx, ownerID, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return task, err
}

func (s *TaskService) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateTaskInput) (*models.Task, error) {
	var description string
	if in.Description != nil {
		description = cleanText(*in.Description)
		if err := validateVar("description", description, "required"); err != nil {
			return nil, err
		}
	}

	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		task.Description = description
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}

	if err := s.db.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.events.Publish(ownerID, EventTaskUpdated, task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	task, err := s.db.DeleteTask(ctx, ownerID, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	s.events.Publish(ownerID, EventTaskDeleted, task)
	return task, nil
}
