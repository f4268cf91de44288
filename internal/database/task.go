package database

import (
	"context"

	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// TaskFilter параметры выборки задач
type TaskFilter struct {
	Completed *bool
	Limit     int
	Skip      int
	SortBy    string // имя колонки
	SortDesc  bool
}

func (d *Database) CreateTask(ctx context.Context, task *models.Task) error {
	return d.db.WithContext(ctx).Create(task).Error
}

// GetTask возвращает задачу только если она принадлежит ownerID
func (d *Database) GetTask(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := d.db.WithContext(ctx).First(&task, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (d *Database) ListTasks(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]models.Task, error) {
	query := d.db.WithContext(ctx).Where("owner_id = ?", ownerID)

	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: filter.SortDesc})

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}

	tasks := make([]models.Task, 0)
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (d *Database) UpdateTask(ctx context.Context, task *models.Task) error {
	return d.db.WithContext(ctx).Save(task).Error
}

// DeleteTask удаляет задачу владельца и возвращает её
func (d *Database) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	task, err := d.GetTask(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := d.db.WithContext(ctx).Delete(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}
