package database

import (
	"context"

	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddToken добавляет сессию одной вставкой, без перезаписи всего пользователя
func (d *Database) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	return d.db.WithContext(ctx).Create(&models.UserToken{UserID: userID, Token: token}).Error
}

// RemoveToken удаляет ровно одну сессию
func (d *Database) RemoveToken(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	res := d.db.WithContext(ctx).Delete(&models.UserToken{}, "user_id = ? AND token = ?", userID, token)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveAllTokens удаляет все сессии и возвращает удалённые токены
func (d *Database) RemoveAllTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return d.removeTokens(ctx, userID, "")
}

// RemoveTokensExcept удаляет все сессии, кроме keep
func (d *Database) RemoveTokensExcept(ctx context.Context, userID uuid.UUID, keep string) ([]string, error) {
	return d.removeTokens(ctx, userID, keep)
}

func (d *Database) removeTokens(ctx context.Context, userID uuid.UUID, keep string) ([]string, error) {
	var removed []string
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.UserToken{}).Where("user_id = ?", userID)
		if keep != "" {
			query = query.Where("token <> ?", keep)
		}
		if err := query.Pluck("token", &removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		return tx.Delete(&models.UserToken{}, "user_id = ? AND token IN ?", userID, removed).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (d *Database) HasToken(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.UserToken{}).
		Where("user_id = ? AND token = ?", userID, token).
		Count(&count).Error
	return count > 0, err
}

// ListTokens возвращает активные сессии в порядке выдачи
func (d *Database) ListTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var tokens []string
	err := d.db.WithContext(ctx).
		Model(&models.UserToken{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("token", &tokens).Error
	return tokens, err
}
