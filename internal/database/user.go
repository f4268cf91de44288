package database

import (
	"context"
	"errors"

	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	err := d.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

// UpdateUser сохраняет только поля профиля; аватар и сессии меняются отдельно
func (d *Database) UpdateUser(ctx context.Context, user *models.User) error {
	res := d.db.WithContext(ctx).
		Model(user).
		Select("Name", "Email", "PasswordHash", "Age", "UpdatedAt").
		Updates(user)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SetAvatar заменяет текущий аватар (байты или ключ внешнего хранилища)
func (d *Database) SetAvatar(ctx context.Context, userID uuid.UUID, data []byte, key string) error {
	res := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"avatar": data, "avatar_key": key})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser удаляет пользователя вместе с сессиями и задачами
func (d *Database) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.UserToken{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Task{}, "owner_id = ?", id).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
