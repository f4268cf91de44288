// Package storage хранит готовые (уже нормализованные) аватары.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("avatar not found")

// AvatarStore текущий аватар пользователя; Save заменяет предыдущий
type AvatarStore interface {
	Save(ctx context.Context, userID uuid.UUID, data []byte) error
	Load(ctx context.Context, userID uuid.UUID) ([]byte, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}
