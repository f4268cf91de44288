package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RevocationCache быстрый черный список отозванных токенов (Redis)
type RevocationCache interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Notifications фоновые письма; реализация не должна блокировать
type Notifications interface {
	Welcome(email, name string)
	Goodbye(email, name string)
}

// Events live-события пользователя (websocket hub)
type Events interface {
	Publish(userID uuid.UUID, eventType string, data any)
	DisconnectToken(userID uuid.UUID, token string)
	DisconnectUser(userID uuid.UUID)
}

// AvatarTransformer нормализует изображение (пул воркеров)
type AvatarTransformer interface {
	Submit(ctx context.Context, data []byte) ([]byte, error)
}

const (
	EventTaskCreated    = "task_created"
	EventTaskUpdated    = "task_updated"
	EventTaskDeleted    = "task_deleted"
	EventAvatarUpdated  = "avatar_updated"
	EventAvatarDeleted  = "avatar_deleted"
	EventSessionRevoked = "session_revoked"
)

type noopEvents struct{}

func (noopEvents) Publish(uuid.UUID, string, any)   {}
func (noopEvents) DisconnectToken(uuid.UUID, string) {}
func (noopEvents) DisconnectUser(uuid.UUID)          {}

type noopNotifications struct{}

func (noopNotifications) Welcome(string, string) {}
func (noopNotifications) Goodbye(string, string) {}
