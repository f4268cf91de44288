package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Chijioke91/Task-Api/internal/avatar"
	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/Chijioke91/Task-Api/internal/storage"
	"github.com/google/uuid"
)

type AvatarService struct {
	store     storage.AvatarStore
	transform AvatarTransformer
	events    Events
}

func NewAvatarService(store storage.AvatarStore, transform AvatarTransformer, events Events) *AvatarService {
	if events == nil {
		events = noopEvents{}
	}
	return &AvatarService{store: store, transform: transform, events: events}
}

// Upload проверяет имя и размер до чтения файла, затем нормализует и сохраняет.
// size <= 0 значит, что размер заранее неизвестен; тогда его ограничивает чтение.
func (s *AvatarService) Upload(ctx context.Context, user *models.User, filename string, size int64, r io.Reader) error {
	if err := avatar.ValidateUpload(filename, size); err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(r, avatar.MaxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(data) > avatar.MaxUploadBytes {
		return avatar.ErrFileTooLarge
	}
	if err := avatar.SniffContent(data); err != nil {
		return err
	}

	normalized, err := s.transform.Submit(ctx, data)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, user.ID, normalized); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}
	s.events.Publish(user.ID, EventAvatarUpdated, nil)
	return nil
}

func (s *AvatarService) Delete(ctx context.Context, user *models.User) error {
	if err := s.store.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete avatar: %w", err)
	}
	s.events.Publish(user.ID, EventAvatarDeleted, nil)
	return nil
}

// Get возвращает PNG аватара; ErrNotFound если нет пользователя или картинки
func (s *AvatarService) Get(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	data, err := s.store.Load(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
