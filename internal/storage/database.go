package storage

import (
	"context"
	"errors"

	"github.com/Chijioke91/Task-Api/internal/database"
	"github.com/google/uuid"
)

// DatabaseStore держит байты аватара прямо в записи пользователя
type DatabaseStore struct {
	db *database.Database
}

func NewDatabaseStore(db *database.Database) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Save(ctx context.Context, userID uuid.UUID, data []byte) error {
	return s.db.SetAvatar(ctx, userID, data, "")
}

func (s *DatabaseStore) Load(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	user, err := s.db.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(user.Avatar) == 0 {
		return nil, ErrNotFound
	}
	return user.Avatar, nil
}

func (s *DatabaseStore) Delete(ctx context.Context, userID uuid.UUID) error {
	err := s.db.SetAvatar(ctx, userID, nil, "")
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	return err
}
