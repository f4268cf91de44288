package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Chijioke91/Task-Api/internal/database"
	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/Chijioke91/Task-Api/internal/storage"
	"github.com/Chijioke91/Task-Api/pkg/auth"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=7,nopassword"`
	Age      int    `json:"age" validate:"gte=0"`
}

// UpdateProfileInput единственные поля, которые пользователь может менять сам
type UpdateProfileInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"`
}

func (in UpdateProfileInput) IsEmpty() bool {
	return in.Name == nil && in.Email == nil && in.Password == nil && in.Age == nil
}

type UserService struct {
	db      *database.Database
	tokens  *TokenService
	avatars storage.AvatarStore
	notify  Notifications
	events  Events
	logger  *slog.Logger
}

func NewUserService(
	db *database.Database,
	tokens *TokenService,
	avatars storage.AvatarStore,
	notify Notifications,
	events Events,
	logger *slog.Logger,
) *UserService {
	if notify == nil {
		notify = noopNotifications{}
	}
	if events == nil {
		events = noopEvents{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		db:      db,
		tokens:  tokens,
		avatars: avatars,
		notify:  notify,
		events:  events,
		logger:  logger,
	}
}

// Register создаёт пользователя, отправляет приветствие и выдаёт первый токен
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Name = cleanText(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, "", err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Age:          in.Age,
	}
	if err := s.db.SaveUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("save user: %w", err)
	}

	s.notify.Welcome(user.Email, user.Name)

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// FindByCredentials не различает "нет пользователя" и "неверный пароль"
func (s *UserService) FindByCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.db.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.ErrorContext(ctx, "credential lookup failed", "error", err)
		}
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.FindByCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UpdateProfile проверяет все поля до применения любого из них.
// Смена пароля завершает остальные сессии, текущая (currentToken) остаётся.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, currentToken string, in UpdateProfileInput) (*models.User, error) {
	var name, email string
	if in.Name != nil {
		name = cleanText(*in.Name)
		if err := validateVar("name", name, "required"); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		if err := validateVar("email", email, "required,email"); err != nil {
			return nil, err
		}
	}
	if in.Password != nil {
		if err := validateVar("password", *in.Password, "required,min=7,nopassword"); err != nil {
			return nil, err
		}
	}
	if in.Age != nil {
		if err := validateVar("age", *in.Age, "gte=0"); err != nil {
			return nil, err
		}
	}

	updated := *user
	if in.Name != nil {
		updated.Name = name
	}
	if in.Email != nil {
		updated.Email = email
	}
	if in.Age != nil {
		updated.Age = *in.Age
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = hash
	}

	if err := s.db.UpdateUser(ctx, &updated); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if in.Password != nil {
		if err := s.tokens.RevokeAllExcept(ctx, updated.ID, currentToken); err != nil {
			return nil, err
		}
	}

	*user = updated
	return user, nil
}

// Delete удаляет аккаунт; все токены пропадают вместе с записью
func (s *UserService) Delete(ctx context.Context, user *models.User) error {
	tokens, err := s.db.ListTokens(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list tokens: %w", err)
	}

	if err := s.db.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	// блоб удаляется только после записи
	if s.avatars != nil && user.HasAvatar() {
		if err := s.avatars.Delete(ctx, user.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete avatar", "user_id", user.ID, "error", err)
		}
	}

	s.tokens.Forget(ctx, tokens)
	s.events.DisconnectUser(user.ID)
	s.notify.Goodbye(user.Email, user.Name)
	return nil
}
