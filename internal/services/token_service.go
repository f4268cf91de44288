package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Chijioke91/Task-Api/internal/database"
	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/Chijioke91/Task-Api/pkg/auth"
	"github.com/google/uuid"
)

// TokenService выдаёт и отзывает сессионные токены.
// Токен действителен, только если подпись верна И он есть в user_tokens.
type TokenService struct {
	db     *database.Database
	jwt    *auth.JWTManager
	cache  RevocationCache
	events Events
	logger *slog.Logger
}

func NewTokenService(db *database.Database, jwt *auth.JWTManager, cache RevocationCache, events Events, logger *slog.Logger) *TokenService {
	if events == nil {
		events = noopEvents{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenService{db: db, jwt: jwt, cache: cache, events: events, logger: logger}
}

// Issue подписывает новый токен и добавляет его в сессии пользователя
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := s.jwt.Generate(userID.String())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := s.db.AddToken(ctx, userID, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Verify проверяет только подпись и срок действия
func (s *TokenService) Verify(token string) (uuid.UUID, error) {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, auth.ErrInvalidToken
	}
	return userID, nil
}

// Authenticate возвращает владельца токена, если сессия ещё активна
func (s *TokenService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if s.cache != nil {
		revoked, err := s.cache.IsRevoked(ctx, token)
		if err != nil {
			s.logger.WarnContext(ctx, "revocation cache unavailable", "error", err)
		} else if revoked {
			return nil, ErrUnauthenticated
		}
	}

	user, err := s.db.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	active, err := s.db.HasToken(ctx, userID, token)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !active {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// Revoke удаляет ровно одну сессию
func (s *TokenService) Revoke(ctx context.Context, userID uuid.UUID, token string) error {
	if _, err := s.db.RemoveToken(ctx, userID, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	s.blacklist(ctx, token)
	s.events.DisconnectToken(userID, token)
	return nil
}

// RevokeAll завершает все сессии пользователя
func (s *TokenService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	removed, err := s.db.RemoveAllTokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("remove tokens: %w", err)
	}
	for _, token := range removed {
		s.blacklist(ctx, token)
	}
	s.events.DisconnectUser(userID)
	return nil
}

// RevokeAllExcept завершает все сессии, кроме текущей (смена пароля)
func (s *TokenService) RevokeAllExcept(ctx context.Context, userID uuid.UUID, keep string) error {
	removed, err := s.db.RemoveTokensExcept(ctx, userID, keep)
	if err != nil {
		return fmt.Errorf("remove tokens: %w", err)
	}
	for _, token := range removed {
		s.blacklist(ctx, token)
		s.events.DisconnectToken(userID, token)
	}
	return nil
}

// Forget кладёт в черный список уже удалённые из БД токены
func (s *TokenService) Forget(ctx context.Context, tokens []string) {
	for _, token := range tokens {
		s.blacklist(ctx, token)
	}
}

func (s *TokenService) blacklist(ctx context.Context, token string) {
	if s.cache == nil {
		return
	}

	exp, err := s.jwt.Expiry(token)
	if err != nil {
		// подпись уже не проходит, в кэше нет смысла
		return
	}
	var ttl time.Duration
	if !exp.IsZero() {
		ttl = time.Until(exp)
	}

	if err := s.cache.Revoke(ctx, token, ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to blacklist token", "error", err)
	}
}
