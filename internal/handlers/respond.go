package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/gin-gonic/gin"
)

// respondError переводит ошибки сервисов в HTTP-ответ; внутренние причины только в лог
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrForbiddenField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Updates"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already in use"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to login"})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate."})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.ErrInternal.Error()})
	}
}

// decodeStrict разбирает JSON-объект, в котором допустимы только ключи allowed
// (с точным совпадением регистра). Пустое тело не ошибка.
func decodeStrict(r io.Reader, dst any, allowed ...string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Join(services.ErrValidation, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return errors.Join(services.ErrValidation, err)
	}
	if rest := bytes.TrimSpace(data[dec.InputOffset():]); len(rest) > 0 {
		return fmt.Errorf("%w: unexpected data after JSON object", services.ErrValidation)
	}

	for key := range fields {
		if !slices.Contains(allowed, key) {
			return services.ErrForbiddenField
		}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Join(services.ErrValidation, err)
	}
	return nil
}
