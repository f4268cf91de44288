package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Chijioke91/Task-Api/internal/middleware"
	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewUserHandler(users *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// GetMe возвращает информацию о текущем пользователе
func (h *UserHandler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.MustAuth(c).User)
}

var profileFields = []string{"name", "email", "password", "age"}

// UpdateMe принимает только name, email, password и age
func (h *UserHandler) UpdateMe(c *gin.Context) {
	ac := middleware.MustAuth(c)

	var in services.UpdateProfileInput
	if err := decodeStrict(c.Request.Body, &in, profileFields...); err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), ac.User, ac.Token, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteMe удаляет аккаунт и возвращает удалённую запись
func (h *UserHandler) DeleteMe(c *gin.Context) {
	ac := middleware.MustAuth(c)

	if err := h.users.Delete(c.Request.Context(), ac.User); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ac.User)
}
