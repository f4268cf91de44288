package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Chijioke91/Task-Api/internal/handlers/dto"
	"github.com/Chijioke91/Task-Api/internal/middleware"
	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users  *services.UserService
	tokens *services.TokenService
	logger *slog.Logger
}

func NewAuthHandler(users *services.UserService, tokens *services.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{User: user, Token: token})
}

// Login не раскрывает, что именно не так: email или пароль
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to login"})
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{User: user, Token: token})
}

// Logout завершает только текущую сессию
func (h *AuthHandler) Logout(c *gin.Context) {
	ac := middleware.MustAuth(c)

	if err := h.tokens.Revoke(c.Request.Context(), ac.UserID, ac.Token); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	ac := middleware.MustAuth(c)

	if err := h.tokens.RevokeAll(c.Request.Context(), ac.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}
