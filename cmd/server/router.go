package main

import (
	"github.com/Chijioke91/Task-Api/internal/handlers"
	"github.com/Chijioke91/Task-Api/internal/middleware"
	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Avatar    *handlers.AvatarHandler
	Task      *handlers.TaskHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

func APIEndpoints(r *gin.Engine, h Handlers, tokens *services.TokenService) {
	authMW := middleware.AuthMiddleware(tokens)

	r.GET("/health", h.Health.Health)

	// Публичные
	r.POST("/users", h.Auth.Register)
	r.POST("/users/login", h.Auth.Login)
	r.GET("/users/:id/avatar", h.Avatar.Get)

	// WebSocket: токен может прийти в ?token=
	r.GET("/users/me/events", middleware.WSAuthMiddleware(tokens), h.WebSocket.HandleWebSocket)

	me := r.Group("/users", authMW)
	{
		me.POST("/logout", h.Auth.Logout)
		me.POST("/logoutAll", h.Auth.LogoutAll)
		me.GET("/me", h.User.GetMe)
		me.PATCH("/me", h.User.UpdateMe)
		me.DELETE("/me", h.User.DeleteMe)
		me.POST("/me/avatar", h.Avatar.Upload)
		me.DELETE("/me/avatar", h.Avatar.Delete)
	}

	tasks := r.Group("/tasks", authMW)
	{
		tasks.POST("", h.Task.Create)
		tasks.GET("", h.Task.List)
		tasks.GET("/:id", h.Task.Get)
		tasks.PATCH("/:id", h.Task.Update)
		tasks.DELETE("/:id", h.Task.Delete)
	}
}
