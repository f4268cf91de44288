package middleware

import (
	"net/http"

	"github.com/Chijioke91/Task-Api/internal/models"
	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/Chijioke91/Task-Api/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const AuthContextKey = "auth"

// AuthContext то, что middleware кладёт в контекст запроса после проверки токена
type AuthContext struct {
	User   *models.User
	UserID uuid.UUID
	Token  string
}

// AuthMiddleware проверяет Bearer токен и активную сессию
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			unauthorized(c)
			return
		}
		authenticate(c, tokens, token)
	}
}

// WSAuthMiddleware специальный middleware для WebSocket: браузер не умеет
// ставить заголовки при апгрейде, поэтому токен можно передать в ?token=
func WSAuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			var err error
			if token, err = auth.ExtractTokenFromHeader(c.Request); err != nil {
				unauthorized(c)
				return
			}
		}
		authenticate(c, tokens, token)
	}
}

func authenticate(c *gin.Context, tokens *services.TokenService, token string) {
	user, err := tokens.Authenticate(c.Request.Context(), token)
	if err != nil {
		unauthorized(c)
		return
	}

	c.Set(AuthContextKey, &AuthContext{User: user, UserID: user.ID, Token: token})
	c.Next()
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate."})
	c.Abort()
}

// MustAuth достаёт AuthContext; паникует, если роут не закрыт middleware
func MustAuth(c *gin.Context) *AuthContext {
	return c.MustGet(AuthContextKey).(*AuthContext)
}
