package handler

import (
	"net/http"
	"strings"

	"storefront/pkg/logger"
	"storefront/store-service/internal/app/store/entity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Ключи gin контекста, которые заполняет Authenticate
const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// JWTClaims - claims токена, выпущенного сервисом аутентификации витрины
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет bearer токены. Токены здесь только проверяются, не выпускаются
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, entity.ErrorResponse{
		Error:     message,
		RequestID: logger.RequestID(c),
	})
}

// Authenticate проверяет JWT токен и кладёт данные пользователя в контекст Gin
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortJSON(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		// Формат "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortJSON(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(m.jwtSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			abortJSON(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "Invalid user ID in token")
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)

		c.Next()
	}
}

// RequireRole пропускает только пользователей с одной из ролей
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := roleFromContext(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if !hasRole(role, roles) {
			abortJSON(c, http.StatusForbidden, "Insufficient permissions")
			return
		}

		c.Next()
	}
}

// RequireSelfOrRole пропускает владельца ресурса (user id из параметра пути)
// или пользователя с одной из ролей
func (m *AuthMiddleware) RequireSelfOrRole(param string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := roleFromContext(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if hasRole(role, roles) {
			c.Next()
			return
		}

		userID, _ := c.Get(ctxUserID)
		if current, ok := userID.(uuid.UUID); ok && current.String() == c.Param(param) {
			c.Next()
			return
		}

		abortJSON(c, http.StatusForbidden, "Insufficient permissions")
	}
}

func roleFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(ctxRole)
	if !exists {
		return "", false
	}
	role, ok := value.(string)
	return role, ok
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}
