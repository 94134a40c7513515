package middleware

import (
	"errors"
	"net/http"
	"strings"

	"adventure-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlayerIDContextKey — ключ, под которым id игрока кладется в контекст Gin.
const PlayerIDContextKey = "playerID"

// PlayerClaims — полезная нагрузка пользовательского токена.
type PlayerClaims struct {
	jwt.RegisteredClaims
}

// PlayerAuthMiddleware проверяет Bearer-токен игрока и кладет его UUID
// в контекст запроса. Subject токена обязан быть валидным UUID.
func PlayerAuthMiddleware(jwtSecret string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": models.ErrUnauthorized.Error()})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &PlayerClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, models.ErrTokenMalformed
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			status := models.ErrTokenInvalid
			if errors.Is(err, jwt.ErrTokenExpired) {
				status = models.ErrTokenExpired
			}
			log.Debug("Player token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": status.Error()})
			return
		}

		playerID, err := uuid.Parse(claims.Subject)
		if err != nil {
			log.Warn("Player token subject is not a UUID", zap.String("subject", claims.Subject))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": models.ErrTokenInvalid.Error()})
			return
		}

		c.Set(PlayerIDContextKey, playerID)
		c.Next()
	}
}

// PlayerIDFromContext достает UUID игрока, положенный auth middleware.
func PlayerIDFromContext(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(PlayerIDContextKey)
	if !exists {
		return uuid.Nil, models.ErrUnauthorized
	}
	playerID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, models.ErrUnauthorized
	}
	return playerID, nil
}
