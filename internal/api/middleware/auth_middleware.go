package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumekit/internal/auth"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并将 userID 注入上下文。
// 已登出的令牌记录在 Redis 吊销名单中；Redis 不可用时放行，仅失去吊销检查。
func AuthMiddleware(authService *auth.AuthService, redisClient redis.UniversalClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		rawToken := strings.TrimSpace(parts[1])
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		if redisClient != nil {
			n, err := redisClient.Exists(c.Request.Context(), auth.DenylistKey(rawToken)).Result()
			if err == nil && n > 0 {
				abortUnauthorized(c)
				return
			}
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}
