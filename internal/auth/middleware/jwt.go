package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/microlearn-backend/internal/auth"
	apperrors "github.com/lk2023060901/microlearn-backend/internal/pkg/errors"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// JWTAuth JWT 认证中间件，成功后把 user_id 写入上下文
func JWTAuth(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortWithCode(c, apperrors.ErrUnauthorized, "missing authorization")
			return
		}

		token, err := auth.ExtractTokenFromHeader(authHeader)
		if err != nil {
			response.AbortWithCode(c, apperrors.ErrUnauthorized, err.Error())
			return
		}

		claims, err := jwtManager.VerifyAccessToken(token)
		if err != nil {
			log.Warn("invalid access token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()))
			if errors.Is(err, auth.ErrTokenExpired) {
				response.AbortWithCode(c, apperrors.ErrAuthTokenExpired)
				return
			}
			response.AbortWithCode(c, apperrors.ErrAuthInvalidToken)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}

// CORS 跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
			c.Header("Access-Control-Expose-Headers", "Content-Length, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
