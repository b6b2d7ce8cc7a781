package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"

	"triphub/pkg/auth"
)

// AuthMiddleware 认证中间件配置
type AuthMiddleware struct {
	logger    kratoslog.Logger
	jwtConfig *auth.JWTConfig
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(logger kratoslog.Logger, jwtKey string) *AuthMiddleware {
	return &AuthMiddleware{
		logger: logger,
		jwtConfig: &auth.JWTConfig{
			Secret: jwtKey,
		},
	}
}

// GinAuth Gin认证中间件
// 校验通过后把user_id写入gin上下文，业务层只信任这里的身份
func (am *AuthMiddleware) GinAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过健康检查和公开接口
		if am.shouldSkipAuth(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := am.extractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			am.logger.Log(kratoslog.LevelWarn, "msg", "Missing authorization token", "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization token"})
			c.Abort()
			return
		}

		claims, err := auth.ParseTokenWithConfig(token, am.jwtConfig)
		if err != nil {
			am.logger.Log(kratoslog.LevelWarn, "msg", "Invalid token", "error", err, "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		userID, ok := extractUserID(claims)
		if !ok {
			am.logger.Log(kratoslog.LevelWarn, "msg", "Token missing user_id claim", "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		if username, exists := claims["username"]; exists {
			if name, ok := username.(string); ok {
				c.Set("username", name)
			}
		}

		am.logger.Log(kratoslog.LevelDebug, "msg", "User authenticated", "userID", userID, "path", c.Request.URL.Path)
		c.Next()
	}
}

// extractUserID 从claims中取user_id
// JSON数字解码为float64，这里统一转成int64
func extractUserID(claims map[string]interface{}) (int64, bool) {
	v, exists := claims["user_id"]
	if !exists {
		return 0, false
	}
	switch userID := v.(type) {
	case float64:
		return int64(userID), true
	case int64:
		return userID, true
	default:
		return 0, false
	}
}

// extractTokenFromHeader 从Authorization头中提取token
func (am *AuthMiddleware) extractTokenFromHeader(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	// 支持 "Bearer token" 和直接的 "token" 格式
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return authHeader
}

// shouldSkipAuth 判断是否跳过认证
func (am *AuthMiddleware) shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/health",
		"/metrics",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}

	return false
}
