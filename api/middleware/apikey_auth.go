/*
 * @module api/middleware/apikey_auth
 * @description API密钥鉴权中间件，验证Authorization头中的Bearer密钥
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference ai_docs/validation_engine_req.md
 * @stateFlow 密钥提取 -> 密钥验证 -> 上下文注入 -> 下一个处理器
 * @rules 未配置API_KEY_AUTH=true时中间件直通；健康检查和文档路径始终免鉴权
 * @dependencies net/http, github.com/go-chi/render
 * @refs service/quality/validation_service.go, api/routes.go
 */

package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"dataquality-service/service/models"

	"github.com/go-chi/render"
)

// ContextKey 上下文键类型
type ContextKey string

// ApiKeyInfoKey API密钥信息在上下文中的键
const ApiKeyInfoKey ContextKey = "api_key_info"

// ApiKeyVerifier API密钥验证接口，由校验服务实现
type ApiKeyVerifier interface {
	VerifyApiKey(plaintext string) (*models.ApiKey, error)
}

// ApiKeyAuthMiddleware API密钥认证中间件
type ApiKeyAuthMiddleware struct {
	verifier ApiKeyVerifier
	enabled  bool
	// 白名单路径（不需要鉴权）
	whitelistPaths []string
}

// NewApiKeyAuthMiddleware 创建API密钥认证中间件实例
// 环境变量API_KEY_AUTH为true时启用鉴权，否则所有请求直通
func NewApiKeyAuthMiddleware(verifier ApiKeyVerifier) *ApiKeyAuthMiddleware {
	return &ApiKeyAuthMiddleware{
		verifier: verifier,
		enabled:  os.Getenv("API_KEY_AUTH") == "true",
		whitelistPaths: []string{
			"/health",
			"/ready",
			"/metrics",
			"/swagger",
		},
	}
}

// IsWhitelistPath 检查路径是否在白名单中
func (m *ApiKeyAuthMiddleware) IsWhitelistPath(path string) bool {
	for _, whitelistPath := range m.whitelistPaths {
		if strings.HasPrefix(path, whitelistPath) {
			return true
		}
	}
	return false
}

// Middleware 认证中间件处理函数
func (m *ApiKeyAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled || m.IsWhitelistPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondUnauthorized(w, r, "缺少Authorization头")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.respondUnauthorized(w, r, "无效的Authorization格式，需要Bearer密钥")
			return
		}
		plaintext := strings.TrimPrefix(authHeader, "Bearer ")
		if plaintext == "" {
			m.respondUnauthorized(w, r, "API密钥为空")
			return
		}

		key, err := m.verifier.VerifyApiKey(plaintext)
		if err != nil {
			m.respondUnauthorized(w, r, "API密钥无效或已过期")
			return
		}

		ctx := context.WithValue(r.Context(), ApiKeyInfoKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// respondUnauthorized 返回401未授权响应
func (m *ApiKeyAuthMiddleware) respondUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	render.JSON(w, r, map[string]interface{}{
		"status":  http.StatusUnauthorized,
		"message": message,
		"error":   "Unauthorized",
	})
}

// GetApiKeyFromContext 从上下文中获取API密钥信息
func GetApiKeyFromContext(ctx context.Context) (*models.ApiKey, bool) {
	key, ok := ctx.Value(ApiKeyInfoKey).(*models.ApiKey)
	return key, ok
}
