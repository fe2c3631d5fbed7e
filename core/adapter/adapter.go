package adapter

import (
	"context"
	"gemini-gateway/models"
	"net/http"
)

// ProviderAdapter 将标准请求转换为特定提供商的 HTTP 请求
type ProviderAdapter interface {
	// BuildRequest 每次调用生成新的 *http.Request (Body 不可复用)
	BuildRequest(ctx context.Context, req *models.OutboundRequest, credential string) (*http.Request, error)
}
