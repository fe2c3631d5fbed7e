package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gemini-gateway/models"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultEndpoint        = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel           = "gemini-1.5-flash"
	DefaultCredentialParam = "key"
	jsonMimeType           = "application/json"
)

// GeminiAdapter Google Gemini generateContent 协议适配器
// Endpoint/Model 为固定配置，不随请求变化
type GeminiAdapter struct {
	endpoint        string
	model           string
	credentialParam string
}

func NewGeminiAdapter(endpoint, model, credentialParam string) *GeminiAdapter {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	if credentialParam == "" {
		credentialParam = DefaultCredentialParam
	}
	return &GeminiAdapter{
		endpoint:        strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		model:           model,
		credentialParam: credentialParam,
	}
}

// Model 上游模型名
func (a *GeminiAdapter) Model() string {
	return a.model
}

// TargetURL 不含密钥的目标地址
func (a *GeminiAdapter) TargetURL() string {
	return fmt.Sprintf("%s/%s:generateContent", a.endpoint, url.PathEscape(a.model))
}

// ConvertRequest 将 OutboundRequest 转换为 Gemini 请求体
func (a *GeminiAdapter) ConvertRequest(req *models.OutboundRequest) GeminiRequest {
	geminiReq := GeminiRequest{
		Contents: make([]GeminiContent, 0, len(req.Contents)),
	}

	for _, c := range req.Contents {
		role := c.Role
		if role == "" {
			role = "user"
		}
		content := GeminiContent{
			Role:  role,
			Parts: make([]GeminiPart, 0, len(c.Parts)),
		}
		for _, p := range c.Parts {
			content.Parts = append(content.Parts, GeminiPart{Text: p.Text})
		}
		geminiReq.Contents = append(geminiReq.Contents, content)
	}

	if req.Options.ForceJSON {
		geminiReq.GenerationConfig = &GeminiConfig{ResponseMimeType: jsonMimeType}
	}
	return geminiReq
}

// BuildRequest 构建 POST <endpoint>/<model>:generateContent?key=<credential>
func (a *GeminiAdapter) BuildRequest(ctx context.Context, req *models.OutboundRequest, credential string) (*http.Request, error) {
	if req == nil {
		return nil, errors.New("nil outbound request")
	}

	reqBodyBytes, err := json.Marshal(a.ConvertRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	u, err := url.Parse(a.TargetURL())
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}
	q := u.Query()
	q.Set(a.credentialParam, credential)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(reqBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "Gemini-Gateway/1.0")
	return httpReq, nil
}
