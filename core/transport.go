package core

import (
	"context"
	"errors"
	"fmt"
	"gemini-gateway/core/adapter"
	"gemini-gateway/models"
	"io"
	"net/http"
	"net/url"
)

// maxResponseBytes 上游响应体读取上限
const maxResponseBytes = 16 << 20

// HTTPAttempter 通过 ProviderAdapter 构建请求并发送一次
type HTTPAttempter struct {
	client  *http.Client
	adapter adapter.ProviderAdapter
}

func NewHTTPAttempter(client *http.Client, a adapter.ProviderAdapter) *HTTPAttempter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAttempter{client: client, adapter: a}
}

// Attempt 只发送一次，不重试；非 2xx 的响应体原样返回
// 2xx 响应体读取失败视为网络错误
func (h *HTTPAttempter) Attempt(ctx context.Context, cred Credential, req *models.OutboundRequest) TransportResult {
	httpReq, err := h.adapter.BuildRequest(ctx, req, cred.Secret)
	if err != nil {
		return TransportResult{Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return TransportResult{Err: redactURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// 非 2xx 已由状态码决定处置，读取失败时保留状态码与已读部分
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return TransportResult{StatusCode: resp.StatusCode, Body: body}
		}
		return TransportResult{Err: fmt.Errorf("read response: %w", err)}
	}

	return TransportResult{StatusCode: resp.StatusCode, Body: body}
}

// redactURLError 传输错误中的 URL 带有密钥查询参数，记录前去掉
func redactURLError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		u.RawQuery = ""
		uerr.URL = u.String()
	}
	return err
}
