package adapter

import (
	"context"
	"encoding/json"
	"gemini-gateway/models"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiAdapter_BuildRequest(t *testing.T) {
	// 1. 构造带系统文本的结构化抽取请求
	a := NewGeminiAdapter("https://example.test/v1beta/models/", "gemini-test", "key")
	req := models.NewOutboundRequest("Extract the name", "You are a parser", models.GenerationOptions{ForceJSON: true})

	// 2. 构建 HTTP 请求
	httpReq, err := a.BuildRequest(context.Background(), req, "AIza-secret")
	require.NoError(t, err)

	// 3. 验证 URL 与 Header
	assert.Equal(t, "POST", httpReq.Method)
	assert.Equal(t, "example.test", httpReq.URL.Host)
	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", httpReq.URL.Path)
	assert.Equal(t, "AIza-secret", httpReq.URL.Query().Get("key"))
	assert.Equal(t, "application/json", httpReq.Header.Get("Content-Type"))

	// 4. 验证请求体: 一条 user 记录，系统文本在前
	raw, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"contents": [{"role": "user", "parts": [{"text": "You are a parser"}, {"text": "Extract the name"}]}],
		"generationConfig": {"response_mime_type": "application/json"}
	}`, string(raw))
}

func TestGeminiAdapter_PlainRequestOmitsGenerationConfig(t *testing.T) {
	a := NewGeminiAdapter("", "", "")
	assert.Equal(t, DefaultModel, a.Model())
	assert.Equal(t, DefaultEndpoint+"/"+DefaultModel+":generateContent", a.TargetURL())

	body := a.ConvertRequest(models.NewOutboundRequest("hi", "  ", models.GenerationOptions{}))
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`, string(raw))
}

func TestGeminiAdapter_CustomCredentialParam(t *testing.T) {
	a := NewGeminiAdapter("https://example.test/models", "m", "credential")
	httpReq, err := a.BuildRequest(context.Background(), models.NewOutboundRequest("hi", "", models.GenerationOptions{}), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", httpReq.URL.Query().Get("credential"))
	assert.Empty(t, httpReq.URL.Query().Get("key"))
}

func TestGeminiAdapter_NilRequest(t *testing.T) {
	_, err := NewGeminiAdapter("", "", "").BuildRequest(context.Background(), nil, "abc")
	assert.Error(t, err)
}
