package models

import (
	"encoding/json"
	"strings"
)

// OutboundRequest 发往上游的生成请求 (每次入站调用构造一次)
type OutboundRequest struct {
	Contents []Content         `json:"contents"`
	Options  GenerationOptions `json:"-"`
}

// Content 一条 (role, parts) 记录
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part 文本片段
type Part struct {
	Text string `json:"text"`
}

// GenerationOptions 可选生成参数
type GenerationOptions struct {
	// ForceJSON 要求上游以 application/json 输出 (结构化抽取模式)
	ForceJSON bool
}

// NewOutboundRequest 由用户文本和可选的系统文本构造请求
// 系统文本存在时放在同一条 user 记录的第一个 part
func NewOutboundRequest(userText, systemText string, opts GenerationOptions) *OutboundRequest {
	parts := make([]Part, 0, 2)
	if s := strings.TrimSpace(systemText); s != "" {
		parts = append(parts, Part{Text: s})
	}
	parts = append(parts, Part{Text: userText})

	return &OutboundRequest{
		Contents: []Content{{Role: "user", Parts: parts}},
		Options:  opts,
	}
}

// GenerateRequest 入站请求体，兼容多种字段别名
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	Message      string `json:"message"`
	Text         string `json:"text"`
	Input        string `json:"input"`
	System       string `json:"system"`
	SystemPrompt string `json:"systemPrompt"`
	SystemSnake  string `json:"system_prompt"`
	Instructions string `json:"instructions"`
}

// UserText 返回第一个非空的用户文本字段
func (r *GenerateRequest) UserText() string {
	return firstNonBlank(r.Prompt, r.Message, r.Text, r.Input)
}

// SystemText 返回第一个非空的系统文本字段
func (r *GenerateRequest) SystemText() string {
	return firstNonBlank(r.System, r.SystemPrompt, r.SystemSnake, r.Instructions)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// GenerateResponse 成功响应
type GenerateResponse struct {
	Reply string          `json:"reply"`
	Raw   json.RawMessage `json:"raw"`
}

// ExtractResponse 结构化抽取成功响应
type ExtractResponse struct {
	Data  json.RawMessage `json:"data"`
	Reply string          `json:"reply"`
	Raw   json.RawMessage `json:"raw"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error ErrorDetail     `json:"error"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Status  int    `json:"status,omitempty"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status      string `json:"status"`
	Gateway     string `json:"gateway"`
	Model       string `json:"model"`
	Credentials int    `json:"credentials"`
	Timestamp   int64  `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(message, errType string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errType,
		},
	}
}
