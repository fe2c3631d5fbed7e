package core

import (
	"encoding/json"
	"fmt"
	"gemini-gateway/core/adapter"
	"gemini-gateway/core/utils"
	"strings"
)

// ReplySeparator 多个 part 之间的连接符
const ReplySeparator = "\n"

// NormalizeReply 从成功响应中提取纯文本回复
// 取第一个 candidate 的全部 text 以换行连接并去除首尾空白
// 结构缺失或 JSON 非法时返回空串，不影响成功结果
func NormalizeReply(raw []byte) string {
	var resp adapter.GeminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	texts := make([]string, 0, len(resp.Candidates[0].Content.Parts))
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != nil {
			texts = append(texts, *part.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, ReplySeparator))
}

// ExtractStructured 结构化抽取模式: 定位首个 '{' 与最后一个 '}' 并按 JSON 解析
func ExtractStructured(text string) (json.RawMessage, error) {
	candidate, ok := utils.ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrResponseParse)
	}

	var probe interface{}
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	return json.RawMessage(candidate), nil
}
