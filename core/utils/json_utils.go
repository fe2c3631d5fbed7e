package utils

import (
	"strings"
	"unicode/utf8"
)

// ExtractJSONObject 截取文本中第一个 '{' 到最后一个 '}' 之间的内容
// 只做定位，不做校验
func ExtractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// Truncate 按字节上限截断，回退到字符边界，用于日志中的响应片段
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
