package core

import (
	"fmt"
	"strings"
	"unicode"
)

// Credential 上游密钥及其在池中的序号，加载后不可变
type Credential struct {
	Index  int
	Secret string
}

// Masked 日志用的脱敏形式
func (c Credential) Masked() string {
	return maskKey(c.Secret)
}

// CredentialPool 有序、只读的密钥池
// 进程启动时构造一次，之后在所有请求间共享，无需加锁
type CredentialPool struct {
	credentials []Credential
}

// LoadCredentialPool 解析原始配置值 (逗号/分号/空白/换行分隔)
// 去除空白项、按首次出现去重；结果为空时返回 ErrConfiguration
func LoadCredentialPool(raw string) (*CredentialPool, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	return newCredentialPool(fields)
}

func newCredentialPool(secrets []string) (*CredentialPool, error) {
	seen := make(map[string]struct{}, len(secrets))
	creds := make([]Credential, 0, len(secrets))

	for _, s := range secrets {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		creds = append(creds, Credential{Index: len(creds), Secret: s})
	}

	if len(creds) == 0 {
		return nil, fmt.Errorf("%w: credential list is empty", ErrConfiguration)
	}
	return &CredentialPool{credentials: creds}, nil
}

// Len 池中密钥数量，nil 池返回 0
func (p *CredentialPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.credentials)
}

// At 返回第 i 个密钥
func (p *CredentialPool) At(i int) Credential {
	return p.credentials[i]
}

// Credentials 返回副本
func (p *CredentialPool) Credentials() []Credential {
	if p == nil {
		return nil
	}
	out := make([]Credential, len(p.credentials))
	copy(out, p.credentials)
	return out
}

// maskKey 脱敏 API Key
func maskKey(key string) string {
	if len(key) <= 4 {
		return "***"
	}
	return key[:3] + "***" + key[len(key)-4:]
}
