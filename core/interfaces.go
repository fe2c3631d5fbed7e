package core

import (
	"context"
	"gemini-gateway/models"
	"time"
)

// Attempter 执行一次上游调用 (唯一的网络挂起点)
// 实现方不得自行重试，ctx 结束时应尽快返回
type Attempter interface {
	Attempt(ctx context.Context, cred Credential, req *models.OutboundRequest) TransportResult
}

// AttempterFunc 函数适配器
type AttempterFunc func(ctx context.Context, cred Credential, req *models.OutboundRequest) TransportResult

func (f AttempterFunc) Attempt(ctx context.Context, cred Credential, req *models.OutboundRequest) TransportResult {
	return f(ctx, cred, req)
}

// Sleeper 退避等待，ctx 结束时返回 ctx.Err()
type Sleeper func(ctx context.Context, d time.Duration) error

// SecretProvider 抽象密钥加解密
// 用于读取存储中的密钥时自动解密
type SecretProvider interface {
	Decrypt(ciphertext string) (string, error)
	Encrypt(plaintext string) (string, error)
}
