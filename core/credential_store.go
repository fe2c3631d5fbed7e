package core

import (
	"fmt"
	"gemini-gateway/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LoadCredentialPoolFromStore 从数据库读取已启用的密钥 (按 position, id 排序)
// 解密失败的记录跳过；之后与环境变量来源走同一条去重路径
func LoadCredentialPoolFromStore(db *gorm.DB, sp SecretProvider, logger *logrus.Logger) (*CredentialPool, error) {
	if sp == nil {
		sp = NewPlaintextProvider()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var records []models.CredentialRecord
	if err := db.Where("enabled = ?", true).Order("position asc, id asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	secrets := make([]string, 0, len(records))
	for _, rec := range records {
		val, err := sp.Decrypt(rec.KeyValue)
		if err != nil {
			logger.Errorf("Failed to decrypt credential %d (%s): %v", rec.ID, rec.Label, err)
			continue
		}
		secrets = append(secrets, val)
	}

	pool, err := newCredentialPool(secrets)
	if err != nil {
		return nil, err
	}
	logger.Infof("Loaded %d credentials from store", pool.Len())
	return pool, nil
}

// AddCredential 加密后追加到存储末尾
func AddCredential(db *gorm.DB, sp SecretProvider, label, secret string) (*models.CredentialRecord, error) {
	if sp == nil {
		sp = NewPlaintextProvider()
	}

	encrypted, err := sp.Encrypt(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credential: %w", err)
	}

	var rec *models.CredentialRecord
	err = db.Transaction(func(tx *gorm.DB) error {
		pos, err := models.NextPosition(tx)
		if err != nil {
			return err
		}
		rec = &models.CredentialRecord{
			Label:    label,
			KeyValue: encrypted,
			Position: pos,
			Enabled:  true,
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}
	return rec, nil
}

// ListCredentials 按池顺序列出全部记录 (含已停用)
func ListCredentials(db *gorm.DB) ([]models.CredentialRecord, error) {
	var records []models.CredentialRecord
	if err := db.Order("position asc, id asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return records, nil
}

// SetCredentialEnabled 启用/停用一条密钥
func SetCredentialEnabled(db *gorm.DB, id uint, enabled bool) error {
	res := db.Model(&models.CredentialRecord{}).Where("id = ?", id).Update("enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credential %d not found", id)
	}
	return nil
}

// plaintextProvider 未配置加密密钥时使用，密钥按明文存储
type plaintextProvider struct{}

// NewPlaintextProvider 明文透传的 SecretProvider
func NewPlaintextProvider() SecretProvider {
	return plaintextProvider{}
}

func (plaintextProvider) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }
func (plaintextProvider) Encrypt(plaintext string) (string, error)  { return plaintext, nil }
