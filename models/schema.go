package models

import (
	"gorm.io/gorm"
)

// CredentialRecord 持久化的上游密钥 (KeyValue 为加密后的密文)
type CredentialRecord struct {
	gorm.Model
	Label    string `json:"label"`
	KeyValue string `gorm:"not null" json:"key_value"`
	Position int    `gorm:"default:0;index" json:"position"`
	Enabled  bool   `gorm:"default:true" json:"enabled"`
}

// TableName 固定表名
func (CredentialRecord) TableName() string {
	return "credentials"
}

// AutoMigrate 自动迁移数据库结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CredentialRecord{},
	)
}

// NextPosition 返回新密钥应使用的排序位置 (追加到末尾)
func NextPosition(db *gorm.DB) (int, error) {
	var maxPos *int
	if err := db.Model(&CredentialRecord{}).Select("MAX(position)").Scan(&maxPos).Error; err != nil {
		return 0, err
	}
	if maxPos == nil {
		return 0, nil
	}
	return *maxPos + 1, nil
}
