package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（订单归属与通知收件人解析用）
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // 主键
	Email     string         `gorm:"uniqueIndex;not null" json:"email"` // 邮箱
	Name      string         `json:"name,omitempty"`                    // 昵称
	Locale    string         `gorm:"type:varchar(20)" json:"locale,omitempty"` // 通知语言
	CreatedAt time.Time      `json:"created_at"`                        // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
