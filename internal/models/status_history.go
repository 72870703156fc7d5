package models

import "time"

// StatusHistory 订单状态审计表（只追加，不改写不删除）
type StatusHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`           // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"` // 订单ID
	Status    string    `gorm:"not null" json:"status"`         // 变更后的状态
	Note      string    `json:"note,omitempty"`                 // 备注
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"` // 变更时间
}

// TableName 指定表名
func (StatusHistory) TableName() string {
	return "status_histories"
}
