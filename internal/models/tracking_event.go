package models

import "time"

// TrackingEvent 物流事件表
// 主键自增，兼作插入顺序；对外暴露的稳定标识是 EventID（创建时生成，不可变）。
// Timestamp 是事件生效时间，允许管理员回填早于现有事件的时间。
type TrackingEvent struct {
	ID          uint       `gorm:"primarykey" json:"-"`                            // 主键（插入顺序）
	EventID     string     `gorm:"uniqueIndex;type:varchar(36);not null" json:"id"` // 对外稳定标识
	OrderID     uint       `gorm:"index;not null" json:"order_id"`                 // 订单ID
	Status      string     `gorm:"not null" json:"status"`                         // 里程碑名或自定义文本
	Location    string     `json:"location,omitempty"`                             // 位置
	Description string     `json:"description,omitempty"`                          // 描述
	Carrier     string     `json:"carrier,omitempty"`                              // 承运商
	Timestamp   time.Time  `gorm:"index;not null" json:"timestamp"`                // 事件生效时间
	UpdatedBy   string     `json:"updated_by,omitempty"`                           // 最后编辑人
	LastUpdated *time.Time `json:"last_updated,omitempty"`                         // 最后编辑时间
	CreatedAt   time.Time  `json:"created_at"`                                     // 创建时间
}

// TableName 指定表名
func (TrackingEvent) TableName() string {
	return "tracking_events"
}
