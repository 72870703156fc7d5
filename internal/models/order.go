package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 本服务只拥有状态、物流相关字段；金额等字段由下单侧写入，这里只读。
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                          // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`          // 订单编号
	UserID          uint           `gorm:"index;not null" json:"user_id,omitempty"`       // 用户ID（游客订单为 0）
	GuestEmail      string         `gorm:"index" json:"guest_email,omitempty"`            // 游客邮箱
	Status          string         `gorm:"index;not null;default:pending" json:"status"`  // 粗粒度订单状态（由推导引擎维护）
	Currency        string         `json:"currency"`                                      // 币种
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	TrackingNumber  string         `json:"tracking_number,omitempty"`                     // 运单号（冗余字段，可独立更新）
	Carrier         string         `json:"carrier,omitempty"`                             // 承运商（冗余字段，可独立更新）
	TrackingVersion uint64         `gorm:"not null;default:0" json:"-"`                   // 乐观锁版本，每次物流变更 +1
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Tracking      []TrackingEvent `gorm:"foreignKey:OrderID" json:"tracking,omitempty"`       // 物流事件（按插入顺序加载）
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"` // 状态审计（只追加）
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
