package tracking

import "github.com/KhangTranManh/tech-store-sub000/internal/constants"

// 固定的履约里程碑名称
const (
	MilestoneOrderPlaced    = "Order Placed"
	MilestoneOrderProcessed = "Order Processed"
	MilestoneShipped        = "Shipped"
	MilestoneInTransit      = "In Transit"
	MilestoneOutForDelivery = "Out for Delivery"
	MilestoneDelivered      = "Delivered"
)

// CanonicalMilestones 里程碑模板顺序，客户侧进度视图按此补齐未来节点。
var CanonicalMilestones = []string{
	MilestoneOrderPlaced,
	MilestoneOrderProcessed,
	MilestoneShipped,
	MilestoneInTransit,
	MilestoneOutForDelivery,
	MilestoneDelivered,
}

// milestoneStatuses 里程碑名到粗粒度订单状态的映射。
// 映射外的标签（管理员自定义文本）不触发状态变更。
var milestoneStatuses = map[string]string{
	MilestoneOrderPlaced:    constants.OrderStatusPending,
	MilestoneOrderProcessed: constants.OrderStatusProcessing,
	MilestoneShipped:        constants.OrderStatusShipped,
	MilestoneInTransit:      constants.OrderStatusShipped,
	MilestoneOutForDelivery: constants.OrderStatusShipped,
	MilestoneDelivered:      constants.OrderStatusDelivered,
}

// StatusForLabel 按事件标签查粗粒度状态。
// 标签必须与里程碑名完全一致，未命中返回 ok=false。
func StatusForLabel(label string) (string, bool) {
	status, ok := milestoneStatuses[label]
	return status, ok
}

// IsDeliveredLabel 判断标签是否映射到 delivered
func IsDeliveredLabel(label string) bool {
	status, ok := StatusForLabel(label)
	return ok && status == constants.OrderStatusDelivered
}
