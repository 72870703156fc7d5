package constants

// 订单粗粒度状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses 合法的订单状态集合（过滤校验用）
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// 状态推导写入审计记录的备注
const StatusHistoryNoteDerived = "derived from tracking update"

// 队列常量
const (
	QueueDefault             = "default"
	TaskTrackingNotification = "tracking:notification"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ts"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleZhCN}
