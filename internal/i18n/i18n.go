package i18n

import (
	"fmt"
	"strings"

	"github.com/KhangTranManh/tech-store-sub000/internal/constants"

	"github.com/gin-gonic/gin"
)

// messages 错误文案目录（按语言）
var messages = map[string]map[string]string{
	constants.LocaleEnUS: {
		"error.bad_request":                "invalid request payload",
		"error.unauthorized":               "unauthorized",
		"error.forbidden":                  "forbidden",
		"error.internal":                   "internal server error",
		"error.order_id_invalid":           "invalid order id",
		"error.order_not_found":            "order not found",
		"error.order_fetch_failed":         "failed to load order",
		"error.order_status_invalid":       "invalid order status filter",
		"error.tracking_event_not_found":   "tracking event not found",
		"error.tracking_status_required":   "tracking event status is required",
		"error.tracking_timestamp_invalid": "tracking event timestamp is invalid",
		"error.tracking_conflict":          "order was modified concurrently, please retry",
		"error.tracking_add_failed":        "failed to add tracking event",
		"error.tracking_update_failed":     "failed to update tracking event",
		"error.tracking_delete_failed":     "failed to delete tracking event",
		"error.shipping_update_failed":     "failed to update shipping info",
		"error.track_query_failed":         "failed to look up tracking info",
		"error.login_failed":               "invalid username or password",
		"error.login_too_many":             "too many login attempts, retry in %d seconds",
		"error.rate_limited":               "too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":     "rate limiter unavailable",
		"error.auth_header_missing":        "authorization header missing",
		"error.auth_header_invalid":        "authorization header invalid",
		"error.token_invalid":              "invalid token",
		"error.jwt_secret_missing":         "jwt secret not configured",
		"error.admin_id_invalid":           "invalid admin id",
		"error.admin_id_type_invalid":      "invalid admin id type",
		"email.tracking_update.subject":    "Shipping update for order %s",
		"email.tracking_update.body":       "Your order %s has a new tracking update: %s",
		"email.tracking_update.link":       "Track your order: %s",
	},
	constants.LocaleZhCN: {
		"error.bad_request":                "请求参数无效",
		"error.unauthorized":               "未授权",
		"error.forbidden":                  "无权限",
		"error.internal":                   "服务器内部错误",
		"error.order_id_invalid":           "订单 ID 无效",
		"error.order_not_found":            "订单不存在",
		"error.order_fetch_failed":         "加载订单失败",
		"error.order_status_invalid":       "订单状态过滤条件无效",
		"error.tracking_event_not_found":   "物流事件不存在",
		"error.tracking_status_required":   "物流事件状态不能为空",
		"error.tracking_timestamp_invalid": "物流事件时间格式无效",
		"error.tracking_conflict":          "订单被并发修改，请重试",
		"error.tracking_add_failed":        "新增物流事件失败",
		"error.tracking_update_failed":     "更新物流事件失败",
		"error.tracking_delete_failed":     "删除物流事件失败",
		"error.shipping_update_failed":     "更新运单信息失败",
		"error.track_query_failed":         "查询物流信息失败",
		"error.login_failed":               "用户名或密码错误",
		"error.login_too_many":             "登录尝试过于频繁，请 %d 秒后重试",
		"error.rate_limited":               "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":     "限流服务不可用",
		"error.auth_header_missing":        "缺少认证头",
		"error.auth_header_invalid":        "认证头格式无效",
		"error.token_invalid":              "无效的 token",
		"error.jwt_secret_missing":         "JWT 密钥未配置",
		"error.admin_id_invalid":           "管理员 ID 无效",
		"error.admin_id_type_invalid":      "管理员 ID 类型无效",
		"email.tracking_update.subject":    "订单 %s 物流更新",
		"email.tracking_update.body":       "您的订单 %s 有新的物流动态：%s",
		"email.tracking_update.link":       "查看物流进度：%s",
	},
}

const defaultLocale = constants.LocaleEnUS

// ResolveLocale 解析请求语言：query 参数优先，其次 Accept-Language。
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return defaultLocale
	}
	if locale := normalizeLocale(c.Query("locale")); locale != "" {
		return locale
	}
	accept := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(accept, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if locale := normalizeLocale(tag); locale != "" {
			return locale
		}
	}
	return defaultLocale
}

// T 按语言翻译消息 key；未命中时回退默认语言，再回退 key 本身。
func T(locale, key string) string {
	if catalog, ok := messages[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化带参数的消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	for _, supported := range constants.SupportedLocales {
		if strings.EqualFold(tag, supported) {
			return supported
		}
	}
	// 只给了语言前缀时匹配第一个同前缀的支持语言
	prefix := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
	for _, supported := range constants.SupportedLocales {
		if strings.HasPrefix(strings.ToLower(supported), prefix) {
			return supported
		}
	}
	return ""
}
