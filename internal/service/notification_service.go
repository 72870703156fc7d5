package service

import (
	"net/url"
	"strings"

	"github.com/KhangTranManh/tech-store-sub000/internal/config"
	"github.com/KhangTranManh/tech-store-sub000/internal/logger"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"
	"github.com/KhangTranManh/tech-store-sub000/internal/queue"
)

// NotificationService 物流更新通知服务。
// 通知为尽力而为：任何投递失败只记日志，不影响写入结果。
type NotificationService struct {
	cfg         *config.Config
	queueClient *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(cfg *config.Config, queueClient *queue.Client) *NotificationService {
	return &NotificationService{
		cfg:         cfg,
		queueClient: queueClient,
	}
}

// NotifyTrackingUpdate 推送一条物流更新通知任务
func (s *NotificationService) NotifyTrackingUpdate(order *models.Order, event *models.TrackingEvent) {
	if s == nil || order == nil || event == nil {
		return
	}
	if !s.queueClient.Enabled() {
		logger.Debugw("tracking_notification_skip_queue_disabled", "order_id", order.ID, "order_no", order.OrderNo)
		return
	}

	payload := queue.TrackingNotificationPayload{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		Status:      event.Status,
		Description: event.Description,
		TrackingURL: s.buildTrackingURL(order.OrderNo),
	}
	if err := s.queueClient.EnqueueTrackingNotification(payload); err != nil {
		logger.Warnw("tracking_notification_enqueue_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"status", event.Status,
			"error", err,
		)
	}
}

func (s *NotificationService) buildTrackingURL(orderNo string) string {
	base := ""
	if s.cfg != nil {
		base = strings.TrimSpace(s.cfg.Tracking.PublicURL)
	}
	if base == "" {
		return ""
	}
	return base + "?order_no=" + url.QueryEscape(orderNo)
}
