package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/KhangTranManh/tech-store-sub000/internal/logger"
	"github.com/KhangTranManh/tech-store-sub000/internal/provider"
	"github.com/KhangTranManh/tech-store-sub000/internal/queue"
	"github.com/KhangTranManh/tech-store-sub000/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskTrackingNotification, c.handleTrackingNotification)
}

// handleTrackingNotification 投递物流更新邮件。
// 通知是尽力而为：收件人缺失或发送失败记日志后返回 nil，不触发重试风暴。
func (c *Consumer) handleTrackingNotification(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_tracking_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.TrackingNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_tracking_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_tracking_notification_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}

	receiverEmail, locale, err := c.resolveReceiver(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_tracking_notification_resolve_receiver_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if receiverEmail == "" {
		logger.Debugw("worker_tracking_notification_skip_empty_receiver", "order_id", payload.OrderID, "order_no", payload.OrderNo)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_tracking_notification_skip_email_service_nil", "order_id", payload.OrderID, "order_no", payload.OrderNo)
		return nil
	}

	input := service.TrackingUpdateEmailInput{
		OrderNo:     payload.OrderNo,
		Status:      payload.Status,
		Description: payload.Description,
		TrackingURL: payload.TrackingURL,
	}
	if err := c.EmailService.SendTrackingUpdateEmail(receiverEmail, input, locale); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Debugw("worker_tracking_notification_skip_email_disabled", "order_id", payload.OrderID, "order_no", payload.OrderNo)
			return nil
		default:
			logger.Warnw("worker_tracking_notification_send_failed",
				"order_id", payload.OrderID,
				"order_no", payload.OrderNo,
				"receiver_email", receiverEmail,
				"status", payload.Status,
				"error", err,
			)
			return nil
		}
	}
	return nil
}

func (c *Consumer) resolveReceiver(orderID uint) (string, string, error) {
	order, err := c.OrderRepo.GetByID(orderID)
	if err != nil {
		return "", "", err
	}
	if order == nil {
		return "", "", nil
	}
	if order.UserID == 0 {
		return strings.TrimSpace(order.GuestEmail), "", nil
	}
	user, err := c.UserRepo.GetByID(order.UserID)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", nil
	}
	return strings.TrimSpace(user.Email), strings.TrimSpace(user.Locale), nil
}
