package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/config"
	"github.com/KhangTranManh/tech-store-sub000/internal/constants"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"
	"github.com/KhangTranManh/tech-store-sub000/internal/provider"
	"github.com/KhangTranManh/tech-store-sub000/internal/queue"
	"github.com/KhangTranManh/tech-store-sub000/internal/repository"
	"github.com/KhangTranManh/tech-store-sub000/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.TrackingEvent{}, &models.StatusHistory{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	container := &provider.Container{
		Config:       &config.Config{},
		OrderRepo:    repository.NewOrderRepository(db),
		UserRepo:     repository.NewUserRepository(db),
		EmailService: service.NewEmailService(&config.EmailConfig{Enabled: false}),
	}
	return NewConsumer(container), db
}

func trackingTask(t *testing.T, payload queue.TrackingNotificationPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskTrackingNotification, body)
}

func TestHandleTrackingNotificationInvalidPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := asynq.NewTask(queue.TaskTrackingNotification, []byte("{not json"))
	if err := consumer.handleTrackingNotification(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestHandleTrackingNotificationSkipZeroOrderID(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := trackingTask(t, queue.TrackingNotificationPayload{OrderID: 0})
	if err := consumer.handleTrackingNotification(context.Background(), task); err != nil {
		t.Fatalf("expected nil for zero order id, got %v", err)
	}
}

func TestHandleTrackingNotificationSkipMissingOrder(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	task := trackingTask(t, queue.TrackingNotificationPayload{OrderID: 9999, OrderNo: "TS-MISSING"})
	if err := consumer.handleTrackingNotification(context.Background(), task); err != nil {
		t.Fatalf("expected nil for missing order, got %v", err)
	}
}

func TestHandleTrackingNotificationEmailDisabledSwallowed(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	order := models.Order{
		OrderNo:    "TS20260501001",
		GuestEmail: "guest@example.com",
		Status:     constants.OrderStatusShipped,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task := trackingTask(t, queue.TrackingNotificationPayload{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Status:  "Shipped",
	})
	// 邮件服务关闭时通知吞掉，不向队列返回错误
	if err := consumer.handleTrackingNotification(context.Background(), task); err != nil {
		t.Fatalf("expected disabled email to be swallowed, got %v", err)
	}
}

func TestResolveReceiverPrefersUserEmail(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	user := models.User{Email: "member@example.com", Locale: "zh-CN"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	order := models.Order{
		OrderNo: "TS20260501002",
		UserID:  user.ID,
		Status:  constants.OrderStatusPending,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	email, locale, err := consumer.resolveReceiver(order.ID)
	if err != nil {
		t.Fatalf("resolve receiver failed: %v", err)
	}
	if email != "member@example.com" || locale != "zh-CN" {
		t.Fatalf("unexpected receiver: %q %q", email, locale)
	}
}
