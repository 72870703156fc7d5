package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/config"
	"github.com/KhangTranManh/tech-store-sub000/internal/constants"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"
	"github.com/KhangTranManh/tech-store-sub000/internal/queue"
	"github.com/KhangTranManh/tech-store-sub000/internal/repository"
	"github.com/KhangTranManh/tech-store-sub000/internal/tracking"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTrackingServiceTest(t *testing.T) (*TrackingService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:tracking_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.TrackingEvent{},
		&models.StatusHistory{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		Tracking: config.TrackingConfig{RetryAttempts: 3},
	}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	orderRepo := repository.NewOrderRepository(db)
	notification := NewNotificationService(cfg, queueClient)
	return NewTrackingService(cfg, orderRepo, notification), db
}

func createServiceTestOrder(t *testing.T, db *gorm.DB, orderNo string) *models.Order {
	t.Helper()
	order := models.Order{
		OrderNo:    orderNo,
		GuestEmail: "guest@example.com",
		Status:     constants.OrderStatusPending,
		Currency:   "USD",
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return &order
}

func TestTrackingServiceAddEventDerivesStatus(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401001")

	ts := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	updated, event, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Location:  "Hanoi Hub",
		Timestamp: &ts,
		UpdatedBy: "admin",
	})
	if err != nil {
		t.Fatalf("add event failed: %v", err)
	}
	if event.EventID == "" {
		t.Fatalf("expected event id assigned")
	}
	if updated.Status != constants.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}
	if updated.TrackingVersion != 1 {
		t.Fatalf("expected version 1, got %d", updated.TrackingVersion)
	}
	if len(updated.StatusHistory) != 1 || updated.StatusHistory[0].Note != constants.StatusHistoryNoteDerived {
		t.Fatalf("expected derived history entry, got %+v", updated.StatusHistory)
	}
}

func TestTrackingServiceAddEventRequiresStatus(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401002")

	_, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{Status: "   "})
	if !errors.Is(err, ErrTrackingStatusRequired) {
		t.Fatalf("expected status required error, got %v", err)
	}
}

func TestTrackingServiceAddEventMissingOrder(t *testing.T) {
	svc, _ := setupTrackingServiceTest(t)
	_, _, err := svc.AddEvent(9999, AddTrackingEventInput{Status: tracking.MilestoneShipped})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestTrackingServiceBackdatedAddDoesNotRegressStatus(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401003")

	shipped := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Timestamp: &shipped,
	}); err != nil {
		t.Fatalf("add shipped failed: %v", err)
	}

	// 补录更早的事件，权威事件仍是 Shipped
	processed := shipped.Add(-2 * time.Hour)
	updated, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneOrderProcessed,
		Timestamp: &processed,
	})
	if err != nil {
		t.Fatalf("backdated add failed: %v", err)
	}
	if updated.Status != constants.OrderStatusShipped {
		t.Fatalf("expected shipped retained, got %s", updated.Status)
	}

	var historyCount int64
	if err := db.Model(&models.StatusHistory{}).Where("order_id = ?", order.ID).Count(&historyCount).Error; err != nil {
		t.Fatalf("count history failed: %v", err)
	}
	if historyCount != 1 {
		t.Fatalf("backdated add must not append history, got %d rows", historyCount)
	}
}

func TestTrackingServiceCustomLabelKeepsStatus(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401004")

	shipped := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Timestamp: &shipped,
	}); err != nil {
		t.Fatalf("add shipped failed: %v", err)
	}

	custom := shipped.Add(time.Hour)
	updated, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    "Customs Clearance",
		Timestamp: &custom,
	})
	if err != nil {
		t.Fatalf("add custom label failed: %v", err)
	}
	if updated.Status != constants.OrderStatusShipped {
		t.Fatalf("custom label must keep status, got %s", updated.Status)
	}
	if len(updated.Tracking) != 2 {
		t.Fatalf("expected 2 events, got %d", len(updated.Tracking))
	}
}

func TestTrackingServiceUpdateEventRederivesStatus(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401005")

	ts := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	_, event, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Timestamp: &ts,
	})
	if err != nil {
		t.Fatalf("add event failed: %v", err)
	}

	delivered := tracking.MilestoneDelivered
	updated, changed, err := svc.UpdateEvent(order.ID, event.EventID, UpdateTrackingEventInput{
		Status:    &delivered,
		UpdatedBy: "admin",
	})
	if err != nil {
		t.Fatalf("update event failed: %v", err)
	}
	if changed.Status != tracking.MilestoneDelivered {
		t.Fatalf("expected delivered label, got %s", changed.Status)
	}
	if changed.LastUpdated == nil {
		t.Fatalf("expected last_updated set")
	}
	if updated.Status != constants.OrderStatusDelivered {
		t.Fatalf("expected delivered status, got %s", updated.Status)
	}
}

func TestTrackingServiceUpdateEventNotFound(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401006")

	status := tracking.MilestoneShipped
	_, _, err := svc.UpdateEvent(order.ID, "no-such-event", UpdateTrackingEventInput{Status: &status})
	if !errors.Is(err, ErrTrackingEventNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}
}

func TestTrackingServiceDeleteLastEventFallsBackToPending(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401007")

	ts := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	_, event, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Timestamp: &ts,
	})
	if err != nil {
		t.Fatalf("add event failed: %v", err)
	}

	updated, err := svc.DeleteEvent(order.ID, event.EventID)
	if err != nil {
		t.Fatalf("delete event failed: %v", err)
	}
	if len(updated.Tracking) != 0 {
		t.Fatalf("expected no events, got %d", len(updated.Tracking))
	}
	if updated.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending fallback, got %s", updated.Status)
	}
}

func TestTrackingServiceTimeline(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401008")

	_, nodes, err := svc.Timeline(order.ID)
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}
	if len(nodes) != 1 || !nodes[0].Placeholder {
		t.Fatalf("expected placeholder timeline, got %+v", nodes)
	}

	ts := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Timestamp: &ts,
	}); err != nil {
		t.Fatalf("add event failed: %v", err)
	}

	_, nodes, err = svc.Timeline(order.ID)
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}
	if len(nodes) != 1 || !nodes[0].Active {
		t.Fatalf("expected single active node, got %+v", nodes)
	}
}

func TestTrackingServiceUpdateShipping(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401009")

	carrier := "DHL Express"
	trackingNumber := "JD014600003RS"
	updated, err := svc.UpdateShipping(order.ID, UpdateShippingInput{
		Carrier:        &carrier,
		TrackingNumber: &trackingNumber,
	})
	if err != nil {
		t.Fatalf("update shipping failed: %v", err)
	}
	if updated.Carrier != carrier || updated.TrackingNumber != trackingNumber {
		t.Fatalf("shipping fields not persisted: %+v", updated)
	}
}

func TestTrackingServiceAddEventCarriesShippingFields(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401012")

	ts := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	updated, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:         tracking.MilestoneShipped,
		Carrier:        "DHL",
		TrackingNumber: "JD014600003RS",
		Timestamp:      &ts,
	})
	if err != nil {
		t.Fatalf("add event failed: %v", err)
	}
	if updated.Carrier != "DHL" || updated.TrackingNumber != "JD014600003RS" {
		t.Fatalf("shipping fields not carried to order: %+v", updated)
	}
}

func TestTrackingServiceTimestampTieKeepsFirstInserted(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401014")

	ts := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneDelivered,
		Timestamp: &ts,
	}); err != nil {
		t.Fatalf("add delivered failed: %v", err)
	}

	// 同一时间戳再插入一条，先插入的 Delivered 仍是权威事件
	updated, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Timestamp: &ts,
	})
	if err != nil {
		t.Fatalf("add tied event failed: %v", err)
	}
	if updated.Status != constants.OrderStatusDelivered {
		t.Fatalf("expected first-inserted event to stay authoritative, got %s", updated.Status)
	}

	var historyCount int64
	if err := db.Model(&models.StatusHistory{}).Where("order_id = ?", order.ID).Count(&historyCount).Error; err != nil {
		t.Fatalf("count history failed: %v", err)
	}
	if historyCount != 1 {
		t.Fatalf("tied add must not append history, got %d rows", historyCount)
	}
}

// interleavingOrderRepo 在第一次提交前执行一笔竞争写入，模拟两个并发写者。
type interleavingOrderRepo struct {
	*repository.GormOrderRepository
	interleave  func()
	interleaved bool
}

func (r *interleavingOrderRepo) CommitTracking(change repository.TrackingChange) error {
	if !r.interleaved {
		r.interleaved = true
		r.interleave()
	}
	return r.GormOrderRepository.CommitTracking(change)
}

func TestTrackingServiceConcurrentAddsBothPersist(t *testing.T) {
	_, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401015")

	cfg := &config.Config{Tracking: config.TrackingConfig{RetryAttempts: 3}}
	realRepo := repository.NewOrderRepository(db)
	competitor := NewTrackingService(cfg, realRepo, nil)

	earlier := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	later := earlier.Add(2 * time.Hour)

	repo := &interleavingOrderRepo{
		GormOrderRepository: realRepo,
		interleave: func() {
			if _, _, err := competitor.AddEvent(order.ID, AddTrackingEventInput{
				Status:    tracking.MilestoneDelivered,
				Timestamp: &later,
			}); err != nil {
				t.Fatalf("competing add failed: %v", err)
			}
		},
	}
	svc := NewTrackingService(cfg, repo, nil)

	// 第一次提交因对手先写入而版本冲突，重读后重放成功
	updated, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Timestamp: &earlier,
	})
	if err != nil {
		t.Fatalf("add with interleaved writer failed: %v", err)
	}
	if len(updated.Tracking) != 2 {
		t.Fatalf("expected both events persisted, got %d", len(updated.Tracking))
	}
	if updated.TrackingVersion != 2 {
		t.Fatalf("expected version 2 after both commits, got %d", updated.TrackingVersion)
	}
	if updated.Status != constants.OrderStatusDelivered {
		t.Fatalf("expected status from later timestamp, got %s", updated.Status)
	}
}

// recordingNotifier 记录通知调用次数
type recordingNotifier struct {
	calls int
}

func (n *recordingNotifier) NotifyTrackingUpdate(order *models.Order, event *models.TrackingEvent) {
	n.calls++
}

func TestTrackingServiceNotifiesOnlyOnCreate(t *testing.T) {
	_, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401016")

	cfg := &config.Config{Tracking: config.TrackingConfig{RetryAttempts: 3}}
	notifier := &recordingNotifier{}
	svc := NewTrackingService(cfg, repository.NewOrderRepository(db), notifier)

	notify := true
	_, event, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status: tracking.MilestoneShipped,
		Notify: &notify,
	})
	if err != nil {
		t.Fatalf("add event failed: %v", err)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one notification on create, got %d", notifier.calls)
	}

	delivered := tracking.MilestoneDelivered
	if _, _, err := svc.UpdateEvent(order.ID, event.EventID, UpdateTrackingEventInput{
		Status: &delivered,
	}); err != nil {
		t.Fatalf("update event failed: %v", err)
	}
	if notifier.calls != 1 {
		t.Fatalf("update must not notify, got %d calls", notifier.calls)
	}
}

// conflictOrderRepo 固定返回版本冲突，用于验证重试上限。
type conflictOrderRepo struct {
	*repository.GormOrderRepository
	commits int
}

func (r *conflictOrderRepo) CommitTracking(change repository.TrackingChange) error {
	r.commits++
	return repository.ErrTrackingVersionConflict
}

func TestTrackingServiceRetryExhaustionReturnsConflict(t *testing.T) {
	_, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401010")

	cfg := &config.Config{Tracking: config.TrackingConfig{RetryAttempts: 3}}
	repo := &conflictOrderRepo{GormOrderRepository: repository.NewOrderRepository(db)}
	svc := NewTrackingService(cfg, repo, nil)

	_, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{Status: tracking.MilestoneShipped})
	if !errors.Is(err, ErrTrackingConflict) {
		t.Fatalf("expected tracking conflict, got %v", err)
	}
	if repo.commits != 3 {
		t.Fatalf("expected exactly 3 commit attempts, got %d", repo.commits)
	}
}

func TestTrackQueryServiceLookup(t *testing.T) {
	svc, db := setupTrackingServiceTest(t)
	order := createServiceTestOrder(t, db, "TS20260401011")

	ts := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, _, err := svc.AddEvent(order.ID, AddTrackingEventInput{
		Status:    tracking.MilestoneShipped,
		Timestamp: &ts,
	}); err != nil {
		t.Fatalf("add event failed: %v", err)
	}

	query := NewTrackQueryService(&config.Config{}, repository.NewOrderRepository(db))
	result, err := query.Query(context.Background(), "TS20260401011", "guest@example.com")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if result.Status != constants.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", result.Status)
	}
	if len(result.Progress) == 0 || result.Progress[0].Label != tracking.MilestoneShipped {
		t.Fatalf("unexpected progress: %+v", result.Progress)
	}

	// 订单不存在与邮箱不匹配返回同一个错误
	for _, tc := range []struct{ orderNo, email string }{
		{"TS20260401011", "wrong@example.com"},
		{"TS20269999999", "guest@example.com"},
	} {
		if _, err := query.Query(context.Background(), tc.orderNo, tc.email); !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected not found for %s/%s, got %v", tc.orderNo, tc.email, err)
		}
	}
}
