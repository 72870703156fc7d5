package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/constants"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return NewOrderRepository(db), db
}

func createTestOrder(t *testing.T, db *gorm.DB, orderNo string, userID uint, guestEmail string) *models.Order {
	t.Helper()
	order := models.Order{
		OrderNo:    orderNo,
		UserID:     userID,
		GuestEmail: guestEmail,
		Status:     constants.OrderStatusPending,
		Currency:   "USD",
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return &order
}

func TestOrderRepositoryGetByIDPreloadsEventsInInsertionOrder(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createTestOrder(t, db, "TS20260301001", 0, "guest@example.com")

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, status := range []string{"Order Placed", "Order Processed"} {
		event := models.TrackingEvent{
			EventID:   uuid.NewString(),
			OrderID:   order.ID,
			Status:    status,
			Timestamp: ts,
		}
		if err := db.Create(&event).Error; err != nil {
			t.Fatalf("create event failed: %v", err)
		}
	}

	loaded, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected order, got nil")
	}
	if len(loaded.Tracking) != 2 {
		t.Fatalf("expected 2 events, got %d", len(loaded.Tracking))
	}
	if loaded.Tracking[0].Status != "Order Placed" || loaded.Tracking[1].Status != "Order Processed" {
		t.Fatalf("events not in insertion order: %s, %s", loaded.Tracking[0].Status, loaded.Tracking[1].Status)
	}
}

func TestOrderRepositoryGetByIDMissingReturnsNil(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order, err := repo.GetByID(9999)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil for missing order")
	}
}

func TestOrderRepositoryGetByOrderNoAndEmail(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)

	user := models.User{Email: "member@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	createTestOrder(t, db, "TS20260301002", user.ID, "")
	createTestOrder(t, db, "TS20260301003", 0, "guest@example.com")

	// 会员订单按用户邮箱匹配，大小写不敏感
	order, err := repo.GetByOrderNoAndEmail("TS20260301002", "Member@Example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if order == nil {
		t.Fatalf("expected member order match")
	}

	// 游客订单按 guest_email 匹配
	order, err = repo.GetByOrderNoAndEmail("TS20260301003", "guest@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if order == nil {
		t.Fatalf("expected guest order match")
	}

	// 邮箱不匹配与订单不存在返回同样的 nil
	for _, tc := range []struct{ orderNo, email string }{
		{"TS20260301002", "wrong@example.com"},
		{"TS20269999999", "member@example.com"},
	} {
		order, err = repo.GetByOrderNoAndEmail(tc.orderNo, tc.email)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if order != nil {
			t.Fatalf("expected nil for %s/%s", tc.orderNo, tc.email)
		}
	}
}

func TestOrderRepositoryCommitTrackingBumpsVersion(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createTestOrder(t, db, "TS20260301004", 0, "guest@example.com")

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := &models.TrackingEvent{
		EventID:   uuid.NewString(),
		Status:    "Shipped",
		Timestamp: ts,
	}
	err := repo.CommitTracking(TrackingChange{
		OrderID:      order.ID,
		Version:      order.TrackingVersion,
		CreateEvents: []*models.TrackingEvent{event},
		OrderUpdates: map[string]interface{}{"status": constants.OrderStatusShipped},
		History: &models.StatusHistory{
			Status:    constants.OrderStatusShipped,
			Note:      constants.StatusHistoryNoteDerived,
			Timestamp: ts,
		},
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	loaded, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if loaded.TrackingVersion != 1 {
		t.Fatalf("expected version 1, got %d", loaded.TrackingVersion)
	}
	if loaded.Status != constants.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", loaded.Status)
	}
	if len(loaded.Tracking) != 1 || len(loaded.StatusHistory) != 1 {
		t.Fatalf("expected 1 event and 1 history row, got %d/%d", len(loaded.Tracking), len(loaded.StatusHistory))
	}
}

func TestOrderRepositoryCommitTrackingStaleVersionConflicts(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createTestOrder(t, db, "TS20260301005", 0, "guest@example.com")

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := TrackingChange{
		OrderID: order.ID,
		Version: order.TrackingVersion,
		CreateEvents: []*models.TrackingEvent{{
			EventID:   uuid.NewString(),
			Status:    "Shipped",
			Timestamp: ts,
		}},
	}
	if err := repo.CommitTracking(first); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	// 以过期版本号再次提交，必须冲突且不落任何行
	stale := TrackingChange{
		OrderID: order.ID,
		Version: order.TrackingVersion,
		CreateEvents: []*models.TrackingEvent{{
			EventID:   uuid.NewString(),
			Status:    "In Transit",
			Timestamp: ts.Add(time.Hour),
		}},
	}
	err := repo.CommitTracking(stale)
	if !errors.Is(err, ErrTrackingVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	var count int64
	if err := db.Model(&models.TrackingEvent{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("conflicting commit leaked rows: %d events", count)
	}
}

func TestOrderRepositoryCommitTrackingDeleteEvent(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	order := createTestOrder(t, db, "TS20260301006", 0, "guest@example.com")

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := models.TrackingEvent{
		EventID:   uuid.NewString(),
		OrderID:   order.ID,
		Status:    "Shipped",
		Timestamp: ts,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event failed: %v", err)
	}

	err := repo.CommitTracking(TrackingChange{
		OrderID:       order.ID,
		Version:       order.TrackingVersion,
		DeleteEventID: event.ID,
		OrderUpdates:  map[string]interface{}{"status": constants.OrderStatusPending},
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	loaded, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if len(loaded.Tracking) != 0 {
		t.Fatalf("expected event deleted, got %d", len(loaded.Tracking))
	}
}

func TestOrderRepositoryResolveReceiverEmail(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)

	user := models.User{Email: "member@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	memberOrder := createTestOrder(t, db, "TS20260301007", user.ID, "")
	guestOrder := createTestOrder(t, db, "TS20260301008", 0, " guest@example.com ")

	email, err := repo.ResolveReceiverEmailByOrderID(memberOrder.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if email != "member@example.com" {
		t.Fatalf("unexpected member email: %q", email)
	}

	email, err = repo.ResolveReceiverEmailByOrderID(guestOrder.ID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if email != "guest@example.com" {
		t.Fatalf("unexpected guest email: %q", email)
	}

	email, err = repo.ResolveReceiverEmailByOrderID(0)
	if err != nil || email != "" {
		t.Fatalf("expected empty email for zero id, got %q err %v", email, err)
	}
}
