package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/cache"
	"github.com/KhangTranManh/tech-store-sub000/internal/config"
	"github.com/KhangTranManh/tech-store-sub000/internal/constants"
	"github.com/KhangTranManh/tech-store-sub000/internal/logger"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"
	"github.com/KhangTranManh/tech-store-sub000/internal/repository"
	"github.com/KhangTranManh/tech-store-sub000/internal/tracking"

	"github.com/google/uuid"
)

const defaultTrackingRetryAttempts = 3

// trackingNotifier 物流通知入口，仅在新增事件后调用。
type trackingNotifier interface {
	NotifyTrackingUpdate(order *models.Order, event *models.TrackingEvent)
}

// TrackingService 物流事件写入与管理端投影服务
type TrackingService struct {
	cfg          *config.Config
	orderRepo    repository.OrderRepository
	notification trackingNotifier
}

// NewTrackingService 创建物流服务
func NewTrackingService(cfg *config.Config, orderRepo repository.OrderRepository, notification trackingNotifier) *TrackingService {
	return &TrackingService{
		cfg:          cfg,
		orderRepo:    orderRepo,
		notification: notification,
	}
}

// AddTrackingEventInput 新增物流事件输入
type AddTrackingEventInput struct {
	Status         string
	Location       string
	Description    string
	Carrier        string
	TrackingNumber string
	Timestamp      *time.Time
	UpdatedBy      string
	Notify         *bool
}

// UpdateTrackingEventInput 修改物流事件输入，nil 字段保持原值。
// 修改不触发通知，通知只在新增事件时发出。
type UpdateTrackingEventInput struct {
	Status      *string
	Location    *string
	Description *string
	Carrier     *string
	Timestamp   *time.Time
	UpdatedBy   string
}

// UpdateShippingInput 更新物流元信息输入
type UpdateShippingInput struct {
	Carrier        *string
	TrackingNumber *string
}

// AddEvent 新增物流事件并重新推导订单状态。
// 版本冲突时重读重试，重试耗尽返回 ErrTrackingConflict。
func (s *TrackingService) AddEvent(orderID uint, input AddTrackingEventInput) (*models.Order, *models.TrackingEvent, error) {
	status := strings.TrimSpace(input.Status)
	if status == "" {
		return nil, nil, ErrTrackingStatusRequired
	}
	if input.Timestamp != nil && input.Timestamp.IsZero() {
		return nil, nil, ErrTrackingTimestampInvalid
	}

	var created *models.TrackingEvent
	order, err := s.commitWithRetry(orderID, func(order *models.Order) (repository.TrackingChange, error) {
		now := time.Now().UTC()
		ts := now
		if input.Timestamp != nil {
			ts = input.Timestamp.UTC()
		}
		event := &models.TrackingEvent{
			EventID:     uuid.NewString(),
			Status:      status,
			Location:    strings.TrimSpace(input.Location),
			Description: strings.TrimSpace(input.Description),
			Carrier:     strings.TrimSpace(input.Carrier),
			Timestamp:   ts,
			UpdatedBy:   strings.TrimSpace(input.UpdatedBy),
		}
		created = event

		// 推导用的副本要占一个比现有事件都大的序号：
		// 同一时间戳并列时先插入者仍是权威事件，新事件不能凭零值主键抢先。
		shadow := *event
		shadow.ID = nextInsertionID(order.Tracking)
		projected := append(cloneEvents(order.Tracking), shadow)
		change := repository.TrackingChange{
			OrderID:      order.ID,
			Version:      order.TrackingVersion,
			CreateEvents: []*models.TrackingEvent{event},
			OrderUpdates: map[string]interface{}{},
		}
		if trackingNo := strings.TrimSpace(input.TrackingNumber); trackingNo != "" {
			change.OrderUpdates["tracking_number"] = trackingNo
		}
		if event.Carrier != "" && event.Carrier != order.Carrier {
			change.OrderUpdates["carrier"] = event.Carrier
		}
		applyDerivedStatus(&change, order, projected, now)
		return change, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.afterCommit(order, created, input.Notify)
	return order, created, nil
}

// UpdateEvent 按事件公开 ID 修改物流事件并重新推导订单状态
func (s *TrackingService) UpdateEvent(orderID uint, eventID string, input UpdateTrackingEventInput) (*models.Order, *models.TrackingEvent, error) {
	if input.Status != nil && strings.TrimSpace(*input.Status) == "" {
		return nil, nil, ErrTrackingStatusRequired
	}
	if input.Timestamp != nil && input.Timestamp.IsZero() {
		return nil, nil, ErrTrackingTimestampInvalid
	}

	var updated *models.TrackingEvent
	order, err := s.commitWithRetry(orderID, func(order *models.Order) (repository.TrackingChange, error) {
		index := findEventIndex(order.Tracking, eventID)
		if index < 0 {
			return repository.TrackingChange{}, ErrTrackingEventNotFound
		}

		now := time.Now().UTC()
		event := order.Tracking[index]
		if input.Status != nil {
			event.Status = strings.TrimSpace(*input.Status)
		}
		if input.Location != nil {
			event.Location = strings.TrimSpace(*input.Location)
		}
		if input.Description != nil {
			event.Description = strings.TrimSpace(*input.Description)
		}
		if input.Carrier != nil {
			event.Carrier = strings.TrimSpace(*input.Carrier)
		}
		if input.Timestamp != nil {
			event.Timestamp = input.Timestamp.UTC()
		}
		if by := strings.TrimSpace(input.UpdatedBy); by != "" {
			event.UpdatedBy = by
		}
		event.LastUpdated = &now
		updated = &event

		projected := cloneEvents(order.Tracking)
		projected[index] = event
		change := repository.TrackingChange{
			OrderID:      order.ID,
			Version:      order.TrackingVersion,
			UpdateEvent:  &event,
			OrderUpdates: map[string]interface{}{},
		}
		applyDerivedStatus(&change, order, projected, now)
		return change, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.invalidateTrackCache(order)
	return order, updated, nil
}

// DeleteEvent 删除物流事件并按剩余事件重新推导订单状态
func (s *TrackingService) DeleteEvent(orderID uint, eventID string) (*models.Order, error) {
	order, err := s.commitWithRetry(orderID, func(order *models.Order) (repository.TrackingChange, error) {
		index := findEventIndex(order.Tracking, eventID)
		if index < 0 {
			return repository.TrackingChange{}, ErrTrackingEventNotFound
		}

		projected := cloneEvents(order.Tracking)
		projected = append(projected[:index], projected[index+1:]...)
		change := repository.TrackingChange{
			OrderID:       order.ID,
			Version:       order.TrackingVersion,
			DeleteEventID: order.Tracking[index].ID,
			OrderUpdates:  map[string]interface{}{},
		}
		applyDerivedStatus(&change, order, projected, time.Now().UTC())
		return change, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTrackCache(order)
	return order, nil
}

// UpdateShipping 更新承运商与运单号
func (s *TrackingService) UpdateShipping(orderID uint, input UpdateShippingInput) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	updates := map[string]interface{}{}
	if input.Carrier != nil {
		updates["carrier"] = strings.TrimSpace(*input.Carrier)
	}
	if input.TrackingNumber != nil {
		updates["tracking_number"] = strings.TrimSpace(*input.TrackingNumber)
	}
	if len(updates) == 0 {
		return order, nil
	}
	if err := s.orderRepo.UpdateShipping(order.ID, updates); err != nil {
		return nil, err
	}

	s.invalidateTrackCache(order)
	return s.orderRepo.GetByID(orderID)
}

// Timeline 管理端时间线投影
func (s *TrackingService) Timeline(orderID uint) (*models.Order, []tracking.TimelineNode, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}
	return order, tracking.ProjectTimeline(order.Tracking, s.placeholderLabel()), nil
}

// commitWithRetry 读订单、构造变更、按版本号提交；冲突时重读重试。
func (s *TrackingService) commitWithRetry(orderID uint, build func(*models.Order) (repository.TrackingChange, error)) (*models.Order, error) {
	attempts := defaultTrackingRetryAttempts
	if s.cfg != nil && s.cfg.Tracking.RetryAttempts > 0 {
		attempts = s.cfg.Tracking.RetryAttempts
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}

		change, err := build(order)
		if err != nil {
			return nil, err
		}

		err = s.orderRepo.CommitTracking(change)
		if err == nil {
			return s.orderRepo.GetByID(orderID)
		}
		if !errors.Is(err, repository.ErrTrackingVersionConflict) {
			return nil, err
		}
		logger.Warnw("tracking_commit_version_conflict",
			"order_id", orderID,
			"attempt", attempt,
			"max_attempts", attempts,
		)
	}
	return nil, ErrTrackingConflict
}

// applyDerivedStatus 按投影后的事件集推导状态，变化时附带历史记录。
func applyDerivedStatus(change *repository.TrackingChange, order *models.Order, projected []models.TrackingEvent, now time.Time) {
	derived := tracking.Derive(projected, order.Status)
	if derived == order.Status {
		return
	}
	change.OrderUpdates["status"] = derived
	change.History = &models.StatusHistory{
		Status:    derived,
		Note:      constants.StatusHistoryNoteDerived,
		Timestamp: now,
	}
}

func (s *TrackingService) afterCommit(order *models.Order, event *models.TrackingEvent, notify *bool) {
	s.invalidateTrackCache(order)
	if order == nil || event == nil {
		return
	}
	send := s.cfg != nil && s.cfg.Tracking.NotifyByDefault
	if notify != nil {
		send = *notify
	}
	if send && s.notification != nil {
		s.notification.NotifyTrackingUpdate(order, event)
	}
}

func (s *TrackingService) invalidateTrackCache(order *models.Order) {
	if order == nil || !cache.Enabled() {
		return
	}
	email, err := s.orderRepo.ResolveReceiverEmailByOrderID(order.ID)
	if err != nil {
		logger.Warnw("tracking_cache_invalidate_resolve_failed", "order_id", order.ID, "error", err)
		return
	}
	if err := cache.Del(context.Background(), TrackCacheKey(order.OrderNo, email)); err != nil {
		logger.Warnw("tracking_cache_invalidate_failed", "order_id", order.ID, "error", err)
	}
}

func (s *TrackingService) placeholderLabel() string {
	if s.cfg != nil && strings.TrimSpace(s.cfg.Tracking.PlaceholderLabel) != "" {
		return s.cfg.Tracking.PlaceholderLabel
	}
	return "No tracking updates yet"
}

// TrackCacheKey 客户查单缓存键，订单号加归一化邮箱。
func TrackCacheKey(orderNo, email string) string {
	return fmt.Sprintf("track:%s:%s", strings.ToUpper(strings.TrimSpace(orderNo)), strings.ToLower(strings.TrimSpace(email)))
}

// nextInsertionID 返回大于现有所有事件主键的占位序号
func nextInsertionID(events []models.TrackingEvent) uint {
	var max uint
	for i := range events {
		if events[i].ID > max {
			max = events[i].ID
		}
	}
	return max + 1
}

func cloneEvents(events []models.TrackingEvent) []models.TrackingEvent {
	cloned := make([]models.TrackingEvent, len(events))
	copy(cloned, events)
	return cloned
}

func findEventIndex(events []models.TrackingEvent, eventID string) int {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return -1
	}
	for i := range events {
		if events[i].EventID == eventID {
			return i
		}
	}
	return -1
}
