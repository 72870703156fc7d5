package tracking

import (
	"sort"

	"github.com/KhangTranManh/tech-store-sub000/internal/constants"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"
)

// Authoritative 返回权威事件：时间戳最大者；时间戳相同时主键最小（先插入）者。
// events 为空时返回 nil。
func Authoritative(events []models.TrackingEvent) *models.TrackingEvent {
	var winner *models.TrackingEvent
	for i := range events {
		event := &events[i]
		if winner == nil {
			winner = event
			continue
		}
		if event.Timestamp.After(winner.Timestamp) {
			winner = event
			continue
		}
		if event.Timestamp.Equal(winner.Timestamp) && event.ID < winner.ID {
			winner = event
		}
	}
	return winner
}

// Derive 从事件集合推导订单粗粒度状态。
// 规则：事件为空回落 pending；否则取权威事件的标签查里程碑映射，
// 未命中映射时维持 current 不变（自定义标签软失败）。
func Derive(events []models.TrackingEvent, current string) string {
	if len(events) == 0 {
		return constants.OrderStatusPending
	}
	winner := Authoritative(events)
	if status, ok := StatusForLabel(winner.Status); ok {
		return status
	}
	return current
}

// sortChronological 返回按时间升序的事件副本，时间相同保持插入顺序。
func sortChronological(events []models.TrackingEvent) []models.TrackingEvent {
	sorted := make([]models.TrackingEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
