package tracking

import (
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/models"
)

// TimelineNode 管理端时间线节点
type TimelineNode struct {
	EventID     string     `json:"event_id,omitempty"`
	Status      string     `json:"status"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	Carrier     string     `json:"carrier,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Completed   bool       `json:"completed"`
	Active      bool       `json:"active"`
	Placeholder bool       `json:"placeholder,omitempty"` // 占位节点，不对应真实事件
}

// ProjectTimeline 把事件集合投影成管理端时间线。
// 事件按时间升序排列；出现过 Delivered 时全部标记完成，
// 否则最后一个节点为 active，其余为 completed。
// 没有任何事件时返回单个占位节点，便于前端区分“无记录”和“一条记录”。
func ProjectTimeline(events []models.TrackingEvent, placeholderLabel string) []TimelineNode {
	if len(events) == 0 {
		if placeholderLabel == "" {
			placeholderLabel = "No tracking updates yet"
		}
		return []TimelineNode{{
			Status:      placeholderLabel,
			Placeholder: true,
		}}
	}

	sorted := sortChronological(events)
	isDelivered := false
	for i := range sorted {
		if IsDeliveredLabel(sorted[i].Status) {
			isDelivered = true
			break
		}
	}

	nodes := make([]TimelineNode, 0, len(sorted))
	for i := range sorted {
		event := sorted[i]
		ts := event.Timestamp
		nodes = append(nodes, TimelineNode{
			EventID:     event.EventID,
			Status:      event.Status,
			Location:    event.Location,
			Description: event.Description,
			Carrier:     event.Carrier,
			Timestamp:   &ts,
			Completed:   isDelivered || i < len(sorted)-1,
			Active:      !isDelivered && i == len(sorted)-1,
		})
	}
	return nodes
}
