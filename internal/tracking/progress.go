package tracking

import (
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/models"
)

// 进度节点状态
const (
	ProgressStateCompleted = "completed"
	ProgressStateCurrent   = "current"
	ProgressStateUpcoming  = "upcoming"
)

// ProgressNode 客户侧进度节点。
// Synthetic 为 true 表示该节点来自里程碑模板补齐，不对应真实事件。
type ProgressNode struct {
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	State       string     `json:"state"`
	Synthetic   bool       `json:"synthetic,omitempty"`
}

// ProjectProgress 把事件集合投影成客户侧进度视图。
// 真实事件按时间升序全部输出为 completed，标签原样保留；
// 若未出现 Delivered，则按里程碑模板补齐剩余节点：
// 与已输出标签完全一致的模板项跳过，其余第一个为 current，之后为 upcoming。
// 出现过 Delivered 时视为终态，不再补齐任何模板节点。
func ProjectProgress(events []models.TrackingEvent) []ProgressNode {
	sorted := sortChronological(events)

	nodes := make([]ProgressNode, 0, len(sorted)+len(CanonicalMilestones))
	emitted := make(map[string]bool, len(sorted))
	isDelivered := false
	for i := range sorted {
		event := sorted[i]
		ts := event.Timestamp
		nodes = append(nodes, ProgressNode{
			Label:       event.Status,
			Description: event.Description,
			Location:    event.Location,
			Timestamp:   &ts,
			State:       ProgressStateCompleted,
		})
		emitted[event.Status] = true
		if IsDeliveredLabel(event.Status) {
			isDelivered = true
		}
	}
	if isDelivered {
		return nodes
	}

	currentAssigned := false
	for _, label := range CanonicalMilestones {
		if emitted[label] {
			continue
		}
		state := ProgressStateUpcoming
		if !currentAssigned {
			state = ProgressStateCurrent
			currentAssigned = true
		}
		nodes = append(nodes, ProgressNode{
			Label:       label,
			Description: "Awaiting update",
			State:       state,
			Synthetic:   true,
		})
	}
	return nodes
}
