package queue

import (
	"encoding/json"

	"github.com/KhangTranManh/tech-store-sub000/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskTrackingNotification 物流更新邮件通知任务
	TaskTrackingNotification = constants.TaskTrackingNotification
)

// TrackingNotificationPayload 物流更新通知任务载荷
type TrackingNotificationPayload struct {
	OrderID     uint   `json:"order_id"`
	OrderNo     string `json:"order_no"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	TrackingURL string `json:"tracking_url,omitempty"`
}

// NewTrackingNotificationTask 创建物流更新通知任务
func NewTrackingNotificationTask(payload TrackingNotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrackingNotification, body), nil
}
