package admin

import (
	"errors"
	"strings"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/http/response"
	"github.com/KhangTranManh/tech-store-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackingEventRequest 新增物流事件请求
type TrackingEventRequest struct {
	Status         string `json:"status" binding:"required"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	Timestamp      string `json:"timestamp"` // RFC3339，缺省为当前时间
	Notify         *bool  `json:"notify"`
}

// TrackingEventPatchRequest 修改物流事件请求，缺省字段保持原值。
// 修改不支持 notify，通知只随新增事件发出。
type TrackingEventPatchRequest struct {
	Status      *string `json:"status"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Carrier     *string `json:"carrier"`
	Timestamp   *string `json:"timestamp"`
}

// ShippingRequest 更新物流元信息请求
type ShippingRequest struct {
	Carrier        *string `json:"carrier"`
	TrackingNumber *string `json:"tracking_number"`
}

// AdminAddTrackingEvent 新增物流事件
func (h *Handler) AdminAddTrackingEvent(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req TrackingEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	timestamp, ok := parseEventTimestamp(c, req.Timestamp)
	if !ok {
		return
	}

	adminName := adminDisplayName(c)
	order, event, err := h.TrackingService.AddEvent(orderID, service.AddTrackingEventInput{
		Status:         req.Status,
		Location:       req.Location,
		Description:    req.Description,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		Timestamp:      timestamp,
		UpdatedBy:      adminName,
		Notify:         req.Notify,
	})
	if err != nil {
		respondTrackingError(c, err, "error.tracking_add_failed")
		return
	}

	requestLog(c).Infow("tracking_event_added",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"event_id", event.EventID,
		"status", event.Status,
		"derived_status", order.Status,
	)
	response.Success(c, gin.H{
		"event": event,
		"order": order,
	})
}

// AdminUpdateTrackingEvent 修改物流事件
func (h *Handler) AdminUpdateTrackingEvent(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	eventID := strings.TrimSpace(c.Param("event_id"))
	if eventID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req TrackingEventPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var timestamp *time.Time
	if req.Timestamp != nil {
		parsed, ok := parseEventTimestamp(c, *req.Timestamp)
		if !ok {
			return
		}
		if parsed == nil {
			respondError(c, response.CodeBadRequest, "error.tracking_timestamp_invalid", nil)
			return
		}
		timestamp = parsed
	}

	adminName := adminDisplayName(c)
	order, event, err := h.TrackingService.UpdateEvent(orderID, eventID, service.UpdateTrackingEventInput{
		Status:      req.Status,
		Location:    req.Location,
		Description: req.Description,
		Carrier:     req.Carrier,
		Timestamp:   timestamp,
		UpdatedBy:   adminName,
	})
	if err != nil {
		respondTrackingError(c, err, "error.tracking_update_failed")
		return
	}

	requestLog(c).Infow("tracking_event_updated",
		"order_id", order.ID,
		"event_id", event.EventID,
		"derived_status", order.Status,
	)
	response.Success(c, gin.H{
		"event": event,
		"order": order,
	})
}

// AdminDeleteTrackingEvent 删除物流事件
func (h *Handler) AdminDeleteTrackingEvent(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	eventID := strings.TrimSpace(c.Param("event_id"))
	if eventID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	order, err := h.TrackingService.DeleteEvent(orderID, eventID)
	if err != nil {
		respondTrackingError(c, err, "error.tracking_delete_failed")
		return
	}

	requestLog(c).Infow("tracking_event_deleted",
		"order_id", order.ID,
		"event_id", eventID,
		"derived_status", order.Status,
	)
	response.Success(c, gin.H{"order": order})
}

// AdminGetTrackingTimeline 管理端时间线
func (h *Handler) AdminGetTrackingTimeline(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, nodes, err := h.TrackingService.Timeline(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"order_no": order.OrderNo,
		"status":   order.Status,
		"timeline": nodes,
	})
}

// AdminUpdateShipping 更新承运商与运单号
func (h *Handler) AdminUpdateShipping(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req ShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.TrackingService.UpdateShipping(orderID, service.UpdateShippingInput{
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.shipping_update_failed", err)
		return
	}
	response.Success(c, order)
}

// respondTrackingError 物流写入错误到业务码的统一映射
func respondTrackingError(c *gin.Context, err error, internalKey string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(c, response.CodeNotFound, "error.order_not_found", nil)
	case errors.Is(err, service.ErrTrackingEventNotFound):
		respondError(c, response.CodeNotFound, "error.tracking_event_not_found", nil)
	case errors.Is(err, service.ErrTrackingStatusRequired):
		respondError(c, response.CodeBadRequest, "error.tracking_status_required", nil)
	case errors.Is(err, service.ErrTrackingTimestampInvalid):
		respondError(c, response.CodeBadRequest, "error.tracking_timestamp_invalid", nil)
	case errors.Is(err, service.ErrTrackingConflict):
		respondError(c, response.CodeConflict, "error.tracking_conflict", err)
	default:
		respondError(c, response.CodeInternal, internalKey, err)
	}
}

func parseEventTimestamp(c *gin.Context, raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.tracking_timestamp_invalid", err)
		return nil, false
	}
	return &parsed, true
}

func adminDisplayName(c *gin.Context) string {
	if value, ok := c.Get("admin_username"); ok {
		if name, ok := value.(string); ok {
			return name
		}
	}
	return ""
}
