package public

import (
	"strings"

	"github.com/KhangTranManh/tech-store-sub000/internal/http/response"

	"github.com/gin-gonic/gin"
)

// PublicTrack 客户查单：订单号加邮箱返回进度视图
func (h *Handler) PublicTrack(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Query("order_no"))
	email := strings.TrimSpace(c.Query("email"))
	if orderNo == "" || email == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.TrackQueryService.Query(c.Request.Context(), orderNo, email)
	if err != nil {
		respondTrackQueryError(c, err)
		return
	}
	response.Success(c, result)
}
