package public

import (
	"errors"

	handlershared "github.com/KhangTranManh/tech-store-sub000/internal/http/handlers/shared"
	"github.com/KhangTranManh/tech-store-sub000/internal/http/response"
	"github.com/KhangTranManh/tech-store-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// 订单不存在与邮箱不匹配共用同一条规则，不向外暴露订单存在性。
var trackQueryErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
}

func respondTrackQueryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, trackQueryErrorRules, response.CodeInternal, "error.track_query_failed")
}
