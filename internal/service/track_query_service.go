package service

import (
	"context"
	"strings"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/cache"
	"github.com/KhangTranManh/tech-store-sub000/internal/config"
	"github.com/KhangTranManh/tech-store-sub000/internal/logger"
	"github.com/KhangTranManh/tech-store-sub000/internal/repository"
	"github.com/KhangTranManh/tech-store-sub000/internal/tracking"
)

const defaultTrackCacheTTL = 60 * time.Second

// TrackQueryService 客户侧查单服务
type TrackQueryService struct {
	cfg       *config.Config
	orderRepo repository.OrderRepository
}

// NewTrackQueryService 创建客户侧查单服务
func NewTrackQueryService(cfg *config.Config, orderRepo repository.OrderRepository) *TrackQueryService {
	return &TrackQueryService{
		cfg:       cfg,
		orderRepo: orderRepo,
	}
}

// TrackResult 客户侧查单结果
type TrackResult struct {
	OrderNo        string                  `json:"order_no"`
	Status         string                  `json:"status"`
	Carrier        string                  `json:"carrier,omitempty"`
	TrackingNumber string                  `json:"tracking_number,omitempty"`
	Progress       []tracking.ProgressNode `json:"progress"`
}

// Query 按订单号加邮箱查询物流进度。
// 订单不存在与邮箱不匹配返回同一个 ErrOrderNotFound，不泄露订单存在性。
func (s *TrackQueryService) Query(ctx context.Context, orderNo, email string) (*TrackResult, error) {
	orderNo = strings.TrimSpace(orderNo)
	email = strings.TrimSpace(email)
	if orderNo == "" || email == "" {
		return nil, ErrOrderNotFound
	}

	cacheKey := TrackCacheKey(orderNo, email)
	var cached TrackResult
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		logger.Warnw("track_query_cache_read_failed", "order_no", orderNo, "error", err)
	} else if hit {
		return &cached, nil
	}

	order, err := s.orderRepo.GetByOrderNoAndEmail(orderNo, email)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	result := &TrackResult{
		OrderNo:        order.OrderNo,
		Status:         order.Status,
		Carrier:        order.Carrier,
		TrackingNumber: order.TrackingNumber,
		Progress:       tracking.ProjectProgress(order.Tracking),
	}

	if err := cache.SetJSON(ctx, cacheKey, result, s.cacheTTL()); err != nil {
		logger.Warnw("track_query_cache_write_failed", "order_no", orderNo, "error", err)
	}
	return result, nil
}

func (s *TrackQueryService) cacheTTL() time.Duration {
	if s.cfg != nil && s.cfg.Tracking.CacheTTLSeconds > 0 {
		return time.Duration(s.cfg.Tracking.CacheTTLSeconds) * time.Second
	}
	return defaultTrackCacheTTL
}
