package service

import (
	"strings"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/constants"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"
	"github.com/KhangTranManh/tech-store-sub000/internal/repository"
)

// OrderService 管理端订单查询服务
type OrderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// OrderListInput 管理端订单列表查询输入
type OrderListInput struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	GuestEmail  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ListAdmin 管理端订单列表
func (s *OrderService) ListAdmin(input OrderListInput) ([]models.Order, int64, error) {
	status := strings.TrimSpace(input.Status)
	if status != "" && !isValidOrderStatus(status) {
		return nil, 0, ErrOrderStatusInvalid
	}
	return s.orderRepo.ListAdmin(repository.OrderListFilter{
		Page:        input.Page,
		PageSize:    input.PageSize,
		UserID:      input.UserID,
		Status:      status,
		OrderNo:     strings.TrimSpace(input.OrderNo),
		GuestEmail:  strings.TrimSpace(input.GuestEmail),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
	})
}

// GetAdminDetail 管理端订单详情
func (s *OrderService) GetAdminDetail(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func isValidOrderStatus(status string) bool {
	for _, known := range constants.OrderStatuses {
		if status == known {
			return true
		}
	}
	return false
}
