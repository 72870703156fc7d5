package repository

import (
	"errors"
	"strings"

	"github.com/KhangTranManh/tech-store-sub000/internal/models"

	"gorm.io/gorm"
)

// ErrTrackingVersionConflict 物流版本号比对失败（并发写冲突）
var ErrTrackingVersionConflict = errors.New("tracking version conflict")

// TrackingChange 一次物流写入的全部内容，事务内原子提交。
// Version 为调用方读取订单时看到的 tracking_version，提交时比对。
type TrackingChange struct {
	OrderID       uint
	Version       uint64
	CreateEvents  []*models.TrackingEvent
	UpdateEvent   *models.TrackingEvent
	DeleteEventID uint
	OrderUpdates  map[string]interface{}
	History       *models.StatusHistory
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetByOrderNoAndEmail(orderNo, email string) (*models.Order, error)
	ResolveReceiverEmailByOrderID(orderID uint) (string, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	CommitTracking(change TrackingChange) error
	UpdateShipping(id uint, updates map[string]interface{}) error
	Create(order *models.Order) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withTracking(query *gorm.DB) *gorm.DB {
	// 事件按主键升序加载，时间相同保持插入顺序
	return query.
		Preload("Tracking", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		})
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单（含物流事件与状态历史）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withTracking(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNoAndEmail 客户查单：订单号加邮箱双因子匹配。
// 邮箱先比对订单归属用户，再比对游客邮箱；不匹配与不存在统一返回 nil。
func (r *GormOrderRepository) GetByOrderNoAndEmail(orderNo, email string) (*models.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if orderNo == "" || email == "" {
		return nil, nil
	}

	var order models.Order
	if err := r.withTracking(r.db).Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	owner, err := r.resolveOwnerEmail(&order)
	if err != nil {
		return nil, err
	}
	if owner == "" || owner != email {
		return nil, nil
	}
	return &order, nil
}

func (r *GormOrderRepository) resolveOwnerEmail(order *models.Order) (string, error) {
	if order.UserID == 0 {
		return strings.ToLower(strings.TrimSpace(order.GuestEmail)), nil
	}
	var userRow struct {
		Email string
	}
	if err := r.db.Model(&models.User{}).
		Select("email").
		Where("id = ?", order.UserID).
		Take(&userRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(userRow.Email)), nil
}

// ResolveReceiverEmailByOrderID 根据订单 ID 解析状态通知的收件邮箱。
func (r *GormOrderRepository) ResolveReceiverEmailByOrderID(orderID uint) (string, error) {
	if orderID == 0 {
		return "", nil
	}

	var orderRow struct {
		UserID     uint
		GuestEmail string
	}
	if err := r.db.Model(&models.Order{}).
		Select("user_id", "guest_email").
		Where("id = ?", orderID).
		Take(&orderRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if orderRow.UserID == 0 {
		return strings.TrimSpace(orderRow.GuestEmail), nil
	}

	var userRow struct {
		Email string
	}
	if err := r.db.Model(&models.User{}).
		Select("email").
		Where("id = ?", orderRow.UserID).
		Take(&userRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(userRow.Email), nil
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.GuestEmail != "" {
		query = query.Where("guest_email = ?", filter.GuestEmail)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := r.withTracking(query).Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CommitTracking 原子提交一次物流写入。
// 先以版本号条件更新订单行，RowsAffected 为 0 时回滚并返回
// ErrTrackingVersionConflict，由调用方决定是否重读重试。
func (r *GormOrderRepository) CommitTracking(change TrackingChange) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"tracking_version": change.Version + 1,
		}
		for key, value := range change.OrderUpdates {
			updates[key] = value
		}

		result := tx.Model(&models.Order{}).
			Where("id = ? AND tracking_version = ?", change.OrderID, change.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTrackingVersionConflict
		}

		for _, event := range change.CreateEvents {
			event.OrderID = change.OrderID
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}
		if change.UpdateEvent != nil {
			if err := tx.Save(change.UpdateEvent).Error; err != nil {
				return err
			}
		}
		if change.DeleteEventID != 0 {
			if err := tx.
				Where("id = ? AND order_id = ?", change.DeleteEventID, change.OrderID).
				Delete(&models.TrackingEvent{}).Error; err != nil {
				return err
			}
		}
		if change.History != nil {
			change.History.OrderID = change.OrderID
			if err := tx.Create(change.History).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateShipping 更新承运商与运单号等物流元信息
func (r *GormOrderRepository) UpdateShipping(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}
