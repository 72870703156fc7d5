package provider

import (
	"github.com/KhangTranManh/tech-store-sub000/internal/cache"
	"github.com/KhangTranManh/tech-store-sub000/internal/config"
	"github.com/KhangTranManh/tech-store-sub000/internal/logger"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"
	"github.com/KhangTranManh/tech-store-sub000/internal/queue"
	"github.com/KhangTranManh/tech-store-sub000/internal/repository"
	"github.com/KhangTranManh/tech-store-sub000/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo repository.AdminRepository
	UserRepo  repository.UserRepository
	OrderRepo repository.OrderRepository

	// Services
	AuthService         *service.AuthService
	EmailService        *service.EmailService
	OrderService        *service.OrderService
	TrackingService     *service.TrackingService
	TrackQueryService   *service.TrackQueryService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.OrderService = service.NewOrderService(c.OrderRepo)
	c.NotificationService = service.NewNotificationService(c.Config, c.QueueClient)
	c.TrackingService = service.NewTrackingService(c.Config, c.OrderRepo, c.NotificationService)
	c.TrackQueryService = service.NewTrackQueryService(c.Config, c.OrderRepo)
}

// Close 释放容器持有的资源
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
}
