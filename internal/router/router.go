package router

import (
	"fmt"
	"strings"

	"github.com/KhangTranManh/tech-store-sub000/internal/cache"
	"github.com/KhangTranManh/tech-store-sub000/internal/config"
	"github.com/KhangTranManh/tech-store-sub000/internal/constants"
	adminhandlers "github.com/KhangTranManh/tech-store-sub000/internal/http/handlers/admin"
	publichandlers "github.com/KhangTranManh/tech-store-sub000/internal/http/handlers/public"
	"github.com/KhangTranManh/tech-store-sub000/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 构建 HTTP 路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(zap.L()))
	r.Use(CORSMiddleware(cfg.CORS))

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	trackRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:track", redisPrefix),
		WindowSeconds: cfg.Security.TrackRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.TrackRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
	}

	api := r.Group("/api/v1")
	{
		public := api.Group("/public")
		{
			public.GET("/track", RateLimitMiddleware(redisClient, trackRule, KeyByIP), publicHandler.PublicTrack)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login",
				RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")),
				adminHandler.AdminLogin,
			)

			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/me", adminHandler.AdminProfile)

				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.GET("/orders/:id/tracking", adminHandler.AdminGetTrackingTimeline)
				authorized.POST("/orders/:id/tracking", adminHandler.AdminAddTrackingEvent)
				authorized.PUT("/orders/:id/tracking/:event_id", adminHandler.AdminUpdateTrackingEvent)
				authorized.DELETE("/orders/:id/tracking/:event_id", adminHandler.AdminDeleteTrackingEvent)
				authorized.PATCH("/orders/:id/shipping", adminHandler.AdminUpdateShipping)
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
