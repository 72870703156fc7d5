package main

import (
	"fmt"
	"time"

	"github.com/KhangTranManh/tech-store-sub000/internal/config"
	"github.com/KhangTranManh/tech-store-sub000/internal/constants"
	"github.com/KhangTranManh/tech-store-sub000/internal/logger"
	"github.com/KhangTranManh/tech-store-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示用户
	demoUser := models.User{
		Email:  "alice@example.com",
		Name:   "Alice",
		Locale: constants.LocaleEnUS,
	}
	var existingUser models.User
	if err := models.DB.Where("email = ?", demoUser.Email).First(&existingUser).Error; err != nil {
		if err := models.DB.Create(&demoUser).Error; err != nil {
			stdLog.Fatalf("Failed to create demo user: %v", err)
		}
		stdLog.Printf("Created user: %s", demoUser.Email)
	} else {
		demoUser = existingUser
		stdLog.Printf("User already exists: %s", demoUser.Email)
	}

	now := time.Now().UTC()

	// 演示订单与物流事件：覆盖待处理、已发货、运输中、已签收几种状态
	type eventSeed struct {
		Status      string
		Location    string
		Description string
		Carrier     string
		AgeHours    int
	}
	orderSeeds := []struct {
		OrderNo    string
		UserID     uint
		GuestEmail string
		Status     string
		Amount     float64
		Events     []eventSeed
	}{
		{
			OrderNo: "TS20260801-0001",
			UserID:  demoUser.ID,
			Status:  constants.OrderStatusPending,
			Amount:  99.99,
			Events:  nil,
		},
		{
			OrderNo: "TS20260801-0002",
			UserID:  demoUser.ID,
			Status:  constants.OrderStatusShipped,
			Amount:  199.99,
			Events: []eventSeed{
				{Status: "Order Placed", Location: "Online", Description: "Order received", AgeHours: 72},
				{Status: "Order Processed", Location: "Warehouse A", Description: "Packed and labeled", AgeHours: 60},
				{Status: "Shipped", Location: "Warehouse A", Description: "Handed to carrier", Carrier: "DHL", AgeHours: 48},
			},
		},
		{
			OrderNo:    "TS20260801-0003",
			GuestEmail: "guest@example.com",
			Status:     constants.OrderStatusShipped,
			Amount:     49.99,
			Events: []eventSeed{
				{Status: "Order Placed", Location: "Online", Description: "Order received", AgeHours: 96},
				{Status: "Shipped", Location: "Warehouse B", Carrier: "UPS", AgeHours: 70},
				{Status: "In Transit", Location: "Chicago Hub", Description: "Departed sorting facility", Carrier: "UPS", AgeHours: 40},
				{Status: "Customs Clearance", Location: "O'Hare", Description: "Held for inspection", Carrier: "UPS", AgeHours: 30},
			},
		},
		{
			OrderNo: "TS20260801-0004",
			UserID:  demoUser.ID,
			Status:  constants.OrderStatusDelivered,
			Amount:  79.99,
			Events: []eventSeed{
				{Status: "Order Placed", Location: "Online", AgeHours: 168},
				{Status: "Order Processed", Location: "Warehouse A", AgeHours: 150},
				{Status: "Shipped", Location: "Warehouse A", Carrier: "FedEx", AgeHours: 140},
				{Status: "In Transit", Location: "Memphis Hub", Carrier: "FedEx", AgeHours: 100},
				{Status: "Out for Delivery", Location: "Local Depot", Carrier: "FedEx", AgeHours: 80},
				{Status: "Delivered", Location: "Front Door", Description: "Signed by recipient", Carrier: "FedEx", AgeHours: 78},
			},
		},
	}

	for _, seed := range orderSeeds {
		var existing models.Order
		if err := models.DB.Where("order_no = ?", seed.OrderNo).First(&existing).Error; err == nil {
			stdLog.Printf("Order already exists: %s", seed.OrderNo)
			continue
		}

		order := models.Order{
			OrderNo:     seed.OrderNo,
			UserID:      seed.UserID,
			GuestEmail:  seed.GuestEmail,
			Status:      seed.Status,
			Currency:    "USD",
			TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(seed.Amount)),
		}
		if len(seed.Events) > 0 {
			last := seed.Events[len(seed.Events)-1]
			order.Carrier = last.Carrier
			order.TrackingVersion = uint64(len(seed.Events))
		}
		if err := models.DB.Create(&order).Error; err != nil {
			stdLog.Printf("Failed to create order %s: %v", seed.OrderNo, err)
			continue
		}

		for _, ev := range seed.Events {
			event := models.TrackingEvent{
				EventID:     uuid.NewString(),
				OrderID:     order.ID,
				Status:      ev.Status,
				Location:    ev.Location,
				Description: ev.Description,
				Carrier:     ev.Carrier,
				Timestamp:   now.Add(-time.Duration(ev.AgeHours) * time.Hour),
				UpdatedBy:   "seed",
			}
			if err := models.DB.Create(&event).Error; err != nil {
				stdLog.Printf("Failed to create tracking event for %s: %v", seed.OrderNo, err)
			}
		}
		stdLog.Printf("Created order: %s (%d tracking events)", seed.OrderNo, len(seed.Events))
	}

	fmt.Println("\n✅ Demo data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 1 User (alice@example.com)")
	fmt.Println("- 4 Orders (pending / shipped / in-transit guest / delivered)")
	fmt.Println("- Tracking events per order")
}
