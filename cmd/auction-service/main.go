package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"online-auction/internal/api/handlers"
	"online-auction/internal/config"
	"online-auction/internal/domain"
	"online-auction/internal/infrastructure/mysql"
	redisinfra "online-auction/internal/infrastructure/redis"
	wsinfra "online-auction/internal/infrastructure/websocket"
	"online-auction/internal/live"
	"online-auction/internal/services"
	"online-auction/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting auction service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Repositories
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	schedulerRepo := mysql.NewMySQLSchedulerRepository(db)

	// Increment rules live in Redis, seeded with defaults on first run.
	rules := redisinfra.NewBiddingRules(rdb)
	if err := rules.LoadRules(ctx); err != nil {
		log.Error("Failed to load validation rules", "error", err)
		os.Exit(1)
	}

	var eventPublisher domain.EventPublisher = redisinfra.NewEventPublisher(rdb)

	// Committed events go to the durable bid log and pub/sub, off the
	// rooms' serialized path.
	sink := func(ctx context.Context, event *domain.BidEvent) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := bidRepo.SaveBidEvent(ctx, event); err != nil {
			log.Error("Failed to save bid event", "auction_id", event.AuctionID,
				"sequence", event.Sequence, "error", err)
		}
		if err := eventPublisher.PublishBidEvent(ctx, event); err != nil {
			log.Error("Failed to publish bid event", "auction_id", event.AuctionID,
				"sequence", event.Sequence, "error", err)
		}
	}

	// Live core
	dispatcher := live.NewDispatcher(log)
	registry := live.NewRegistry(auctionRepo, rules, dispatcher, sink,
		cfg.Room.IdleGrace, cfg.Room.JanitorInterval, log)
	lifecycle := live.NewLifecycleManager(registry, dispatcher, log)
	coordinator := live.NewCoordinator(registry, lifecycle, log)

	registry.Start()
	defer registry.Stop()

	// CRUD orchestration + close scheduler
	auctionManager := services.NewAuctionManager(auctionRepo, bidRepo, coordinator, log)
	scheduler := services.NewCronAuctionScheduler(schedulerRepo, auctionManager, log)
	auctionManager.SetScheduler(scheduler)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET, echo.HEAD, echo.PUT, echo.PATCH,
			echo.POST, echo.DELETE, echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Handlers and routes
	auctionHandler := handlers.NewAuctionHandler(auctionManager, coordinator, log)
	wsHandler := wsinfra.NewHandler(coordinator, cfg.Room.JoinTimeout,
		cfg.Room.SendBuffer, cfg.Room.WriteTimeout, log)

	api := e.Group("/api/v1")
	api.POST("/auctions", auctionHandler.CreateAuction)
	api.GET("/auctions/:id", auctionHandler.GetAuction)
	api.POST("/auctions/:id/bids", auctionHandler.PlaceBid)
	api.GET("/auctions/:id/bids", auctionHandler.GetBidHistory)

	e.GET("/ws/auctions", wsHandler.HandleConnection)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auction-service",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Start background services
	go func() {
		if err := scheduler.Start(context.Background()); err != nil {
			log.Error("Failed to start scheduler", "error", err)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down auction service...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}
	registry.Stop()

	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Auction service stopped")
}
