package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oleandersen/pickup-orders/internal/adapter/logger"
	"github.com/oleandersen/pickup-orders/internal/adapter/postgres"
	"github.com/oleandersen/pickup-orders/internal/adapter/rabbitmq"
	"github.com/oleandersen/pickup-orders/internal/adapter/rediscache"
	"github.com/oleandersen/pickup-orders/internal/app/checkout"
	"github.com/oleandersen/pickup-orders/internal/app/dashboard"
	"github.com/oleandersen/pickup-orders/internal/app/lifecycle"
	"github.com/oleandersen/pickup-orders/internal/app/timer"
	"github.com/oleandersen/pickup-orders/internal/config"

	amqpAdapter "github.com/oleandersen/pickup-orders/internal/adapter/amqp"
	httpAdapter "github.com/oleandersen/pickup-orders/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: order-service, dashboard-service, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "HTTP port override")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTPServer.Port = *port
	}

	ctx := context.Background()
	lgr := logger.New(*mode, cfg.Logger.Level)

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "order-service":
		runOrderService(ctx, cfg, db, mqConn, lgr)

	case "dashboard-service":
		runDashboardService(ctx, cfg, db, mqConn, lgr, *prefetch)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runOrderService(ctx context.Context, cfg *config.Config, db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger) {
	orderRepo := postgres.NewOrderRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	publisher := rabbitmq.NewPublisher(mqConn)

	checkoutService := checkout.NewService(orderRepo, scheduleRepo, publisher, lgr, cfg.LeadTime(), cfg.SlotInterval())
	checkoutHandler := httpAdapter.NewCheckoutHandler(checkoutService, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/pickup/options", checkoutHandler.PickupOptions)
	mux.HandleFunc("/orders", checkoutHandler.PlaceOrder)

	serveHTTP(cfg, mux, lgr, "Order Service")
}

func runDashboardService(ctx context.Context, cfg *config.Config, db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, prefetch int) {
	orderRepo := postgres.NewOrderRepository(db)
	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, prefetch)

	countdown, err := rediscache.NewCountdownCache(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer countdown.Close()

	lgr.Info("redis_connected", "Connected to Redis", "startup", map[string]interface{}{
		"host": cfg.Redis.Host,
	})

	manager := lifecycle.NewManager(orderRepo, publisher, lgr)
	coordinator := timer.NewCoordinator(manager, countdown, lgr)
	dashboardService := dashboard.NewService(manager, coordinator, orderRepo, countdown, lgr)

	if err := dashboardService.Rehydrate(ctx); err != nil {
		log.Fatalf("Failed to rehydrate timers: %v", err)
	}

	consumeCtx, cancelConsume := context.WithCancel(ctx)
	defer cancelConsume()

	orderHandlerAMQP := amqpAdapter.NewOrderHandler(dashboardService, lgr)
	go func() {
		if err := consumer.ConsumeOrders(consumeCtx, orderHandlerAMQP.HandleOrder); err != nil && consumeCtx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming orders", "runtime", nil, err)
		}
	}()

	dashboardHandler := httpAdapter.NewDashboardHandler(dashboardService, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders/", dashboardHandler.HandleOrders)

	serveHTTP(cfg, mux, lgr, "Dashboard Service")

	cancelConsume()
	dashboardService.Shutdown()
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	consumer := rabbitmq.NewConsumer(mqConn, 1)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	consumeCtx, cancelConsume := context.WithCancel(ctx)
	defer cancelConsume()

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	go func() {
		if err := consumer.ConsumeNotifications(consumeCtx, notificationHandler.HandleNotification); err != nil && consumeCtx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}

func serveHTTP(cfg *config.Config, mux *http.ServeMux, lgr logger.Logger, name string) {
	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	lgr.Info("service_started", fmt.Sprintf("%s started on port %d", name, cfg.HTTPServer.Port), "startup", map[string]interface{}{
		"port": cfg.HTTPServer.Port,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s", name), "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}
