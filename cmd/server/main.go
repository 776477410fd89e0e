package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/avelarde/storefront/internal/adapter/broadcast"
	"github.com/avelarde/storefront/internal/adapter/handler"
	"github.com/avelarde/storefront/internal/adapter/storage"
	checkoutsqlite "github.com/avelarde/storefront/internal/checkoutlog/sqlite"
	"github.com/avelarde/storefront/internal/config"
	"github.com/avelarde/storefront/internal/core/service"
	"github.com/avelarde/storefront/internal/metrics"
	"github.com/avelarde/storefront/internal/telemetry"
)

func main() {
	cfg := config.Load()

	log, err := telemetry.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL holds products, carts and the ticket ledger.
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal("failed to open mysql", "error", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping mysql", "error", err)
	}
	if err := storage.ApplySchema(ctx, db); err != nil {
		log.Fatal("failed to apply schema", "error", err)
	}
	log.Info("connected to mysql")

	// Redis carries the realtime catalog channel.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect redis", "error", err)
	}
	log.Info("connected to redis")

	// Append-only checkout attempt log.
	if err := os.MkdirAll(filepath.Dir(cfg.CheckoutLogPath), 0o755); err != nil {
		log.Fatal("failed to create checkout log dir", "error", err)
	}
	attempts, err := checkoutsqlite.Open(cfg.CheckoutLogPath)
	if err != nil {
		log.Fatal("failed to open checkout log", "error", err)
	}
	log.Info("checkout log ready", "path", cfg.CheckoutLogPath)

	productRepo := storage.NewProductAdapter(db)
	cartRepo := storage.NewCartAdapter(db)
	ticketRepo := storage.NewTicketAdapter(db)
	bus := broadcast.NewRedisBus(rdb, cfg.RedisChannel)

	reg := metrics.NewRegistry()

	productService := service.NewProductService(productRepo, bus, log)
	cartService := service.NewCartService(cartRepo, productRepo, log)
	ticketService := service.NewTicketService(ticketRepo)
	checkoutService := service.NewCheckoutService(cartRepo, productRepo, ticketRepo, bus, attempts, reg, log)

	h := handler.New(productService, cartService, ticketService, checkoutService, log)
	router := handler.NewRouter(h, cfg.JWTSecret, reg.Handler(), log)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("http server stopped")

	bus.Close()
	attempts.Close()
	db.Close()
	log.Info("connections closed")
}
