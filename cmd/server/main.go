package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zalama/config"
	"zalama/internal/database"
	"zalama/internal/docstore"
	"zalama/internal/lock"
	"zalama/internal/router"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg := config.Load()
	config.SetLogLevel(cfg.Server.LogLevel)
	log := config.GetLogger()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.Admin.Email, cfg.Admin.Password, log); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	var docs *mongo.Database
	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, d, err := docstore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			cancel()
			log.Fatalf("mongo: %v", err)
		}
		if err := docstore.EnsureIndexes(ctx, d); err != nil {
			log.Warnf("mongo indexes: %v", err)
		}
		cancel()
		defer client.Disconnect(context.Background())
		docs = d
	} else {
		log.Warn("MONGO_URI not set: message logs and campaign history disabled")
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnf("redis unreachable, payment locks stay in-process: %v", err)
		} else {
			locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		}
		cancel()
		defer rdb.Close()
	}

	engine := router.Setup(cfg, db, docs, locker, log)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Infof("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	log.Info("server stopped")
}
