package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/realtime-service/internal/auth"
	"github.com/fathima-sithara/realtime-service/internal/call"
	"github.com/fathima-sithara/realtime-service/internal/chat"
	"github.com/fathima-sithara/realtime-service/internal/config"
	"github.com/fathima-sithara/realtime-service/internal/handlers"
	"github.com/fathima-sithara/realtime-service/internal/kafka"
	"github.com/fathima-sithara/realtime-service/internal/logger"
	"github.com/fathima-sithara/realtime-service/internal/membership"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/router"
	"github.com/fathima-sithara/realtime-service/internal/storage"
	"github.com/fathima-sithara/realtime-service/internal/story"
	"github.com/fathima-sithara/realtime-service/internal/ws"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.Development})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	store, mongoClient, err := repository.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		zl.Fatalw("mongo connect", "err", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Warnw("redis unavailable, presence mirror disabled", "err", err)
			rdb = nil
		}
	}

	var producer chat.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kp.Close() }()
		producer = kp
	}

	var blobs storage.BlobStore
	blobs, err = storage.NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.PublicRead)
	if err != nil {
		zl.Fatalw("s3 init", "err", err)
	}

	reg := registry.New(rdb, cfg.Redis.Prefix)
	preview := chat.NewPreviewer()

	chats := chat.NewPipeline(store, blobs, reg, producer, preview, cfg.Assistant.UserID, zl)
	stories := story.NewPipeline(store, blobs, reg, preview, zl)
	members := membership.NewManager(store, reg, zl)
	chats.SetInviter(members)
	calls := call.NewSignaler(store, reg, zl)
	sweeper := call.NewSweeper(store, reg, zl)

	r := router.New(zl)
	handlers.Register(r, &handlers.Deps{
		Store:   store,
		Reg:     reg,
		Chats:   chats,
		Stories: stories,
		Members: members,
		Calls:   calls,
		Log:     zl,
	})

	jv := auth.NewJWTValidator(cfg.JWT.Secret)
	app := ws.NewServer(cfg, reg, r, jv, sweeper, zl).App()

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		zl.Infow("listening", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case e := <-errs:
		zl.Fatalw("server error", "err", e)
	case s := <-sig:
		zl.Infow("signal received", "signal", s.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Errorw("shutdown", "err", err)
	}
}
