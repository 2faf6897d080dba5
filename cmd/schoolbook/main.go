package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/schoolbook/schoolbook/adapters/events"
	"github.com/schoolbook/schoolbook/adapters/images"
	"github.com/schoolbook/schoolbook/adapters/notifier"
	"github.com/schoolbook/schoolbook/adapters/store"
	"github.com/schoolbook/schoolbook/adapters/tokenizer"
	"github.com/schoolbook/schoolbook/config"
	"github.com/schoolbook/schoolbook/internal/logger"
	"github.com/schoolbook/schoolbook/internal/rate"
	"github.com/schoolbook/schoolbook/ports"
	"github.com/schoolbook/schoolbook/service"
	"github.com/schoolbook/schoolbook/transport/http"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer logger.Sync()
	zlog := logger.L()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var (
		credStore   ports.CredentialStore
		schoolStore ports.SchoolStore
	)
	if cfg.Storage.DSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Storage.DSN)
		if err != nil {
			zlog.Fatal("connect postgres", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			zlog.Fatal("apply migrations", zap.Error(err))
		}
		credStore, schoolStore = pg, pg
	} else {
		zlog.Warn("no storage DSN configured, using the in-memory store")
		ms := store.NewMemoryStore()
		credStore, schoolStore = ms, ms
	}

	authOpts := []service.Option{
		service.WithChallengeTTL(cfg.OTPTTL()),
		service.WithSessionTTL(cfg.SessionTTL()),
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zlog.Fatal("connect redis", zap.Error(err))
		}

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			zlog.Fatal("create event publisher", zap.Error(err))
		}
		authOpts = append(authOpts, service.WithEvents(events.NewWatermillPublisher(publisher)))

		if cfg.Rate.Enabled {
			limiter := rate.NewRedisLimiter(redisClient, cfg.Redis.Prefix+"otp:", cfg.Rate.Limit, cfg.RateWindow())
			authOpts = append(authOpts, service.WithLimiter(limiter))
		}
	} else if cfg.Rate.Enabled {
		authOpts = append(authOpts, service.WithLimiter(rate.NewMemoryLimiter(cfg.Rate.Limit, cfg.RateWindow())))
	}

	mailer := notifier.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)

	authService := service.NewAuthService(
		credStore,
		tokenizer.NewJWTTokenizer([]byte(cfg.JWT.Secret)),
		mailer,
		authOpts...,
	)
	schoolService := service.NewSchoolService(
		schoolStore,
		images.NewCloudinaryStore(cfg.Cloudinary.CloudName, cfg.Cloudinary.UploadPreset),
	)

	router := http.SetupRouter(authService, schoolService)

	zlog.Info("server starting", zap.String("addr", cfg.Server.Addr))
	if err := router.Run(cfg.Server.Addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
