package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Chijioke91/Task-Api/internal/avatar"
	"github.com/Chijioke91/Task-Api/internal/cache"
	"github.com/Chijioke91/Task-Api/internal/config"
	"github.com/Chijioke91/Task-Api/internal/database"
	"github.com/Chijioke91/Task-Api/internal/handlers"
	"github.com/Chijioke91/Task-Api/internal/notify"
	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/Chijioke91/Task-Api/internal/storage"
	"github.com/Chijioke91/Task-Api/internal/websocket"
	"github.com/Chijioke91/Task-Api/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *database.Database
	Redis    *redis.Client
	Hub      *websocket.Hub
	Notifier *notify.Notifier
	Avatars  *avatar.Pool
	Logger   *slog.Logger
}

func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	var (
		rdb         *redis.Client
		revocations services.RevocationCache
	)
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = cache.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		revocations = cache.NewBlacklist(rdb)
	} else {
		logger.Info("REDIS_URL not set, token revocation relies on the database only")
	}

	store, err := newAvatarStore(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	notifier := notify.NewNotifier(newMailer(cfg, logger), logger, notify.Options{Workers: cfg.NotifyWorkers})
	pool := avatar.NewPool(cfg.AvatarWorkers, nil)

	hub := websocket.NewHub(logger.With("component", "events"))
	go hub.Run()

	tokens := services.NewTokenService(db, jwtMgr, revocations, hub, logger)
	users := services.NewUserService(db, tokens, store, notifier, hub, logger)
	avatars := services.NewAvatarService(store, pool, hub)
	tasks := services.NewTaskService(db, hub)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	APIEndpoints(router, Handlers{
		Auth:      handlers.NewAuthHandler(users, tokens, logger),
		User:      handlers.NewUserHandler(users, logger),
		Avatar:    handlers.NewAvatarHandler(avatars, logger),
		Task:      handlers.NewTaskHandler(tasks, logger),
		WebSocket: handlers.NewWebSocketHandler(hub, logger),
		Health:    handlers.NewHealthHandler(db, logger),
	}, tokens)

	return &Server{
		Config:   cfg,
		Router:   router,
		DB:       db,
		Redis:    rdb,
		Hub:      hub,
		Notifier: notifier,
		Avatars:  pool,
		Logger:   logger,
	}, nil
}

// Run слушает порт до SIGINT/SIGTERM, затем аккуратно всё останавливает
func (s *Server) Run() error {
	httpSrv := &http.Server{
		Addr:              ":" + s.Config.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("server starting", "port", s.Config.Port, "env", s.Config.Env)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		s.Logger.Info("shutting down", "signal", sig.String())
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("listen: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		s.Logger.Error("http shutdown", "error", err)
	}
	s.Hub.Stop()
	if err := s.Notifier.Close(ctx); err != nil {
		s.Logger.Warn("notification queue not drained", "error", err)
	}
	s.Avatars.Close()
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Warn("redis close", "error", err)
		}
	}
	if err := s.DB.Close(); err != nil {
		s.Logger.Warn("postgres close", "error", err)
	}
	return runErr
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newMailer SendGrid, если есть ключ; иначе SMTP; иначе письма только пишутся в лог
func newMailer(cfg *config.Config, logger *slog.Logger) notify.Mailer {
	switch {
	case cfg.SendGridAPIKey != "":
		return notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom)
	case cfg.SMTPHost != "":
		return notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, cfg.SMTPRequireTLS)
	default:
		logger.Info("no mail provider configured, emails are logged only")
		return notify.NewLogMailer(logger)
	}
}

func newAvatarStore(cfg *config.Config, db *database.Database) (storage.AvatarStore, error) {
	if cfg.AvatarStorage != config.AvatarStorageS3 {
		return storage.NewDatabaseStore(db), nil
	}

	client, err := storage.NewS3Client(context.Background(), storage.S3Options{
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return storage.NewS3Store(client, cfg.AvatarBucket, db), nil
}
