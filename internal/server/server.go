package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tunebox/apiserver/config"
	"github.com/tunebox/apiserver/internal/auth"
	"github.com/tunebox/apiserver/internal/db"
	"github.com/tunebox/apiserver/internal/handlers"
	"github.com/tunebox/apiserver/internal/logging"
	"github.com/tunebox/apiserver/internal/mq"
	"github.com/tunebox/apiserver/internal/services"
	"github.com/tunebox/apiserver/internal/sms"
	"github.com/tunebox/apiserver/internal/storage"
	"github.com/tunebox/apiserver/internal/store"
)

// Server wraps the HTTP server and its owned connections.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	logger     *slog.Logger
}

// New wires repositories, services and routes from config.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logging.New("apiserver")

	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	var broker *mq.MQ
	sender := sms.Sender(sms.NewGatewayClient(cfg.SMS))
	if !cfg.SMS.Direct {
		broker, err = newBroker(ctx, cfg)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		sender = sms.NewQueueSender(broker, cfg.MQ.SMSQueue)
	}

	userRepo := store.NewUserRepository(dbConn)
	adminRepo := store.NewAdminRepository(dbConn)
	roleRepo := store.NewRoleRepository(dbConn)
	bannerRepo := store.NewBannerRepository(dbConn)
	reportRepo := store.NewReportRepository(dbConn)
	fileRepo := store.NewFileRepository(dbConn)

	clock := auth.SystemClock()
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService([]byte(secret), cfg.Auth.TokenTTL, clock)

	roleService := services.NewRoleService(roleRepo, adminRepo)
	adminService := services.NewAdminAuthService(adminRepo, roleRepo, hasher, tokens, clock)
	userService := services.NewUserAuthService(userRepo, reportRepo, hasher, tokens, sender, clock)
	bannerService := services.NewBannerService(bannerRepo)
	uploadService := services.NewUploadService(objects, fileRepo, cfg.CDNBaseURL)

	// Admins authenticate through role resolution and the cookie fallback;
	// end-users carry no role and present bearer tokens only.
	adminGuard := auth.NewGuard(tokens, adminService, roleService, auth.GuardConfig{
		RequireRole: true,
		CookieName:  cfg.Auth.CookieName,
	})
	userGuard := auth.NewGuard(tokens, userService, nil, auth.GuardConfig{})

	requireAdmin := handlers.RequireAuth(adminGuard)
	requireUser := handlers.RequireAuth(userGuard)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminAuthRouter(r, handlers.NewAdminAuthHandler(adminService, cfg.Auth.CookieName, tokens.TTL()), requireAdmin)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserAuthRouter(r, handlers.NewUserAuthHandler(userService), requireUser, requireAdmin)
	})
	router.Route("/roles", func(r chi.Router) {
		handlers.RoleRouter(r, handlers.NewRoleHandler(roleService), requireAdmin)
	})
	router.Route("/banners", func(r chi.Router) {
		handlers.BannerRouter(r, handlers.NewBannerHandler(bannerService), requireAdmin)
	})
	router.Route("/uploads", func(r chi.Router) {
		handlers.UploadRouter(r, handlers.NewUploadHandler(uploadService), requireAdmin)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		slog.Int("port", port),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.Bool("sms_direct", cfg.SMS.Direct),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newObjectStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(client), nil
	default:
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(client), nil
	}
}

func newBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch strings.ToLower(cfg.MQ.Backend) {
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	}
}
