package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"docchat/config"
	"docchat/web/format"
	"docchat/web/handlers"
	"docchat/web/middleware"
	"docchat/web/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services bundles the application services the routes are wired to.
type Services struct {
	Uploads *services.UploadService
	Chat    *services.ChatService
	Stores  *services.StoreService
	Models  *services.ModelService
}

type Server struct {
	router  *gin.Engine
	svc     Services
	render  format.Renderer
	limiter *middleware.ClientRateLimiter
	logger  *zap.Logger
	config  *config.Config
}

func NewServer(cfg *config.Config, svc Services, render format.Renderer, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	limiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
		MessagesPerMinute: cfg.RateLimitMessagesPerMin,
		FilesPerHour:      cfg.RateLimitFilesPerHour,
		BurstSize:         cfg.RateLimitBurstSize,
		CleanupInterval:   10 * time.Minute,
	}, logger)

	server := &Server{
		router:  router,
		svc:     svc,
		render:  render,
		limiter: limiter,
		logger:  logger,
		config:  cfg,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.Static("/static", "./web/static")

	api := handlers.NewAPIHandler(s.svc.Uploads, s.svc.Chat, s.svc.Stores, s.svc.Models, s.logger)
	ui := handlers.NewPageHandler(s.svc.Uploads, s.svc.Chat, s.svc.Stores, s.render, s.config.DefaultModel, s.logger)

	messageLimit := middleware.RateLimitMiddleware(s.limiter, middleware.LimitMessage, s.logger)
	fileLimit := middleware.RateLimitMiddleware(s.limiter, middleware.LimitFile, s.logger)

	// JSON API
	s.router.POST("/upload", fileLimit, api.Upload)
	s.router.POST("/chat", messageLimit, api.Chat)
	s.router.GET("/stores", api.ListStores)
	s.router.DELETE("/store/:id", api.DeleteStore)
	s.router.GET("/models", api.ListModels)

	// Server-rendered pages
	s.router.GET("/", ui.Index)
	s.router.POST("/ui/upload", fileLimit, ui.Upload)
	s.router.GET("/ui/chat/:id", ui.Chat)
	s.router.POST("/ui/chat/:id", messageLimit, ui.Ask)
	s.router.POST("/ui/chat/:id/close", ui.Close)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Web server failed to start", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
