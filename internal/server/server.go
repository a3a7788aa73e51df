package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/cachesvc"
	"github.com/dvanosdol88/teller-codex10-9A/internal/server/handlers"
	"github.com/dvanosdol88/teller-codex10-9A/internal/server/middleware"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/config"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/signature"
)

type Server struct {
	CacheSvc   cachesvc.ICacheService
	Verifier   *signature.Verifier
	Cfg        *config.Config
	Logger     zerolog.Logger
	Router     *gin.Engine
	httpServer *http.Server
}

func New(cfg *config.Config, cacheSvc cachesvc.ICacheService, verifier *signature.Verifier, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	return &Server{
		Cfg:      cfg,
		CacheSvc: cacheSvc,
		Verifier: verifier,
		Logger:   logger,
		Router:   router,
	}
}

func (s *Server) SetupRouter() {
	middleware.New(s.Logger).Setup(s.Router)

	handler := handlers.New(
		s.CacheSvc,
		s.Verifier,
		s.Logger,
		s.Cfg,
	)
	handler.SetupHandlers(s.Router)
}

func (s *Server) Start() {
	s.SetupRouter()

	s.httpServer = &http.Server{
		Addr:         s.Cfg.Server.Host + ":" + s.Cfg.Server.Port,
		Handler:      s.Router,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	s.Logger.Info().Msgf("Starting server on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-stopChan
	s.Logger.Info().Msg("Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	s.Logger.Info().Msg("Server exited gracefully")
}
