package router

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.uber.org/atomic"
)

// ServerConfig - параметры HTTP-сервера.
type ServerConfig struct {
	ListenAddr string
	Log        *slog.Logger
	// DrainDuration - пауза между снятием готовности и остановкой.
	DrainDuration            time.Duration
	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
}

// Server - HTTP-сервер с флагом готовности для /readyz.
type Server struct {
	cfg   ServerConfig
	ready *atomic.Bool
	srv   *http.Server
}

// NewServer создает сервер. ready разделяется с handlers.HealthHandler.
func NewServer(cfg ServerConfig, handler http.Handler, ready *atomic.Bool) *Server {
	return &Server{
		cfg:   cfg,
		ready: ready,
		srv: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start открывает порт и обслуживает запросы в фоне. Ошибка сервера отправляется в errc.
func (s *Server) Start(errc chan<- error) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}

	s.ready.Store(true)
	s.cfg.Log.Info("server is listening", "listenAddress", ln.Addr().String())

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	return nil
}

// Shutdown снимает готовность, ждет DrainDuration и останавливает сервер.
func (s *Server) Shutdown() {
	s.ready.Store(false)
	if s.cfg.DrainDuration > 0 {
		s.cfg.Log.Info("server marked as not ready, draining", "drain", s.cfg.DrainDuration)
		time.Sleep(s.cfg.DrainDuration)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.cfg.Log.Error("graceful HTTP server shutdown failed", "error", err)
		return
	}
	s.cfg.Log.Info("HTTP server gracefully stopped")
}
