package main

import (
	"time"

	"github.com/JaimeStill/patentbot/internal/config"
	"github.com/JaimeStill/patentbot/internal/infrastructure"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"backend", cfg.Backend.BaseURL,
		"auth", cfg.Auth.Enabled,
		"tracing", cfg.Telemetry.Active(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("subsystem startup failed", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown cancels in-flight pipeline runs and waits up to timeout for
// the shutdown hooks to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)

	start := time.Now()
	if err := s.infra.Lifecycle.Shutdown(timeout); err != nil {
		s.infra.Logger.Error("shutdown incomplete", "error", err, "elapsed", time.Since(start))
		return err
	}
	s.infra.Logger.Info("shutdown complete", "elapsed", time.Since(start))
	return nil
}
