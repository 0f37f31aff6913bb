package config

import (
	"context"
	"fmt"
	"time"

	skinHandler "DermaScan/internal/api/skin/handler"
	skinService "DermaScan/internal/api/skin/service"
	"DermaScan/internal/middleware"
	"DermaScan/pkg/detector"
	"DermaScan/pkg/fetcher"
	"DermaScan/pkg/labels"
	"DermaScan/pkg/metrics"
	"DermaScan/pkg/recommender"
	"DermaScan/pkg/storage"
	"DermaScan/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	log         *logrus.Logger
	settings    *Settings
	middleware  middleware.Middleware
	utils       utils.IUtils
	labels      *labels.Table
	detector    detector.IDetector
	recommender recommender.IRecommender
	storage     storage.IStorage
	fetcher     fetcher.IFetcher
	metrics     *metrics.Metrics
	handlers    []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.settings == nil {
		return nil, fmt.Errorf("settings are required")
	}
	if server.detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if server.recommender == nil {
		return nil, fmt.Errorf("recommender is required")
	}
	if server.storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if server.labels == nil {
		server.labels = labels.Default()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.fetcher == nil {
		server.fetcher = fetcher.New(server.settings.FetchTimeout)
	}
	if server.metrics == nil {
		server.metrics = metrics.New()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, server.utils)
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithSettings(settings *Settings) ServerOption {
	return func(s *Server) error {
		s.settings = settings
		return nil
	}
}

func WithLabels(table *labels.Table) ServerOption {
	return func(s *Server) error {
		s.labels = table
		return nil
	}
}

func WithDetector(d detector.IDetector) ServerOption {
	return func(s *Server) error {
		s.detector = d
		return nil
	}
}

func WithRecommender(r recommender.IRecommender) ServerOption {
	return func(s *Server) error {
		s.recommender = r
		return nil
	}
}

func WithStorage(st storage.IStorage) ServerOption {
	return func(s *Server) error {
		s.storage = st
		return nil
	}
}

func WithFetcher(f fetcher.IFetcher) ServerOption {
	return func(s *Server) error {
		s.fetcher = f
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.utils == nil {
			s.utils = utils.New()
		}
		s.middleware = middleware.New(s.log, s.utils)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// RegisterHandler installs the global middleware and every route. It must be
// called once before Run or before driving the app through fiber's Test.
func (s *Server) RegisterHandler() {
	s.engine.Use(recover.New())
	s.engine.Use(cors.New())
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.setupRoot()
	s.engine.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	skinServices := skinService.NewSkinService(s.log, s.detector, s.recommender, s.storage, s.fetcher, s.labels, s.metrics)
	skinHandlers := skinHandler.New(s.log, s.middleware, skinServices, s.metrics, s.settings.RequestTimeout)

	s.handlers = append(s.handlers, skinHandlers)

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

func (s *Server) App() *fiber.App {
	return s.engine
}

func (s *Server) Run() error {
	port := s.settings.Port
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, waits for in-flight ones and then
// releases the detector and the chat provider.
func (s *Server) Shutdown(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	timeout := 10 * time.Second
	if ok {
		timeout = time.Until(deadline)
	}

	err := s.engine.ShutdownWithTimeout(timeout)

	if closeErr := s.detector.Close(); closeErr != nil {
		s.log.WithField("error", closeErr.Error()).Error("Failed to close detector")
	}
	if closeErr := s.recommender.Close(); closeErr != nil {
		s.log.WithField("error", closeErr.Error()).Error("Failed to close recommender")
	}

	return err
}

func (s *Server) setupRoot() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("Hello, Bro!")
	})
}
