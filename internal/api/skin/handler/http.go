package skinHandler

import (
	"time"

	skinService "DermaScan/internal/api/skin/service"
	"DermaScan/internal/middleware"
	"DermaScan/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type SkinHandler struct {
	log            *logrus.Logger
	middleware     middleware.Middleware
	skinService    skinService.ISkinService
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ss skinService.ISkinService,
	m *metrics.Metrics,
	requestTimeout time.Duration,
) *SkinHandler {
	return &SkinHandler{
		log:            log,
		middleware:     middleware,
		skinService:    ss,
		metrics:        m,
		requestTimeout: requestTimeout,
	}
}

func (h *SkinHandler) Start(srv fiber.Router) {
	srv.Post("/upload", h.Upload)
	srv.Get("/healthz", h.Health)

	v1 := srv.Group("/api/v1")
	v1.Get("/classes", h.Classes)
}
