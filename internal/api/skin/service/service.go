package skinService

import (
	"context"

	"DermaScan/internal/api/skin"
	"DermaScan/pkg/detector"
	"DermaScan/pkg/fetcher"
	"DermaScan/pkg/labels"
	"DermaScan/pkg/metrics"
	"DermaScan/pkg/recommender"
	"DermaScan/pkg/storage"

	"github.com/sirupsen/logrus"
)

type ISkinService interface {
	Analyze(ctx context.Context, req skin.AnalyzeRequest) (*skin.AnalyzeResponse, error)
	Classes() []labels.Class
	Health() skin.HealthResponse
}

type skinService struct {
	log         *logrus.Logger
	detector    detector.IDetector
	recommender recommender.IRecommender
	storage     storage.IStorage
	fetcher     fetcher.IFetcher
	labels      *labels.Table
	metrics     *metrics.Metrics
}

func NewSkinService(
	log *logrus.Logger,
	d detector.IDetector,
	r recommender.IRecommender,
	st storage.IStorage,
	f fetcher.IFetcher,
	table *labels.Table,
	m *metrics.Metrics,
) ISkinService {
	return &skinService{
		log:         log,
		detector:    d,
		recommender: r,
		storage:     st,
		fetcher:     f,
		labels:      table,
		metrics:     m,
	}
}
