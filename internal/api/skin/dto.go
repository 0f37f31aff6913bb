package skin

import (
	"mime/multipart"

	"DermaScan/internal/entity"
	"DermaScan/pkg/labels"
)

type AnalyzeRequest struct {
	Image    *multipart.FileHeader
	ImageURL string
	Age      string
	Gender   string
}

// AnalyzeResponse.Recommendations holds either the recommendation text or a
// RecommendationError.
type AnalyzeResponse struct {
	Results           []entity.Detection `json:"results"`
	PredictedProblems []string           `json:"predicted_problems"`
	Recommendations   any                `json:"recommendations"`
}

type RecommendationError struct {
	Error string `json:"error"`
}

type ClassesResponse struct {
	Classes []labels.Class `json:"classes"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Detector    string `json:"detector"`
	LLMProvider string `json:"llm_provider"`
}
