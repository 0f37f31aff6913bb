package skin

import (
	"errors"
	"net/http"

	"DermaScan/pkg/response"
)

const RecommendationFailedMessage = "Failed to get recommendations from the chat completion API."

var (
	ErrMissingInput     = response.NewError(http.StatusBadRequest, "MISSING_INPUT", "No image provided")
	ErrFetchFailed      = response.NewError(http.StatusBadRequest, "FETCH_FAILED", "Failed to fetch image from URL")
	ErrModelUnavailable = response.NewError(http.StatusInternalServerError, "MODEL_UNAVAILABLE", "Detection model failed to load")
	ErrInferenceFailed  = response.NewError(http.StatusInternalServerError, "INFERENCE_FAILED", "Detection inference failed")
	ErrStorageFailed    = response.NewError(http.StatusInternalServerError, "STORAGE_FAILED", "Failed to store image")

	// ErrRecommendationFailed never reaches the client as a status code; it
	// is embedded in the success payload.
	ErrRecommendationFailed = errors.New("recommendation request failed")
)
