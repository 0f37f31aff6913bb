package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"DermaScan/pkg/detector"
	"DermaScan/pkg/recommender"
	"DermaScan/pkg/yolo"

	"github.com/go-playground/validator/v10"
)

const (
	defaultBodyLimit      = 50 * 1024 * 1024
	defaultGeminiModel    = "gemini-1.5-flash"
	defaultRequestTimeout = 60 * time.Second
	defaultFetchTimeout   = 15 * time.Second
)

// Settings is everything the process reads from the environment.
type Settings struct {
	Port      string `validate:"required,numeric"`
	BodyLimit int    `validate:"gt=0"`

	DetectorBackend string  `validate:"oneof=onnx remote"`
	ModelPath       string  `validate:"required_if=DetectorBackend onnx"`
	ORTLibraryPath  string
	ModelInputSize  int     `validate:"gt=0"`
	Confidence      float64 `validate:"gt=0,lte=1"`
	IoU             float64 `validate:"gt=0,lte=1"`
	DetectorWSURL   string

	LLMProvider  string `validate:"oneof=groq openai gemini ollama"`
	LLMBaseURL   string
	LLMModel     string
	GroqAPIKey   string
	OpenAIAPIKey string
	GeminiAPIKey string
	GeminiModel  string
	OllamaURL    string

	UploadDir      string        `validate:"required"`
	RequestTimeout time.Duration `validate:"gt=0"`
	FetchTimeout   time.Duration `validate:"gt=0"`
}

// LoadSettings reads and validates Settings. Malformed numbers are reported
// rather than silently replaced by defaults.
func LoadSettings(v *validator.Validate) (*Settings, error) {
	var (
		s   Settings
		err error
	)

	s.Port = getEnv("APP_PORT", "3000")
	s.DetectorBackend = getEnv("DETECTOR_BACKEND", detector.BackendONNX)
	s.ModelPath = getEnv("MODEL_PATH", "best.onnx")
	s.ORTLibraryPath = os.Getenv("ORT_LIBRARY_PATH")
	s.DetectorWSURL = os.Getenv("DETECTOR_WS_URL")

	s.LLMProvider = getEnv("LLM_PROVIDER", recommender.ProviderGroq)
	s.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	s.LLMModel = os.Getenv("LLM_MODEL")
	s.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	s.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	s.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	s.GeminiModel = getEnv("GEMINI_MODEL_NAME", defaultGeminiModel)
	s.OllamaURL = os.Getenv("OLLAMA_URL")

	s.UploadDir = getEnv("UPLOAD_DIR", "uploads")

	if s.BodyLimit, err = getInt("BODY_LIMIT", defaultBodyLimit); err != nil {
		return nil, err
	}
	if s.ModelInputSize, err = getInt("MODEL_INPUT_SIZE", 640); err != nil {
		return nil, err
	}
	if s.Confidence, err = getFloat("CONFIDENCE_THRESHOLD", 0.25); err != nil {
		return nil, err
	}
	if s.IoU, err = getFloat("IOU_THRESHOLD", 0.7); err != nil {
		return nil, err
	}
	if s.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", defaultRequestTimeout); err != nil {
		return nil, err
	}
	if s.FetchTimeout, err = getDuration("FETCH_TIMEOUT", defaultFetchTimeout); err != nil {
		return nil, err
	}

	if s.LLMModel == "" {
		s.LLMModel = recommender.DefaultModel(s.LLMProvider)
	}

	if err := v.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return &s, nil
}

func (s *Settings) DetectorConfig(numClasses int) detector.Config {
	return detector.Config{
		Backend:   s.DetectorBackend,
		RemoteURL: s.DetectorWSURL,
		ONNX: yolo.Config{
			ModelPath:   s.ModelPath,
			LibraryPath: s.ORTLibraryPath,
			InputSize:   s.ModelInputSize,
			NumClasses:  numClasses,
			Confidence:  s.Confidence,
			IoU:         s.IoU,
		},
	}
}

func (s *Settings) RecommenderConfig() recommender.Config {
	apiKey := s.GroqAPIKey
	if s.LLMProvider == recommender.ProviderOpenAI {
		apiKey = s.OpenAIAPIKey
	}

	return recommender.Config{
		Provider:     s.LLMProvider,
		APIKey:       apiKey,
		BaseURL:      s.LLMBaseURL,
		Model:        s.LLMModel,
		GeminiAPIKey: s.GeminiAPIKey,
		GeminiModel:  s.GeminiModel,
		OllamaURL:    s.OllamaURL,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
