package skinService

import (
	"context"
	"fmt"
	"time"

	"DermaScan/internal/api/skin"
	"DermaScan/internal/entity"
	contextPkg "DermaScan/pkg/context"
	"DermaScan/pkg/imageutil"
	"DermaScan/pkg/labels"
	"DermaScan/pkg/recommender"

	"github.com/sirupsen/logrus"
)

// downloadedName is the file URL-sourced images are stored as.
const downloadedName = "downloaded.jpg"

func (s *skinService) Analyze(ctx context.Context, req skin.AnalyzeRequest) (*skin.AnalyzeResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := s.detector.Ready(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Rejecting upload, detection model is unavailable")
		return nil, skin.ErrModelUnavailable
	}

	imagePath, release, err := s.acquireImage(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"image_path": imagePath,
	}).Debug("Image stored, running detection")

	start := time.Now()
	results, err := s.detector.Detect(ctx, imagePath)
	// stored names are shared across requests; keep ours reserved until inference has read it
	release()
	s.metrics.ObserveInference(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", skin.ErrInferenceFailed, err)
	}

	detections, problems := s.resolve(results)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"detections": len(detections),
		"problems":   problems,
	}).Info("Detection finished")

	resp := &skin.AnalyzeResponse{
		Results:           detections,
		PredictedProblems: problems,
	}

	text, err := s.recommend(ctx, recommender.Request{
		Problems: problems,
		Age:      req.Age,
		Gender:   req.Gender,
	})
	if err != nil {
		resp.Recommendations = skin.RecommendationError{Error: skin.RecommendationFailedMessage}
	} else {
		resp.Recommendations = text
	}

	return resp, nil
}

// acquireImage prefers the uploaded file over imageURL. The returned release
// func frees the stored name for other requests.
func (s *skinService) acquireImage(ctx context.Context, req skin.AnalyzeRequest) (string, func(), error) {
	switch {
	case req.Image != nil:
		path, release, err := s.storage.SaveUpload(ctx, req.Image)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", skin.ErrStorageFailed, err)
		}
		return path, release, nil

	case req.ImageURL != "":
		raw, err := s.fetcher.Fetch(req.ImageURL)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", skin.ErrFetchFailed, err)
		}

		jpg, err := imageutil.ToJPEG(raw)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", skin.ErrFetchFailed, err)
		}

		path, release, err := s.storage.SaveBytes(ctx, downloadedName, jpg)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", skin.ErrStorageFailed, err)
		}
		return path, release, nil

	default:
		return "", nil, skin.ErrMissingInput
	}
}

// resolve flattens every inference result into one list and collects the
// distinct condition names in first-seen order.
func (s *skinService) resolve(results []entity.InferenceResult) ([]entity.Detection, []string) {
	detections := make([]entity.Detection, 0)
	problems := make([]string, 0)
	seen := make(map[string]struct{})

	for _, result := range results {
		for _, box := range result.Boxes {
			problem := s.labels.Resolve(box.Class)

			detections = append(detections, entity.Detection{
				X1:         box.X1,
				Y1:         box.Y1,
				X2:         box.X2,
				Y2:         box.Y2,
				Confidence: box.Confidence,
				Class:      box.Class,
				Problem:    problem,
			})
			s.metrics.ObserveProblem(problem)

			if _, ok := seen[problem]; !ok {
				seen[problem] = struct{}{}
				problems = append(problems, problem)
			}
		}
	}

	return detections, problems
}

func (s *skinService) recommend(ctx context.Context, req recommender.Request) (string, error) {
	text, err := s.recommender.Recommend(ctx, req)
	s.metrics.ObserveRecommendation(s.recommender.Provider(), err == nil)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"provider":   s.recommender.Provider(),
			"error":      err.Error(),
		}).Warn("Error getting recommendations")
		return "", fmt.Errorf("%w: %v", skin.ErrRecommendationFailed, err)
	}
	return text, nil
}

func (s *skinService) Classes() []labels.Class {
	return s.labels.Classes()
}

func (s *skinService) Health() skin.HealthResponse {
	return skin.HealthResponse{
		Status:      "ok",
		ModelLoaded: s.detector.Ready() == nil,
		Detector:    s.detector.Name(),
		LLMProvider: s.recommender.Provider(),
	}
}
