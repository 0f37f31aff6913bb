// Package detector selects and loads the skin condition detector once at
// startup and remembers a failed load for the rest of the process lifetime.
package detector

import (
	"context"
	"errors"
	"fmt"

	"DermaScan/internal/entity"
	websocketPkg "DermaScan/pkg/websocket"
	"DermaScan/pkg/yolo"

	"github.com/sirupsen/logrus"
)

const (
	BackendONNX   = "onnx"
	BackendRemote = "remote"
)

var ErrUnavailable = errors.New("detector unavailable")

type IDetector interface {
	Detect(ctx context.Context, imagePath string) ([]entity.InferenceResult, error)
	// Ready reports the load failure, if any. It never changes after startup.
	Ready() error
	Name() string
	Close() error
}

type Config struct {
	Backend   string
	RemoteURL string
	ONNX      yolo.Config
}

// Load builds the configured backend. A load failure is logged and captured
// in the returned detector instead of aborting startup.
func Load(cfg Config, log *logrus.Logger) IDetector {
	var (
		d   IDetector
		err error
	)

	switch cfg.Backend {
	case BackendONNX, "":
		d, err = yolo.New(cfg.ONNX)
	case BackendRemote:
		d, err = websocketPkg.NewClient(cfg.RemoteURL, log)
	default:
		err = fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}

	if err != nil {
		log.WithFields(logrus.Fields{
			"backend": cfg.Backend,
			"error":   err.Error(),
		}).Error("Error loading detection model")
		return Unavailable(cfg.Backend, err)
	}

	log.WithFields(logrus.Fields{
		"backend": d.Name(),
	}).Info("Detection model loaded")
	return d
}

type unavailable struct {
	name  string
	cause error
}

// Unavailable returns a detector that fails every call with cause.
func Unavailable(name string, cause error) IDetector {
	if name == "" {
		name = BackendONNX
	}
	return &unavailable{name: name, cause: cause}
}

func (u *unavailable) Detect(context.Context, string) ([]entity.InferenceResult, error) {
	return nil, u.Ready()
}

func (u *unavailable) Ready() error {
	return fmt.Errorf("%w: %v", ErrUnavailable, u.cause)
}

func (u *unavailable) Name() string {
	return u.name
}

func (u *unavailable) Close() error {
	return nil
}
