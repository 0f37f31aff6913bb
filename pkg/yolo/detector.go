package yolo

import (
	"context"
	"fmt"
	"os"
	"sync"

	"DermaScan/internal/entity"

	_ "github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

type Config struct {
	ModelPath     string
	LibraryPath   string
	InputName     string
	OutputName    string
	InputSize     int
	NumClasses    int
	Confidence    float64
	IoU           float64
	MaxDetections int
}

// Detector runs a YOLO model exported to ONNX. The session binds a single
// pair of tensors, so Detect calls are serialized.
type Detector struct {
	cfg     Config
	anchors int

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func New(cfg Config) (*Detector, error) {
	if cfg.InputName == "" {
		cfg.InputName = "images"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "output0"
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = 640
	}
	if cfg.MaxDetections <= 0 {
		cfg.MaxDetections = 300
	}
	if cfg.NumClasses <= 0 {
		return nil, fmt.Errorf("number of classes must be positive, got %d", cfg.NumClasses)
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model weights not found at %s: %w", cfg.ModelPath, err)
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	anchors := AnchorCount(cfg.InputSize)
	size := int64(cfg.InputSize)

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+cfg.NumClasses), int64(anchors)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Detector{
		cfg:     cfg,
		anchors: anchors,
		session: session,
		input:   input,
		output:  output,
	}, nil
}

func (d *Detector) Name() string {
	return "onnx"
}

func (d *Detector) Ready() error {
	return nil
}

// Detect runs one image through the model. The ONNX head yields a single
// result object per image.
func (d *Detector) Detect(ctx context.Context, imagePath string) ([]entity.InferenceResult, error) {
	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	tensor, tr := Letterbox(img, d.cfg.InputSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	copy(d.input.GetData(), tensor)
	if err := d.session.Run(); err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	raw := make([]float32, len(d.output.GetData()))
	copy(raw, d.output.GetData())
	d.mu.Unlock()

	candidates := decodeOutput(raw, d.cfg.NumClasses, d.anchors, d.cfg.Confidence)
	kept := nonMaxSuppression(candidates, d.cfg.IoU, d.cfg.MaxDetections)

	for i := range kept {
		kept[i].X1, kept[i].Y1, kept[i].X2, kept[i].Y2 = tr.Restore(kept[i].X1, kept[i].Y1, kept[i].X2, kept[i].Y2)
	}

	return []entity.InferenceResult{{Boxes: kept}}, nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	if d.input != nil {
		d.input.Destroy()
		d.input = nil
	}
	if d.output != nil {
		d.output.Destroy()
		d.output = nil
	}
	return ort.DestroyEnvironment()
}
