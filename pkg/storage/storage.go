// Package storage persists request images under the local uploads directory
// and optionally mirrors them to S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"DermaScan/pkg/s3"
	"DermaScan/pkg/utils"

	"github.com/sirupsen/logrus"
)

// IStorage saves request images under fixed names. Each save returns a
// release func; the name stays reserved until it is called, so a caller can
// read the file back without another request overwriting it.
type IStorage interface {
	SaveUpload(ctx context.Context, file *multipart.FileHeader) (string, func(), error)
	SaveBytes(ctx context.Context, name string, data []byte) (string, func(), error)
	Dir() string
}

type localStorage struct {
	dir    string
	log    *logrus.Logger
	utils  utils.IUtils
	mirror s3.ItfS3
	names  *keyedMutex
}

const fallbackUploadName = "upload.jpg"

// New creates dir if needed. mirror may be nil.
func New(dir string, log *logrus.Logger, u utils.IUtils, mirror s3.ItfS3) (IStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &localStorage{
		dir:    dir,
		log:    log,
		utils:  u,
		mirror: mirror,
		names:  newKeyedMutex(),
	}, nil
}

func (s *localStorage) Dir() string {
	return s.dir
}

// SaveUpload writes an uploaded file under its original base name.
func (s *localStorage) SaveUpload(ctx context.Context, file *multipart.FileHeader) (string, func(), error) {
	src, err := file.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return s.SaveBytes(ctx, s.utils.SanitizeFilename(file.Filename, fallbackUploadName), data)
}

// SaveBytes writes data as name inside the upload directory, replacing any
// previous file of that name. On error nothing stays reserved.
func (s *localStorage) SaveBytes(ctx context.Context, name string, data []byte) (string, func(), error) {
	name = s.utils.SanitizeFilename(name, fallbackUploadName)
	path := filepath.Join(s.dir, name)

	release := s.names.lock(name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		release()
		return "", nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		release()
		return "", nil, fmt.Errorf("failed to save image: %w", err)
	}

	s.mirrorCopy(ctx, name, data)

	return path, release, nil
}

func (s *localStorage) mirrorCopy(ctx context.Context, name string, data []byte) {
	if s.mirror == nil {
		return
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		id = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	key := fmt.Sprintf("uploads/%s-%s", id, name)

	location, err := s.mirror.Upload(ctx, key, bytes.NewReader(data), "")
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Failed to mirror image to S3")
		return
	}

	s.log.WithFields(logrus.Fields{
		"key":      key,
		"location": location,
	}).Debug("Image mirrored to S3")
}
