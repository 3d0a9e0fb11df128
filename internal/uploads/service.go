// Package uploads stores admin image uploads in object storage.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
)

type objectStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (*gcs.ObjectInfo, error)
}

// Service validates and stores uploaded images.
type Service interface {
	Upload(ctx context.Context, input Input) (*Output, error)
}

type Input struct {
	FileName string
	Body     io.Reader
}

// Output is the stored object; Pathname is the object key.
type Output struct {
	URL         string `json:"url"`
	Pathname    string `json:"pathname"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type service struct {
	store    objectStore
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(store objectStore, maxBytes int64, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, errors.New("object store required")
	}
	if maxBytes <= 0 {
		return nil, errors.New("max upload size must be positive")
	}
	return &service{store: store, maxBytes: maxBytes, logg: logg, now: time.Now}, nil
}

func (s *service) Upload(ctx context.Context, input Input) (*Output, error) {
	fileName := sanitizeFileName(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filename is required")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body is required")
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload body")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body is required")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds %d MB", s.maxBytes>>20)
	}

	contentType, ok := detectImage(data)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only images are accepted").
			WithDetails(map[string]any{"detected": contentType})
	}

	key := objectKey(s.now().UTC(), uuid.New(), fileName)
	info, err := s.store.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"object": info.Name, "size": len(data)}), "upload stored")
	}
	return &Output{URL: info.URL, Pathname: info.Name, ContentType: contentType, Size: int64(len(data))}, nil
}

func objectKey(now time.Time, id uuid.UUID, fileName string) string {
	return fmt.Sprintf("uploads/%04d/%02d/%s-%s", now.Year(), int(now.Month()), id, fileName)
}
