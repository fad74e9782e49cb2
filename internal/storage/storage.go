// Package storage defines the artifact store abstraction shared by the
// report writer and the run's diagnostics.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// BlobStore persists an object and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Mirror writes to a primary store and copies each object to optional
// secondaries. Only primary failures are returned; secondary failures are
// logged.
type Mirror struct {
	primary     BlobStore
	secondaries []BlobStore
	logger      *zap.Logger
}

// NewMirror returns a Mirror over primary and secondaries.
func NewMirror(logger *zap.Logger, primary BlobStore, secondaries ...BlobStore) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{primary: primary, secondaries: secondaries, logger: logger.Named("storage")}
}

// PutObject implements BlobStore. The content is buffered once so every
// store receives the same bytes.
func (m *Mirror) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", path, err)
	}
	uri, err := m.primary.PutObject(ctx, path, contentType, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	for _, s := range m.secondaries {
		mirrored, err := s.PutObject(ctx, path, contentType, bytes.NewReader(data))
		if err != nil {
			m.logger.Warn("mirror upload failed", zap.String("path", path), zap.Error(err))
			continue
		}
		m.logger.Debug("mirrored object", zap.String("uri", mirrored))
	}
	return uri, nil
}
