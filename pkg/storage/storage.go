// Package storage saves uploaded files and returns their public URL.
package storage

import (
	"context"

	"go.uber.org/zap"
)

type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Fallback writes to primary and, when that fails, to secondary.
type Fallback struct {
	primary   Storage
	secondary Storage
	log       *zap.Logger
}

func NewFallback(primary, secondary Storage, log *zap.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		log:       log.With(zap.String("component", "storage")),
	}
}

func (f *Fallback) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	url, err := f.primary.Put(ctx, key, contentType, data)
	if err == nil {
		return url, nil
	}

	f.log.Warn("Primary storage failed, using fallback",
		zap.Error(err),
		zap.String("key", key),
	)
	return f.secondary.Put(ctx, key, contentType, data)
}
