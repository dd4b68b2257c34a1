package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"myvillage-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStorage struct{}

func (failingStorage) Put(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestLocalPut(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads/")

	url, err := l.Put(context.Background(), "images/a.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/images/a.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "images", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestLocalPut_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads")

	url, err := l.Put(context.Background(), "../../escape.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.txt", url)
	assert.FileExists(t, filepath.Join(dir, "escape.txt"))
}

func TestFallback_UsesSecondaryOnError(t *testing.T) {
	dir := t.TempDir()
	f := NewFallback(failingStorage{}, NewLocal(dir, "/uploads"), zap.NewNop())

	url, err := f.Put(context.Background(), "b.jpg", "image/jpeg", []byte("jpg"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/b.jpg", url)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(utils.StorageConfig{PublicURL: "https://cdn.example.com/"}))
	assert.Equal(t, "http://minio:9000/media",
		publicBaseURL(utils.StorageConfig{Endpoint: "http://minio:9000", Bucket: "media"}))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com",
		publicBaseURL(utils.StorageConfig{Bucket: "media", Region: "eu-west-1"}))
}
