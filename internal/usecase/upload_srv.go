package usecase

import (
	"context"
	"fmt"
	"io"

	"myvillage-api/pkg/storage"
	"myvillage-api/pkg/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxFiles  = 5
	defaultMaxFileMB = 5
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Upload is one file taken from a multipart form.
type Upload struct {
	Filename string
	Reader   io.Reader
}

type UploadService interface {
	// StoreImages saves listing images and returns their URLs in order.
	StoreImages(ctx context.Context, userID uuid.UUID, files []Upload) ([]string, error)
	StoreAvatar(ctx context.Context, userID uuid.UUID, file Upload) (string, error)
	MaxFiles() int
	MaxFileBytes() int64
}

type uploadService struct {
	storage  storage.Storage
	maxFiles int
	maxBytes int64
	log      *zap.Logger
}

func NewUploadService(store storage.Storage, config utils.UploadConfig, log *zap.Logger) UploadService {
	maxFiles := config.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}
	maxMB := config.MaxFileMB
	if maxMB <= 0 {
		maxMB = defaultMaxFileMB
	}
	return &uploadService{
		storage:  store,
		maxFiles: maxFiles,
		maxBytes: int64(maxMB) << 20,
		log:      log.With(zap.String("service", "upload")),
	}
}

func (s *uploadService) MaxFiles() int       { return s.maxFiles }
func (s *uploadService) MaxFileBytes() int64 { return s.maxBytes }

func (s *uploadService) StoreImages(ctx context.Context, userID uuid.UUID, files []Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", ErrValidation)
	}
	if len(files) > s.maxFiles {
		return nil, fmt.Errorf("%w: at most %d files per upload", ErrValidation, s.maxFiles)
	}

	// read and check everything before writing anything
	type prepared struct {
		data        []byte
		contentType string
		ext         string
	}
	ready := make([]prepared, 0, len(files))
	for _, f := range files {
		data, mtype, err := s.readImage(f)
		if err != nil {
			return nil, err
		}
		ready = append(ready, prepared{data: data, contentType: mtype.String(), ext: mtype.Extension()})
	}

	urls := make([]string, 0, len(ready))
	for _, p := range ready {
		key := fmt.Sprintf("listings/%s/%s%s", userID, uuid.NewString(), p.ext)
		url, err := s.storage.Put(ctx, key, p.contentType, p.data)
		if err != nil {
			s.log.Error("Failed to store image", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("store image: %w", err)
		}
		urls = append(urls, url)
	}

	s.log.Info("Images uploaded",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(urls)))
	return urls, nil
}

func (s *uploadService) StoreAvatar(ctx context.Context, userID uuid.UUID, file Upload) (string, error) {
	data, mtype, err := s.readImage(file)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), mtype.Extension())
	url, err := s.storage.Put(ctx, key, mtype.String(), data)
	if err != nil {
		s.log.Error("Failed to store avatar", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("store avatar: %w", err)
	}
	return url, nil
}

// readImage reads f up to the size limit and sniffs its type from the content.
func (s *uploadService) readImage(f Upload) ([]byte, *mimetype.MIME, error) {
	data, err := io.ReadAll(io.LimitReader(f.Reader, s.maxBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", f.Filename, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, nil, fmt.Errorf("%w: %s exceeds %d MB", ErrInvalidImage, f.Filename, s.maxBytes>>20)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", ErrInvalidImage, f.Filename)
	}

	mtype := mimetype.Detect(data)
	if !allowedImageTypes[mtype.String()] {
		return nil, nil, fmt.Errorf("%w: %s is %s, only JPEG, PNG, GIF and WebP are allowed",
			ErrInvalidImage, f.Filename, mtype.String())
	}
	return data, mtype, nil
}
