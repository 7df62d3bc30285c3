package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	imagePrefix   = "recipes/images"
	maxImageBytes = 10 << 20

	msgInvalidImage = "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением."
)

// ImageService stores recipe images and resolves their URLs
type ImageService struct {
	store storage.Storage
}

func NewImageService(store storage.Storage) *ImageService {
	return &ImageService{store: store}
}

// DecodeDataURI decodes data:image/<ext>;base64,<payload>.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:image") {
		return nil, "", ValidationError("image", msgInvalidImage)
	}
	header, payload, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, "", ValidationError("image", msgInvalidImage)
	}
	ext := sanitizeExt(header[strings.LastIndex(header, "/")+1:])
	if ext == "" {
		return nil, "", ValidationError("image", msgInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", ValidationError("image", msgInvalidImage)
		}
	}
	return data, ext, nil
}

// SaveDataURI decodes and stores a base64 image, returning its storage key.
func (s *ImageService) SaveDataURI(ctx context.Context, uri string) (string, error) {
	data, ext, err := DecodeDataURI(uri)
	if err != nil {
		return "", err
	}
	return s.save(ctx, data, ext)
}

// SaveUpload stores a multipart image, returning its storage key.
func (s *ImageService) SaveUpload(ctx context.Context, up *types.ImageUpload) (string, error) {
	ext := sanitizeExt(strings.TrimPrefix(filepath.Ext(up.Filename), "."))
	if ext == "" {
		ext = extFromContentType(http.DetectContentType(up.Data))
	}
	if ext == "" {
		return "", ValidationError("image", msgInvalidImage)
	}
	return s.save(ctx, up.Data, ext)
}

func (s *ImageService) save(ctx context.Context, data []byte, ext string) (string, error) {
	if len(data) == 0 || len(data) > maxImageBytes {
		return "", ValidationError("image", msgInvalidImage)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ValidationError("image", msgInvalidImage)
	}

	key := path.Join(imagePrefix, uuid.NewString()+"."+ext)
	if err := s.store.Write(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Delete removes a stored image. Failures are logged, not returned.
func (s *ImageService) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete image")
	}
}

func (s *ImageService) URL(key string) string {
	return s.store.URL(key)
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func extFromContentType(ct string) string {
	switch ct {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	default:
		return ""
	}
}
