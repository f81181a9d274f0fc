package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"civicsnap/pkg/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const DefaultMaxUploadBytes = 5 * 1024 * 1024

var DefaultAllowedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/heic",
	"image/heif",
}

var extensionsByMime = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/heic": "heic",
	"image/heif": "heif",
}

// ObjectStore writes objects with upsert semantics and derives their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Gateway validates images and stores them under public/<epoch-millis>.<ext>.
type Gateway struct {
	store    ObjectStore
	logger   *logrus.Logger
	maxBytes int64
	allowed  map[string]bool
	now      func() time.Time
}

func NewGateway(store ObjectStore, logger *logrus.Logger, maxBytes int64, allowedMimeTypes []string) *Gateway {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if len(allowedMimeTypes) == 0 {
		allowedMimeTypes = DefaultAllowedMimeTypes
	}

	allowed := make(map[string]bool, len(allowedMimeTypes))
	for _, m := range allowedMimeTypes {
		allowed[strings.ToLower(strings.TrimSpace(m))] = true
	}

	return &Gateway{
		store:    store,
		logger:   logger,
		maxBytes: maxBytes,
		allowed:  allowed,
		now:      time.Now,
	}
}

func (g *Gateway) MaxBytes() int64 {
	return g.maxBytes
}

// Validate runs the size and type checks and returns the effective mime type.
func (g *Gateway) Validate(size int64, data []byte, mimeType string) (string, error) {
	if size == 0 {
		return "", types.NewValidationError("image", "Missing image file")
	}

	if size > g.maxBytes {
		return "", types.NewValidationError("image", "File size exceeds maximum allowed size (%dMB)", g.maxBytes/(1024*1024))
	}

	mimeType = EffectiveMimeType(data, mimeType)

	if !g.allowed[mimeType] {
		return "", types.NewValidationError("image", "Invalid file type. Only JPEG, PNG, GIF, WebP, HEIC and HEIF are allowed")
	}

	return mimeType, nil
}

func (g *Gateway) Upload(ctx context.Context, data []byte, mimeType, originalName string) (*types.UploadResult, error) {

	mimeType, err := g.Validate(int64(len(data)), data, mimeType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("public/%d.%s", g.now().UnixMilli(), extension(originalName, mimeType))

	err = g.store.Put(ctx, key, data, mimeType)
	if err != nil {
		g.logger.WithError(err).WithField("path", key).Error("failed to store image")
		return nil, types.StorageError(err)
	}

	g.logger.WithFields(logrus.Fields{
		"path":       key,
		"size_bytes": len(data),
		"mime_type":  mimeType,
	}).Info("image stored")

	return &types.UploadResult{
		Path:      key,
		PublicURL: g.store.PublicURL(key),
	}, nil
}

// EffectiveMimeType returns the declared type, or the type sniffed from data
// when none or application/octet-stream was declared.
func EffectiveMimeType(data []byte, declared string) string {
	m := normalizeMime(declared)
	if (m == "" || m == "application/octet-stream") && len(data) > 0 {
		m = normalizeMime(mimetype.Detect(data).String())
	}
	return m
}

func normalizeMime(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "image/jpg" {
		m = "image/jpeg"
	}
	return m
}

// extension takes the original file's extension, falling back to the mime type's.
func extension(originalName, mimeType string) string {
	ext := strings.TrimPrefix(path.Ext(strings.TrimSpace(originalName)), ".")
	ext = strings.ToLower(ext)
	if ext != "" && !strings.ContainsAny(ext, `/\ `) {
		return ext
	}
	return extensionsByMime[mimeType]
}
