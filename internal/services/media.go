package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/newsroom-api/server/internal/imaging"
	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxImageSize bounds a single uploaded image.
const MaxImageSize = 5 << 20

const (
	articleImagePrefix = "articles"
	avatarPrefix       = "avatars"
)

// ObjectStore is the subset of storage.Storage used for media.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// MediaService stores uploaded images. A nil store disables uploads.
type MediaService struct {
	store  ObjectStore
	users  *UserService
	logger *slog.Logger
}

func NewMediaService(store ObjectStore, users *UserService, logger *slog.Logger) *MediaService {
	return &MediaService{store: store, users: users, logger: logger}
}

// Enabled reports whether an object store is configured.
func (s *MediaService) Enabled() bool {
	return s.store != nil
}

// UploadArticleImage stores an image for use in article bodies and returns
// its public URL.
func (s *MediaService) UploadArticleImage(ctx context.Context, r io.Reader) (string, error) {
	url, _, err := s.upload(ctx, articleImagePrefix, imaging.ArticleImage, r)
	return url, err
}

// UploadAvatar stores a square avatar and points the user's avatarUrl at
// it.
func (s *MediaService) UploadAvatar(ctx context.Context, userID primitive.ObjectID, r io.Reader) (types.User, error) {
	url, key, err := s.upload(ctx, avatarPrefix, imaging.Avatar, r)
	if err != nil {
		return types.User{}, err
	}
	user, err := s.users.SetAvatar(ctx, userID, url)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned avatar object", "key", key, "err", delErr)
		}
		return types.User{}, err
	}
	return user, nil
}

func (s *MediaService) upload(ctx context.Context, prefix string, variant imaging.Variant, r io.Reader) (string, string, error) {
	if s.store == nil {
		return "", "", ErrUploadsDisabled
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", "", ErrImageTooLarge
	}

	img, err := imaging.Process(data, variant)
	if errors.Is(err, imaging.ErrUnsupported) {
		return "", "", ErrInvalidImage
	}
	if err != nil {
		return "", "", err
	}

	key := fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), img.Ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", "", fmt.Errorf("store %s: %w", key, err)
	}
	return s.store.URL(key), key, nil
}
