package services

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

// ImageStore keeps product images in a MinIO bucket.
type ImageStore struct {
	client *minio.Client
	bucket string
}

func NewImageStore(client *minio.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket}
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var ErrUnsupportedImage = errors.New("unsupported image type")

// Upload stores r under products/<productID>/ and returns the object key.
func (s *ImageStore) Upload(ctx context.Context, productID string, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", ErrUnsupportedImage
	}
	key := path.Join("products", productID, uuid.NewString()+ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrapf(err, "upload %s", key)
	}
	return key, nil
}

func (s *ImageStore) Remove(ctx context.Context, key string) error {
	if IsExternalURL(key) {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// IsExternalURL reports whether ref already points outside the bucket.
func IsExternalURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
