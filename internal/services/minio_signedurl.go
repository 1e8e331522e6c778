package services

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const SignedURLTTL = 24 * time.Hour

// SignedURL turns an object key into a presigned GET URL. External URLs are
// returned as they are.
func (s *ImageStore) SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	if ref == "" || IsExternalURL(ref) {
		return ref, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ref, ttl, url.Values{})
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", ref)
	}
	return u.String(), nil
}
