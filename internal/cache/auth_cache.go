package cache

import (
	"context"

	"nexusmart/internal/models"
)

// User returns the profile for userID, loading it on a miss. The password
// hash is not part of the JSON form, so cached users cannot authenticate.
func (c *Cache) User(ctx context.Context, userID string, load func() (*models.User, error)) (*models.User, error) {
	return remember(ctx, c, key("user", userID), UserCacheTTL, load)
}

func (c *Cache) InvalidateUser(ctx context.Context, userID string) error {
	return c.del(ctx, key("user", userID))
}
