package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "revoked_token:"

// TokenRepository tracks revoked access tokens in Redis. Entries expire
// together with the token itself, so the set stays bounded.
type TokenRepository struct {
	client *redis.Client
}

// NewTokenRepository constructs the repository.
func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

// Revoke marks a token id as revoked until its natural expiry.
func (r *TokenRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id has been revoked.
func (r *TokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := r.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}
