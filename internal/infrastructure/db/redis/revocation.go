package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// minRevocationTTL keeps already-expired tokens revoked for a short grace
// period to cover clock skew between verifier and issuer.
const minRevocationTTL = time.Minute

// RevocationList records logged-out token IDs until the token would have
// expired on its own. Key format: revoked:<jti>
type RevocationList struct {
	client *redis.Client
	now    func() time.Time
}

func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client, now: time.Now}
}

// Revoke marks tokenID as revoked until the given instant.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if err := l.client.Set(ctx, revocationKey(tokenID), "1", revocationTTL(l.now(), until)).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func revocationKey(tokenID string) string {
	return "revoked:" + tokenID
}

func revocationTTL(now, until time.Time) time.Duration {
	ttl := until.Sub(now)
	if ttl < minRevocationTTL {
		return minRevocationTTL
	}
	return ttl
}
