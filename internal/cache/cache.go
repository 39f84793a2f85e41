// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SnapshotCache is a digest-keyed, TTL-bound cache for computed analytics
// snapshots. Keys embed a digest of the exact query-result set a snapshot was
// computed from, so a cache entry can never be served for a history that has
// since changed; the TTL only bounds how long identical recomputations are
// skipped. The cache is an optimization, never a source of truth.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

// Digest identifies an ordered query-result set. Any append, edit or deletion
// in the history produces a different digest and therefore a different key.
func Digest(ids []string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(ids, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

// Key builds the cache key for one brand, scope and history digest.
func Key(brandID, scope, digest string) string {
	return fmt.Sprintf("snapshot:%s:%s:%s", brandID, scope, digest)
}

// Get unmarshals a cached snapshot into dest. A miss, an unreachable Redis, or
// a corrupt entry all return false; callers recompute and move on.
func (c *SnapshotCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).WithField("key", key).Debug("Snapshot cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Dropping corrupt snapshot cache entry")
		c.rdb.Del(ctx, key)
		return false
	}
	return true
}

// Set stores a computed snapshot. Failures are logged and swallowed; serving
// the fresh computation matters more than caching it.
func (c *SnapshotCache) Set(ctx context.Context, key string, v any) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to marshal snapshot for cache")
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Debug("Snapshot cache write failed")
	}
}
