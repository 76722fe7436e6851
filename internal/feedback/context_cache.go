package feedback

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"peerprep/interview/internal/models"
)

// ContextCache keeps recent prompt/response pairs in memory until a rating arrives.
// Expired entries are invisible immediately and removed by Run.
type ContextCache struct {
	entries *xsync.MapOf[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	context   *models.RequestContext
	expiresAt time.Time
}

func NewContextCache(ttl time.Duration) *ContextCache {
	return &ContextCache{
		entries: xsync.NewMapOf[string, cacheEntry](),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (cc *ContextCache) Set(requestID string, rc *models.RequestContext) {
	cc.entries.Store(requestID, cacheEntry{context: rc, expiresAt: cc.now().Add(cc.ttl)})
}

func (cc *ContextCache) Get(requestID string) (*models.RequestContext, bool) {
	entry, ok := cc.entries.Load(requestID)
	if !ok || cc.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.context, true
}

// Take removes and returns a live entry, so a reply can be rated only once.
func (cc *ContextCache) Take(requestID string) (*models.RequestContext, bool) {
	entry, ok := cc.entries.LoadAndDelete(requestID)
	if !ok || cc.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.context, true
}

func (cc *ContextCache) Delete(requestID string) {
	cc.entries.Delete(requestID)
}

// Run evicts expired entries every interval until ctx is done.
func (cc *ContextCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cc.cleanup()
		}
	}
}

func (cc *ContextCache) cleanup() int {
	now := cc.now()
	removed := 0
	cc.entries.Range(func(requestID string, entry cacheEntry) bool {
		if !now.After(entry.expiresAt) {
			return true
		}
		// re-check under the bucket lock; a concurrent Set may have refreshed it
		cc.entries.Compute(requestID, func(cur cacheEntry, loaded bool) (cacheEntry, bool) {
			expired := loaded && now.After(cur.expiresAt)
			if expired {
				removed++
			}
			return cur, !loaded || expired
		})
		return true
	})
	return removed
}

func (cc *ContextCache) Size() int {
	return cc.entries.Size()
}
