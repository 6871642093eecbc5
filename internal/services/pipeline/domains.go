package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// domainResolveAttempts bounds the insert-then-read spin before giving up.
const domainResolveAttempts = 5

// DomainResolver maps domain keys to row ids, consulting the id cache
// before the store. Insertion is insert-or-ignore followed by a re-read,
// so concurrent resolvers converge on the winning row.
type DomainResolver struct {
	domains interfaces.DomainStorage
	cache   interfaces.KeyIDCache
	logger  arbor.ILogger
}

// NewDomainResolver creates a resolver over the given storage and cache.
func NewDomainResolver(domains interfaces.DomainStorage, cache interfaces.KeyIDCache, logger arbor.ILogger) *DomainResolver {
	return &DomainResolver{domains: domains, cache: cache, logger: logger}
}

// ResolveURL resolves the domain of a URL, inserting it on first sight.
func (r *DomainResolver) ResolveURL(ctx context.Context, rawURL string, firstSeen time.Time) (int64, error) {
	key, err := common.DomainOf(rawURL)
	if err != nil {
		return 0, err
	}
	return r.ResolveKey(ctx, key, firstSeen)
}

// ResolveKey resolves a validated domain key to its row id.
func (r *DomainResolver) ResolveKey(ctx context.Context, key string, firstSeen time.Time) (int64, error) {
	if !common.ValidDomainKey(key) {
		return 0, fmt.Errorf("invalid domain key %q", key)
	}

	if r.cache != nil {
		if id, ok, err := r.cache.GetDomainID(ctx, key); err == nil && ok {
			return id, nil
		}
	}

	for attempt := 0; attempt < domainResolveAttempts; attempt++ {
		domain, err := r.domains.GetDomainByKey(ctx, key)
		if err != nil {
			return 0, err
		}
		if domain != nil {
			if r.cache != nil {
				if err := r.cache.PutDomainID(ctx, key, domain.ID); err != nil {
					r.logger.Warn().Err(err).Str("domain", key).Msg("Failed to cache domain id")
				}
			}
			return domain.ID, nil
		}

		if err := r.domains.InsertDomainIgnore(ctx, key, firstSeen); err != nil {
			return 0, err
		}
	}

	return 0, fmt.Errorf("domain %q not resolvable after %d attempts", key, domainResolveAttempts)
}
