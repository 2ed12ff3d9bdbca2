package tenant

import (
	"context"
	"time"

	"github.com/chronon/photochron/internal/domain/model"
	"github.com/chronon/photochron/internal/pkg/ttlcache"
)

const (
	domainCachePrefix = "domain:"
	tenantCachePrefix = "user:"
)

// CachedDirectory is a read-through TTL cache in front of a Directory.
// Only successful lookups are cached; misses and errors always hit the
// backing store again.
type CachedDirectory struct {
	inner   Directory
	domains *ttlcache.Cache[string]
	tenants *ttlcache.Cache[model.Tenant]
}

func NewCachedDirectory(inner Directory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		inner:   inner,
		domains: ttlcache.New[string](ttl),
		tenants: ttlcache.New[model.Tenant](ttl),
	}
}

func (c *CachedDirectory) LookupDomain(ctx context.Context, hostname string) (string, error) {
	key := domainCachePrefix + hostname
	if username, ok := c.domains.Get(key); ok {
		return username, nil
	}

	username, err := c.inner.LookupDomain(ctx, hostname)
	if err != nil {
		return "", err
	}

	c.domains.Set(key, username)
	return username, nil
}

func (c *CachedDirectory) GetTenant(ctx context.Context, username string) (model.Tenant, error) {
	key := tenantCachePrefix + username
	if tenant, ok := c.tenants.Get(key); ok {
		return tenant, nil
	}

	tenant, err := c.inner.GetTenant(ctx, username)
	if err != nil {
		return model.Tenant{}, err
	}

	c.tenants.Set(key, tenant)
	return tenant, nil
}
