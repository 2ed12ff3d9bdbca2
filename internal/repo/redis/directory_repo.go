package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/chronon/photochron/internal/domain/model"
)

const (
	domainPrefix = "domain:"
	userPrefix   = "user:"
)

// DirectoryRepo reads the administrator-maintained tenant directory.
// Domain mappings are plain strings, tenant records are JSON documents;
// both are written out of band, never by this service.
type DirectoryRepo struct {
	client *goredis.Client
}

func NewDirectoryRepo(client *goredis.Client) *DirectoryRepo {
	return &DirectoryRepo{client: client}
}

func (r *DirectoryRepo) LookupDomain(ctx context.Context, hostname string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}

	username, err := r.client.Get(ctx, domainKey(hostname)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", model.ErrTenantNotFound
		}
		return "", fmt.Errorf("get domain mapping: %w", err)
	}

	return username, nil
}

func (r *DirectoryRepo) GetTenant(ctx context.Context, username string) (model.Tenant, error) {
	if r.client == nil {
		return model.Tenant{}, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, userKey(username)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return model.Tenant{}, model.ErrTenantNotFound
		}
		return model.Tenant{}, fmt.Errorf("get tenant record: %w", err)
	}

	var tenant model.Tenant
	if err := json.Unmarshal([]byte(raw), &tenant); err != nil {
		return model.Tenant{}, fmt.Errorf("unmarshal tenant record %s: %w", username, err)
	}
	tenant.Username = username

	return tenant, nil
}

func domainKey(hostname string) string {
	return domainPrefix + hostname
}

func userKey(username string) string {
	return userPrefix + username
}
