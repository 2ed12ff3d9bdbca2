package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/chronon/photochron/internal/domain/model"
)

// ErrDevUserNotConfigured means a loopback hostname was requested but no
// development tenant override is configured.
var ErrDevUserNotConfigured = errors.New("dev user not configured")

// Directory is the tenant directory read surface. Both lookups return
// model.ErrTenantNotFound when the key has no entry.
type Directory interface {
	LookupDomain(ctx context.Context, hostname string) (string, error)
	GetTenant(ctx context.Context, username string) (model.Tenant, error)
}

// Resolver maps an inbound hostname to the owning tenant's username.
// Resolution is a single exact-match directory read; subdomains are never
// reduced to a base domain, the directory entry is authoritative.
type Resolver struct {
	directory Directory
	devUser   string
}

func NewResolver(directory Directory, devUser string) *Resolver {
	return &Resolver{directory: directory, devUser: devUser}
}

func (r *Resolver) Resolve(ctx context.Context, hostname string) (string, error) {
	host := stripPort(hostname)

	if isDevelopmentHost(host) {
		if r.devUser == "" {
			return "", ErrDevUserNotConfigured
		}
		return r.devUser, nil
	}

	if r.directory == nil {
		return "", fmt.Errorf("tenant directory is not configured")
	}

	username, err := r.directory.LookupDomain(ctx, host)
	if err != nil {
		if errors.Is(err, model.ErrTenantNotFound) {
			return "", fmt.Errorf("%w: domain %s not configured", model.ErrTenantNotFound, host)
		}
		return "", fmt.Errorf("lookup domain %s: %w", host, err)
	}

	return username, nil
}

func stripPort(hostname string) string {
	if host, _, err := net.SplitHostPort(hostname); err == nil {
		return host
	}
	return hostname
}

func isDevelopmentHost(host string) bool {
	if strings.HasPrefix(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
