package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/chronon/photochron/internal/domain/model"
)

// ErrNotAuthorized means the identity is valid but not on the tenant's
// allowlist.
var ErrNotAuthorized = errors.New("caller not authorized")

type TenantStore interface {
	GetTenant(ctx context.Context, username string) (model.Tenant, error)
}

// Gate decides whether an extracted identity may act for a tenant.
// It does not resolve tenants from hostnames; callers pass the already
// resolved username.
type Gate struct {
	directory   TenantStore
	devClientID string
}

func NewGate(directory TenantStore, devClientID string) *Gate {
	return &Gate{directory: directory, devClientID: devClientID}
}

// Authorize is stateless: the same inputs always produce the same result
// and the same number of directory reads.
func (g *Gate) Authorize(ctx context.Context, identity Identity, username string) error {
	if g.devClientID != "" && identity.ClientID == g.devClientID {
		return nil
	}

	if g.directory == nil {
		return fmt.Errorf("tenant directory is not configured")
	}

	tenant, err := g.directory.GetTenant(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrTenantNotFound) {
			return fmt.Errorf("%w: %s", model.ErrTenantNotFound, username)
		}
		return fmt.Errorf("load tenant %s: %w", username, err)
	}

	if !tenant.Authorizes(identity.ClientID) {
		return fmt.Errorf("%w: client %s for tenant %s", ErrNotAuthorized, identity.ClientID, username)
	}

	return nil
}
