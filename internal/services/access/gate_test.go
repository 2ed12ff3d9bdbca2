package access

import (
	"context"
	"errors"
	"testing"

	"github.com/chronon/photochron/internal/domain/model"
)

type fakeTenantStore struct {
	tenants map[string]model.Tenant
	reads   int
}

func (f *fakeTenantStore) GetTenant(_ context.Context, username string) (model.Tenant, error) {
	f.reads++
	tenant, ok := f.tenants[username]
	if !ok {
		return model.Tenant{}, model.ErrTenantNotFound
	}
	return tenant, nil
}

func TestAuthorizeAllowlistedClient(t *testing.T) {
	store := &fakeTenantStore{tenants: map[string]model.Tenant{
		"johndoe": {Username: "johndoe", AuthorizedClientIDs: []string{"svc-token.access", "jane@example.com"}},
	}}
	g := NewGate(store, "")

	err := g.Authorize(context.Background(), Identity{Kind: KindServiceToken, ClientID: "svc-token.access"}, "johndoe")
	if err != nil {
		t.Fatalf("authorize service token: %v", err)
	}

	err = g.Authorize(context.Background(), Identity{Kind: KindIDPUser, ClientID: "jane@example.com"}, "johndoe")
	if err != nil {
		t.Fatalf("authorize idp user: %v", err)
	}
}

func TestAuthorizeRejectsUnlistedClient(t *testing.T) {
	store := &fakeTenantStore{tenants: map[string]model.Tenant{
		"johndoe": {Username: "johndoe", AuthorizedClientIDs: []string{"svc-token.access"}},
	}}
	g := NewGate(store, "")

	err := g.Authorize(context.Background(), Identity{Kind: KindServiceToken, ClientID: "stranger.access"}, "johndoe")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestAuthorizeUnknownTenant(t *testing.T) {
	g := NewGate(&fakeTenantStore{tenants: map[string]model.Tenant{}}, "")

	err := g.Authorize(context.Background(), Identity{ClientID: "svc-token.access"}, "ghost")
	if !errors.Is(err, model.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestAuthorizeDevClientIDBypassSkipsDirectory(t *testing.T) {
	store := &fakeTenantStore{tenants: map[string]model.Tenant{}}
	g := NewGate(store, "dev-override.access")

	err := g.Authorize(context.Background(), Identity{ClientID: "dev-override.access"}, "ghost")
	if err != nil {
		t.Fatalf("dev bypass authorize: %v", err)
	}
	if store.reads != 0 {
		t.Fatalf("dev bypass must not read the directory, got %d reads", store.reads)
	}
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	store := &fakeTenantStore{tenants: map[string]model.Tenant{
		"johndoe": {Username: "johndoe", AuthorizedClientIDs: []string{"svc-token.access"}},
	}}
	g := NewGate(store, "")
	identity := Identity{Kind: KindServiceToken, ClientID: "svc-token.access"}

	first := g.Authorize(context.Background(), identity, "johndoe")
	readsAfterFirst := store.reads
	second := g.Authorize(context.Background(), identity, "johndoe")

	if (first == nil) != (second == nil) {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
	if store.reads != 2*readsAfterFirst {
		t.Fatalf("directory reads per call changed: first=%d total=%d", readsAfterFirst, store.reads)
	}
}
