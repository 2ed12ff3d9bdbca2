package model

import "errors"

// ErrTenantNotFound is returned by directory reads when neither a domain
// mapping nor a tenant record exists for the requested key.
var ErrTenantNotFound = errors.New("tenant not found")

// Tenant is the directory record for one gallery owner. Records are
// administered out of band; the service only ever reads them.
type Tenant struct {
	Username            string   `json:"-"`
	Domains             []string `json:"domains"`
	Profile             Profile  `json:"profile"`
	Avatar              Avatar   `json:"avatar"`
	AuthorizedClientIDs []string `json:"authorized_client_ids"`
}

type Profile struct {
	Name string `json:"name"`
}

// Avatar references a blob-store object plus the named variant used to
// render it.
type Avatar struct {
	ID      string `json:"id"`
	Variant string `json:"variant"`
}

// Authorizes reports whether the given caller id is on the tenant's
// allowlist. The allowlist is the sole source of truth for write access.
func (t Tenant) Authorizes(clientID string) bool {
	for _, id := range t.AuthorizedClientIDs {
		if id == clientID {
			return true
		}
	}
	return false
}
