package tenants

import (
	apperrors "github.com/jrsteele09/go-cert-console/internal/errors"
)

var (
	ErrTenantNotFound = apperrors.ErrTenantNotFound
	ErrEmptyCatalog   = apperrors.ErrEmptyCatalog
)

// Catalog is the ordered set of tenants available for selection.
type Catalog interface {
	Get(tenantID string) (Tenant, error)
	List() []Tenant
}

var _ Catalog = (*StaticCatalog)(nil)

// StaticCatalog is an immutable, ordered Catalog.
type StaticCatalog struct {
	tenants []Tenant
	index   map[string]int
}

// NewStaticCatalog keeps the first entry for any duplicated id.
func NewStaticCatalog(entries ...Tenant) *StaticCatalog {
	c := &StaticCatalog{
		tenants: make([]Tenant, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, t := range entries {
		if _, ok := c.index[t.ID]; ok {
			continue
		}
		c.index[t.ID] = len(c.tenants)
		c.tenants = append(c.tenants, t)
	}
	return c
}

// DefaultCatalog is the catalog shipped with the console.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(
		Tenant{ID: "acme-corp", Name: "Acme Corporation", Domain: "acme.example.com", Plan: PlanEnterprise},
		Tenant{ID: "globex", Name: "Globex Industries", Domain: "globex.example.com", Plan: PlanBusiness},
		Tenant{ID: "initech", Name: "Initech", Domain: "initech.example.com", Plan: PlanStarter},
	)
}

// Get returns the tenant with tenantID or ErrTenantNotFound.
func (c *StaticCatalog) Get(tenantID string) (Tenant, error) {
	i, ok := c.index[tenantID]
	if !ok {
		return Tenant{}, apperrors.Wrapf(ErrTenantNotFound, "tenant %q", tenantID)
	}
	return c.tenants[i], nil
}

// List returns a copy of the entries in catalog order.
func (c *StaticCatalog) List() []Tenant {
	out := make([]Tenant, len(c.tenants))
	copy(out, c.tenants)
	return out
}
