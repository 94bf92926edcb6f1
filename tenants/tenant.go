package tenants

// Tenant is one organization the console operator can switch between.
type Tenant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Plan   Plan   `json:"plan"`
}

// Plan is the subscription tier shown next to a tenant.
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)
