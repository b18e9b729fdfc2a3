package auth

import "github.com/gokul1818/foodOrderAdmin/internal/domain"

// Policy decides which identities carry cross-tenant visibility. The
// allow-list is injected from configuration rather than hardcoded, so it is
// an explicit, testable predicate.
type Policy struct {
	allowed map[string]struct{}
}

func NewPolicy(superAdminIDs []string) *Policy {
	allowed := make(map[string]struct{}, len(superAdminIDs))
	for _, id := range superAdminIDs {
		allowed[id] = struct{}{}
	}
	return &Policy{allowed: allowed}
}

// IsSuperAdmin is a pure predicate over the identity id.
func (p *Policy) IsSuperAdmin(id string) bool {
	_, ok := p.allowed[id]
	return ok
}

// Identify builds the Identity for an id, deriving the role flag.
func (p *Policy) Identify(id string) domain.Identity {
	return domain.Identity{ID: id, IsSuperAdmin: p.IsSuperAdmin(id)}
}
