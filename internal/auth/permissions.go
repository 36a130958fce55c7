package auth

import (
	"context"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Permissions answers whether the caller may perform an action on an entity.
type Permissions interface {
	Can(ctx context.Context, action, entity string) bool
}

// Action names used across the admin surface.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRead   = "read"
)

// RolePermissions is a static role-to-grant map. The zero value denies
// everything.
type RolePermissions struct {
	// Grants maps role -> entity -> allowed actions. The "*" entity and
	// action wildcards grant broadly.
	Grants map[string]map[string][]string
}

// DefaultPermissions grants admins everything and customers read access to
// the storefront catalog.
func DefaultPermissions() *RolePermissions {
	return &RolePermissions{Grants: map[string]map[string][]string{
		"admin":    {"*": {"*"}},
		"customer": {"catalog": {ActionRead}},
	}}
}

// Can implements Permissions using the caller's role from the context.
func (p *RolePermissions) Can(ctx context.Context, action, entity string) bool {
	if p == nil || len(p.Grants) == 0 {
		return false
	}
	role := common.UserRole(ctx)
	entities, ok := p.Grants[role]
	if !ok {
		return false
	}
	for _, key := range []string{entity, "*"} {
		for _, allowed := range entities[key] {
			if allowed == action || allowed == "*" {
				return true
			}
		}
	}
	return false
}
