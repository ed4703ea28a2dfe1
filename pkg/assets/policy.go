package assets

import "github.com/google/uuid"

// Role is the requester's role as resolved by the upstream auth layer.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDesign     Role = "design"
	RoleProduction Role = "production"
	RoleSales      Role = "sales"
	RoleCustomer   Role = "customer"
)

// Capabilities maps a role to the asset types it may access when the asset
// is private and the requester is neither the owner nor an admin.
type Capabilities map[Role][]Type

// DefaultCapabilities is the standard role-to-type capability table.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		RoleDesign:     {TypeDesignFile, TypeProductionImage, TypeCatalogImage},
		RoleProduction: {TypeProductionImage, TypeDesignFile},
		RoleSales:      {TypeCustomerPhoto, TypeOrderAttachment},
	}
}

// Policy is the access decision engine. It is pure and holds no per-request
// state: every decision is computed fresh from the asset row handed in, so a
// visibility flip or role change takes effect on the very next call. Nothing
// here may be cached.
type Policy struct {
	capabilities map[Role]map[Type]struct{}
}

// NewPolicy builds a Policy from a capability table.
func NewPolicy(caps Capabilities) *Policy {
	idx := make(map[Role]map[Type]struct{}, len(caps))
	for role, types := range caps {
		set := make(map[Type]struct{}, len(types))
		for _, t := range types {
			set[t] = struct{}{}
		}
		idx[role] = set
	}
	return &Policy{capabilities: idx}
}

// CanAccess decides whether the requester may read the asset. Deny by
// default: only an explicit rule grants access.
//
//  1. Admins access everything.
//  2. Owners access their own assets, deleted or not.
//  3. Public assets are readable by any authenticated identity.
//  4. Private assets fall through to the role/type capability table.
func (p *Policy) CanAccess(a Asset, requesterID uuid.UUID, role Role) bool {
	if role == RoleAdmin {
		return true
	}
	if requesterID != uuid.Nil && a.OwnerID == requesterID {
		return true
	}
	if a.Visibility == VisibilityPublic && requesterID != uuid.Nil {
		return true
	}
	if a.Visibility == VisibilityPrivate {
		if types, ok := p.capabilities[role]; ok {
			if _, allowed := types[a.Type]; allowed {
				return true
			}
		}
	}
	return false
}
