package assets_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetvault/pkg/assets"
)

func TestCanAccess(t *testing.T) {
	t.Parallel()

	policy := assets.NewPolicy(assets.DefaultCapabilities())
	owner := uuid.New()
	stranger := uuid.New()

	asset := func(typ assets.Type, vis assets.Visibility) assets.Asset {
		return assets.Asset{ID: uuid.New(), OwnerID: owner, Type: typ, Visibility: vis}
	}

	tests := []struct {
		name      string
		asset     assets.Asset
		requester uuid.UUID
		role      assets.Role
		want      bool
	}{
		{
			name:      "admin accesses anything",
			asset:     asset(assets.TypeDesignFile, assets.VisibilityPrivate),
			requester: uuid.Nil,
			role:      assets.RoleAdmin,
			want:      true,
		},
		{
			name:      "owner accesses own private asset",
			asset:     asset(assets.TypeCustomerPhoto, assets.VisibilityPrivate),
			requester: owner,
			role:      assets.RoleCustomer,
			want:      true,
		},
		{
			name:      "authenticated stranger reads public asset",
			asset:     asset(assets.TypeCatalogImage, assets.VisibilityPublic),
			requester: stranger,
			role:      assets.RoleCustomer,
			want:      true,
		},
		{
			name:      "anonymous denied even on public asset",
			asset:     asset(assets.TypeCatalogImage, assets.VisibilityPublic),
			requester: uuid.Nil,
			role:      assets.RoleCustomer,
			want:      false,
		},
		{
			name:      "design role reaches private design file",
			asset:     asset(assets.TypeDesignFile, assets.VisibilityPrivate),
			requester: stranger,
			role:      assets.RoleDesign,
			want:      true,
		},
		{
			name:      "production role reaches production image",
			asset:     asset(assets.TypeProductionImage, assets.VisibilityPrivate),
			requester: stranger,
			role:      assets.RoleProduction,
			want:      true,
		},
		{
			name:      "sales role reaches order attachment",
			asset:     asset(assets.TypeOrderAttachment, assets.VisibilityPrivate),
			requester: stranger,
			role:      assets.RoleSales,
			want:      true,
		},
		{
			name:      "sales role denied design file",
			asset:     asset(assets.TypeDesignFile, assets.VisibilityPrivate),
			requester: stranger,
			role:      assets.RoleSales,
			want:      false,
		},
		{
			name:      "customer denied private asset of another owner",
			asset:     asset(assets.TypeCustomerPhoto, assets.VisibilityPrivate),
			requester: stranger,
			role:      assets.RoleCustomer,
			want:      false,
		},
		{
			name:      "unknown role denied",
			asset:     asset(assets.TypeLogo, assets.VisibilityPrivate),
			requester: stranger,
			role:      assets.Role("support"),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, policy.CanAccess(tt.asset, tt.requester, tt.role))
		})
	}
}

func TestCanAccessDenyByDefault(t *testing.T) {
	t.Parallel()

	// Every private asset type crossed with every non-privileged role and a
	// non-owner requester must deny unless the capability table says
	// otherwise.
	policy := assets.NewPolicy(assets.DefaultCapabilities())
	caps := assets.DefaultCapabilities()
	stranger := uuid.New()

	allTypes := []assets.Type{
		assets.TypeCustomerPhoto, assets.TypeCatalogImage, assets.TypeProductionImage,
		assets.TypeDesignFile, assets.TypeOrderAttachment, assets.TypeProfileImage,
		assets.TypeLogo, assets.TypeThumbnail, assets.TypeVariant,
	}
	roles := []assets.Role{assets.RoleDesign, assets.RoleProduction, assets.RoleSales, assets.RoleCustomer}

	for _, typ := range allTypes {
		for _, role := range roles {
			a := assets.Asset{
				ID:         uuid.New(),
				OwnerID:    uuid.New(),
				Type:       typ,
				Visibility: assets.VisibilityPrivate,
			}

			granted := false
			for _, allowed := range caps[role] {
				if allowed == typ {
					granted = true
					break
				}
			}

			require.Equal(t, granted, policy.CanAccess(a, stranger, role),
				"type=%s role=%s", typ, role)
		}
	}
}

func TestCanAccessNoOwnerMatchForAnonymous(t *testing.T) {
	t.Parallel()

	// An asset row with a zero owner must not grant the anonymous requester
	// through the ownership rule.
	policy := assets.NewPolicy(assets.DefaultCapabilities())
	a := assets.Asset{OwnerID: uuid.Nil, Type: assets.TypeLogo, Visibility: assets.VisibilityPrivate}
	require.False(t, policy.CanAccess(a, uuid.Nil, assets.RoleCustomer))
}
