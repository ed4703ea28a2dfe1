package assets

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type classifies what business object a stored file represents.
// The set is closed; unknown values are rejected on insert and update.
type Type string

const (
	TypeCustomerPhoto   Type = "customer_photo"
	TypeCatalogImage    Type = "catalog_image"
	TypeProductionImage Type = "production_image"
	TypeDesignFile      Type = "design_file"
	TypeOrderAttachment Type = "order_attachment"
	TypeProfileImage    Type = "profile_image"
	TypeLogo            Type = "logo"
	TypeThumbnail       Type = "thumbnail"
	TypeVariant         Type = "variant"
)

var validTypes = map[Type]struct{}{
	TypeCustomerPhoto:   {},
	TypeCatalogImage:    {},
	TypeProductionImage: {},
	TypeDesignFile:      {},
	TypeOrderAttachment: {},
	TypeProfileImage:    {},
	TypeLogo:            {},
	TypeThumbnail:       {},
	TypeVariant:         {},
}

// Valid reports whether t is a member of the closed type set.
func (t Type) Valid() bool {
	_, ok := validTypes[t]
	return ok
}

// Visibility controls how an asset is reached: a permanent public URL or a
// policy-gated signed URL. It may change at any time without moving the blob.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility value.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Asset is a metadata record describing one stored file and its access rules.
// Location is derived by the path resolver at upload time and immutable after
// insert; a relocation requires a new asset.
type Asset struct {
	ID         uuid.UUID  `json:"id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Type       Type       `json:"type"`
	RelatedID  *uuid.UUID `json:"related_id,omitempty"`
	Location   string     `json:"location"`
	Visibility Visibility `json:"visibility"`
	Metadata   Metadata   `json:"metadata"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the asset is soft-deleted.
func (a Asset) Deleted() bool {
	return a.DeletedAt != nil
}

// Public reports whether the asset's blob lives in the public bucket.
// The bucket was chosen by visibility at creation time; since a visibility
// flip never moves the blob, the stored visibility tracks it exactly only
// for assets that were never flipped - which is why the issuer decides by
// current visibility, not bucket.
func (a Asset) Public() bool {
	return a.Visibility == VisibilityPublic
}

// Metadata carries the typed, well-known descriptive fields of an asset plus
// an open extension map for anything else. It serializes as one flat JSON
// object; known fields win over colliding Extra keys.
type Metadata struct {
	Filename         string         `json:"filename,omitempty"`
	Size             int64          `json:"size,omitempty"`
	Width            int            `json:"width,omitempty"`
	Height           int            `json:"height,omitempty"`
	Format           string         `json:"format,omitempty"`
	Caption          string         `json:"caption,omitempty"`
	Stage            string         `json:"stage,omitempty"`
	ProcessingStatus string         `json:"processing_status,omitempty"`
	UploadedBy       string         `json:"uploaded_by,omitempty"`
	UploadSession    string         `json:"upload_session,omitempty"`
	Extra            map[string]any `json:"-"`
}

var knownMetadataKeys = []string{
	"filename", "size", "width", "height", "format", "caption",
	"stage", "processing_status", "uploaded_by", "upload_session",
}

// metadataAlias avoids MarshalJSON/UnmarshalJSON recursion.
type metadataAlias Metadata

// MarshalJSON flattens Extra into the same object as the known fields.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+len(knownMetadataKeys))
	for k, v := range m.Extra {
		out[k] = v
	}

	knownJSON, err := json.Marshal(metadataAlias(m))
	if err != nil {
		return nil, err
	}
	var known map[string]any
	if err := json.Unmarshal(knownJSON, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		out[k] = v
	}

	return json.Marshal(out)
}

// UnmarshalJSON splits a flat object back into known fields and Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var known metadataAlias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range knownMetadataKeys {
		delete(raw, key)
	}

	*m = Metadata(known)
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// Merge applies a partial change set on top of the metadata, returning the
// result. Changes address keys in the flat representation, so both known
// fields ("caption") and extension keys can be updated in one call.
func (m Metadata) Merge(changes map[string]any) (Metadata, error) {
	current, err := json.Marshal(m)
	if err != nil {
		return Metadata{}, err
	}

	var flat map[string]any
	if err := json.Unmarshal(current, &flat); err != nil {
		return Metadata{}, err
	}
	for k, v := range changes {
		flat[k] = v
	}

	merged, err := json.Marshal(flat)
	if err != nil {
		return Metadata{}, err
	}

	var out Metadata
	if err := json.Unmarshal(merged, &out); err != nil {
		return Metadata{}, err
	}
	return out, nil
}
