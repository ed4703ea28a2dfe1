package assets

import "errors"

// Sentinel errors for asset operations. ErrAccessDenied is deliberately
// distinct from ErrNotFound so callers cannot probe for an asset's existence
// through the error they receive.
var (
	ErrNotFound          = errors.New("assets: not found")
	ErrAccessDenied      = errors.New("assets: access denied")
	ErrInvalidType       = errors.New("assets: invalid asset type")
	ErrInvalidVisibility = errors.New("assets: invalid visibility")
	ErrValidation        = errors.New("assets: validation failed")
	ErrTooManyFiles      = errors.New("assets: too many files in one request")
	ErrBackend           = errors.New("assets: storage backend failure")
	ErrConflict          = errors.New("assets: storage key conflict")
)
