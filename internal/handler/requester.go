package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/assetvault/pkg/assets"
)

// Requester identity headers, set by the upstream auth layer. A missing
// or malformed id reads as anonymous (uuid.Nil), which the policy treats
// as unauthenticated.
const (
	HeaderRequesterID   = "X-Requester-Id"
	HeaderRequesterRole = "X-Requester-Role"
)

type requester struct {
	ID   uuid.UUID
	Role assets.Role
}

func requesterFrom(r *http.Request) requester {
	req := requester{Role: assets.Role(r.Header.Get(HeaderRequesterRole))}
	if id, err := uuid.Parse(r.Header.Get(HeaderRequesterID)); err == nil {
		req.ID = id
	}
	return req
}
