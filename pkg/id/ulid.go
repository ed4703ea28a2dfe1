// Package id provides sortable identifier and random token generation
// used for storage key disambiguation.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford's Base32 alphabet (excludes I, L, O, U to avoid confusion).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewULID generates a ULID (Universally Unique Lexicographically Sortable Identifier).
// Returns a 26-character string: 10 chars timestamp (48-bit ms) + 16 chars random (80-bit).
// ULIDs sort lexicographically by creation time, which keeps objects uploaded
// to the same prefix listed in upload order.
func NewULID() string {
	ms := uint64(time.Now().UnixMilli())

	randomBytes := make([]byte, 10)
	if _, err := rand.Read(randomBytes); err != nil {
		// Fallback: time-based entropy (degraded but functional).
		binary.BigEndian.PutUint64(randomBytes[:8], uint64(time.Now().UnixNano()))
	}

	var ulid [26]byte

	// Encode timestamp (48 bits = 10 base32 chars).
	for i := 9; i >= 0; i-- {
		ulid[i] = crockfordBase32[ms&0x1F]
		ms >>= 5
	}

	// Encode random bytes (80 bits = 16 base32 chars), 5 bits at a time.
	var acc uint64
	bits := 0
	pos := 10
	for _, b := range randomBytes {
		acc = acc<<8 | uint64(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			ulid[pos] = crockfordBase32[(acc>>uint(bits))&0x1F]
			pos++
		}
	}

	return string(ulid[:])
}

// Token returns n random Crockford Base32 characters from a CSPRNG.
// Used as the collision-avoidance suffix in storage keys; 8 characters
// give 40 bits of entropy, enough to disambiguate same-millisecond uploads.
func Token(n int) string {
	if n <= 0 {
		return ""
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		binary.BigEndian.PutUint64(buf[:min(8, n)], uint64(time.Now().UnixNano()))
	}

	out := make([]byte, n)
	for i, b := range buf {
		out[i] = crockfordBase32[int(b)&0x1F]
	}
	return string(out)
}
