// Package assetpath derives canonical storage keys for assets.
//
// A key has the form
//
//	{entity_type}/{entity_id}/{subfolder?}/{timestamp}-{token}-{original_filename}
//
// and is the only way a storage location comes into existence: callers never
// supply a location verbatim, which rules out path traversal and bucket
// confusion by construction. Unsafe input is rejected with a validation
// error, never silently sanitized.
package assetpath

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrymomot/assetvault/pkg/id"
)

var (
	ErrInvalidSegment = errors.New("assetpath: invalid path segment")
	ErrUnsafeFilename = errors.New("assetpath: unsafe filename")
)

// tokenLength is the number of random characters appended to the timestamp
// to disambiguate same-second uploads of the same filename.
const tokenLength = 8

// segmentPattern restricts entity type, entity id, and subfolder segments to
// characters that are safe in object keys and URLs.
var segmentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Resolve builds the canonical storage key for a file belonging to an entity.
// Subfolder may be empty. The function is pure apart from reading the clock
// and entropy for the disambiguation suffix; it never touches the backend.
func Resolve(entityType, entityID, subfolder, filename string) (string, error) {
	if err := checkSegment(entityType); err != nil {
		return "", fmt.Errorf("%w: entity type %q", err, entityType)
	}
	if err := checkSegment(entityID); err != nil {
		return "", fmt.Errorf("%w: entity id %q", err, entityID)
	}
	if subfolder != "" {
		if err := checkSegment(subfolder); err != nil {
			return "", fmt.Errorf("%w: subfolder %q", err, subfolder)
		}
	}
	if err := CheckFilename(filename); err != nil {
		return "", err
	}

	parts := []string{entityType, entityID}
	if subfolder != "" {
		parts = append(parts, subfolder)
	}
	parts = append(parts, fmt.Sprintf("%d-%s-%s", time.Now().Unix(), id.Token(tokenLength), filename))

	return strings.Join(parts, "/"), nil
}

// CheckFilename rejects filenames that could escape the derived prefix:
// empty names, path separators, traversal sequences, absolute paths, and
// NUL bytes. The original name is otherwise preserved in the key.
func CheckFilename(filename string) error {
	switch {
	case filename == "" || filename == "." || filename == "..":
		return fmt.Errorf("%w: empty or dot name", ErrUnsafeFilename)
	case strings.ContainsAny(filename, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrUnsafeFilename, filename)
	case strings.Contains(filename, ".."):
		return fmt.Errorf("%w: %q contains a traversal sequence", ErrUnsafeFilename, filename)
	case strings.ContainsRune(filename, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrUnsafeFilename, filename)
	}
	return nil
}

func checkSegment(segment string) error {
	if segment == "" || strings.Contains(segment, "..") || !segmentPattern.MatchString(segment) {
		return ErrInvalidSegment
	}
	return nil
}
