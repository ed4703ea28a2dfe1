package id_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetvault/pkg/id"
)

func TestNewULID(t *testing.T) {
	t.Parallel()

	t.Run("length and alphabet", func(t *testing.T) {
		t.Parallel()

		ulid := id.NewULID()
		require.Len(t, ulid, 26)
		for _, c := range ulid {
			require.Contains(t, "0123456789ABCDEFGHJKMNPQRSTVWXYZ", string(c))
		}
	})

	t.Run("unique", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{})
		for range 1000 {
			ulid := id.NewULID()
			_, dup := seen[ulid]
			require.False(t, dup, "duplicate ULID: %s", ulid)
			seen[ulid] = struct{}{}
		}
	})

	t.Run("sortable by creation time", func(t *testing.T) {
		t.Parallel()

		first := id.NewULID()
		time.Sleep(2 * time.Millisecond)
		second := id.NewULID()

		ids := []string{second, first}
		sort.Strings(ids)
		require.Equal(t, []string{first, second}, ids)
	})
}

func TestToken(t *testing.T) {
	t.Parallel()

	t.Run("length", func(t *testing.T) {
		t.Parallel()

		require.Len(t, id.Token(8), 8)
		require.Len(t, id.Token(16), 16)
		require.Empty(t, id.Token(0))
		require.Empty(t, id.Token(-1))
	})

	t.Run("unique", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{})
		for range 1000 {
			tok := id.Token(8)
			_, dup := seen[tok]
			require.False(t, dup, "duplicate token: %s", tok)
			seen[tok] = struct{}{}
		}
	})
}
