package assetpath_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetvault/pkg/assetpath"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("canonical shape", func(t *testing.T) {
		t.Parallel()

		key, err := assetpath.Resolve("catalog_image", "42", "", "cover.jpg")
		require.NoError(t, err)
		require.Regexp(t, regexp.MustCompile(`^catalog_image/42/\d+-[0-9A-Z]{8}-cover\.jpg$`), key)
	})

	t.Run("with subfolder", func(t *testing.T) {
		t.Parallel()

		key, err := assetpath.Resolve("order_attachment", "ord-7", "drafts", "spec.pdf")
		require.NoError(t, err)
		require.Regexp(t, regexp.MustCompile(`^order_attachment/ord-7/drafts/\d+-[0-9A-Z]{8}-spec\.pdf$`), key)
	})

	t.Run("collision avoidance", func(t *testing.T) {
		t.Parallel()

		a, err := assetpath.Resolve("logo", "1", "", "logo.png")
		require.NoError(t, err)
		b, err := assetpath.Resolve("logo", "1", "", "logo.png")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("rejects unsafe filenames", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{
			"",
			".",
			"..",
			"../secret.txt",
			"..\\secret.txt",
			"/etc/passwd",
			"a/b.txt",
			"a\\b.txt",
			"nested..name.txt",
			"nul\x00byte",
		} {
			_, err := assetpath.Resolve("logo", "1", "", name)
			require.ErrorIs(t, err, assetpath.ErrUnsafeFilename, "filename %q", name)
		}
	})

	t.Run("rejects invalid segments", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			entityType string
			entityID   string
			subfolder  string
		}{
			{"", "1", ""},
			{"logo", "", ""},
			{"a/b", "1", ""},
			{"logo", "../1", ""},
			{"logo", "1", "a b"},
			{".hidden", "1", ""},
		}
		for _, tc := range cases {
			_, err := assetpath.Resolve(tc.entityType, tc.entityID, tc.subfolder, "f.txt")
			require.ErrorIs(t, err, assetpath.ErrInvalidSegment,
				"segments %q/%q/%q", tc.entityType, tc.entityID, tc.subfolder)
		}
	})
}

func TestCheckFilename(t *testing.T) {
	t.Parallel()

	require.NoError(t, assetpath.CheckFilename("photo (1).jpg"))
	require.NoError(t, assetpath.CheckFilename("Ünïcode name.png"))
	require.Error(t, assetpath.CheckFilename("../x"))
}
