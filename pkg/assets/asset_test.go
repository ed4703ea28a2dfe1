package assets_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetvault/pkg/assets"
)

func TestMetadataFlattening(t *testing.T) {
	t.Parallel()

	t.Run("extra keys serialize beside known fields", func(t *testing.T) {
		t.Parallel()

		m := assets.Metadata{
			Filename: "photo.jpg",
			Size:     1024,
			Width:    800,
			Height:   600,
			Extra:    map[string]any{"camera": "x100", "iso": float64(400)},
		}

		raw, err := json.Marshal(m)
		require.NoError(t, err)

		var flat map[string]any
		require.NoError(t, json.Unmarshal(raw, &flat))
		require.Equal(t, "photo.jpg", flat["filename"])
		require.EqualValues(t, 1024, flat["size"])
		require.Equal(t, "x100", flat["camera"])
		require.EqualValues(t, 400, flat["iso"])
	})

	t.Run("known field wins over colliding extra key", func(t *testing.T) {
		t.Parallel()

		m := assets.Metadata{
			Filename: "real.png",
			Extra:    map[string]any{"filename": "fake.png"},
		}

		raw, err := json.Marshal(m)
		require.NoError(t, err)

		var flat map[string]any
		require.NoError(t, json.Unmarshal(raw, &flat))
		require.Equal(t, "real.png", flat["filename"])
	})

	t.Run("unmarshal splits known and extra", func(t *testing.T) {
		t.Parallel()

		var m assets.Metadata
		require.NoError(t, json.Unmarshal([]byte(`{
			"filename": "doc.pdf",
			"size": 2048,
			"stage": "review",
			"department": "legal"
		}`), &m))

		require.Equal(t, "doc.pdf", m.Filename)
		require.EqualValues(t, 2048, m.Size)
		require.Equal(t, "review", m.Stage)
		require.Equal(t, "legal", m.Extra["department"])
		_, leaked := m.Extra["filename"]
		require.False(t, leaked)
	})
}

func TestMetadataMerge(t *testing.T) {
	t.Parallel()

	m := assets.Metadata{
		Filename: "a.png",
		Caption:  "before",
		Extra:    map[string]any{"tag": "old"},
	}

	out, err := m.Merge(map[string]any{
		"caption": "after",
		"tag":     "new",
		"extra2":  42,
	})
	require.NoError(t, err)

	require.Equal(t, "after", out.Caption)
	require.Equal(t, "a.png", out.Filename)
	require.Equal(t, "new", out.Extra["tag"])
	require.EqualValues(t, 42, out.Extra["extra2"])
}

func TestTypeAndVisibilityValidation(t *testing.T) {
	t.Parallel()

	require.True(t, assets.TypeCustomerPhoto.Valid())
	require.True(t, assets.TypeVariant.Valid())
	require.False(t, assets.Type("selfie").Valid())
	require.False(t, assets.Type("").Valid())

	require.True(t, assets.VisibilityPublic.Valid())
	require.True(t, assets.VisibilityPrivate.Valid())
	require.False(t, assets.Visibility("internal").Valid())
}
