package vision

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexvision/focusd/internal/ports"
)

// TestNormalizeDataURL tests that bare base64 gains a JPEG data URL
// prefix while existing data URLs pass through.
func TestNormalizeDataURL(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,abc", NormalizeDataURL("abc"))
	assert.Equal(t, "data:image/png;base64,abc", NormalizeDataURL("data:image/png;base64,abc"))
}

// TestDecodeDataURL tests payload and media type extraction.
func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))

	t.Run("full data URL", func(t *testing.T) {
		data, mediaType, err := DecodeDataURL("data:image/png;base64," + payload)

		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg bytes"), data)
		assert.Equal(t, "image/png", mediaType)
	})

	t.Run("bare base64 defaults to jpeg", func(t *testing.T) {
		data, mediaType, err := DecodeDataURL(payload)

		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg bytes"), data)
		assert.Equal(t, "image/jpeg", mediaType)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, _, err := DecodeDataURL("data:image/jpeg;base64,???not-base64???")

		require.Error(t, err)
		assert.ErrorIs(t, err, ports.ErrInvalidImage)
	})

	t.Run("data URL without payload", func(t *testing.T) {
		_, _, err := DecodeDataURL("data:image/jpeg;base64")

		require.Error(t, err)
		assert.ErrorIs(t, err, ports.ErrInvalidImage)
	})
}
