package qrcode

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

func TestPNG(t *testing.T) {
	enc := New(WithSize(128))

	t.Run("plain code is square", func(t *testing.T) {
		raw, err := enc.PNG("http://localhost:8080/items/BAG-1", "")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())
		assert.Equal(t, 128, img.Bounds().Dy())
	})

	t.Run("caption adds a band below the code", func(t *testing.T) {
		raw, err := enc.PNG("http://localhost:8080/items/BAG-1", "BAG-1")
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())
		assert.Equal(t, 128+captionHeight, img.Bounds().Dy())
	})

	t.Run("empty payload is rejected", func(t *testing.T) {
		_, err := enc.PNG("", "x")
		assert.ErrorIs(t, err, ErrEmptyPayload)
	})
}

func TestFitCaption(t *testing.T) {
	face := basicfont.Face7x13

	assert.Equal(t, "short", fitCaption(face, "short", 100))

	long := strings.Repeat("W", 50)
	got := fitCaption(face, long, 70)
	assert.True(t, strings.HasSuffix(got, ellipsis))
	assert.LessOrEqual(t, font.MeasureString(face, got).Ceil(), 70)
}
