// Package qrcode renders scannable codes as PNG images, optionally with a
// caption band under the code.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	goqrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultSize   = 256
	captionHeight = 24
	captionMargin = 8
	ellipsis      = "..."
)

// ErrEmptyPayload is returned when there is nothing to encode.
var ErrEmptyPayload = errors.New("qrcode: empty payload")

// Encoder renders payloads as PNG codes.
type Encoder struct {
	size int
}

type Option func(*Encoder)

// WithSize sets the edge length of the code in pixels.
func WithSize(px int) Option {
	return func(e *Encoder) {
		if px > 0 {
			e.size = px
		}
	}
}

func New(opts ...Option) *Encoder {
	e := &Encoder{size: DefaultSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PNG encodes payload. A non-empty caption is drawn centred below the code.
func (e *Encoder) PNG(payload, caption string) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	code, err := goqrcode.New(payload, goqrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode payload: %w", err)
	}
	img := code.Image(e.size)
	if caption != "" {
		img = e.withCaption(img, caption)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qrcode: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Encoder) withCaption(code image.Image, caption string) image.Image {
	b := code.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+captionHeight))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, 0, b.Dx(), b.Dy()), code, b.Min, draw.Src)

	face := basicfont.Face7x13
	text := fitCaption(face, caption, b.Dx()-2*captionMargin)
	width := font.MeasureString(face, text).Ceil()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P((b.Dx()-width)/2, b.Dy()+captionHeight-(captionHeight-face.Ascent)/2),
	}
	d.DrawString(text)
	return dst
}

// fitCaption shortens text with an ellipsis until it fits maxWidth pixels.
func fitCaption(face font.Face, text string, maxWidth int) string {
	if font.MeasureString(face, text).Ceil() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return ""
}
