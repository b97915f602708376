package render

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"timer-stickers/internal/framecache"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// Renderer turns a remaining-seconds value into one frame. Implementations
// must behave as pure functions of the integer: the same value always
// yields the same bitmap at framecache.FrameSize.
type Renderer interface {
	RenderFrame(ctx context.Context, remaining int) (framecache.Frame, error)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(ctx context.Context, remaining int) (framecache.Frame, error)

// RenderFrame calls f.
func (f RendererFunc) RenderFrame(ctx context.Context, remaining int) (framecache.Frame, error) {
	return f(ctx, remaining)
}

// FormatRemaining formats a remaining-seconds value for display.
// Values below one minute render as a bare number; anything else as
// zero-padded MM:SS.
func FormatRemaining(remaining int) string {
	if remaining < 60 {
		return fmt.Sprintf("%d", remaining)
	}
	return fmt.Sprintf("%02d:%02d", remaining/60, remaining%60)
}

// BitmapRenderer is the reference renderer: digits drawn with a bitmap
// font, upscaled to fill the frame, centered on a fully transparent
// background.
type BitmapRenderer struct {
	face      font.Face
	textColor color.NRGBA
	margin    int
}

// NewBitmapRenderer creates a renderer drawing white digits.
func NewBitmapRenderer() *BitmapRenderer {
	return &BitmapRenderer{
		face:      inconsolata.Bold8x16,
		textColor: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		margin:    48,
	}
}

// RenderFrame draws the digits for one remaining-seconds value.
func (r *BitmapRenderer) RenderFrame(ctx context.Context, remaining int) (framecache.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if remaining < 0 {
		return nil, fmt.Errorf("render frame: negative remaining seconds %d", remaining)
	}

	text := FormatRemaining(remaining)

	metrics := r.face.Metrics()
	glyphHeight := metrics.Ascent.Ceil() + metrics.Descent.Ceil()
	glyphWidth := font.MeasureString(r.face, text).Ceil()
	if glyphWidth <= 0 || glyphHeight <= 0 {
		return nil, fmt.Errorf("render frame: zero-size glyph run for %q", text)
	}

	// Draw at font-native size first, then upscale; nearest keeps the
	// digit edges crisp.
	small := image.NewNRGBA(image.Rect(0, 0, glyphWidth, glyphHeight))
	drawer := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(r.textColor),
		Face: r.face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)

	usable := framecache.FrameSize - 2*r.margin
	scale := usable / glyphWidth
	if vScale := usable / glyphHeight; vScale < scale {
		scale = vScale
	}
	if scale < 1 {
		scale = 1
	}

	scaled := imaging.Resize(small, glyphWidth*scale, glyphHeight*scale, imaging.NearestNeighbor)

	canvas := image.NewNRGBA(image.Rect(0, 0, framecache.FrameSize, framecache.FrameSize))
	out := imaging.OverlayCenter(canvas, scaled, 1.0)
	return out, nil
}
