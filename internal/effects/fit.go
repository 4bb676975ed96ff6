package effects

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// FitRect returns the largest rectangle with src's aspect ratio centered in
// dst.
func FitRect(dst, src image.Rectangle) image.Rectangle {
	dw, dh := dst.Dx(), dst.Dy()
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 || dw == 0 || dh == 0 {
		return image.Rectangle{}
	}

	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// Fit scales src into dst preserving the aspect ratio. The unused border is
// cleared to opaque black.
func Fit(dst *image.RGBA, src image.Image) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	r := FitRect(dst.Bounds(), src.Bounds())
	if r.Empty() {
		return
	}
	if r.Size() == src.Bounds().Size() {
		draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(dst, r, src, src.Bounds(), draw.Src, nil)
}
