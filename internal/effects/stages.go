// Pure Go renditions of the effect stages
package effects

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/microsoft/filter-effects/internal/params"
)

var vignetteStrength = map[params.LomoVignetting]float64{
	params.VignettingLow:    0.35,
	params.VignettingMedium: 0.55,
	params.VignettingHigh:   0.8,
}

// channel multipliers per lomo style (r, g, b)
var styleTint = map[params.LomoStyle][3]float64{
	params.StyleNeutral: {1, 1, 1},
	params.StyleRed:     {1.15, 0.95, 0.95},
	params.StyleGreen:   {0.95, 1.12, 0.95},
	params.StyleBlue:    {0.92, 0.98, 1.15},
	params.StyleYellow:  {1.1, 1.06, 0.82},
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func luminance(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// ApplyStage runs one stage over img.
func ApplyStage(img *image.NRGBA, st Stage) *image.NRGBA {
	switch st.Kind {
	case StageAntique:
		return antique(img)
	case StageLomo:
		return lomo(img, st)
	case StageSketch:
		return sketch(img, st.SketchMode)
	case StageCartoon:
		return cartoon(img, st.DistinctEdges)
	}
	return img
}

func lomo(img *image.NRGBA, st Stage) *image.NRGBA {
	out := imaging.AdjustSaturation(img, (st.Saturation-0.5)*200)
	out = imaging.AdjustBrightness(out, (st.Brightness-0.5)*100)
	out = imaging.AdjustContrast(out, 20)

	tint, ok := styleTint[st.Style]
	if ok && st.Style != params.StyleNeutral {
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{
				R: clampByte(float64(c.R) * tint[0]),
				G: clampByte(float64(c.G) * tint[1]),
				B: clampByte(float64(c.B) * tint[2]),
				A: c.A,
			}
		})
	}

	return Vignette(out, vignetteStrength[st.Vignetting])
}

// Vignette darkens img towards the corners in place and returns it.
func Vignette(img *image.NRGBA, strength float64) *image.NRGBA {
	if strength <= 0 {
		return img
	}
	b := img.Bounds()
	cx := float64(b.Min.X+b.Max.X) / 2
	cy := float64(b.Min.Y+b.Max.Y) / 2
	maxDist := math.Hypot(float64(b.Dx())/2, float64(b.Dy())/2)
	if maxDist == 0 {
		return img
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / maxDist
			f := 1 - strength*d*d
			i := img.PixOffset(x, y)
			img.Pix[i] = clampByte(float64(img.Pix[i]) * f)
			img.Pix[i+1] = clampByte(float64(img.Pix[i+1]) * f)
			img.Pix[i+2] = clampByte(float64(img.Pix[i+2]) * f)
		}
	}
	return img
}

func antique(img *image.NRGBA) *image.NRGBA {
	out := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := luminance(c)
		return color.NRGBA{
			R: clampByte(l*1.0 + 38),
			G: clampByte(l*0.9 + 18),
			B: clampByte(l * 0.72),
			A: c.A,
		}
	})
	return imaging.AdjustContrast(out, -10)
}

func sketch(img *image.NRGBA, mode params.SketchMode) *image.NRGBA {
	gray := imaging.Grayscale(img)
	blurred := imaging.Blur(imaging.Invert(gray), 4)

	out := image.NewNRGBA(img.Bounds())
	for i := 0; i+3 < len(out.Pix); i += 4 {
		g := float64(gray.Pix[i])
		bl := float64(blurred.Pix[i])
		dodge := 255.0
		if bl < 255 {
			dodge = math.Min(255, g*255/(255-bl))
		}

		if mode == params.SketchColor {
			k := dodge / 255
			out.Pix[i] = clampByte(float64(img.Pix[i]) * k)
			out.Pix[i+1] = clampByte(float64(img.Pix[i+1]) * k)
			out.Pix[i+2] = clampByte(float64(img.Pix[i+2]) * k)
		} else {
			v := clampByte(dodge)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
		}
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

var laplacian = [9]float64{
	-1, -1, -1,
	-1, 8, -1,
	-1, -1, -1,
}

func cartoon(img *image.NRGBA, distinctEdges bool) *image.NRGBA {
	const levels = 6
	step := 255.0 / (levels - 1)
	flat := imaging.AdjustFunc(imaging.Blur(img, 1.5), func(c color.NRGBA) color.NRGBA {
		q := func(v uint8) uint8 { return clampByte(math.Round(float64(v)/step) * step) }
		return color.NRGBA{R: q(c.R), G: q(c.G), B: q(c.B), A: c.A}
	})

	threshold := uint8(48)
	if distinctEdges {
		threshold = 24
	}
	edges := imaging.Convolve3x3(imaging.Grayscale(img), laplacian, nil)

	for i := 0; i+3 < len(flat.Pix); i += 4 {
		if edges.Pix[i] > threshold {
			flat.Pix[i], flat.Pix[i+1], flat.Pix[i+2] = 0, 0, 0
		}
	}
	return flat
}

// ApplyHDR boosts local contrast of img after optional denoising.
func ApplyHDR(img *image.NRGBA, h HDR) *image.NRGBA {
	src := img
	if h.NoiseSuppression > 0 {
		src = imaging.Blur(img, h.NoiseSuppression*1.5)
	}
	base := imaging.Blur(src, 8)
	gain := h.Strength * 2

	out := image.NewNRGBA(src.Bounds())
	for i := 0; i+3 < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(src.Pix[i+c])
			out.Pix[i+c] = clampByte(v + (v-float64(base.Pix[i+c]))*gain)
		}
		out.Pix[i+3] = src.Pix[i+3]
	}
	return imaging.AdjustSaturation(out, (h.Saturation-0.5)*200)
}
