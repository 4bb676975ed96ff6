package opencv

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/params"
)

func sketch(input gocv.Mat, st effects.Stage) gocv.Mat {
	gray := gocv.NewMat()
	color := gocv.NewMat()
	gocv.PencilSketch(input, &gray, &color, 60, 0.07, 0.02)

	if st.SketchMode == params.SketchColor {
		gray.Close()
		return color
	}
	color.Close()

	out := gocv.NewMat()
	gocv.CvtColor(gray, &out, gocv.ColorGrayToBGR)
	gray.Close()
	return out
}

func cartoon(input gocv.Mat, distinctEdges bool) gocv.Mat {
	smooth := gocv.NewMat()
	defer smooth.Close()
	gocv.BilateralFilter(input, &smooth, 9, 75, 75)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	gocv.MedianBlur(gray, &gray, 7)

	blockSize, c := 9, float32(2)
	if distinctEdges {
		blockSize, c = 7, 6
	}
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.AdaptiveThreshold(gray, &edges, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, blockSize, c)

	edgesBGR := gocv.NewMat()
	defer edgesBGR.Close()
	gocv.CvtColor(edges, &edgesBGR, gocv.ColorGrayToBGR)

	out := gocv.NewMat()
	gocv.BitwiseAnd(smooth, edgesBGR, &out)
	return out
}

// hdr approximates the multi-frame HDR look from a single frame: denoise,
// enhance detail, then adjust contrast and saturation.
func hdr(input gocv.Mat, h effects.HDR) (gocv.Mat, error) {
	current := input.Clone()

	if h.NoiseSuppression > 0.05 {
		denoised := gocv.NewMat()
		gocv.FastNlMeansDenoisingColored(current, &denoised)
		blended := gocv.NewMat()
		gocv.AddWeighted(current, 1-h.NoiseSuppression, denoised, h.NoiseSuppression, 0, &blended)
		denoised.Close()
		current.Close()
		current = blended
	}

	if h.Strength > 0 {
		enhanced := gocv.NewMat()
		gocv.DetailEnhance(current, &enhanced, float32(10+h.Strength*90), float32(0.05+h.Strength*0.25))
		current.Close()
		current = enhanced
	}

	if current.Empty() {
		current.Close()
		return gocv.NewMat(), fmt.Errorf("hdr produced no image")
	}

	out, err := viaImage(current, func(img *image.NRGBA) *image.NRGBA {
		return imaging.AdjustSaturation(img, (h.Saturation-0.5)*200)
	})
	current.Close()
	return out, err
}
