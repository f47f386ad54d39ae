// Package predict generates the initial barrier mask for an uploaded map.
// Impassable terrain on an orienteering map is printed in a handful of
// symbol colors (water blue, thicket green, olive settlement, rock black),
// so a color segmentation pass in HSV space recovers most of it. The result
// is a black-on-transparent raster the mask editor refines by hand.
package predict

import (
	"fmt"
	"image"
	"math"

	imgutil "course-setter/internal/image"
	"course-setter/pkg/colorutil"

	"gocv.io/x/gocv"
)

// Options configures barrier prediction.
type Options struct {
	BlurKernel        int     // Gaussian blur kernel size, odd
	CleanupIterations int     // Morphological cleanup strength
	MinRegionArea     float64 // Regions smaller than this are noise
}

// DefaultOptions returns the prediction defaults.
func DefaultOptions() Options {
	return Options{
		BlurKernel:        5,
		CleanupIterations: 2,
		MinRegionArea:     40,
	}
}

// hsvRange is an inclusive HSV band matched against map pixels.
type hsvRange struct {
	lower gocv.Scalar
	upper gocv.Scalar
}

// Symbol color bands for impassable terrain, OpenCV HSV (H 0..179).
var barrierRanges = []hsvRange{
	// Water and marsh blue.
	{gocv.NewScalar(95, 80, 60, 0), gocv.NewScalar(130, 255, 255, 0)},
	// Dense vegetation green.
	{gocv.NewScalar(40, 90, 40, 0), gocv.NewScalar(85, 255, 220, 0)},
	// Olive settlement areas.
	{gocv.NewScalar(25, 90, 80, 0), gocv.NewScalar(40, 255, 230, 0)},
	// Rock faces, cliffs, and other black symbols.
	{gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(180, 255, 55, 0)},
}

// EstimateSeconds returns the expected prediction latency for a map of the
// given pixel size at the given document scale. The caller uses it to size
// the loading spinner timeout.
func EstimateSeconds(width, height int, scale float64) int {
	area := scale / 0.7104 * float64(width) * float64(height) * 2 / 1e6
	return int(math.Ceil(5 + area))
}

// Barriers segments impassable terrain from a map image and returns the
// mask as a black-on-transparent RGBA raster in map pixel coordinates.
func Barriers(mapImage image.Image, opts Options) (*image.RGBA, error) {
	mat, err := imageToMat(mapImage)
	if err != nil {
		return nil, fmt.Errorf("convert map image: %w", err)
	}
	defer mat.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := opts.BlurKernel
	if k < 1 {
		k = 1
	}
	if k%2 == 0 {
		k++
	}
	gocv.GaussianBlur(mat, &blurred, image.Point{k, k}, 0, 0, gocv.BorderDefault)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(blurred, &hsv, gocv.ColorBGRToHSV)

	combined := gocv.NewMatWithSize(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	defer combined.Close()
	for _, band := range barrierRanges {
		partial := gocv.NewMat()
		gocv.InRangeWithScalar(hsv, band.lower, band.upper, &partial)
		gocv.BitwiseOr(combined, partial, &combined)
		partial.Close()
	}

	cleaned := cleanup(combined, opts.CleanupIterations)
	defer cleaned.Close()

	final := dropSmallRegions(cleaned, opts.MinRegionArea)
	defer final.Close()

	return matToMask(final), nil
}

// cleanup closes pinholes and removes speckle noise.
func cleanup(mask gocv.Mat, iterations int) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
	defer kernel.Close()

	cleaned := mask.Clone()
	for i := 0; i < iterations; i++ {
		gocv.MorphologyEx(cleaned, &cleaned, gocv.MorphClose, kernel)
	}
	for i := 0; i < iterations; i++ {
		gocv.MorphologyEx(cleaned, &cleaned, gocv.MorphOpen, kernel)
	}
	return cleaned
}

// dropSmallRegions removes connected regions below minArea.
func dropSmallRegions(mask gocv.Mat, minArea float64) gocv.Mat {
	if minArea <= 0 {
		return mask.Clone()
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	kept := gocv.NewMatWithSize(mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	for i := 0; i < contours.Size(); i++ {
		if gocv.ContourArea(contours.At(i)) >= minArea {
			gocv.DrawContours(&kept, contours, i, colorutil.White, -1)
		}
	}
	return kept
}

// imageToMat converts a Go image to a BGR Mat.
func imageToMat(src image.Image) (gocv.Mat, error) {
	rgba := imgutil.ToRGBA(src)
	bounds := rgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("empty image %dx%d", w, h)
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := rgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			mat.SetUCharAt(y, x*3+0, rgba.Pix[off+2])
			mat.SetUCharAt(y, x*3+1, rgba.Pix[off+1])
			mat.SetUCharAt(y, x*3+2, rgba.Pix[off+0])
		}
	}
	return mat, nil
}

// matToMask converts a binary Mat to a black-on-transparent RGBA raster.
func matToMask(mask gocv.Mat) *image.RGBA {
	rows, cols := mask.Rows(), mask.Cols()
	out := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.GetUCharAt(y, x) != 0 {
				out.SetRGBA(x, y, colorutil.Black)
			}
		}
	}
	return out
}
