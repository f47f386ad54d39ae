// Command maskpredict runs barrier prediction on a map image and writes
// the mask to a PNG file.
package main

import (
	"flag"
	"fmt"
	"os"

	imgutil "course-setter/internal/image"
	"course-setter/internal/predict"
)

func main() {
	mapPath := flag.String("map", "", "Path to map image (PNG or JPEG)")
	outPath := flag.String("out", "mask.png", "Output mask path")
	minArea := flag.Float64("min-area", predict.DefaultOptions().MinRegionArea, "Minimum barrier region area in pixels")
	flag.Parse()

	if *mapPath == "" {
		fmt.Println("Usage: maskpredict -map <path> [-out mask.png] [-min-area 40]")
		os.Exit(1)
	}

	layer, err := imgutil.Load(*mapPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load map: %v\n", err)
		os.Exit(1)
	}

	bounds := layer.Image.Bounds()
	fmt.Printf("Loaded map: %dx%d pixels\n", bounds.Dx(), bounds.Dy())
	fmt.Printf("Estimated prediction time: %ds\n", predict.EstimateSeconds(bounds.Dx(), bounds.Dy(), 1))

	opts := predict.DefaultOptions()
	opts.MinRegionArea = *minArea

	mask, err := predict.Barriers(layer.Image, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Prediction failed: %v\n", err)
		os.Exit(1)
	}

	png, err := imgutil.EncodePNG(mask)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode mask: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, png, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write mask: %v\n", err)
		os.Exit(1)
	}

	barriers := 0
	mb := mask.Bounds()
	for y := mb.Min.Y; y < mb.Max.Y; y++ {
		for x := mb.Min.X; x < mb.Max.X; x++ {
			if _, _, _, a := mask.At(x, y).RGBA(); a > 0 {
				barriers++
			}
		}
	}
	total := mb.Dx() * mb.Dy()
	fmt.Printf("Barrier coverage: %.1f%%\n", 100*float64(barriers)/float64(total))
	fmt.Printf("Wrote %s\n", *outPath)
}
