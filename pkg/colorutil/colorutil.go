// Package colorutil provides shared color utilities for the course setter.
package colorutil

import (
	"image/color"
)

// Common colors used throughout the editor.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}

	// ControlViolet is the ring color for start/finish controls.
	ControlViolet = color.RGBA{R: 160, G: 51, B: 240, A: 204}

	// MaskOpen is the opaque gray written where an operator erased a
	// blocked region from a predicted mask.
	MaskOpen = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// SpinnerGrays are the ring colors of the loading spinner, outermost first.
var SpinnerGrays = []color.RGBA{
	{R: 0x66, G: 0x66, B: 0x66, A: 255},
	{R: 0x99, G: 0x99, B: 0x99, A: 255},
	{R: 0xcc, G: 0xcc, B: 0xcc, A: 255},
}

// WithAlpha returns the color with its alpha channel replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// Blend alpha-blends src over dst with the given opacity in [0, 1].
func Blend(dst, src color.RGBA, opacity float64) color.RGBA {
	if opacity >= 1 {
		return src
	}
	if opacity <= 0 {
		return dst
	}
	inv := 1 - opacity
	return color.RGBA{
		R: uint8(float64(src.R)*opacity + float64(dst.R)*inv),
		G: uint8(float64(src.G)*opacity + float64(dst.G)*inv),
		B: uint8(float64(src.B)*opacity + float64(dst.B)*inv),
		A: 255,
	}
}
