// Package mapscale reads the printed "1:xxxxx" scale caption from an
// uploaded map. A recognized 1:10000 caption lets the editor apply the
// default meters-per-pixel conversion without manual calibration.
package mapscale

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultRatio is the map ratio the route metrics are calibrated for.
// Maps printed at this ratio need no manual scale calibration.
const DefaultRatio = 10000

// ScaleChars restricts OCR to what a scale caption can contain.
const ScaleChars = "0123456789:1"

// ErrNoScale is returned when no scale caption is recognized.
var ErrNoScale = errors.New("no scale caption found")

var ratioPattern = regexp.MustCompile(`1\s*:\s*(\d{3,6})`)

// Reader recognizes scale captions with Tesseract.
type Reader struct {
	client *gosseract.Client
}

// NewReader creates a caption reader.
func NewReader() (*Reader, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("set ocr language: %w", err)
	}

	// Captions are digits and a colon, not words.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Reader{client: client}, nil
}

// Close releases OCR resources.
func (r *Reader) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ReadRatio scans an encoded map image for a "1:xxxxx" caption and returns
// the ratio denominator. Returns ErrNoScale when nothing matches.
func (r *Reader) ReadRatio(imageBytes []byte) (int, error) {
	if err := r.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return 0, fmt.Errorf("set page seg mode: %w", err)
	}
	if err := r.client.SetWhitelist(ScaleChars); err != nil {
		return 0, fmt.Errorf("set whitelist: %w", err)
	}
	if err := r.client.SetImageFromBytes(imageBytes); err != nil {
		return 0, fmt.Errorf("set image: %w", err)
	}

	text, err := r.client.Text()
	if err != nil {
		return 0, fmt.Errorf("ocr: %w", err)
	}

	return ParseRatio(text)
}

// ParseRatio extracts the ratio denominator from recognized text.
func ParseRatio(text string) (int, error) {
	match := ratioPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0, ErrNoScale
	}
	ratio, err := strconv.Atoi(match[1])
	if err != nil || ratio <= 0 {
		return 0, ErrNoScale
	}
	return ratio, nil
}

// AppliesDefaultScale reports whether a map with the given printed ratio
// can use the built-in conversion without calibration.
func AppliesDefaultScale(ratio int) bool {
	return ratio == DefaultRatio
}
