package image

import (
	"image"
	"image/color"
	"testing"
)

func TestSupportedMapExt(t *testing.T) {
	for _, name := range []string{"map.jpg", "map.JPEG", "map.png"} {
		if !SupportedMapExt(name) {
			t.Errorf("SupportedMapExt(%q) = false; want true", name)
		}
	}
	for _, name := range []string{"map.tiff", "map.gif", "map", "map.pdf"} {
		if SupportedMapExt(name) {
			t.Errorf("SupportedMapExt(%q) = true; want false", name)
		}
	}
}

func TestEncodeDecodePNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(1, 1, color.White)

	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v; want %v", decoded.Bounds(), src.Bounds())
	}
}

func TestScaleTo(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	dst := ScaleTo(src, 5, 4)
	if dst.Bounds().Dx() != 5 || dst.Bounds().Dy() != 4 {
		t.Errorf("scaled bounds = %v; want 5x4", dst.Bounds())
	}
}
