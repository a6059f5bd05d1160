package imgproc

import (
	"image"
	"testing"
)

func TestVariantsBattery(t *testing.T) {
	src := splitImage(1000, 400)

	variants := Variants(src)

	names := make(map[string]bool)
	for _, v := range variants {
		if v.Image == nil {
			t.Fatalf("variant %s has no image", v.Name)
		}
		if names[v.Name] {
			t.Fatalf("duplicate variant name %s", v.Name)
		}
		names[v.Name] = true
	}

	for _, want := range []string{"original", "grayscale", "high_contrast", "sharpened", "adaptive_threshold", "morph_close"} {
		if !names[want] {
			t.Errorf("variant %s missing", want)
		}
	}
	if names["upscaled"] {
		t.Error("wide image should not get an upscaled variant")
	}
}

func TestVariantsUpscalesSmallCrops(t *testing.T) {
	src := splitImage(200, 80)

	variants := Variants(src)

	var found bool
	for _, v := range variants {
		if v.Name == "upscaled" {
			found = true
			if got := v.Image.Bounds().Dx(); got != 400 {
				t.Fatalf("upscaled width = %d, want 400", got)
			}
		}
	}
	if !found {
		t.Fatal("small crop did not get an upscaled variant")
	}
}

func TestCrop(t *testing.T) {
	src := splitImage(100, 100)

	cropped := Crop(src, image.Rect(50, 0, 100, 100))

	if cropped.Bounds().Dx() != 50 || cropped.Bounds().Dy() != 100 {
		t.Fatalf("crop bounds = %v", cropped.Bounds())
	}
}

func TestAdaptiveThresholdBinarizes(t *testing.T) {
	gray := Variants(splitImage(60, 60))

	var thresholded image.Image
	for _, v := range gray {
		if v.Name == "adaptive_threshold" {
			thresholded = v.Image
		}
	}
	if thresholded == nil {
		t.Fatal("adaptive_threshold variant missing")
	}

	bounds := thresholded.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := thresholded.At(x, y).RGBA()
			if v := uint8(r >> 8); v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d, expected pure black or white", x, y, v)
			}
		}
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(splitImage(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("output does not look like PNG, first bytes %v", data[:8])
	}
}
