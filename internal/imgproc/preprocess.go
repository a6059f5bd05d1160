package imgproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Variant is one preprocessed rendering of a source region. The recovery
// search OCRs every variant and keeps the best-scoring candidate, so the
// order of variants carries no meaning.
type Variant struct {
	Name  string
	Image image.Image
}

// minUpscaleWidth is the width below which a region gets a scaled-up
// variant; small crops often render characters too few pixels tall for the
// engine.
const minUpscaleWidth = 800

// Variants produces the fixed battery of preprocessed renderings used by
// field recovery: original, grayscale, high-contrast, sharpened, adaptively
// thresholded, morphologically closed, and (for small crops) upscaled.
func Variants(src image.Image) []Variant {
	gray := imaging.Grayscale(src)

	variants := []Variant{
		{Name: "original", Image: src},
		{Name: "grayscale", Image: gray},
		{Name: "high_contrast", Image: imaging.AdjustContrast(gray, 50)},
		{Name: "sharpened", Image: imaging.Sharpen(gray, 1.5)},
	}

	thresholded := adaptiveThreshold(gray, 11, 2)
	variants = append(variants,
		Variant{Name: "adaptive_threshold", Image: thresholded},
		Variant{Name: "morph_close", Image: morphClose(thresholded)},
	)

	if src.Bounds().Dx() < minUpscaleWidth {
		scaled := imaging.Resize(src, src.Bounds().Dx()*2, 0, imaging.Lanczos)
		variants = append(variants, Variant{Name: "upscaled", Image: scaled})
	}

	return variants
}

// Crop returns the sub-image for a document-relative region.
func Crop(src image.Image, rect image.Rectangle) image.Image {
	return imaging.Crop(src, rect)
}

// adaptiveThreshold binarizes against a local mean over a square window,
// offset by c, in the manner of a Gaussian adaptive threshold.
func adaptiveThreshold(gray *image.NRGBA, window, c int) *image.Gray {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	half := window / 2

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum, count int
			for wy := y - half; wy <= y+half; wy++ {
				if wy < 0 || wy >= height {
					continue
				}
				for wx := x - half; wx <= x+half; wx++ {
					if wx < 0 || wx >= width {
						continue
					}
					sum += int(gray.Pix[gray.PixOffset(bounds.Min.X+wx, bounds.Min.Y+wy)])
					count++
				}
			}
			local := sum/count - c
			v := int(gray.Pix[gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)])
			if v > local {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// morphClose dilates then erodes with a 3x3 kernel, filling pinholes in
// strokes left by thresholding.
func morphClose(img *image.Gray) *image.Gray {
	return erode(dilate(img))
}

func dilate(img *image.Gray) *image.Gray {
	return morph(img, func(minV, maxV uint8) uint8 { return minV })
}

func erode(img *image.Gray) *image.Gray {
	return morph(img, func(minV, maxV uint8) uint8 { return maxV })
}

// morph applies a 3x3 neighborhood pass. Dark pixels are foreground ink, so
// dilation takes the neighborhood minimum and erosion the maximum.
func morph(img *image.Gray, pick func(minV, maxV uint8) uint8) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			minV, maxV := uint8(255), uint8(0)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					v := img.GrayAt(nx, ny).Y
					if v < minV {
						minV = v
					}
					if v > maxV {
						maxV = v
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: pick(minV, maxV)})
		}
	}
	return out
}
