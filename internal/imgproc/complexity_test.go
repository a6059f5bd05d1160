package imgproc

import (
	"image"
	"image/color"
	"testing"

	"afipscan/pkg/models"
)

// flatImage returns a uniform image of one gray level.
func flatImage(w, h int, level uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

// splitImage returns an image whose left half is dark and right half light,
// a crude stand-in for a clean printed page.
func splitImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// checkerImage alternates two gray levels per pixel, maximizing edge
// density at whatever contrast the two levels give.
func checkerImage(w, h int, a, b uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: a})
			} else {
				img.SetGray(x, y, color.Gray{Y: b})
			}
		}
	}
	return img
}

func TestAnalyzeCleanPageIsSimple(t *testing.T) {
	analyzer := NewAnalyzer(DefaultAnalyzerConfig())

	score := analyzer.Analyze(splitImage(100, 100))

	if score.Tier != models.TierSimple {
		t.Fatalf("clean high-contrast page scored %v (%s), want simple", score.Value, score.Tier)
	}
}

func TestAnalyzeLowContrastNoisyImageIsComplex(t *testing.T) {
	analyzer := NewAnalyzer(DefaultAnalyzerConfig())

	// Levels 105 and 160: stddev 27.5 trips the low-contrast penalty while
	// the per-pixel gradient of 55 still counts as an edge.
	score := analyzer.Analyze(checkerImage(100, 100, 105, 160))

	if score.Tier != models.TierComplex {
		t.Fatalf("noisy low-contrast image scored %v (%s), want complex", score.Value, score.Tier)
	}
}

func TestAnalyzeUniformImageIsNotSimple(t *testing.T) {
	analyzer := NewAnalyzer(DefaultAnalyzerConfig())

	// Zero contrast means unreadable, not easy.
	score := analyzer.Analyze(flatImage(100, 100, 255))

	if score.Tier == models.TierSimple {
		t.Fatalf("flat image scored %v (%s), should not be simple", score.Value, score.Tier)
	}
}

func TestAnalyzeScoreStaysInRange(t *testing.T) {
	analyzer := NewAnalyzer(DefaultAnalyzerConfig())

	images := []image.Image{
		flatImage(10, 10, 0),
		flatImage(10, 10, 255),
		splitImage(50, 50),
		checkerImage(50, 50, 0, 255),
		checkerImage(50, 50, 105, 160),
	}
	for _, img := range images {
		score := analyzer.Analyze(img)
		if score.Value < 0 || score.Value > 1 {
			t.Fatalf("score %v out of [0,1]", score.Value)
		}
	}
}

func TestTierForIsMonotonic(t *testing.T) {
	analyzer := NewAnalyzer(DefaultAnalyzerConfig())

	order := map[models.ComplexityTier]int{
		models.TierSimple:  0,
		models.TierMedium:  1,
		models.TierComplex: 2,
	}

	prev := -1
	for score := 0.0; score <= 1.0; score += 0.05 {
		tier := analyzer.tierFor(score)
		if order[tier] < prev {
			t.Fatalf("tier dropped to %s at score %v", tier, score)
		}
		prev = order[tier]
	}
}

func TestAnalyzeFileUnreadableDefaultsToMedium(t *testing.T) {
	analyzer := NewAnalyzer(DefaultAnalyzerConfig())

	score := analyzer.AnalyzeFile("/nonexistent/scan.png")

	if score.Tier != models.TierMedium {
		t.Fatalf("unreadable file scored tier %s, want medium", score.Tier)
	}
}
