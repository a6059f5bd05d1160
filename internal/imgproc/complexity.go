// Package imgproc provides the pixel-level heuristics shared by the OCR
// strategy selector and the field recovery search: complexity scoring,
// preprocessing variants, and region cropping.
package imgproc

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"afipscan/internal/logger"
	"afipscan/pkg/models"
)

// AnalyzerConfig holds the additive weights and tier cut points for
// complexity scoring. The defaults are hand-tuned; treat them as tunable
// configuration, not calibrated constants.
type AnalyzerConfig struct {
	ResolutionWeight float64
	ContrastWeight   float64
	EdgeWeight       float64
	TextWeight       float64

	// ResolutionPixels is the pixel count above which the resolution
	// penalty applies.
	ResolutionPixels int

	// ContrastFloor is the intensity standard deviation (0..255) below
	// which the low-contrast penalty applies.
	ContrastFloor float64

	// EdgeDensityFloor is the fraction of edge pixels above which the
	// edge-density penalty applies.
	EdgeDensityFloor float64

	// SimpleMax and MediumMax partition [0,1] into the three tiers.
	SimpleMax float64
	MediumMax float64
}

// DefaultAnalyzerConfig returns the production defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		ResolutionWeight: 0.2,
		ContrastWeight:   0.3,
		EdgeWeight:       0.3,
		TextWeight:       0.2,
		ResolutionPixels: 2_000_000,
		ContrastFloor:    30,
		EdgeDensityFloor: 0.1,
		SimpleMax:        0.3,
		MediumMax:        0.6,
	}
}

// Analyzer scores how hard an image is to OCR. The score is a heuristic
// proxy used for provider routing, not a calibrated probability.
type Analyzer struct {
	cfg AnalyzerConfig
	log zerolog.Logger
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{
		cfg: cfg,
		log: logger.WithComponent("complexity-analyzer"),
	}
}

// AnalyzeFile scores the image at path. It never fails: an unreadable file
// yields tier MEDIUM, the safe default that neither escalates to costly
// providers nor under-processes.
func (a *Analyzer) AnalyzeFile(path string) models.ComplexityScore {
	img, err := imaging.Open(path)
	if err != nil {
		a.log.Warn().Err(err).Str("path", path).Msg("Unreadable image, defaulting to medium complexity")
		return models.ComplexityScore{Value: a.cfg.SimpleMax, Tier: models.TierMedium}
	}
	return a.Analyze(img)
}

// Analyze scores a decoded image.
func (a *Analyzer) Analyze(img image.Image) models.ComplexityScore {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	totalPixels := width * height
	if totalPixels == 0 {
		return models.ComplexityScore{Value: a.cfg.SimpleMax, Tier: models.TierMedium}
	}

	intensities := grayIntensities(gray)
	mean, stddev := meanStddev(intensities)

	score := 0.0

	if totalPixels > a.cfg.ResolutionPixels {
		score += a.cfg.ResolutionWeight
	}

	// Low contrast makes character boundaries harder to segment.
	if stddev < a.cfg.ContrastFloor {
		score += a.cfg.ContrastWeight
	}

	edgeDensity := edgeDensity(intensities, width, height)
	if edgeDensity > a.cfg.EdgeDensityFloor {
		score += a.cfg.EdgeWeight
	}

	textDensity := darkAreaRatio(intensities, mean, stddev)
	score += textDensity * a.cfg.TextWeight

	if score > 1.0 {
		score = 1.0
	}

	tier := a.tierFor(score)

	a.log.Debug().
		Int("width", width).
		Int("height", height).
		Float64("contrast", stddev).
		Float64("edge_density", edgeDensity).
		Float64("text_density", textDensity).
		Float64("score", score).
		Str("tier", string(tier)).
		Msg("Image complexity analyzed")

	return models.ComplexityScore{Value: score, Tier: tier}
}

// tierFor maps a score onto the fixed cut points. Monotonic by construction.
func (a *Analyzer) tierFor(score float64) models.ComplexityTier {
	switch {
	case score < a.cfg.SimpleMax:
		return models.TierSimple
	case score < a.cfg.MediumMax:
		return models.TierMedium
	default:
		return models.TierComplex
	}
}

func grayIntensities(gray *image.NRGBA) []float64 {
	bounds := gray.Bounds()
	out := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := gray.PixOffset(x, y)
			// Grayscale output has R=G=B; the red channel is enough.
			out = append(out, float64(gray.Pix[i]))
		}
	}
	return out
}

func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// edgeDensity counts pixels whose horizontal or vertical gradient exceeds a
// fixed magnitude, as a fraction of the image.
func edgeDensity(intensities []float64, width, height int) float64 {
	const gradientThreshold = 50.0
	if width < 2 || height < 2 {
		return 0
	}
	edges := 0
	for y := 0; y < height-1; y++ {
		for x := 0; x < width-1; x++ {
			i := y*width + x
			dx := math.Abs(intensities[i+1] - intensities[i])
			dy := math.Abs(intensities[i+width] - intensities[i])
			if dx > gradientThreshold || dy > gradientThreshold {
				edges++
			}
		}
	}
	return float64(edges) / float64(width*height)
}

// darkAreaRatio estimates text density as the fraction of pixels darker than
// a threshold below the mean intensity. A stand-in for connected-component
// area on documents, where ink is the dark minority.
func darkAreaRatio(intensities []float64, mean, stddev float64) float64 {
	threshold := mean - stddev/2
	if threshold < 0 {
		threshold = 0
	}
	dark := 0
	for _, v := range intensities {
		if v < threshold {
			dark++
		}
	}
	ratio := float64(dark) / float64(len(intensities))
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
