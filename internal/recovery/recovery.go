package recovery

import (
	"context"
	"image"
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"afipscan/internal/extract"
	"afipscan/internal/imgproc"
	"afipscan/internal/logger"
	"afipscan/internal/ocr"
	"afipscan/internal/validate"
	"afipscan/pkg/models"
)

// Tesseract page segmentation modes used by the search. Field regions are
// small crops, so the single-block and single-line modes outperform full
// page analysis.
const (
	psmSingleBlock = 6
	psmSingleLine  = 7
)

// Config tunes the recovery search.
type Config struct {
	CAEYearMin int
	CAEYearMax int

	// MaxConcurrent bounds the parallel OCR passes. Each pass holds a
	// Tesseract instance, so this is a memory bound as much as a CPU one.
	MaxConcurrent int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CAEYearMin:    2000,
		CAEYearMax:    2035,
		MaxConcurrent: 4,
	}
}

// region is a document-relative crop window, each coordinate a fraction of
// the image dimension.
type region struct {
	name           string
	x0, y0, x1, y1 float64
}

// fieldRegions lists where each field kind usually prints on an AFIP
// invoice: the CAE in the footer block, the issuer CUIT in the header, the
// total in the lower right.
var fieldRegions = map[models.FieldKind][]region{
	models.FieldKindCAE: {
		{name: "lower_half", x0: 0, y0: 0.5, x1: 1, y1: 1},
		{name: "lower_right", x0: 0.5, y0: 0.6, x1: 1, y1: 1},
		{name: "footer", x0: 0, y0: 0.75, x1: 1, y1: 1},
	},
	models.FieldKindCUIT: {
		{name: "upper_left", x0: 0, y0: 0, x1: 0.5, y1: 0.35},
		{name: "upper_right", x0: 0.5, y0: 0, x1: 1, y1: 0.35},
		{name: "header", x0: 0, y0: 0, x1: 1, y1: 0.3},
	},
	models.FieldKindAmount: {
		{name: "lower_right", x0: 0.4, y0: 0.5, x1: 1, y1: 1},
		{name: "lower_half", x0: 0, y0: 0.5, x1: 1, y1: 1},
	},
}

// engineConfigs lists the Tesseract settings tried per field kind. Digit
// whitelists stop the engine from reading a CAE as a word.
var engineConfigs = map[models.FieldKind][]ocr.RequestConfig{
	models.FieldKindCAE: {
		{Whitelist: "0123456789", PageSegMode: psmSingleBlock},
		{Whitelist: "0123456789", PageSegMode: psmSingleLine},
		{Whitelist: "0123456789:CAEN° ", PageSegMode: psmSingleBlock},
	},
	models.FieldKindCUIT: {
		{Whitelist: "0123456789-.", PageSegMode: psmSingleBlock},
		{Whitelist: "0123456789-.", PageSegMode: psmSingleLine},
	},
	models.FieldKindAmount: {
		{Whitelist: "0123456789.,$ ", PageSegMode: psmSingleBlock},
		{Whitelist: "0123456789.,$ ", PageSegMode: psmSingleLine},
	},
}

var (
	caeRun    = regexp.MustCompile(`\d{13,15}`)
	cuitRun   = regexp.MustCompile(`\d{2}-?\d{8}-?\d`)
	amountRun = regexp.MustCompile(`\d{1,3}([.,]\d{3})*[.,]\d{2}`)
)

// Searcher recovers critical field values by re-OCRing likely image
// regions under multiple preprocessing variants and engine settings. It
// implements extract.Recoverer.
type Searcher struct {
	cfg      Config
	engine   ocr.Engine
	scorer   *extract.CandidateScorer
	caeCheck validate.Checksum
	log      zerolog.Logger
}

// NewSearcher creates a recovery searcher over the local engine.
func NewSearcher(cfg Config) *Searcher {
	return NewSearcherWithDeps(cfg, ocr.NewTesseractEngine(), extract.NewCandidateScorer())
}

// NewSearcherWithDeps creates a searcher with injected dependencies.
func NewSearcherWithDeps(cfg Config, engine ocr.Engine, scorer *extract.CandidateScorer) *Searcher {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &Searcher{
		cfg:      cfg,
		engine:   engine,
		scorer:   scorer,
		caeCheck: validate.CAEChecksumWithWindow(cfg.CAEYearMin, cfg.CAEYearMax),
		log:      logger.WithComponent("field-recovery"),
	}
}

type candidate struct {
	value   models.FieldValue
	score   float64
	checked bool
}

// Recover implements extract.Recoverer. It crops every region for the
// field kind, OCRs every preprocessing variant under every engine setting,
// and returns the best-scoring candidate. The search stops early once a
// checksum-valid value appears. It never returns an error: an empty search
// simply reports ok false.
func (s *Searcher) Recover(ctx context.Context, img image.Image, kind models.FieldKind) (models.FieldValue, bool) {
	regions := fieldRegions[kind]
	configs := engineConfigs[kind]
	if len(regions) == 0 || len(configs) == 0 {
		return models.FieldValue{}, false
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type task struct {
		png []byte
		cfg ocr.RequestConfig
	}
	var tasks []task
	for _, r := range regions {
		crop := imgproc.Crop(img, relativeRect(img.Bounds(), r))
		for _, variant := range imgproc.Variants(crop) {
			png, err := imgproc.EncodePNG(variant.Image)
			if err != nil {
				continue
			}
			for _, cfg := range configs {
				tasks = append(tasks, task{png: png, cfg: cfg})
			}
		}
	}

	var (
		mu   sync.Mutex
		best candidate
		wg   sync.WaitGroup
	)
	sem := make(chan struct{}, s.cfg.MaxConcurrent)

	for _, t := range tasks {
		if searchCtx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(t task) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := s.engine.Recognize(searchCtx, t.png, t.cfg)
			if err != nil {
				return
			}
			cand, ok := s.bestCandidate(result.Text, kind)
			if !ok {
				return
			}

			mu.Lock()
			if cand.score > best.score || (cand.checked && !best.checked) {
				best = cand
			}
			done := best.checked
			mu.Unlock()

			// A checksum-valid value cannot be beaten, stop the search.
			if done {
				cancel()
			}
		}(t)
	}
	wg.Wait()

	if best.score <= 0 {
		s.log.Debug().Str("kind", string(kind)).Msg("Recovery search found no candidate")
		return models.FieldValue{}, false
	}

	s.log.Info().
		Str("kind", string(kind)).
		Str("value", best.value.Normalized).
		Bool("checksum_valid", best.checked).
		Float64("confidence", best.value.Confidence).
		Msg("Field recovered by targeted search")
	return best.value, true
}

// bestCandidate extracts and scores field-shaped runs from one OCR pass.
func (s *Searcher) bestCandidate(text string, kind models.FieldKind) (candidate, bool) {
	corrected := CorrectDigits(text)

	var best candidate
	for _, raw := range s.runsFor(kind, corrected) {
		normalized, checked, ok := s.normalizeRun(raw, kind)
		if !ok || !s.scorer.Usable(raw, true) {
			continue
		}
		score := s.scorer.Score(raw, func(string) float64 {
			if checked {
				return 1.0
			}
			return 0
		})
		if score > best.score || (checked && !best.checked) {
			best = candidate{
				value: models.FieldValue{
					Raw:        raw,
					Normalized: normalized,
					Source:     models.SourceRecoveryOCR,
					Confidence: extract.Confidence(score),
				},
				score:   score,
				checked: checked,
			}
		}
	}
	return best, best.score > 0
}

func (s *Searcher) runsFor(kind models.FieldKind, text string) []string {
	switch kind {
	case models.FieldKindCAE:
		return caeRun.FindAllString(text, -1)
	case models.FieldKindCUIT:
		return cuitRun.FindAllString(text, -1)
	case models.FieldKindAmount:
		return amountRun.FindAllString(text, -1)
	default:
		return nil
	}
}

// normalizeRun canonicalizes a candidate run and reports whether it passes
// the field checksum. Amounts have no checksum, so they never short-circuit
// the search.
func (s *Searcher) normalizeRun(raw string, kind models.FieldKind) (normalized string, checked, ok bool) {
	switch kind {
	case models.FieldKindCAE:
		digits := validate.Digits(raw)
		return digits, s.caeCheck(digits) == nil, true
	case models.FieldKindCUIT:
		digits := validate.Digits(raw)
		return digits, validate.CUIT(digits) == nil, true
	case models.FieldKindAmount:
		normalized, err := extract.NormalizeAmount(raw)
		if err != nil {
			return "", false, false
		}
		return normalized, false, true
	default:
		return "", false, false
	}
}

// relativeRect maps a fractional region onto pixel coordinates.
func relativeRect(bounds image.Rectangle, r region) image.Rectangle {
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())
	return image.Rect(
		bounds.Min.X+int(r.x0*width),
		bounds.Min.Y+int(r.y0*height),
		bounds.Min.X+int(r.x1*width),
		bounds.Min.Y+int(r.y1*height),
	)
}
