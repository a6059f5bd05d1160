package ocr

import (
	"context"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"afipscan/internal/logger"
	"afipscan/pkg/models"
)

// DefaultLanguage is the recognition language used when a request does not
// set one. AFIP documents are Spanish.
const DefaultLanguage = "spa"

// TesseractEngine is the local OCR backend. It has no quota and no network
// dependency, which makes it the terminal fallback of every strategy chain
// and the engine behind targeted field recovery.
type TesseractEngine struct {
	log zerolog.Logger
}

// NewTesseractEngine creates the local engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{
		log: logger.WithComponent("tesseract-engine"),
	}
}

// Provider implements Engine.
func (t *TesseractEngine) Provider() models.Provider {
	return models.ProviderTesseract
}

// Recognize implements Engine. A gosseract client is not safe for
// concurrent use, so each call builds its own.
func (t *TesseractEngine) Recognize(ctx context.Context, png []byte, cfg RequestConfig) (models.RawOCRResult, error) {
	const op = "Recognize"
	start := time.Now()

	if err := validateImage(op, png); err != nil {
		return models.RawOCRResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.RawOCRResult{}, WrapOCRError(op, err, "context done before recognition")
	}

	client := gosseract.NewClient()
	defer client.Close()

	language := cfg.Language
	if language == "" {
		language = DefaultLanguage
	}
	if err := client.SetLanguage(language); err != nil {
		return models.RawOCRResult{}, WrapOCRError(op, err, "failed to set language")
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			return models.RawOCRResult{}, WrapOCRError(op, err, "failed to set whitelist")
		}
	}
	if cfg.PageSegMode != 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
			return models.RawOCRResult{}, WrapOCRError(op, err, "failed to set page segmentation mode")
		}
	}

	if err := client.SetImageFromBytes(png); err != nil {
		return models.RawOCRResult{}, WrapOCRError(op, err, "failed to set image")
	}

	text, err := client.Text()
	if err != nil {
		return models.RawOCRResult{}, WrapOCRError(op, ErrOCRFailed, err.Error())
	}

	confidence := meanWordConfidence(client)
	if text == "" {
		confidence = 0
	}

	t.log.Debug().
		Int("chars", len(text)).
		Float64("confidence", confidence).
		Dur("elapsed", time.Since(start)).
		Msg("Local OCR pass complete")

	return models.RawOCRResult{
		Text:       text,
		Confidence: confidence,
		Provider:   models.ProviderTesseract,
		CostUnits:  0,
		ElapsedMS:  time.Since(start).Milliseconds(),
	}, nil
}

// meanWordConfidence averages per-word recognition confidence onto [0,1].
// Tesseract reports word confidence on a 0-100 scale.
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0.5
	}
	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	return sum / float64(len(boxes)) / 100.0
}
