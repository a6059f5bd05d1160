package ocr

import (
	"context"
	"fmt"
	"os"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"afipscan/internal/logger"
	"afipscan/pkg/models"
)

// visionCostUnits is the relative per-call cost used for reporting.
const visionCostUnits = 1.0

// VisionEngine is the general high-precision cloud backend, used for
// documents of medium complexity and as the step before the local fallback
// on complex ones.
type VisionEngine struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionEngine creates the engine with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionEngine(ctx context.Context) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &VisionEngine{
		client: client,
		log:    logger.WithComponent("vision-engine"),
	}, nil
}

// NewVisionEngineWithClient creates the engine with an explicit client (for testing).
func NewVisionEngineWithClient(client *vision.ImageAnnotatorClient) *VisionEngine {
	return &VisionEngine{
		client: client,
		log:    logger.WithComponent("vision-engine"),
	}
}

// Provider implements Engine.
func (g *VisionEngine) Provider() models.Provider {
	return models.ProviderGoogleVision
}

// Recognize implements Engine using document text detection.
func (g *VisionEngine) Recognize(ctx context.Context, png []byte, cfg RequestConfig) (models.RawOCRResult, error) {
	const op = "Recognize"
	start := time.Now()

	if err := validateImage(op, png); err != nil {
		return models.RawOCRResult{}, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: png},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return models.RawOCRResult{}, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return models.RawOCRResult{}, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return models.RawOCRResult{}, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", annotation.Error.Message))
	}

	var text string
	confidence := 0.0
	if full := annotation.FullTextAnnotation; full != nil {
		text = full.GetText()
		confidence = meanBlockConfidence(full)
	}

	g.log.Debug().
		Int("chars", len(text)).
		Float64("confidence", confidence).
		Dur("elapsed", time.Since(start)).
		Msg("Vision OCR pass complete")

	return models.RawOCRResult{
		Text:       text,
		Confidence: confidence,
		Provider:   models.ProviderGoogleVision,
		CostUnits:  visionCostUnits,
		ElapsedMS:  time.Since(start).Milliseconds(),
	}, nil
}

// meanBlockConfidence averages block-level detection confidence across all
// pages of the annotation.
func meanBlockConfidence(full *visionpb.TextAnnotation) float64 {
	var sum float64
	var count int
	for _, page := range full.Pages {
		for _, block := range page.Blocks {
			sum += float64(block.Confidence)
			count++
		}
	}
	if count == 0 {
		return 0.5
	}
	return sum / float64(count)
}
