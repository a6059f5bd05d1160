package ocr

import (
	"context"
	"fmt"
	"os"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"afipscan/internal/logger"
	"afipscan/pkg/models"
)

// documentAICostUnits is the relative per-call cost used for reporting.
// Document AI is the most expensive backend in the chain.
const documentAICostUnits = 1.5

// DocumentAIConfig holds the settings for the Document AI backend.
type DocumentAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

// DocumentAIEngine is the cloud backend specialized for structured form
// layouts. The selector routes complex form documents here first.
type DocumentAIEngine struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIEngine creates the engine with credentials from environment.
// Expects: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
// Requires: GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID
// Optional: GOOGLE_CLOUD_LOCATION (defaults to "us")
func NewDocumentAIEngine(ctx context.Context) (*DocumentAIEngine, error) {
	const op = "NewDocumentAIEngine"

	config := DocumentAIConfig{
		ProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:    os.Getenv("GOOGLE_CLOUD_LOCATION"),
		ProcessorID: os.Getenv("DOCUMENT_AI_PROCESSOR_ID"),
	}
	return NewDocumentAIEngineWithConfig(ctx, config)
}

// NewDocumentAIEngineWithConfig creates the engine with explicit settings.
func NewDocumentAIEngineWithConfig(ctx context.Context, config DocumentAIConfig) (*DocumentAIEngine, error) {
	const op = "NewDocumentAIEngineWithConfig"

	if config.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIEngine{
		client: client,
		config: config,
		log:    logger.WithComponent("documentai-engine"),
	}, nil
}

// NewDocumentAIEngineWithClient creates the engine with an explicit client (for testing).
func NewDocumentAIEngineWithClient(config DocumentAIConfig, client *documentai.DocumentProcessorClient) *DocumentAIEngine {
	return &DocumentAIEngine{
		client: client,
		config: config,
		log:    logger.WithComponent("documentai-engine"),
	}
}

// Provider implements Engine.
func (d *DocumentAIEngine) Provider() models.Provider {
	return models.ProviderDocumentAI
}

// Recognize implements Engine by running the configured processor over the
// image.
func (d *DocumentAIEngine) Recognize(ctx context.Context, png []byte, cfg RequestConfig) (models.RawOCRResult, error) {
	const op = "Recognize"
	start := time.Now()

	if err := validateImage(op, png); err != nil {
		return models.RawOCRResult{}, err
	}

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  png,
				MimeType: "image/png",
			},
		},
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return models.RawOCRResult{}, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI call failed: %v", err))
	}
	if resp.Document == nil {
		return models.RawOCRResult{}, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	text := resp.Document.Text
	confidence := meanLayoutConfidence(resp.Document)

	d.log.Debug().
		Int("chars", len(text)).
		Float64("confidence", confidence).
		Dur("elapsed", time.Since(start)).
		Msg("Document AI pass complete")

	return models.RawOCRResult{
		Text:       text,
		Confidence: confidence,
		Provider:   models.ProviderDocumentAI,
		CostUnits:  documentAICostUnits,
		ElapsedMS:  time.Since(start).Milliseconds(),
	}, nil
}

// processorName constructs the full processor resource name.
func (d *DocumentAIEngine) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
}

// meanLayoutConfidence averages page layout confidence over the document.
func meanLayoutConfidence(doc *documentaipb.Document) float64 {
	var sum float64
	var count int
	for _, page := range doc.Pages {
		if page.Layout != nil {
			sum += float64(page.Layout.Confidence)
			count++
		}
	}
	if count == 0 {
		return 0.5
	}
	return sum / float64(count)
}
