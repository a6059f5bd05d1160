// Package pipeline wires the recognition stages together: complexity
// analysis, OCR strategy selection, structured field extraction, optional
// model completion, and validation.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"afipscan/internal/config"
	"afipscan/internal/extract"
	"afipscan/internal/imgproc"
	"afipscan/internal/llm"
	"afipscan/internal/logger"
	"afipscan/internal/ocr"
	"afipscan/internal/ocr/quota"
	"afipscan/internal/recovery"
	"afipscan/internal/validate"
	"afipscan/pkg/models"
)

// Result is the complete outcome of processing one document image.
type Result struct {
	DocumentID string                     `json:"document_id,omitempty"`
	Complexity models.ComplexityScore     `json:"complexity"`
	OCR        models.RawOCRResult        `json:"ocr"`
	Document   *models.StructuredDocument `json:"document"`
	Verdict    *models.ValidationVerdict  `json:"verdict"`
}

// Pipeline runs a document image through every recognition stage.
type Pipeline struct {
	analyzer  *imgproc.Analyzer
	selector  *ocr.Selector
	extractor *extract.Extractor
	validator *validate.Engine
	completer *llm.CompletionService
	log       zerolog.Logger
}

// New builds a pipeline from configuration. Cloud backends and the model
// completer are optional: each one that cannot be constructed is logged and
// skipped, and the pipeline degrades toward the local engine.
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	log := logger.WithComponent("pipeline")

	engines := []ocr.Engine{ocr.NewTesseractEngine()}

	if visionEngine, err := ocr.NewVisionEngine(ctx); err != nil {
		log.Warn().Err(err).Msg("Vision backend unavailable, continuing without it")
	} else {
		engines = append(engines, visionEngine)
	}

	if cfg.DocumentAIProcessorID != "" {
		docAIEngine, err := ocr.NewDocumentAIEngineWithConfig(ctx, ocr.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Document AI backend unavailable, continuing without it")
		} else {
			engines = append(engines, docAIEngine)
		}
	}

	var store quota.Store
	if cfg.RedisURL != "" {
		redisStore, err := quota.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("quota store: %w", err)
		}
		store = redisStore
	} else {
		store = quota.NewMemoryStore()
	}

	selector := ocr.NewSelector(ocr.SelectorConfig{
		Limits: map[models.Provider]int64{
			models.ProviderGoogleVision: int64(cfg.VisionDailyLimit),
			models.ProviderDocumentAI:   int64(cfg.DocumentAIDailyLimit),
		},
		Timeout: time.Duration(cfg.OCRTimeoutSeconds) * time.Second,
	}, store, engines...)

	analyzer := imgproc.NewAnalyzer(imgproc.AnalyzerConfig{
		ResolutionWeight: cfg.ComplexityResolutionWeight,
		ContrastWeight:   cfg.ComplexityContrastWeight,
		EdgeWeight:       cfg.ComplexityEdgeWeight,
		TextWeight:       cfg.ComplexityTextWeight,
		ResolutionPixels: imgproc.DefaultAnalyzerConfig().ResolutionPixels,
		ContrastFloor:    imgproc.DefaultAnalyzerConfig().ContrastFloor,
		EdgeDensityFloor: imgproc.DefaultAnalyzerConfig().EdgeDensityFloor,
		SimpleMax:        cfg.TierSimpleMax,
		MediumMax:        cfg.TierMediumMax,
	})

	scorer := extract.NewCandidateScorer()
	searcher := recovery.NewSearcherWithDeps(recovery.Config{
		CAEYearMin:    cfg.CAEYearMin,
		CAEYearMax:    cfg.CAEYearMax,
		MaxConcurrent: recovery.DefaultConfig().MaxConcurrent,
	}, ocr.NewTesseractEngine(), scorer)

	extractor := extract.NewExtractorWithDeps(extract.Config{
		CAEYearMin: cfg.CAEYearMin,
		CAEYearMax: cfg.CAEYearMax,
	}, scorer, searcher)

	validator := validate.NewEngine(validate.EngineConfig{
		CAEYearMin:            cfg.CAEYearMin,
		CAEYearMax:            cfg.CAEYearMax,
		ReconcileTolerancePct: cfg.ReconcileTolerancePct,
	})

	var completer *llm.CompletionService
	if cfg.OpenAIAPIKey != "" {
		svc, err := llm.NewCompletionService()
		if err != nil {
			log.Warn().Err(err).Msg("Model completion unavailable, continuing without it")
		} else {
			completer = svc
		}
	}

	return NewWithDeps(analyzer, selector, extractor, validator, completer), nil
}

// NewWithDeps builds a pipeline from explicit stages. completer may be nil.
func NewWithDeps(analyzer *imgproc.Analyzer, selector *ocr.Selector, extractor *extract.Extractor, validator *validate.Engine, completer *llm.CompletionService) *Pipeline {
	return &Pipeline{
		analyzer:  analyzer,
		selector:  selector,
		extractor: extractor,
		validator: validator,
		completer: completer,
		log:       logger.WithComponent("pipeline"),
	}
}

// ProcessFile runs the full pipeline over the image at path.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, docType models.DocumentType, documentID string) (*Result, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return p.Process(ctx, img, docType, documentID)
}

// Process runs the full pipeline over a decoded image.
func (p *Pipeline) Process(ctx context.Context, img image.Image, docType models.DocumentType, documentID string) (*Result, error) {
	log := logger.WithDocument("pipeline", documentID)
	start := time.Now()

	complexity := p.analyzer.Analyze(img)

	png, err := imgproc.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	ocrResult, err := p.selector.Recognize(ctx, png, complexity, docType)
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	doc, err := p.extractor.Extract(ctx, ocrResult.Text, docType, extract.Options{
		DocumentID: documentID,
		Image:      img,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	if p.completer != nil {
		p.completer.Complete(ctx, doc, ocrResult.Text)
	}

	verdict := p.validator.Validate(doc)

	log.Info().
		Str("tier", string(complexity.Tier)).
		Str("provider", string(ocrResult.Provider)).
		Int("fields", len(doc.Fields)).
		Bool("valid", verdict.OverallValid).
		Dur("elapsed", time.Since(start)).
		Msg("Document processed")

	return &Result{
		DocumentID: documentID,
		Complexity: complexity,
		OCR:        ocrResult,
		Document:   doc,
		Verdict:    verdict,
	}, nil
}
