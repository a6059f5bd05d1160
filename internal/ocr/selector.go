package ocr

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"afipscan/internal/logger"
	"afipscan/internal/ocr/quota"
	"afipscan/pkg/models"
)

// SelectorConfig tunes the strategy selector.
type SelectorConfig struct {
	// Limits caps daily calls per provider. A missing or zero entry means
	// the provider is unlimited; the local engine never has a limit.
	Limits map[models.Provider]int64

	// Timeout bounds each provider attempt. A timeout counts as a provider
	// failure and the chain moves on.
	Timeout time.Duration
}

// DefaultSelectorConfig returns the production defaults.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Limits: map[models.Provider]int64{
			models.ProviderGoogleVision: 1000,
			models.ProviderDocumentAI:   500,
		},
		Timeout: 60 * time.Second,
	}
}

// Selector routes each document to an ordered provider chain derived from
// its complexity tier and document type, walking the chain until a provider
// produces a result. Quota-exhausted and failing providers are skipped, so
// a cloud outage degrades to the local engine instead of an error.
type Selector struct {
	cfg     SelectorConfig
	engines map[models.Provider]Engine
	quota   quota.Store
	log     zerolog.Logger
}

// NewSelector creates a selector over the given engines. Engines absent
// from the list (an unconfigured cloud backend) are silently skipped when a
// chain names them.
func NewSelector(cfg SelectorConfig, store quota.Store, engines ...Engine) *Selector {
	byProvider := make(map[models.Provider]Engine, len(engines))
	for _, engine := range engines {
		byProvider[engine.Provider()] = engine
	}
	return &Selector{
		cfg:     cfg,
		engines: byProvider,
		quota:   store,
		log:     logger.WithComponent("strategy-selector"),
	}
}

// Chain returns the provider order for one document. Simple documents stay
// local; medium invoices and receipts are worth a Vision call; complex
// forms go to Document AI first. Every chain ends with the local engine.
func (s *Selector) Chain(score models.ComplexityScore, docType models.DocumentType) []models.Provider {
	switch score.Tier {
	case models.TierSimple:
		return []models.Provider{models.ProviderTesseract}

	case models.TierMedium:
		switch docType {
		case models.DocTypeAFIPInvoice, models.DocTypeInvoice, models.DocTypeReceipt:
			return []models.Provider{models.ProviderGoogleVision, models.ProviderTesseract}
		default:
			return []models.Provider{models.ProviderTesseract}
		}

	default:
		if docType == models.DocTypeForm {
			return []models.Provider{
				models.ProviderDocumentAI,
				models.ProviderGoogleVision,
				models.ProviderTesseract,
			}
		}
		return []models.Provider{models.ProviderGoogleVision, models.ProviderTesseract}
	}
}

// Recognize walks the chain for the document and returns the first result.
// Quota is charged only on success. When every configured provider fails,
// the result is empty with zero confidence rather than an error; downstream
// extraction simply finds no fields. A chain with no configured engine at
// all is an operator error and returns ErrNoProviders.
func (s *Selector) Recognize(ctx context.Context, png []byte, score models.ComplexityScore, docType models.DocumentType) (models.RawOCRResult, error) {
	const op = "Recognize"

	chain := s.Chain(score, docType)

	configured := 0
	for _, provider := range chain {
		engine, ok := s.engines[provider]
		if !ok {
			s.log.Debug().Str("provider", string(provider)).Msg("Provider not configured, skipping")
			continue
		}
		configured++
		if !s.hasBudget(ctx, provider) {
			s.log.Info().Err(ErrQuotaExhausted).Str("provider", string(provider)).Msg("Skipping provider")
			continue
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if s.cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		}
		result, err := engine.Recognize(attemptCtx, png, RequestConfig{})
		if cancel != nil {
			cancel()
		}
		if err != nil {
			s.log.Warn().Err(err).Str("provider", string(provider)).Msg("Provider failed, trying next in chain")
			continue
		}

		s.charge(ctx, provider)
		return result, nil
	}

	if configured == 0 {
		return models.RawOCRResult{}, NewOCRError(op, ErrNoProviders,
			"no engine in the provider chain is configured")
	}

	s.log.Warn().
		Str("tier", string(score.Tier)).
		Str("type", string(docType)).
		Msg("Every provider in the chain was skipped or failed")
	return models.RawOCRResult{Provider: models.ProviderTesseract}, nil
}

// hasBudget reports whether the provider has daily quota left. A quota
// store error fails open: skipping a healthy provider over a counter read
// is worse than an occasional overrun.
func (s *Selector) hasBudget(ctx context.Context, provider models.Provider) bool {
	limit := s.cfg.Limits[provider]
	if limit <= 0 {
		return true
	}
	current, err := s.quota.Current(ctx, provider)
	if err != nil {
		s.log.Warn().Err(err).Str("provider", string(provider)).Msg("Quota read failed, allowing call")
		return true
	}
	return current < limit
}

// charge counts a successful call against the provider's quota. Unlimited
// providers are not tracked.
func (s *Selector) charge(ctx context.Context, provider models.Provider) {
	if s.cfg.Limits[provider] <= 0 {
		return
	}
	if _, err := s.quota.Increment(ctx, provider); err != nil {
		s.log.Warn().Err(err).Str("provider", string(provider)).Msg("Quota increment failed")
	}
}
