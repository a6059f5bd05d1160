package models

// Provider identifies an OCR backend.
type Provider string

const (
	// ProviderTesseract is the local engine. It has no daily quota and is
	// the terminal fallback for every strategy chain.
	ProviderTesseract Provider = "tesseract"

	// ProviderGoogleVision is the general high-precision cloud backend.
	ProviderGoogleVision Provider = "google_vision"

	// ProviderDocumentAI is the cloud backend specialized for structured
	// form layouts.
	ProviderDocumentAI Provider = "document_ai"
)

// RawOCRResult is the outcome of one OCR pass over a document image.
// Produced once per document by the strategy selector; immutable afterwards.
type RawOCRResult struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Provider   Provider `json:"provider_used"`
	CostUnits  float64  `json:"cost_units"`
	ElapsedMS  int64    `json:"elapsed_ms"`
}

// ComplexityTier classifies how hard an image is to OCR.
type ComplexityTier string

const (
	TierSimple  ComplexityTier = "simple"
	TierMedium  ComplexityTier = "medium"
	TierComplex ComplexityTier = "complex"
)

// ComplexityScore is a heuristic difficulty estimate derived purely from
// image pixels. The value is a proxy score, not a calibrated probability.
type ComplexityScore struct {
	Value float64        `json:"value"`
	Tier  ComplexityTier `json:"tier"`
}
