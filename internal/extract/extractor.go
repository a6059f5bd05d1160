// Package extract turns raw OCR text into a structured document: pattern
// batteries per document type, candidate scoring, normalization, and line
// item table parsing.
package extract

import (
	"context"
	"image"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"afipscan/internal/logger"
	"afipscan/internal/validate"
	"afipscan/pkg/models"
)

// Recoverer runs a targeted re-OCR search for one critical field on the
// document image. ok is false when no candidate survived the search.
type Recoverer interface {
	Recover(ctx context.Context, img image.Image, kind models.FieldKind) (fv models.FieldValue, ok bool)
}

// Config tunes the extractor.
type Config struct {
	CAEYearMin int
	CAEYearMax int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{CAEYearMin: 2000, CAEYearMax: 2035}
}

// Options carries per-document inputs beyond the OCR text itself.
type Options struct {
	// DocumentID is an opaque correlation token, passed through unchanged.
	DocumentID string

	// Image enables targeted recovery of critical fields when set.
	Image image.Image
}

// Extractor builds structured documents from OCR text. Extraction is a pure
// function of its inputs: running it twice over the same text yields the
// same document.
type Extractor struct {
	cfg       Config
	scorer    *CandidateScorer
	recoverer Recoverer
	caeCheck  validate.Checksum
	log       zerolog.Logger
}

// NewExtractor creates an extractor without recovery support.
func NewExtractor(cfg Config) *Extractor {
	return NewExtractorWithDeps(cfg, NewCandidateScorer(), nil)
}

// NewExtractorWithDeps creates an extractor with injected dependencies.
// recoverer may be nil, which disables targeted field recovery.
func NewExtractorWithDeps(cfg Config, scorer *CandidateScorer, recoverer Recoverer) *Extractor {
	return &Extractor{
		cfg:       cfg,
		scorer:    scorer,
		recoverer: recoverer,
		caeCheck:  validate.CAEChecksumWithWindow(cfg.CAEYearMin, cfg.CAEYearMax),
		log:       logger.WithComponent("field-extractor"),
	}
}

var (
	amountRawShape = regexp.MustCompile(`^\d{1,3}([.,]\d{3})*([.,]\d{2})?$`)
	dateRawShape   = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`)
)

// invoiceClassCodes maps AFIP voucher type codes to the invoice letter.
var invoiceClassCodes = map[string]string{
	"1": "A", "6": "B", "11": "C", "19": "E", "51": "M",
}

// Extract runs the pattern battery for the document type over text and
// returns the structured document. Text with no matches yields a document
// with no fields, not an error.
func (x *Extractor) Extract(ctx context.Context, text string, docType models.DocumentType, opts Options) (*models.StructuredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved := resolveType(docType, text)
	doc := models.NewStructuredDocument(opts.DocumentID, resolved)
	log := logger.WithDocument("field-extractor", opts.DocumentID)

	for _, spec := range patternRegistry[resolved] {
		if value, ok := x.bestCandidate(text, spec); ok {
			doc.SetField(spec.name, value)
		}
	}

	if resolved != models.DocTypeDNI && resolved != models.DocTypeAcademic {
		x.assignCUITs(text, doc)
	}

	if resolved == models.DocTypeAFIPInvoice {
		doc.LineItems = LineItems(text)
	}

	x.recoverCriticalFields(ctx, doc, opts.Image)

	log.Info().
		Str("type", string(resolved)).
		Int("fields", len(doc.Fields)).
		Int("line_items", len(doc.LineItems)).
		Msg("Structured fields extracted")

	return doc, nil
}

// bestCandidate runs every pattern of a spec and keeps the highest scoring
// usable match that also normalizes cleanly.
func (x *Extractor) bestCandidate(text string, spec fieldSpec) (models.FieldValue, bool) {
	bonus := x.bonusFor(spec.class)
	numeric := spec.class != classText

	var best models.FieldValue
	bestScore := -1.0

	for _, re := range spec.patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			raw := m[0]
			if len(m) > 1 {
				raw = m[1]
			}
			cleaned := cleanCandidate(raw)
			if cleaned == "" {
				continue
			}
			// Invoice class letters and the sex field are single
			// characters, below the scorer's minimum length.
			if !skipsGate(spec.class) && !x.scorer.Usable(cleaned, numeric) {
				continue
			}
			normalized, err := x.normalize(cleaned, spec.class)
			if err != nil {
				continue
			}
			score := x.scorer.Score(cleaned, bonus)
			if score > bestScore {
				bestScore = score
				best = models.FieldValue{
					Raw:        cleaned,
					Normalized: normalized,
					Source:     models.SourceGeneralOCR,
					Confidence: Confidence(score),
				}
			}
		}
	}

	if bestScore < 0 {
		return models.FieldValue{}, false
	}
	return best, true
}

func skipsGate(class valueClass) bool {
	return class == classInvoiceClass || class == classSex
}

func (x *Extractor) bonusFor(class valueClass) BonusFunc {
	switch class {
	case classCUIT:
		return ChecksumBonus(validate.CUITChecksum)
	case classCAE:
		return ChecksumBonus(x.caeCheck)
	case classDNI:
		return ChecksumBonus(validate.DNIChecksum)
	case classAmount:
		return ShapeBonus(amountRawShape)
	case classDate:
		return ShapeBonus(dateRawShape)
	default:
		return nil
	}
}

func (x *Extractor) normalize(value string, class valueClass) (string, error) {
	switch class {
	case classAmount:
		return NormalizeAmount(value)
	case classDate:
		return NormalizeDate(value)
	case classCUIT, classCAE, classDNI:
		return validate.Digits(value), nil
	case classDigits:
		if digits := validate.Digits(value); digits != "" {
			return digits, nil
		}
		return value, nil
	case classInvoiceClass:
		if letter, ok := invoiceClassCodes[strings.TrimLeft(value, "0")]; ok {
			return letter, nil
		}
		return strings.ToUpper(value), nil
	case classSex:
		switch strings.ToUpper(value) {
		case "M", "MASCULINO":
			return "M", nil
		case "F", "FEMENINO":
			return "F", nil
		}
		return strings.ToUpper(value), nil
	case classNationality:
		upper := strings.ToUpper(strings.TrimSpace(value))
		if strings.Contains(upper, "ARGENTIN") {
			return "ARGENTINO", nil
		}
		return upper, nil
	case classIDKind:
		upper := strings.ToUpper(value)
		switch {
		case strings.Contains(upper, "LIBRETA"):
			return "dni_libreta", nil
		case strings.Contains(upper, "PASAPORTE"):
			return "pasaporte", nil
		default:
			return "dni_tarjeta", nil
		}
	default:
		return value, nil
	}
}

// cleanCandidate collapses runs of whitespace and strips trailing
// punctuation, the same cleanup the scorer's thresholds were tuned on.
func cleanCandidate(raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	return strings.Trim(cleaned, ".,:;")
}

// assignCUITs collects every CUIT-shaped match in document order, filters
// on the checksum, and assigns the first valid one to the issuer and the
// next distinct one to the buyer. AFIP invoices print the issuer block
// above the buyer block, so document order is the position signal.
func (x *Extractor) assignCUITs(text string, doc *models.StructuredDocument) {
	type hit struct {
		pos    int
		raw    string
		digits string
	}
	var hits []hit
	for _, re := range cuitPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[loc[2]:loc[3]]
			hits = append(hits, hit{pos: loc[2], raw: raw, digits: validate.Digits(raw)})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool)
	var valid []hit
	for _, h := range hits {
		if seen[h.digits] || validate.CUIT(h.digits) != nil {
			continue
		}
		seen[h.digits] = true
		valid = append(valid, h)
	}

	set := func(name string, h hit) {
		score := x.scorer.Score(h.raw, ChecksumBonus(validate.CUITChecksum))
		doc.SetField(name, models.FieldValue{
			Raw:        h.raw,
			Normalized: h.digits,
			Source:     models.SourceGeneralOCR,
			Confidence: Confidence(score),
		})
	}

	if len(valid) > 0 {
		set("cuit_issuer", valid[0])
	}
	if len(valid) > 1 {
		set("cuit_buyer", valid[1])
	}
}

// recoverCriticalFields runs the targeted re-OCR search for fields that are
// missing or fail their checksum after the general pass. A recovered value
// only replaces an existing one when it carries higher confidence.
func (x *Extractor) recoverCriticalFields(ctx context.Context, doc *models.StructuredDocument, img image.Image) {
	if x.recoverer == nil || img == nil {
		return
	}
	// The critical fields are invoice fields; identity and academic
	// documents have none of them to recover.
	if doc.Type == models.DocTypeDNI || doc.Type == models.DocTypeAcademic {
		return
	}

	if x.fieldNeedsRecovery(doc, "cae_number", x.caeCheck) {
		x.recoverInto(ctx, doc, img, "cae_number", models.FieldKindCAE)
	}
	if x.fieldNeedsRecovery(doc, "cuit_issuer", validate.CUITChecksum) {
		x.recoverInto(ctx, doc, img, "cuit_issuer", models.FieldKindCUIT)
	}
	if _, ok := doc.Field("total_amount"); !ok {
		x.recoverInto(ctx, doc, img, "total_amount", models.FieldKindAmount)
	}
}

func (x *Extractor) fieldNeedsRecovery(doc *models.StructuredDocument, name string, check validate.Checksum) bool {
	fv, ok := doc.Field(name)
	if !ok {
		return true
	}
	return check(fv.Normalized) != nil
}

func (x *Extractor) recoverInto(ctx context.Context, doc *models.StructuredDocument, img image.Image, name string, kind models.FieldKind) {
	recovered, ok := x.recoverer.Recover(ctx, img, kind)
	if !ok {
		return
	}
	if existing, present := doc.Field(name); present && existing.Confidence >= recovered.Confidence {
		return
	}
	x.log.Debug().
		Str("field", name).
		Str("value", recovered.Normalized).
		Float64("confidence", recovered.Confidence).
		Msg("Field replaced by targeted recovery")
	doc.SetField(name, recovered)
}
