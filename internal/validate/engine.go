package validate

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"afipscan/internal/logger"
	"afipscan/pkg/models"
)

// EngineConfig tunes the validation engine.
type EngineConfig struct {
	CAEYearMin int
	CAEYearMax int

	// ReconcileTolerancePct is the allowed relative deviation, in percent,
	// between the reconstructed document total and the extracted one before
	// a warning fires.
	ReconcileTolerancePct float64
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CAEYearMin:            2000,
		CAEYearMax:            2035,
		ReconcileTolerancePct: 1.0,
	}
}

// fieldRule checks the shape of one field value. It receives the normalized
// form when present, the raw form otherwise.
type fieldRule func(e *Engine, value string) error

var (
	amountShape      = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	pointOfSaleShape = regexp.MustCompile(`^\d{1,5}$`)
	invoiceNumShape  = regexp.MustCompile(`^\d{1,8}$`)
	grossIncomeShape = regexp.MustCompile(`^[\d-]{1,15}$`)
)

// fieldRules maps field names to their shape checks. Fields without an entry
// fall back to the free-text rule. The map is populated once and never
// mutated afterwards.
var fieldRules = map[string]fieldRule{
	"cuit_issuer": func(_ *Engine, v string) error { return CUIT(v) },
	"cuit_buyer":  func(_ *Engine, v string) error { return CUIT(v) },
	"cae_number": func(e *Engine, v string) error {
		return CAE(v, e.cfg.CAEYearMin, e.cfg.CAEYearMax)
	},
	"dni_number": func(_ *Engine, v string) error { return DNI(v) },

	"total_amount": ruleAmount,
	"subtotal":     ruleAmount,
	"tax_amount":   ruleAmount,
	"other_taxes":  ruleAmount,
	"average":      ruleAmount,

	"issue_date":          ruleDate,
	"due_date":            ruleDate,
	"cae_due_date":        ruleDate,
	"activity_start_date": ruleDate,
	"birth_date":          ruleDate,
	"expiry_date":         ruleDate,

	"point_of_sale": func(_ *Engine, v string) error {
		if !pointOfSaleShape.MatchString(v) {
			return fmt.Errorf("%w: point of sale must be 1-5 digits", ErrNotNumeric)
		}
		return nil
	},
	"invoice_number": func(_ *Engine, v string) error {
		if !invoiceNumShape.MatchString(v) {
			return fmt.Errorf("%w: invoice number must be 1-8 digits", ErrNotNumeric)
		}
		return nil
	},
	"gross_income_id": func(_ *Engine, v string) error {
		if !grossIncomeShape.MatchString(v) {
			return fmt.Errorf("%w: gross income id must be digits", ErrNotNumeric)
		}
		return nil
	},
}

func ruleAmount(_ *Engine, v string) error {
	if !amountShape.MatchString(v) {
		return fmt.Errorf("%w: amount must normalize to digits with up to two decimals", ErrNotNumeric)
	}
	return nil
}

func ruleDate(_ *Engine, v string) error {
	if _, err := time.Parse("02/01/2006", v); err != nil {
		return fmt.Errorf("%w: date must be a calendar-valid DD/MM/YYYY", ErrBadDate)
	}
	return nil
}

func ruleFreeText(_ *Engine, v string) error {
	if v == "" {
		return fmt.Errorf("%w: empty value", ErrBadLength)
	}
	if len(v) > 200 {
		return fmt.Errorf("%w: value exceeds 200 characters", ErrBadLength)
	}
	return nil
}

// requiredFields lists, per document type, the fields whose absence or
// failure makes the whole document invalid. Populated once, read-only.
var requiredFields = map[models.DocumentType][]string{
	models.DocTypeAFIPInvoice: {
		"point_of_sale", "invoice_number", "issue_date", "cuit_issuer", "total_amount",
	},
	models.DocTypeInvoice:  {"issue_date", "total_amount"},
	models.DocTypeReceipt:  {"total_amount"},
	models.DocTypeForm:     nil,
	models.DocTypeDNI:      {"dni_number", "surname", "given_names"},
	models.DocTypeAcademic: {"institution", "student_name"},
	models.DocTypeUnknown:  nil,
}

// Engine runs every field shape check and cross-field coherence rule over a
// structured document and produces a single verdict. Every failed rule is
// enumerated; validation never stops at the first failure.
type Engine struct {
	cfg EngineConfig
	log zerolog.Logger
}

// NewEngine creates a validation engine.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		cfg: cfg,
		log: logger.WithComponent("validation-engine"),
	}
}

// Validate checks doc and returns the verdict. The document itself is never
// modified. OverallValid is false exactly when a required field for the
// document type is missing or fails its shape check; optional field failures
// surface as warnings.
func (e *Engine) Validate(doc *models.StructuredDocument) *models.ValidationVerdict {
	verdict := &models.ValidationVerdict{
		OverallValid: true,
		Fields:       make(map[string]models.FieldValidation),
	}

	required := make(map[string]bool)
	for _, name := range requiredFields[doc.Type] {
		required[name] = true
	}

	for name, fv := range doc.Fields {
		rule, ok := fieldRules[name]
		if !ok {
			rule = ruleFreeText
		}

		value := fv.Normalized
		if value == "" {
			value = fv.Raw
		}

		err := rule(e, value)
		result := models.FieldValidation{
			Valid:      err == nil,
			Confidence: fv.Confidence,
		}
		if err != nil {
			result.Message = err.Error()
			if required[name] {
				verdict.OverallValid = false
				verdict.Errors = append(verdict.Errors,
					fmt.Sprintf("required field %s invalid: %v", name, err))
			} else {
				verdict.Warnings = append(verdict.Warnings,
					fmt.Sprintf("field %s invalid: %v", name, err))
			}
		}
		verdict.Fields[name] = result
	}

	for _, name := range requiredFields[doc.Type] {
		if _, present := doc.Fields[name]; !present {
			verdict.OverallValid = false
			verdict.Errors = append(verdict.Errors,
				fmt.Sprintf("required field %s missing", name))
			verdict.Fields[name] = models.FieldValidation{
				Valid:   false,
				Message: "field missing",
			}
		}
	}

	e.checkCAECoherence(doc, verdict)
	e.reconcileTotals(doc, verdict)

	e.log.Info().
		Str("document_id", doc.DocumentID).
		Bool("overall_valid", verdict.OverallValid).
		Int("errors", len(verdict.Errors)).
		Int("warnings", len(verdict.Warnings)).
		Msg("Document validated")

	return verdict
}

// checkCAECoherence warns when a valid CAE embeds an issuance timestamp that
// predates the invoice issue date. AFIP grants the authorization at or after
// issuance, so the other ordering points at a misread field.
func (e *Engine) checkCAECoherence(doc *models.StructuredDocument, verdict *models.ValidationVerdict) {
	cae, ok := doc.Field("cae_number")
	if !ok {
		return
	}
	issued, ok := doc.Field("issue_date")
	if !ok {
		return
	}

	caeTS, err := CAETimestamp(Digits(cae.Normalized))
	if err != nil {
		return
	}
	issueDate, err := time.Parse("02/01/2006", issued.Normalized)
	if err != nil {
		return
	}

	if caeTS.Before(issueDate) {
		verdict.Warnings = append(verdict.Warnings,
			fmt.Sprintf("CAE issued %s before invoice issue date %s",
				caeTS.Format("02/01/2006"), issued.Normalized))
	}
}

// reconcileTotals rebuilds the document total from line item subtotals plus
// extracted tax amounts and compares it with the extracted total. A relative
// deviation beyond the tolerance produces a warning naming both figures; it
// never invalidates the document, since line item OCR is the least reliable
// part of the pipeline.
func (e *Engine) reconcileTotals(doc *models.StructuredDocument, verdict *models.ValidationVerdict) {
	if len(doc.LineItems) == 0 {
		return
	}
	total, ok := amountField(doc, "total_amount")
	if !ok {
		return
	}

	var rebuilt float64
	for _, item := range doc.LineItems {
		rebuilt += item.Subtotal
	}
	if tax, ok := amountField(doc, "tax_amount"); ok {
		rebuilt += tax
	}
	if other, ok := amountField(doc, "other_taxes"); ok {
		rebuilt += other
	}

	if total == 0 {
		return
	}
	deviation := math.Abs(rebuilt-total) / total * 100
	if deviation > e.cfg.ReconcileTolerancePct {
		verdict.Warnings = append(verdict.Warnings,
			fmt.Sprintf("line items plus taxes sum to %.2f but extracted total is %.2f (%.1f%% apart)",
				rebuilt, total, deviation))
	}
}

func amountField(doc *models.StructuredDocument, name string) (float64, bool) {
	fv, ok := doc.Field(name)
	if !ok {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(fv.Normalized, "%f", &v); err != nil {
		return 0, false
	}
	return v, true
}
