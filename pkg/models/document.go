// Package models defines the plain serializable records exchanged between the
// recognition pipeline stages. No framework-specific types live here so the
// records can cross API, queue, and storage boundaries unchanged.
package models

// DocumentType identifies the kind of document being processed. It drives
// pattern selection, OCR strategy hints, and the required-field set used
// during validation.
type DocumentType string

const (
	// DocTypeAFIPInvoice is an Argentine electronic invoice carrying a CAE.
	DocTypeAFIPInvoice DocumentType = "afip_invoice"

	// DocTypeInvoice is a general (non-AFIP) invoice.
	DocTypeInvoice DocumentType = "invoice"

	// DocTypeReceipt is a payment receipt.
	DocTypeReceipt DocumentType = "receipt"

	// DocTypeForm is a structured form document.
	DocTypeForm DocumentType = "form"

	// DocTypeDNI is an Argentine national identity document (card, booklet,
	// or passport).
	DocTypeDNI DocumentType = "dni"

	// DocTypeAcademic is a degree, diploma, or course certificate.
	DocTypeAcademic DocumentType = "academic"

	// DocTypeUnknown is used when the caller provides no hint.
	DocTypeUnknown DocumentType = "unknown"
)

// FieldKind identifies a critical field eligible for targeted OCR recovery.
type FieldKind string

const (
	FieldKindCAE    FieldKind = "cae"
	FieldKindCUIT   FieldKind = "cuit"
	FieldKindAmount FieldKind = "amount"
)

// FieldSource records where a field value came from.
type FieldSource string

const (
	// SourceGeneralOCR means the value was matched in the general OCR text.
	SourceGeneralOCR FieldSource = "general_ocr"

	// SourceRecoveryOCR means the value came from targeted re-OCR of a
	// cropped image region.
	SourceRecoveryOCR FieldSource = "recovery_ocr"

	// SourceComputed means the value was derived arithmetically from other
	// extracted values rather than read from the document.
	SourceComputed FieldSource = "computed"

	// SourceModelCompletion means the value was supplied by the language
	// model completion step rather than matched in the OCR text.
	SourceModelCompletion FieldSource = "model_completion"
)

// FieldValue is a single extracted field with its normalized form.
type FieldValue struct {
	// Raw is the text as matched in the OCR output.
	Raw string `json:"raw"`

	// Normalized is the canonical representation (e.g. "1234.56" for
	// amounts, "DD/MM/YYYY" for dates, digits-only for CUIT/CAE).
	Normalized string `json:"normalized"`

	// Source records which pipeline stage produced the value.
	Source FieldSource `json:"source"`

	// Confidence is the extraction confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// LineItem is a single product/service row extracted from an invoice table.
type LineItem struct {
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount,omitempty"`
	Subtotal    float64 `json:"subtotal"`

	// SubtotalSource is SourceComputed when the subtotal was back-computed
	// from quantity x unit price instead of read from the row.
	SubtotalSource FieldSource `json:"subtotal_source"`

	// Deviation is the relative difference between a computed subtotal and
	// a printed one when both were available.
	Deviation float64 `json:"deviation,omitempty"`
}

// StructuredDocument is the structured record built by the field extractor.
// One instance per input document; never shared across documents.
type StructuredDocument struct {
	// DocumentID is an opaque correlation token supplied by the caller and
	// passed through unchanged.
	DocumentID string `json:"document_id,omitempty"`

	Type      DocumentType          `json:"type"`
	Fields    map[string]FieldValue `json:"fields"`
	LineItems []LineItem            `json:"line_items,omitempty"`
}

// NewStructuredDocument returns an empty document of the given type.
func NewStructuredDocument(id string, docType DocumentType) *StructuredDocument {
	return &StructuredDocument{
		DocumentID: id,
		Type:       docType,
		Fields:     make(map[string]FieldValue),
	}
}

// Field returns the named field and whether it is set.
func (d *StructuredDocument) Field(name string) (FieldValue, bool) {
	fv, ok := d.Fields[name]
	return fv, ok
}

// SetField stores a field value under the given name.
func (d *StructuredDocument) SetField(name string, fv FieldValue) {
	d.Fields[name] = fv
}

// FieldValidation is the validation outcome for a single field.
type FieldValidation struct {
	Valid bool `json:"valid"`

	// Confidence carries the extraction confidence through to reporting;
	// validation itself is pass/fail.
	Confidence float64 `json:"confidence"`

	Message string `json:"message,omitempty"`
}

// ValidationVerdict is the full validation result for a document. It is
// produced once and read-only afterwards. Every rule that fired is
// enumerated, not just the first failure.
type ValidationVerdict struct {
	OverallValid bool                       `json:"overall_valid"`
	Fields       map[string]FieldValidation `json:"field_results"`
	Errors       []string                   `json:"errors"`
	Warnings     []string                   `json:"warnings"`
}
