package validate

import (
	"strings"
	"testing"

	"afipscan/pkg/models"
)

func validAFIPDocument() *models.StructuredDocument {
	doc := models.NewStructuredDocument("doc-1", models.DocTypeAFIPInvoice)
	set := func(name, normalized string) {
		doc.SetField(name, models.FieldValue{
			Raw:        normalized,
			Normalized: normalized,
			Source:     models.SourceGeneralOCR,
			Confidence: 0.9,
		})
	}
	set("point_of_sale", "0001")
	set("invoice_number", "1234")
	set("issue_date", "15/10/2024")
	set("cuit_issuer", "30716595540")
	set("total_amount", "1300.00")
	set("cae_number", "20241015123456")
	set("cae_due_date", "25/10/2024")
	return doc
}

func TestValidateAcceptsCompleteDocument(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	verdict := engine.Validate(validAFIPDocument())

	if !verdict.OverallValid {
		t.Fatalf("expected valid verdict, got errors %v", verdict.Errors)
	}
	if len(verdict.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", verdict.Errors)
	}
	for name, result := range verdict.Fields {
		if !result.Valid {
			t.Errorf("field %s unexpectedly invalid: %s", name, result.Message)
		}
	}
}

func TestValidateRequiredFieldFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc *models.StructuredDocument)
	}{
		{
			name:   "missing total",
			mutate: func(doc *models.StructuredDocument) { delete(doc.Fields, "total_amount") },
		},
		{
			name: "corrupt issuer cuit",
			mutate: func(doc *models.StructuredDocument) {
				doc.SetField("cuit_issuer", models.FieldValue{Raw: "30716595541", Normalized: "30716595541"})
			},
		},
		{
			name: "impossible issue date",
			mutate: func(doc *models.StructuredDocument) {
				doc.SetField("issue_date", models.FieldValue{Raw: "31/02/2024", Normalized: "31/02/2024"})
			},
		},
		{
			name: "non numeric point of sale",
			mutate: func(doc *models.StructuredDocument) {
				doc.SetField("point_of_sale", models.FieldValue{Raw: "A001", Normalized: "A001"})
			},
		},
	}

	engine := NewEngine(DefaultEngineConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validAFIPDocument()
			tt.mutate(doc)

			verdict := engine.Validate(doc)

			if verdict.OverallValid {
				t.Fatal("expected invalid verdict")
			}
			if len(verdict.Errors) == 0 {
				t.Fatal("expected at least one error")
			}
		})
	}
}

func TestValidateOptionalFieldFailureIsWarning(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	doc := validAFIPDocument()
	doc.SetField("cae_number", models.FieldValue{Raw: "123", Normalized: "123"})

	verdict := engine.Validate(doc)

	if !verdict.OverallValid {
		t.Fatalf("CAE is not required, verdict should stay valid; errors %v", verdict.Errors)
	}
	if len(verdict.Warnings) == 0 {
		t.Fatal("expected a warning for the corrupt CAE")
	}
	if result := verdict.Fields["cae_number"]; result.Valid {
		t.Fatal("cae_number field result should be invalid")
	}
}

func TestValidateEnumeratesEveryFailure(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	doc := validAFIPDocument()
	delete(doc.Fields, "total_amount")
	delete(doc.Fields, "invoice_number")
	doc.SetField("cuit_issuer", models.FieldValue{Raw: "30716595541", Normalized: "30716595541"})

	verdict := engine.Validate(doc)

	if len(verdict.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(verdict.Errors), verdict.Errors)
	}
}

func TestValidateReconciliationWarning(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	doc := validAFIPDocument()
	doc.SetField("tax_amount", models.FieldValue{Raw: "210.00", Normalized: "210.00"})
	doc.LineItems = []models.LineItem{
		{Description: "Servicio mensual", Quantity: 2, UnitPrice: 250, Subtotal: 500},
		{Description: "Soporte extendido", Quantity: 1, UnitPrice: 500, Subtotal: 500},
	}

	verdict := engine.Validate(doc)

	// 500 + 500 + 210 = 1210 against an extracted total of 1300.
	var found string
	for _, w := range verdict.Warnings {
		if strings.Contains(w, "1210.00") && strings.Contains(w, "1300.00") {
			found = w
		}
	}
	if found == "" {
		t.Fatalf("expected a reconciliation warning naming both figures, got %v", verdict.Warnings)
	}
	if !verdict.OverallValid {
		t.Fatal("reconciliation mismatch must not invalidate the document")
	}
}

func TestValidateReconciliationWithinTolerance(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	doc := validAFIPDocument()
	doc.LineItems = []models.LineItem{
		{Description: "Servicio", Quantity: 1, UnitPrice: 1295, Subtotal: 1295},
	}

	verdict := engine.Validate(doc)

	// 1295 vs 1300 is 0.38%, inside the 1% tolerance.
	for _, w := range verdict.Warnings {
		if strings.Contains(w, "extracted total") {
			t.Fatalf("unexpected reconciliation warning: %s", w)
		}
	}
}

func TestValidateCAEIssuedBeforeIssueDate(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	doc := validAFIPDocument()
	// CAE stamped five days before the invoice date.
	doc.SetField("cae_number", models.FieldValue{Raw: "20241010090000", Normalized: "20241010090000"})

	verdict := engine.Validate(doc)

	var found bool
	for _, w := range verdict.Warnings {
		if strings.Contains(w, "before invoice issue date") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CAE coherence warning, got %v", verdict.Warnings)
	}
	if !verdict.OverallValid {
		t.Fatal("coherence warning must not invalidate the document")
	}
}

func validDNIDocument() *models.StructuredDocument {
	doc := models.NewStructuredDocument("dni-1", models.DocTypeDNI)
	set := func(name, normalized string) {
		doc.SetField(name, models.FieldValue{
			Raw:        normalized,
			Normalized: normalized,
			Source:     models.SourceGeneralOCR,
			Confidence: 0.9,
		})
	}
	set("dni_number", "35123456")
	set("surname", "PEREZ")
	set("given_names", "JUAN CARLOS")
	set("birth_date", "05/03/1990")
	set("expiry_date", "12/01/2035")
	return doc
}

func TestValidateAcceptsCompleteDNIDocument(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	verdict := engine.Validate(validDNIDocument())

	if !verdict.OverallValid {
		t.Fatalf("expected valid verdict, got errors %v", verdict.Errors)
	}
}

func TestValidateDNIRequiredFieldFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc *models.StructuredDocument)
	}{
		{
			name:   "missing dni number",
			mutate: func(doc *models.StructuredDocument) { delete(doc.Fields, "dni_number") },
		},
		{
			name: "dni number below issued range",
			mutate: func(doc *models.StructuredDocument) {
				doc.SetField("dni_number", models.FieldValue{Raw: "0999999", Normalized: "0999999"})
			},
		},
		{
			name:   "missing surname",
			mutate: func(doc *models.StructuredDocument) { delete(doc.Fields, "surname") },
		},
	}

	engine := NewEngine(DefaultEngineConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDNIDocument()
			tt.mutate(doc)

			verdict := engine.Validate(doc)

			if verdict.OverallValid {
				t.Fatal("expected invalid verdict")
			}
			if len(verdict.Errors) == 0 {
				t.Fatal("expected at least one error")
			}
		})
	}
}

func TestValidateAcademicRequiresInstitutionAndStudent(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	doc := models.NewStructuredDocument("dipl-1", models.DocTypeAcademic)
	doc.SetField("institution", models.FieldValue{Raw: "Universidad Nacional de Córdoba", Normalized: "Universidad Nacional de Córdoba"})

	verdict := engine.Validate(doc)

	if verdict.OverallValid {
		t.Fatal("expected invalid verdict without the student name")
	}

	doc.SetField("student_name", models.FieldValue{Raw: "MARIA LOPEZ", Normalized: "MARIA LOPEZ"})
	if verdict = engine.Validate(doc); !verdict.OverallValid {
		t.Fatalf("expected valid verdict, got errors %v", verdict.Errors)
	}
}

func TestValidateMinimalReceipt(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	doc := models.NewStructuredDocument("rcpt-1", models.DocTypeReceipt)
	doc.SetField("total_amount", models.FieldValue{Raw: "99.90", Normalized: "99.90"})

	verdict := engine.Validate(doc)

	if !verdict.OverallValid {
		t.Fatalf("receipt with a total should be valid, errors %v", verdict.Errors)
	}
}
