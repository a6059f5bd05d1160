package extract

import (
	"testing"

	"afipscan/pkg/models"
)

func TestLineItemsAFIPTable(t *testing.T) {
	text := `
COD123 Servicio de consultoria 2,00 unidades 500,00 0,00 0,00 1.000,00
COD124 Soporte tecnico mensual 1,00 unidades 210,00 0,00 0,00 210,00
`

	items := LineItems(text)
	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.Code != "COD123" {
		t.Errorf("code = %q, want COD123", first.Code)
	}
	if first.Description != "Servicio de consultoria" {
		t.Errorf("description = %q", first.Description)
	}
	if first.Quantity != 2 || first.UnitPrice != 500 {
		t.Errorf("quantity/price = %v/%v, want 2/500", first.Quantity, first.UnitPrice)
	}
	if first.Subtotal != 1000 {
		t.Errorf("subtotal = %v, want 1000", first.Subtotal)
	}
	if first.SubtotalSource != models.SourceGeneralOCR {
		t.Errorf("subtotal source = %q, want general_ocr", first.SubtotalSource)
	}
}

func TestLineItemsPipeRows(t *testing.T) {
	text := `
Servicio de hosting | 3 | 150,00 | 450,00
Dominio anual | 1 | 2.500,00 | 2.500,00
`

	items := LineItems(text)
	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d: %+v", len(items), items)
	}
	if items[1].Subtotal != 2500 {
		t.Errorf("subtotal = %v, want 2500", items[1].Subtotal)
	}
}

func TestLineItemsBackComputesIncoherentSubtotal(t *testing.T) {
	// Printed subtotal 800,00 disagrees with 2 x 500,00.
	text := `Mantenimiento anual | 2 | 500,00 | 800,00`

	items := LineItems(text)
	if len(items) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(items))
	}

	item := items[0]
	if item.Subtotal != 1000 {
		t.Errorf("subtotal = %v, want back-computed 1000", item.Subtotal)
	}
	if item.SubtotalSource != models.SourceComputed {
		t.Errorf("subtotal source = %q, want computed", item.SubtotalSource)
	}
	if item.Deviation == 0 {
		t.Error("expected recorded deviation between printed and computed subtotal")
	}
}

func TestLineItemsDeduplicatesAcrossShapes(t *testing.T) {
	// The same row rendered twice must appear once.
	text := `
Servicio unico | 1 | 100,00 | 100,00
Servicio   unico | 1 | 100,00 | 100,00
`

	items := LineItems(text)
	if len(items) != 1 {
		t.Fatalf("expected 1 deduplicated line item, got %d: %+v", len(items), items)
	}
}

func TestLineItemsEmptyText(t *testing.T) {
	if items := LineItems("Importe Total: $ 1.234,56\nCAE: 20241015123456"); len(items) != 0 {
		t.Fatalf("expected no line items, got %+v", items)
	}
}
