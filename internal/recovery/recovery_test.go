package recovery

import (
	"context"
	"errors"
	"image"
	"testing"

	"afipscan/internal/extract"
	"afipscan/internal/ocr"
	"afipscan/pkg/models"
)

// scriptedEngine returns the same text for every region and variant.
type scriptedEngine struct {
	text string
	err  error
}

func (e *scriptedEngine) Provider() models.Provider { return models.ProviderTesseract }

func (e *scriptedEngine) Recognize(ctx context.Context, _ []byte, _ ocr.RequestConfig) (models.RawOCRResult, error) {
	if err := ctx.Err(); err != nil {
		return models.RawOCRResult{}, err
	}
	if e.err != nil {
		return models.RawOCRResult{}, e.err
	}
	return models.RawOCRResult{Text: e.text, Confidence: 0.8, Provider: models.ProviderTesseract}, nil
}

func testSearcher(engine ocr.Engine) *Searcher {
	return NewSearcherWithDeps(DefaultConfig(), engine, extract.NewCandidateScorer())
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 120, 160))
}

func TestRecoverCAEFromMangledGlyphs(t *testing.T) {
	engine := &scriptedEngine{text: "CAE N°: 2O241O15123456"}
	searcher := testSearcher(engine)

	fv, ok := searcher.Recover(context.Background(), testImage(), models.FieldKindCAE)
	if !ok {
		t.Fatal("expected a recovered CAE")
	}

	if fv.Normalized != "20241015123456" {
		t.Fatalf("normalized = %q, want glyph-corrected CAE", fv.Normalized)
	}
	if fv.Source != models.SourceRecoveryOCR {
		t.Fatalf("source = %s, want recovery", fv.Source)
	}
	if fv.Confidence <= 0 {
		t.Fatalf("confidence = %v, want positive", fv.Confidence)
	}
}

func TestRecoverCUIT(t *testing.T) {
	engine := &scriptedEngine{text: "CUIT: 30-71659554-0"}
	searcher := testSearcher(engine)

	fv, ok := searcher.Recover(context.Background(), testImage(), models.FieldKindCUIT)
	if !ok {
		t.Fatal("expected a recovered CUIT")
	}
	if fv.Normalized != "30716595540" {
		t.Fatalf("normalized = %q", fv.Normalized)
	}
}

func TestRecoverAmount(t *testing.T) {
	engine := &scriptedEngine{text: "TOTAL: $ 1.234,56"}
	searcher := testSearcher(engine)

	fv, ok := searcher.Recover(context.Background(), testImage(), models.FieldKindAmount)
	if !ok {
		t.Fatal("expected a recovered amount")
	}
	if fv.Normalized != "1234.56" {
		t.Fatalf("normalized = %q, want canonical amount", fv.Normalized)
	}
}

func TestRecoverNothingOnEngineFailure(t *testing.T) {
	engine := &scriptedEngine{err: errors.New("no tessdata")}
	searcher := testSearcher(engine)

	if _, ok := searcher.Recover(context.Background(), testImage(), models.FieldKindCAE); ok {
		t.Fatal("a failing engine must not produce a candidate")
	}
}

func TestRecoverNothingFromNoise(t *testing.T) {
	engine := &scriptedEngine{text: "sin datos legibles"}
	searcher := testSearcher(engine)

	if _, ok := searcher.Recover(context.Background(), testImage(), models.FieldKindCAE); ok {
		t.Fatal("text with no digit runs must not produce a candidate")
	}
}

func TestRecoverUnknownKind(t *testing.T) {
	engine := &scriptedEngine{text: "20241015123456"}
	searcher := testSearcher(engine)

	if _, ok := searcher.Recover(context.Background(), testImage(), models.FieldKind("serial")); ok {
		t.Fatal("unknown field kinds have no search plan")
	}
}

func TestRecoverCancelledContext(t *testing.T) {
	engine := &scriptedEngine{text: "CAE N°: 20241015123456"}
	searcher := testSearcher(engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := searcher.Recover(ctx, testImage(), models.FieldKindCAE); ok {
		t.Fatal("cancelled search must not report a candidate")
	}
}

func TestRecoverPrefersChecksumValidCandidate(t *testing.T) {
	// Two runs in the same text: the first fails the date check (month 99),
	// the second is valid. The valid one must win regardless of order.
	engine := &scriptedEngine{text: "CAE: 20249915123456\nCAE N°: 20241015123456"}
	searcher := testSearcher(engine)

	fv, ok := searcher.Recover(context.Background(), testImage(), models.FieldKindCAE)
	if !ok {
		t.Fatal("expected a recovered CAE")
	}
	if fv.Normalized != "20241015123456" {
		t.Fatalf("normalized = %q, want the checksum-valid run", fv.Normalized)
	}
}
