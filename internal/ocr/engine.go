// Package ocr provides the OCR backends and the complexity-driven strategy
// selector that routes each document to the cheapest engine expected to
// read it.
package ocr

import (
	"context"

	"afipscan/pkg/models"
)

// MaxImageSizeBytes is the maximum image size accepted for synchronous
// cloud processing (20MB).
const MaxImageSizeBytes = 20 * 1024 * 1024

// RequestConfig tunes a single recognition pass. The segmentation and
// whitelist settings exist for the local engine's targeted field recovery;
// the cloud backends ignore them.
type RequestConfig struct {
	// Language is the recognition language (default "spa").
	Language string

	// Whitelist restricts the local engine to a character set, e.g. digits
	// for CUIT and CAE regions.
	Whitelist string

	// PageSegMode is the Tesseract page segmentation mode; zero keeps the
	// engine default.
	PageSegMode int
}

// Engine is one OCR backend.
type Engine interface {
	// Provider identifies the backend for quota accounting and reporting.
	Provider() models.Provider

	// Recognize extracts text from a PNG-encoded image.
	Recognize(ctx context.Context, png []byte, cfg RequestConfig) (models.RawOCRResult, error)
}

func validateImage(op string, png []byte) error {
	if len(png) == 0 {
		return WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(png) > MaxImageSizeBytes {
		return WrapOCRError(op, ErrImageTooLarge, "")
	}
	return nil
}
