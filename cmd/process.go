package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"afipscan/internal/config"
	"afipscan/internal/logger"
	"afipscan/internal/pipeline"
	"afipscan/pkg/models"
)

var processCmd = &cobra.Command{
	Use:   "process [image-file]",
	Short: "Run the full recognition pipeline over a document image",
	Long: `Process a scanned document image end to end: complexity analysis, OCR
via the selected provider chain, structured field extraction with targeted
recovery of critical fields, and validation.

Cloud backends are used when configured and within their daily quota;
otherwise processing degrades to the local Tesseract engine.

Optional environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Google Cloud project ID
  DOCUMENT_AI_PROCESSOR_ID - Document AI processor for form documents
  REDIS_URL - Shared quota store (in-process store used when unset)
  OPENAI_API_KEY - Enables descriptive field completion`,
	Example: `  # Process an AFIP invoice scan
  afipscan process factura.png --type afip_invoice

  # Process with a correlation id and save the result
  afipscan process factura.png --id inv-0042 -o result.json

  # Process an untyped scan; AFIP markers in the text upgrade the type
  afipscan process scan.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringP("type", "t", "unknown", "Document type: afip_invoice, invoice, receipt, form, dni, academic, unknown")
	processCmd.Flags().String("id", "", "Opaque document correlation id")
	processCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	processCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	docTypeFlag, _ := cmd.Flags().GetString("type")
	documentID, _ := cmd.Flags().GetString("id")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]
	docType, err := parseDocumentType(docTypeFlag)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", imagePath).
		Str("type", string(docType)).
		Str("id", documentID).
		Int("timeout", timeoutSecs).
		Msg("Starting document processing")

	ctx, cancel := createContextWithTimeout(timeoutSecs)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pipe, err := pipeline.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	result, err := pipe.ProcessFile(ctx, imagePath, docType, documentID)
	if err != nil {
		return err
	}

	return writeJSON(result, outputPath)
}

// parseDocumentType validates the --type flag.
func parseDocumentType(value string) (models.DocumentType, error) {
	switch models.DocumentType(value) {
	case models.DocTypeAFIPInvoice, models.DocTypeInvoice, models.DocTypeReceipt,
		models.DocTypeForm, models.DocTypeDNI, models.DocTypeAcademic,
		models.DocTypeUnknown:
		return models.DocumentType(value), nil
	default:
		return "", fmt.Errorf("unknown document type %q", value)
	}
}

// createContextWithTimeout builds a context cancelled by the timeout or an
// interrupt signal.
func createContextWithTimeout(timeoutSecs int) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// writeJSON renders v as indented JSON to the output path or stdout.
func writeJSON(v any, outputPath string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}
