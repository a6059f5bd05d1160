package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"afipscan/internal/config"
	"afipscan/internal/extract"
	"afipscan/internal/logger"
	"afipscan/internal/validate"
	"afipscan/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text-file]",
	Short: "Extract structured fields from already-OCRed text",
	Long: `Run the pattern battery and candidate scoring over OCR text that was
produced elsewhere, then validate the structured result. Reads from stdin
when no file is given.

This skips image analysis, provider selection, and targeted recovery; use
the process command for end-to-end handling of an image.`,
	Example: `  # Extract fields from saved OCR text
  afipscan extract factura.txt --type afip_invoice

  # Pipe OCR text in and save the structured document
  cat factura.txt | afipscan extract -o fields.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("type", "t", "unknown", "Document type: afip_invoice, invoice, receipt, form, dni, academic, unknown")
	extractCmd.Flags().String("id", "", "Opaque document correlation id")
	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Int("timeout", 60, "Processing timeout in seconds")
}

// extractOutput pairs the structured document with its verdict.
type extractOutput struct {
	Document *models.StructuredDocument `json:"document"`
	Verdict  *models.ValidationVerdict  `json:"verdict"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	docTypeFlag, _ := cmd.Flags().GetString("type")
	documentID, _ := cmd.Flags().GetString("id")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	docType, err := parseDocumentType(docTypeFlag)
	if err != nil {
		return err
	}

	var text []byte
	if len(args) == 1 {
		text, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
	} else {
		text, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	log.Info().
		Int("chars", len(text)).
		Str("type", string(docType)).
		Msg("Extracting structured fields from text")

	ctx, cancel := createContextWithTimeout(timeoutSecs)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	extractor := extract.NewExtractor(extract.Config{
		CAEYearMin: cfg.CAEYearMin,
		CAEYearMax: cfg.CAEYearMax,
	})
	doc, err := extractor.Extract(ctx, string(text), docType, extract.Options{DocumentID: documentID})
	if err != nil {
		return err
	}

	validator := validate.NewEngine(validate.EngineConfig{
		CAEYearMin:            cfg.CAEYearMin,
		CAEYearMax:            cfg.CAEYearMax,
		ReconcileTolerancePct: cfg.ReconcileTolerancePct,
	})
	verdict := validator.Validate(doc)

	return writeJSON(extractOutput{Document: doc, Verdict: verdict}, outputPath)
}
