package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"afipscan/internal/config"
	"afipscan/internal/imgproc"
	"afipscan/internal/logger"
)

var complexityCmd = &cobra.Command{
	Use:   "complexity [image-file]",
	Short: "Score how hard an image is to OCR",
	Long: `Analyze an image and print its complexity score and tier. The tier
decides the OCR provider chain: simple stays on the local engine, medium
invoices go to Vision, complex forms go to Document AI first.`,
	Example: `  # Score a scan
  afipscan complexity factura.png`,
	Args: cobra.ExactArgs(1),
	RunE: runComplexity,
}

func init() {
	rootCmd.AddCommand(complexityCmd)

	complexityCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

func runComplexity(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("complexity")

	outputPath, _ := cmd.Flags().GetString("output")
	imagePath := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	analyzerCfg := imgproc.DefaultAnalyzerConfig()
	analyzerCfg.ResolutionWeight = cfg.ComplexityResolutionWeight
	analyzerCfg.ContrastWeight = cfg.ComplexityContrastWeight
	analyzerCfg.EdgeWeight = cfg.ComplexityEdgeWeight
	analyzerCfg.TextWeight = cfg.ComplexityTextWeight
	analyzerCfg.SimpleMax = cfg.TierSimpleMax
	analyzerCfg.MediumMax = cfg.TierMediumMax

	analyzer := imgproc.NewAnalyzer(analyzerCfg)
	score := analyzer.AnalyzeFile(imagePath)

	log.Info().
		Str("file", imagePath).
		Float64("score", score.Value).
		Str("tier", string(score.Tier)).
		Msg("Complexity analysis complete")

	return writeJSON(score, outputPath)
}
