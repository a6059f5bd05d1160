package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"afipscan/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "afipscan",
	Short: "AFIP document recognition pipeline",
	Long: `afipscan reads scanned Argentine tax documents: it scores image
complexity, routes each document to the cheapest OCR backend expected to
read it, extracts structured invoice fields with targeted recovery of
critical values, and validates the result against AFIP checksum and
coherence rules.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("afipscan executed")

		fmt.Println("afipscan - AFIP document recognition pipeline")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
