package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"afipscan/internal/config"
	"afipscan/internal/logger"
	"afipscan/internal/ocr/quota"
	"afipscan/pkg/models"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show today's cloud provider usage against the daily limits",
	Long: `Print the current daily call counters for the cloud OCR providers.
Counters live in Redis when REDIS_URL is configured; the in-process store
used otherwise is per-invocation, so this command reports zeros for it.`,
	Example: `  # Show usage from the shared Redis store
  REDIS_URL=redis://localhost:6379 afipscan quota`,
	Args: cobra.NoArgs,
	RunE: runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

// quotaLine is one provider's usage in the JSON output.
type quotaLine struct {
	Provider models.Provider `json:"provider"`
	Used     int64           `json:"used"`
	Limit    int64           `json:"limit"`
}

func runQuota(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("quota")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store quota.Store
	if cfg.RedisURL != "" {
		redisStore, err := quota.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to quota store: %w", err)
		}
		store = redisStore
	} else {
		log.Warn().Msg("No REDIS_URL configured, reporting from an empty in-process store")
		store = quota.NewMemoryStore()
	}

	limits := map[models.Provider]int64{
		models.ProviderGoogleVision: int64(cfg.VisionDailyLimit),
		models.ProviderDocumentAI:   int64(cfg.DocumentAIDailyLimit),
	}

	var lines []quotaLine
	for _, provider := range []models.Provider{models.ProviderGoogleVision, models.ProviderDocumentAI} {
		used, err := store.Current(ctx, provider)
		if err != nil {
			return fmt.Errorf("failed to read quota for %s: %w", provider, err)
		}
		lines = append(lines, quotaLine{Provider: provider, Used: used, Limit: limits[provider]})
	}

	return writeJSON(lines, "")
}
