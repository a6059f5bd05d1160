// Package llm fills descriptive fields the pattern battery could not read
// by asking a chat model to find them in the OCR text. It only ever fills
// gaps: values the extractor already produced are never touched.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"afipscan/internal/logger"
	"afipscan/pkg/models"
)

// llmConfidence is the fixed confidence assigned to model-provided values.
// The model reads the same noisy text the patterns did, so its answers rank
// below a checksum-validated extraction but above nothing at all.
const llmConfidence = 0.7

// completableFields are the descriptive fields the completion step may
// fill. Numeric and checksummed fields stay out: a hallucinated CAE is
// worse than a missing one.
var completableFields = []string{"issuer_name", "buyer_name", "sale_terms"}

// CompletionConfig configures the field completion service.
type CompletionConfig struct {
	OpenAIModel string  // gpt-4o-mini, gpt-4
	Temperature float32 // sampling temperature
	MaxRetries  int     // request retry attempts
}

// CompletionService fills missing descriptive fields from OCR text.
type CompletionService struct {
	client *openai.Client
	config CompletionConfig
	log    zerolog.Logger
}

// NewCompletionService creates the service with the API key from environment.
// Requires: OPENAI_API_KEY. Optional: OPENAI_MODEL.
func NewCompletionService() (*CompletionService, error) {
	const op = "NewCompletionService"

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%s: OPENAI_API_KEY environment variable is required", op)
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	config := CompletionConfig{
		OpenAIModel: model,
		Temperature: 0.1,
		MaxRetries:  parseIntEnv("COMPLETION_MAX_RETRIES", 3),
	}

	return NewCompletionServiceWithDeps(openai.NewClient(apiKey), config), nil
}

// NewCompletionServiceWithDeps creates the service with explicit dependencies.
func NewCompletionServiceWithDeps(client *openai.Client, config CompletionConfig) *CompletionService {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	return &CompletionService{
		client: client,
		config: config,
		log:    logger.WithComponent("field-completion"),
	}
}

// Complete fills the completable fields that are still empty on doc. It
// modifies doc in place and never fails the pipeline: when every attempt
// errors out, the document is simply returned as it was.
func (s *CompletionService) Complete(ctx context.Context, doc *models.StructuredDocument, ocrText string) {
	var missing []string
	for _, name := range completableFields {
		if _, ok := doc.Field(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return
	}

	values, err := s.askModel(ctx, ocrText, missing)
	if err != nil {
		s.log.Warn().Err(err).Strs("missing_fields", missing).Msg("Field completion failed, keeping document as extracted")
		return
	}

	filled := 0
	for _, name := range missing {
		value := strings.TrimSpace(values[name])
		if value == "" {
			continue
		}
		doc.SetField(name, models.FieldValue{
			Raw:        value,
			Normalized: value,
			Source:     models.SourceModelCompletion,
			Confidence: llmConfidence,
		})
		filled++
	}

	s.log.Info().
		Int("requested", len(missing)).
		Int("filled", filled).
		Msg("Descriptive fields completed from model")
}

// askModel sends the completion prompt and parses the strict-JSON answer,
// retrying on transport and parse failures.
func (s *CompletionService) askModel(ctx context.Context, ocrText string, missing []string) (map[string]string, error) {
	const op = "askModel"

	prompt := s.buildPrompt(ocrText, missing)

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.config.OpenAIModel,
			Temperature: s.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			MaxTokens: 500,
		})
		if err != nil {
			lastErr = err
			s.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", s.config.MaxRetries).
				Msg("Completion request failed, retrying")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from model")
			continue
		}

		content := stripCodeFence(resp.Choices[0].Message.Content)
		var values map[string]string
		if err := json.Unmarshal([]byte(content), &values); err != nil {
			lastErr = fmt.Errorf("failed to parse model JSON response: %w", err)
			s.log.Warn().
				Err(err).
				Str("response", content).
				Int("attempt", attempt).
				Msg("Unparseable model response, retrying")
			continue
		}
		return values, nil
	}

	return nil, fmt.Errorf("%s: all %d attempts failed, last error: %w", op, s.config.MaxRetries, lastErr)
}

const systemPrompt = `Sos un asistente que lee el texto OCR de facturas argentinas (AFIP).
Respondé SOLO con un objeto JSON plano, sin texto adicional y sin markdown.
Cada clave pedida debe estar presente; usá "" cuando el dato no aparece en el texto.
Nunca inventes datos que no estén en el texto.`

func (s *CompletionService) buildPrompt(ocrText string, missing []string) string {
	var b strings.Builder
	b.WriteString("Extraé del siguiente texto OCR los campos: ")
	b.WriteString(strings.Join(missing, ", "))
	b.WriteString(".\nDevolvé un JSON con exactamente esas claves.\n\nTEXTO OCR:\n")
	b.WriteString(ocrText)
	return b.String()
}

// stripCodeFence removes a surrounding markdown fence that some models add
// despite the instructions.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func parseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
