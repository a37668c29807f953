package oracle

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/turtacn/ArchIntel/internal/config"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

const extractionSystemPrompt = `You analyze short notes about architecture firms, construction projects, and building regulations.
Respond with a single JSON object and nothing else:
{
  "categorization": {"category": "office|project|regulation|unknown", "confidence": 0.0-1.0, "reasoning": "..."},
  "extraction": {
    "offices": [{"name", "officialName", "founded", "status", "location": {"headquarters": {"city", "country"}, "otherOffices": []}, "specializations": [], "notableWorks": []}],
    "projects": [{"projectName", "status", "location": {"city", "country"}, "financial": {"budget", "currency"}, "details": {"projectType", "description"}}],
    "regulations": [{"name", "jurisdiction": {"level", "cityName", "countryName"}, "regulationType", "effectiveDate", "description"}],
    "employees": [{"name", "role", "description", "expertise": [], "location": {"city", "country"}}],
    "employeeDistribution": {"architects", "engineers", "designers", "administrative"},
    "clients": [{"name", "sector"}],
    "technology": [{"name", "description"}],
    "financials": {"revenue", "currency", "year"},
    "supplyChain": [{"supplier", "material"}],
    "landData": {"parcel", "zoning", "area"},
    "cityData": {"city", "country", "population", "context"},
    "projectData": {"projectName", "context"},
    "companyStructure": {"divisions": [], "parent"},
    "divisionPercentages": {"<division>": 0.0-1.0},
    "newsArticles": [{"title", "source", "date"}],
    "politicalContext": {"jurisdiction", "summary"},
    "confidence": 0.0-1.0,
    "missingFields": [],
    "reasoning": "..."
  }
}
Omit any field the note does not state, including every optional extraction key. Never invent values.`

const detectEnglishPrompt = `Is the following text written in English? Answer with exactly "yes" or "no".`

const translatePrompt = `Translate the following text to English. Respond with the translation only, no commentary.`

// ChatOracle implements the extraction and translation contracts over an
// OpenAI-compatible chat completions endpoint.
type ChatOracle struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      logging.Logger
}

var (
	_ ExtractionOracle  = (*ChatOracle)(nil)
	_ TranslationOracle = (*ChatOracle)(nil)
)

// NewChatOracle builds the production oracle from configuration.
func NewChatOracle(cfg config.OracleConfig, log logging.Logger) *ChatOracle {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}
	return &ChatOracle{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		logger:      log.Named("oracle.chat"),
	}
}

// AnalyzeText categorizes text and extracts structured records.
func (o *ChatOracle) AnalyzeText(ctx context.Context, text string) (*Analysis, error) {
	content, err := o.complete(ctx, extractionSystemPrompt, text)
	if err != nil {
		return nil, err
	}
	analysis, err := parseAnalysis(content)
	if err != nil {
		o.logger.Error("unparseable extraction answer", logging.Err(err))
		return nil, err
	}
	o.logger.Debug("note analyzed",
		logging.String("category", analysis.Categorization.Category),
		logging.Float64("confidence", analysis.Categorization.Confidence),
	)
	return analysis, nil
}

// DetectEnglish asks the oracle whether text is English.
func (o *ChatOracle) DetectEnglish(ctx context.Context, text string) (bool, error) {
	content, err := o.complete(ctx, detectEnglishPrompt, text)
	if err != nil {
		return false, err
	}
	return parseYesNo(content)
}

// Translate converts text to English.
func (o *ChatOracle) Translate(ctx context.Context, text string) (string, error) {
	content, err := o.complete(ctx, translatePrompt, text)
	if err != nil {
		return "", err
	}
	translated := strings.TrimSpace(content)
	if translated == "" {
		return "", errors.New(errors.ErrCodeOracleEmptyAnswer, "translation answer is empty")
	}
	return translated, nil
}

func (o *ChatOracle) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(o.temperature),
		MaxTokens:   openai.Int(int64(o.maxTokens)),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOracleUnavailable, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeOracleEmptyAnswer, "chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
