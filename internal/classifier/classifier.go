// Package classifier assigns a category label to a ticket through a Groq (OpenAI-compatible) chat completion.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/observability"
)

// Categories the model is asked to choose from. Its answer is stored as-is.
var Categories = []string{
	"Technical Issue",
	"Account Problem",
	"Feature Request",
	"Bug Report",
	"General Inquiry",
	"Billing Issue",
	"Performance Issue",
	"Security Concern",
}

const (
	maxTokens   = 50
	temperature = 0.1
)

var errNotConfigured = errors.New("classifier api key not configured")

// Gateway never fails its caller: every error collapses to the fallback category.
type Gateway struct {
	cfg     config.ClassifierConfig
	client  *openai.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New builds a gateway from injected configuration. No network call is made here.
func New(cfg config.ClassifierConfig, logger *zap.Logger, metrics *observability.Metrics) *Gateway {
	g := &Gateway{cfg: cfg, logger: logger, metrics: metrics}
	if strings.TrimSpace(cfg.APIKey) != "" {
		client := openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(withTrailingSlash(cfg.BaseURL)),
			option.WithMaxRetries(0),
		)
		g.client = &client
	}
	return g
}

// Fallback returns the label used when classification cannot be performed.
func (g *Gateway) Fallback() string {
	return g.cfg.Fallback()
}

// Classify returns the provider's category for the ticket, or the fallback label.
func (g *Gateway) Classify(ctx context.Context, title, description string) string {
	category, err := g.classify(ctx, title, description)
	if err != nil {
		g.logger.Warn("ticket classification failed; using fallback category",
			zap.String("fallback", g.Fallback()),
			zap.Error(err))
		g.metrics.RecordClassification(observability.ClassificationFallback)
		return g.Fallback()
	}
	g.metrics.RecordClassification(observability.ClassificationOK)
	return category
}

func (g *Gateway) classify(ctx context.Context, title, description string) (string, error) {
	if g.client == nil {
		return "", errNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout())
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(title, description)),
		},
		Model:       openai.ChatModel(g.cfg.Model),
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("provider returned status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("provider call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("provider returned no choices")
	}
	category := strings.TrimSpace(resp.Choices[0].Message.Content)
	if category == "" {
		return "", errors.New("provider returned an empty category")
	}
	return category, nil
}

func buildPrompt(title, description string) string {
	var b strings.Builder
	b.WriteString("Analyze this support ticket and categorize it into one of these categories:\n")
	for _, c := range Categories {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString("\nTicket Title: ")
	b.WriteString(title)
	b.WriteString("\nTicket Description: ")
	b.WriteString(description)
	b.WriteString("\n\nRespond with only the category name.")
	return b.String()
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
