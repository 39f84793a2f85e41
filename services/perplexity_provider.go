// services/perplexity_provider.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/getcito/ai-monitor/internal/config"
	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/providers"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

type perplexityProvider struct {
	client *resty.Client
	model  string
}

// NewPerplexityProvider builds the Perplexity chat-completions client.
// Perplexity answers always carry citations; both the bare citation URLs and
// the richer search_results list are preserved in the payload.
func NewPerplexityProvider(cfg *config.Config) AIProvider {
	if cfg.PerplexityAPIKey == "" {
		logrus.Warn("PERPLEXITY_API_KEY is empty, Perplexity calls will fail")
	}

	client := resty.New().
		SetBaseURL("https://api.perplexity.ai").
		SetAuthToken(cfg.PerplexityAPIKey).
		SetTimeout(90 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &perplexityProvider{
		client: client,
		model:  cfg.PerplexityModel,
	}
}

func (p *perplexityProvider) GetProviderName() models.Provider {
	return models.ProviderPerplexity
}

type perplexityRequest struct {
	Model    string              `json:"model"`
	Messages []perplexityMessage `json:"messages"`
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityResponse struct {
	ID            string                             `json:"id"`
	Model         string                             `json:"model"`
	Citations     []string                           `json:"citations,omitempty"`
	SearchResults []providers.PerplexitySearchResult `json:"search_results,omitempty"`
	Choices       []perplexityChoice                 `json:"choices"`
}

type perplexityChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

func (p *perplexityProvider) RunQuery(ctx context.Context, query string) (*models.ProviderResult, error) {
	start := time.Now()
	result := &models.ProviderResult{
		Provider:      models.ProviderPerplexity,
		WebSearchUsed: true,
		Timestamp:     start.UTC(),
	}

	var answer perplexityResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(perplexityRequest{
			Model: p.model,
			Messages: []perplexityMessage{
				{Role: "user", Content: query},
			},
		}).
		SetResult(&answer).
		Post("/chat/completions")

	result.ResponseTimeMS = time.Since(start).Milliseconds()

	if err != nil {
		result.Error = fmt.Sprintf("perplexity call failed: %v", err)
		return result, nil
	}
	if resp.IsError() {
		result.Error = fmt.Sprintf("perplexity returned status %d: %s", resp.StatusCode(), resp.String())
		return result, nil
	}
	if len(answer.Choices) == 0 {
		result.Error = "perplexity returned no choices"
		return result, nil
	}

	result.Success = true
	result.ResponseText = answer.Choices[0].Message.Content
	result.Payload = &providers.PerplexityPayload{
		Citations:     answer.Citations,
		SearchResults: answer.SearchResults,
	}
	return result, nil
}
