// services/chatgpt_provider.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/getcito/ai-monitor/internal/config"
	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/providers"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

type chatGPTProvider struct {
	client     *openai.Client
	cfg        *config.Config
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewChatGPTProvider builds the ChatGPT Search client. With Azure OpenAI
// configured it routes through the Azure middleware; otherwise it talks to
// api.openai.com directly. Web search uses the responses API, which is where
// the url_citation annotations come from.
func NewChatGPTProvider(cfg *config.Config) AIProvider {
	var client openai.Client

	if cfg.AzureOpenAI.Endpoint != "" && cfg.AzureOpenAI.APIKey != "" && cfg.AzureOpenAI.DeploymentName != "" {
		client = openai.NewClient(
			azure.WithEndpoint(cfg.AzureOpenAI.Endpoint, "2024-12-01-preview"),
			azure.WithAPIKey(cfg.AzureOpenAI.APIKey),
		)
		logrus.WithField("endpoint", cfg.AzureOpenAI.Endpoint).Info("ChatGPT provider using Azure OpenAI")
	} else {
		client = openai.NewClient(
			option.WithAPIKey(cfg.OpenAIAPIKey),
		)
		logrus.Info("ChatGPT provider using standard OpenAI")
	}

	return &chatGPTProvider{
		client: &client,
		cfg:    cfg,
		model:  "gpt-4.1",
		apiKey: cfg.OpenAIAPIKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (p *chatGPTProvider) GetProviderName() models.Provider {
	return models.ProviderChatGPT
}

// webSearchRequest is the request body for the OpenAI responses API with the
// web search tool enabled.
type webSearchRequest struct {
	Model string          `json:"model"`
	Tools []webSearchTool `json:"tools"`
	Input string          `json:"input"`
}

type webSearchTool struct {
	Type string `json:"type"`
}

type webSearchResponse struct {
	ID     string                `json:"id"`
	Status string                `json:"status"`
	Output []webSearchOutputItem `json:"output"`
}

type webSearchOutputItem struct {
	Type    string             `json:"type"`
	Content []webSearchContent `json:"content,omitempty"`
}

type webSearchContent struct {
	Type        string                        `json:"type"`
	Text        string                        `json:"text,omitempty"`
	Annotations []providers.ChatGPTAnnotation `json:"annotations,omitempty"`
}

// RunQuery asks ChatGPT with web search and returns the answer text plus the
// raw annotation payload. Provider failures come back as an unsuccessful
// result, not an error, so the session runner records them and moves on.
func (p *chatGPTProvider) RunQuery(ctx context.Context, query string) (*models.ProviderResult, error) {
	start := time.Now()
	result := &models.ProviderResult{
		Provider:      models.ProviderChatGPT,
		WebSearchUsed: true,
		Timestamp:     start.UTC(),
	}

	text, annotations, err := p.runWebSearch(ctx, query)
	if err != nil {
		// The responses API is only available against standard OpenAI; Azure
		// deployments fall back to a plain completion with no citations.
		logrus.WithError(err).Debug("Web search call failed, falling back to chat completion")
		text, err = p.runCompletion(ctx, query)
		result.WebSearchUsed = false
	}
	result.ResponseTimeMS = time.Since(start).Milliseconds()

	if err != nil {
		result.Error = err.Error()
		return result, nil
	}

	result.Success = true
	result.ResponseText = text
	result.Payload = &providers.ChatGPTPayload{Annotations: annotations}
	return result, nil
}

func (p *chatGPTProvider) runWebSearch(ctx context.Context, query string) (string, []providers.ChatGPTAnnotation, error) {
	if p.apiKey == "" {
		return "", nil, fmt.Errorf("no OpenAI API key for web search")
	}

	payload := webSearchRequest{
		Model: p.model,
		Tools: []webSearchTool{{Type: "web_search_preview"}},
		Input: query,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal web search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/responses", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", nil, fmt.Errorf("failed to build web search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("web search call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read web search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("web search returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp webSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return "", nil, fmt.Errorf("failed to decode web search response: %w", err)
	}

	var text string
	var annotations []providers.ChatGPTAnnotation
	for _, item := range searchResp.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type != "output_text" {
				continue
			}
			text += content.Text
			annotations = append(annotations, content.Annotations...)
		}
	}
	if text == "" {
		return "", nil, fmt.Errorf("web search response contained no output text")
	}
	return text, annotations, nil
}

func (p *chatGPTProvider) runCompletion(ctx context.Context, query string) (string, error) {
	model := openai.ChatModel(p.model)
	if p.cfg.AzureOpenAI.DeploymentName != "" {
		model = openai.ChatModel(p.cfg.AzureOpenAI.DeploymentName)
	}

	response, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a helpful assistant that provides accurate, comprehensive answers to questions."),
			openai.UserMessage(query),
		},
		Model:       model,
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(2000),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return response.Choices[0].Message.Content, nil
}
