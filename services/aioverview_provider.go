// services/aioverview_provider.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/getcito/ai-monitor/internal/config"
	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/providers"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

type aiOverviewProvider struct {
	client *resty.Client
}

// NewAIOverviewProvider builds the Google AI Overview client backed by the
// DataForSEO SERP API. The AI Overview block is scraped out of a live Google
// SERP; its references list becomes the citation payload.
func NewAIOverviewProvider(cfg *config.Config) AIProvider {
	if cfg.DataForSEO.Login == "" || cfg.DataForSEO.Password == "" {
		logrus.Warn("DataForSEO credentials are empty, AI Overview calls will fail")
	}

	client := resty.New().
		SetBaseURL(cfg.DataForSEO.BaseURL).
		SetBasicAuth(cfg.DataForSEO.Login, cfg.DataForSEO.Password).
		SetTimeout(90 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &aiOverviewProvider{client: client}
}

func (p *aiOverviewProvider) GetProviderName() models.Provider {
	return models.ProviderGoogle
}

type serpTaskRequest struct {
	Keyword        string `json:"keyword"`
	LanguageCode   string `json:"language_code"`
	LocationCode   int    `json:"location_code"`
	Device         string `json:"device"`
	LoadAIOverview bool   `json:"load_async_ai_overview"`
}

type serpResponse struct {
	StatusCode    int        `json:"status_code"`
	StatusMessage string     `json:"status_message"`
	Tasks         []serpTask `json:"tasks"`
}

type serpTask struct {
	StatusCode int              `json:"status_code"`
	Result     []serpTaskResult `json:"result"`
}

type serpTaskResult struct {
	Keyword string     `json:"keyword"`
	Items   []serpItem `json:"items"`
}

type serpItem struct {
	Type       string            `json:"type"`
	Text       string            `json:"text,omitempty"`
	Items      []serpOverviewRow `json:"items,omitempty"`
	References []serpReference   `json:"references,omitempty"`
}

type serpOverviewRow struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	Title      string          `json:"title,omitempty"`
	References []serpReference `json:"references,omitempty"`
}

type serpReference struct {
	Title  string `json:"title,omitempty"`
	URL    string `json:"url"`
	Domain string `json:"domain,omitempty"`
	Source string `json:"source,omitempty"`
	Text   string `json:"text,omitempty"`
}

func (p *aiOverviewProvider) RunQuery(ctx context.Context, query string) (*models.ProviderResult, error) {
	start := time.Now()
	result := &models.ProviderResult{
		Provider:      models.ProviderGoogle,
		WebSearchUsed: true,
		Timestamp:     start.UTC(),
	}

	var serp serpResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody([]serpTaskRequest{{
			Keyword:        query,
			LanguageCode:   "en",
			LocationCode:   2840, // United States
			Device:         "desktop",
			LoadAIOverview: true,
		}}).
		SetResult(&serp).
		Post("/v3/serp/google/organic/live/advanced")

	result.ResponseTimeMS = time.Since(start).Milliseconds()

	if err != nil {
		result.Error = fmt.Sprintf("dataforseo call failed: %v", err)
		return result, nil
	}
	if resp.IsError() || serp.StatusCode >= 40000 {
		result.Error = fmt.Sprintf("dataforseo returned status %d: %s", serp.StatusCode, serp.StatusMessage)
		return result, nil
	}

	text, references := extractAIOverview(&serp)
	if text == "" && len(references) == 0 {
		// A SERP without an AI Overview block is a valid miss, not an error:
		// the provider ran but contributes nothing for this query.
		result.Error = "no AI overview present for query"
		return result, nil
	}

	result.Success = true
	result.ResponseText = text
	result.Payload = &providers.GoogleAIPayload{References: references}
	return result, nil
}

// extractAIOverview flattens the AI Overview item's text rows and collects its
// reference list from both the block and per-row levels.
func extractAIOverview(serp *serpResponse) (string, []providers.GoogleAIReference) {
	var parts []string
	var references []providers.GoogleAIReference

	appendRefs := func(refs []serpReference) {
		for _, ref := range refs {
			if ref.URL == "" {
				continue
			}
			references = append(references, providers.GoogleAIReference{
				Title:   ref.Title,
				Link:    ref.URL,
				Source:  ref.Source,
				Snippet: ref.Text,
			})
		}
	}

	for _, task := range serp.Tasks {
		for _, res := range task.Result {
			for _, item := range res.Items {
				if item.Type != "ai_overview" {
					continue
				}
				if item.Text != "" {
					parts = append(parts, item.Text)
				}
				appendRefs(item.References)
				for _, row := range item.Items {
					if row.Text != "" {
						parts = append(parts, row.Text)
					}
					appendRefs(row.References)
				}
			}
		}
	}

	return strings.Join(parts, "\n"), references
}
