// internal/models/models.go
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/getcito/ai-monitor/internal/providers"
	"github.com/google/uuid"
)

// Provider identifies one of the monitored answer engines. The set is closed:
// chatgpt, google and perplexity. Result maps are keyed by these values; the
// Google AI Overview provider is persisted on Citation records under the label
// "googleAI" (see CitationLabel), which is the only place the two spellings
// diverge.
type Provider string

const (
	ProviderChatGPT    Provider = "chatgpt"
	ProviderGoogle     Provider = "google"
	ProviderPerplexity Provider = "perplexity"
)

// AllProviders is the fixed iteration order used everywhere stats are rolled
// up, so snapshots serialize deterministically.
var AllProviders = []Provider{ProviderChatGPT, ProviderGoogle, ProviderPerplexity}

// CitationLabel returns the provider value stored on Citation records.
func (p Provider) CitationLabel() string {
	if p == ProviderGoogle {
		return "googleAI"
	}
	return string(p)
}

// NormalizeProviderKey maps the spellings that show up in stored payloads and
// API requests onto the canonical Provider values. Unknown keys return false;
// callers log a data-quality warning and skip the record.
func NormalizeProviderKey(key string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "chatgpt", "openai":
		return ProviderChatGPT, true
	case "google", "googleai", "google_ai", "aioverview":
		return ProviderGoogle, true
	case "perplexity":
		return ProviderPerplexity, true
	default:
		return "", false
	}
}

// Brand is the tracked company the user owns and monitors.
type Brand struct {
	ID        uuid.UUID `json:"id" db:"brand_id"`
	Name      string    `json:"name" db:"name"`
	Domain    string    `json:"domain" db:"domain"`
	Aliases   []string  `json:"aliases,omitempty"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Competitor is a rival company tracked alongside a brand. Immutable while an
// analysis runs; created and edited only by user action.
type Competitor struct {
	ID        uuid.UUID `json:"id" db:"competitor_id"`
	BrandID   uuid.UUID `json:"brand_id" db:"brand_id"`
	Name      string    `json:"name" db:"name"`
	Domain    *string   `json:"domain,omitempty" db:"domain"`
	Aliases   []string  `json:"aliases,omitempty"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MatchEntity is the minimal shape the text matcher works against.
type MatchEntity struct {
	Name    string
	Aliases []string
	Domain  string
}

func (b *Brand) MatchEntity() MatchEntity {
	return MatchEntity{Name: b.Name, Aliases: b.Aliases, Domain: b.Domain}
}

func (c *Competitor) MatchEntity() MatchEntity {
	e := MatchEntity{Name: c.Name, Aliases: c.Aliases}
	if c.Domain != nil {
		e.Domain = *c.Domain
	}
	return e
}

// Citation is a normalized reference returned by any of the three providers.
// Invariants: Provider is one of chatgpt/perplexity/googleAI, and
// IsDomainCitation implies Domain is non-empty.
type Citation struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	Domain           string    `json:"domain,omitempty"`
	Text             string    `json:"text,omitempty"`
	Source           string    `json:"source,omitempty"`
	Provider         string    `json:"provider"`
	Query            string    `json:"query,omitempty"`
	QueryID          string    `json:"query_id,omitempty"`
	IsBrandMention   bool      `json:"is_brand_mention"`
	IsDomainCitation bool      `json:"is_domain_citation"`
	Timestamp        time.Time `json:"timestamp"`
}

// ProviderResult is one provider's answer for one query. Payload holds the
// provider-specific citation shape; a nil payload simply contributes no
// citations.
type ProviderResult struct {
	Provider       Provider          `json:"provider"`
	Success        bool              `json:"success"`
	ResponseText   string            `json:"response_text,omitempty"`
	Error          string            `json:"error,omitempty"`
	ResponseTimeMS int64             `json:"response_time_ms,omitempty"`
	WebSearchUsed  bool              `json:"web_search_used,omitempty"`
	Payload        providers.Payload `json:"-"`
	Timestamp      time.Time         `json:"timestamp"`
}

// providerResultJSON is the wire form of ProviderResult with the payload
// flattened to raw JSON.
type providerResultJSON struct {
	Provider       Provider        `json:"provider"`
	Success        bool            `json:"success"`
	ResponseText   string          `json:"response_text,omitempty"`
	Error          string          `json:"error,omitempty"`
	ResponseTimeMS int64           `json:"response_time_ms,omitempty"`
	WebSearchUsed  bool            `json:"web_search_used,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

func (r *ProviderResult) MarshalJSON() ([]byte, error) {
	raw, err := providers.Encode(r.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(providerResultJSON{
		Provider:       r.Provider,
		Success:        r.Success,
		ResponseText:   r.ResponseText,
		Error:          r.Error,
		ResponseTimeMS: r.ResponseTimeMS,
		WebSearchUsed:  r.WebSearchUsed,
		Payload:        raw,
		Timestamp:      r.Timestamp,
	})
}

// UnmarshalJSON tolerates a malformed payload: the rest of the record survives
// and the payload degrades to nil, so a corrupt citation blob never aborts an
// aggregation over the remaining history.
func (r *ProviderResult) UnmarshalJSON(data []byte) error {
	var w providerResultJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Provider = w.Provider
	r.Success = w.Success
	r.ResponseText = w.ResponseText
	r.Error = w.Error
	r.ResponseTimeMS = w.ResponseTimeMS
	r.WebSearchUsed = w.WebSearchUsed
	r.Timestamp = w.Timestamp

	payload, err := providers.Decode(string(w.Provider), w.Payload)
	if err != nil {
		r.Payload = nil
		return nil
	}
	r.Payload = payload
	return nil
}

// QueryResult is the append-only record of one query's run across up to three
// providers. Immutable after creation.
type QueryResult struct {
	ID        uuid.UUID                    `json:"id"`
	SessionID uuid.UUID                    `json:"session_id"`
	BrandID   uuid.UUID                    `json:"brand_id"`
	Query     string                       `json:"query"`
	Results   map[Provider]*ProviderResult `json:"results"`
	CreatedAt time.Time                    `json:"created_at"`
}

// SessionStatus values for a processing session.
const (
	SessionStatusPending   = "pending"
	SessionStatusRunning   = "running"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

// ProcessingSession is one batch of queries submitted and answered together.
// "Latest" analytics scope to the most recent completed session.
type ProcessingSession struct {
	ID             uuid.UUID  `json:"id" db:"session_id"`
	BrandID        uuid.UUID  `json:"brand_id" db:"brand_id"`
	Status         string     `json:"status" db:"status"`
	TotalQueries   int        `json:"total_queries" db:"total_queries"`
	CompletedCount int        `json:"completed_count" db:"completed_count"`
	FailedCount    int        `json:"failed_count" db:"failed_count"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// BrandQuery is one of the tracked prompts run for a brand on every session.
type BrandQuery struct {
	ID        uuid.UUID `json:"id" db:"query_id"`
	BrandID   uuid.UUID `json:"brand_id" db:"brand_id"`
	Text      string    `json:"text" db:"text"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
