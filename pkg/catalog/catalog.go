// Package catalog supplies the list of selectable models with graceful
// degradation: entries come from the provider's model-listing endpoint when
// reachable and from a static fallback list otherwise. An unreachable
// provider is expected steady-state behavior, never an error.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arvid/lumen/pkg/pricing"
)

// Source tells where the current model list came from.
type Source string

const (
	SourceDynamic  Source = "dynamic"
	SourceFallback Source = "fallback"
)

// ModelInfo is one catalog entry. Pricing hints are optional; a nil price
// means the provider metadata did not carry a readable value.
type ModelInfo struct {
	ID               string
	DisplayName      string
	InputPricePer1K  *float64
	OutputPricePer1K *float64
}

// cacheState is the process-wide catalog cache. It is replaced wholesale on
// every refresh so concurrent readers never observe a half-written cache.
type cacheState struct {
	entries   []ModelInfo
	fetchedAt time.Time
	source    Source
}

// Config holds catalog service configuration.
type Config struct {
	// Endpoint is the full URL of the model-listing endpoint.
	Endpoint string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// TTL bounds cache age before a refresh; default 5 minutes.
	TTL time.Duration
	// HTTPClient overrides the default 30s-timeout client.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Service fetches and caches the model catalog.
type Service struct {
	endpoint string
	apiKey   string
	ttl      time.Duration
	client   *http.Client
	logger   zerolog.Logger

	mu    sync.Mutex
	cache *cacheState
}

// NewService creates a catalog service with an empty cache.
func NewService(cfg Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		ttl:      ttl,
		client:   client,
		logger:   cfg.Logger.With().Str("module", "catalog").Logger(),
	}
}

// GetModels returns the selectable models and their provenance. Within the
// TTL window a cached list is served without network access unless
// forceRefresh is set. Fetch failures of any kind degrade to the fallback
// list; GetModels never returns an error for them.
func (s *Service) GetModels(ctx context.Context, forceRefresh bool) ([]ModelInfo, Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !forceRefresh && s.cache != nil && time.Since(s.cache.fetchedAt) <= s.ttl {
		return cloneEntries(s.cache.entries), s.cache.source
	}

	entries, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Model list fetch failed, using fallback")
		s.cache = &cacheState{
			entries:   fallbackModels(),
			fetchedAt: time.Now(),
			source:    SourceFallback,
		}
	} else {
		s.logger.Debug().Int("models", len(entries)).Msg("Model list refreshed")
		s.cache = &cacheState{
			entries:   entries,
			fetchedAt: time.Now(),
			source:    SourceDynamic,
		}
	}

	return cloneEntries(s.cache.entries), s.cache.source
}

// wire shapes for the provider's model-listing response. Pricing fields use
// RawMessage because providers serialize prices as strings or numbers.
type wireResponse struct {
	Data []wireModel `json:"data"`
}

type wireModel struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	Pricing     *wirePricing `json:"pricing"`
}

type wirePricing struct {
	Prompt     json.RawMessage `json:"prompt"`
	Completion json.RawMessage `json:"completion"`
}

func (s *Service) fetch(ctx context.Context) ([]ModelInfo, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("no catalog endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}
	if len(wire.Data) == 0 {
		return nil, fmt.Errorf("model endpoint returned no models")
	}

	entries := make([]ModelInfo, 0, len(wire.Data))
	for _, m := range wire.Data {
		if m.ID == "" {
			continue
		}
		info := ModelInfo{ID: m.ID, DisplayName: m.DisplayName}
		if info.DisplayName == "" {
			info.DisplayName = m.ID
		}
		if m.Pricing != nil {
			// Price hints fail soft to unknown per entry.
			info.InputPricePer1K = parsePriceField(m.Pricing.Prompt)
			info.OutputPricePer1K = parsePriceField(m.Pricing.Completion)
		}
		entries = append(entries, info)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("model endpoint returned no usable models")
	}

	return entries, nil
}

// parsePriceField reads a price from raw JSON that may be a quoted string
// ("$0.0015"), a bare number, or scientific notation.
func parsePriceField(raw json.RawMessage) *float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, ok := pricing.ParsePrice(s)
	if !ok {
		return nil
	}
	return &v
}

// fallbackModels is the hard-coded list used whenever the provider is
// unreachable or returns a malformed payload.
func fallbackModels() []ModelInfo {
	return []ModelInfo{
		{ID: "claude-sonnet-4", DisplayName: "Claude Sonnet 4"},
		{ID: "claude-opus-4", DisplayName: "Claude Opus 4"},
		{ID: "gpt-4o", DisplayName: "GPT-4o"},
		{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini"},
	}
}

func cloneEntries(entries []ModelInfo) []ModelInfo {
	out := make([]ModelInfo, len(entries))
	copy(out, entries)
	return out
}
