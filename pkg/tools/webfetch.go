package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Web-fetch status tokens, recorded into the run telemetry.
const (
	WebStatusOff     = "off"
	WebStatusOK      = "ok"
	WebStatusBlocked = "blocked"
)

const maxFetchBytes = 200_000

// WebTracker records the web-fetch outcome for the current turn. The runner
// resets it at the start of a run and reads it when assembling the record.
type WebTracker struct {
	mu     sync.Mutex
	status string
}

// NewWebTracker starts in the off state.
func NewWebTracker() *WebTracker {
	return &WebTracker{status: WebStatusOff}
}

// Reset returns the tracker to off at the start of a turn.
func (t *WebTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = WebStatusOff
}

func (t *WebTracker) markOK() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = WebStatusOK
}

func (t *WebTracker) markBlocked() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = WebStatusBlocked
}

// Status returns the recorded state for the turn.
func (t *WebTracker) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// WebFetchTool returns the web-fetch capability: an HTTP GET restricted to
// an allow-list of hosts. A nil client gets a 30s-timeout default.
func WebFetchTool(allowlist []string, client *http.Client, tracker *WebTracker) Definition {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return Definition{
		Name:        string(CapabilityWebFetch),
		Description: "Fetch a URL from the allow-listed set of hosts.",
		Parameters: []Parameter{
			{Name: "url", Type: "string", Description: "Absolute http(s) URL to fetch", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			raw, _ := params["url"].(string)
			raw = strings.TrimSpace(raw)
			if raw == "" {
				return nil, fmt.Errorf("url is required")
			}

			parsed, err := url.Parse(raw)
			if err != nil || parsed.Host == "" {
				return nil, fmt.Errorf("invalid url: %s", raw)
			}
			if parsed.Scheme != "http" && parsed.Scheme != "https" {
				return nil, fmt.Errorf("unsupported scheme: %s", parsed.Scheme)
			}

			if !hostAllowed(parsed.Hostname(), allowlist) {
				if tracker != nil {
					tracker.markBlocked()
				}
				return nil, fmt.Errorf("host %s is not in the allow-list", parsed.Hostname())
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to build request: %w", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("fetch failed: %w", err)
			}
			defer resp.Body.Close()

			var buf bytes.Buffer
			truncated := false
			if _, err := io.CopyN(&buf, resp.Body, maxFetchBytes); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to read response: %w", err)
			}
			extra := make([]byte, 1)
			if _, err := resp.Body.Read(extra); err == nil {
				truncated = true
			}

			if tracker != nil {
				tracker.markOK()
			}

			return map[string]interface{}{
				"url":         raw,
				"status_code": resp.StatusCode,
				"body":        buf.String(),
				"truncated":   truncated,
			}, nil
		},
	}
}

// hostAllowed matches a hostname against the allow-list. An entry matches
// itself and, when prefixed with a dot, any subdomain.
func hostAllowed(host string, allowlist []string) bool {
	host = strings.ToLower(host)
	for _, entry := range allowlist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.HasPrefix(entry, ".") {
			if strings.HasSuffix(host, entry) || host == strings.TrimPrefix(entry, ".") {
				return true
			}
			continue
		}
		if host == entry {
			return true
		}
	}
	return false
}
