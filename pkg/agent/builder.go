package agent

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arvid/lumen/pkg/tools"
)

// Credentials holds the provider API keys available to the process.
type Credentials struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
}

func (c Credentials) forProvider(name string) string {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// BuilderConfig holds builder configuration.
type BuilderConfig struct {
	Credentials Credentials

	// WebAllowlist enables the web-fetch capability when non-empty. Agents
	// requesting web-fetch fail to build without it.
	WebAllowlist []string

	// HTTPClient is used by the web-fetch tool. Optional.
	HTTPClient *http.Client

	Logger zerolog.Logger

	// ProviderFactory defaults to the real SDK-backed factory.
	ProviderFactory ProviderCreator
}

// Builder assembles ready-to-run agents. Credentials and capabilities are
// checked here, once, so a misconfigured deployment fails at build time
// instead of mid-stream.
type Builder struct {
	creds        Credentials
	webAllowlist []string
	httpClient   *http.Client
	logger       zerolog.Logger
	factory      ProviderCreator
}

// NewBuilder creates an agent builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	factory := cfg.ProviderFactory
	if factory == nil {
		factory = &ProviderFactory{}
	}
	return &Builder{
		creds:        cfg.Credentials,
		webAllowlist: cfg.WebAllowlist,
		httpClient:   cfg.HTTPClient,
		logger:       cfg.Logger.With().Str("module", "agent").Logger(),
		factory:      factory,
	}
}

// Build validates the config and binds it to a concrete model and its
// capability tools. resolvedModelID is the identifier chosen from the
// catalog; when empty, config.Model is used as-is.
func (b *Builder) Build(config AgentConfig, resolvedModelID string) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	modelID := resolvedModelID
	if modelID == "" {
		modelID = config.Model
	}

	providerName, bareModel, err := ResolveProvider(modelID)
	if err != nil {
		return nil, &ValidationError{Field: "model", Reason: err.Error()}
	}

	apiKey := b.creds.forProvider(providerName)
	if apiKey == "" {
		return nil, &ConfigurationError{
			Missing: fmt.Sprintf("%s API key", providerName),
			Reason:  fmt.Sprintf("required to run model %q", modelID),
		}
	}

	provider, err := b.factory.NewProvider(providerName, apiKey)
	if err != nil {
		return nil, &ConfigurationError{Missing: providerName + " provider", Reason: err.Error()}
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.ArithmeticTool()); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.CurrentTimeTool()); err != nil {
		return nil, err
	}

	var tracker *tools.WebTracker
	webEnabled := false
	if config.wantsCapability(tools.CapabilityWebFetch) {
		if len(b.webAllowlist) == 0 {
			return nil, &ConfigurationError{
				Missing: "web-fetch capability",
				Reason:  "no fetch allow-list configured for this deployment",
			}
		}
		tracker = tools.NewWebTracker()
		if err := registry.Register(tools.WebFetchTool(b.webAllowlist, b.httpClient, tracker)); err != nil {
			return nil, err
		}
		webEnabled = true
	}

	ag := &Agent{
		ID:         uuid.NewString(),
		Config:     config,
		Model:      bareModel,
		provider:   provider,
		registry:   registry,
		webTracker: tracker,
		webEnabled: webEnabled,
	}

	b.logger.Debug().
		Str("agent_id", ag.ID).
		Str("agent_name", config.Name).
		Str("model", bareModel).
		Str("provider", providerName).
		Strs("tools", ag.Tools()).
		Msg("Agent built")

	return ag, nil
}
