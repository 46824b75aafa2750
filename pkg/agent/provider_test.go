package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProvider(t *testing.T) {
	cases := []struct {
		modelID   string
		provider  string
		bareModel string
	}{
		{"anthropic/claude-sonnet-4", "anthropic", "claude-sonnet-4"},
		{"openai/gpt-4o", "openai", "gpt-4o"},
		{"claude-3-5-haiku-20241022", "anthropic", "claude-3-5-haiku-20241022"},
		{"gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"o3-mini", "openai", "o3-mini"},
	}

	for _, tc := range cases {
		t.Run(tc.modelID, func(t *testing.T) {
			provider, bare, err := ResolveProvider(tc.modelID)
			require.NoError(t, err)
			assert.Equal(t, tc.provider, provider)
			assert.Equal(t, tc.bareModel, bare)
		})
	}

	t.Run("should reject an unrecognized model id", func(t *testing.T) {
		_, _, err := ResolveProvider("mystery-model")
		assert.Error(t, err)
	})
}

func TestProviderFactory(t *testing.T) {
	f := &ProviderFactory{}

	t.Run("should create known providers", func(t *testing.T) {
		p, err := f.NewProvider("anthropic", "key")
		require.NoError(t, err)
		assert.Equal(t, "anthropic", p.Name())

		p, err = f.NewProvider("openai", "key")
		require.NoError(t, err)
		assert.Equal(t, "openai", p.Name())
	})

	t.Run("should reject unknown providers", func(t *testing.T) {
		_, err := f.NewProvider("mistral", "key")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported provider")
	})
}
