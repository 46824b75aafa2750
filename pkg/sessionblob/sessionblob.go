// Package sessionblob decodes the session format owned by the UI layer. The
// blob arrives as input on build and restore actions; this core validates it
// against a fixed schema and extracts the agent config and chosen model.
package sessionblob

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/arvid/lumen/pkg/agent"
)

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the decoded blob.
type Session struct {
	Config     agent.AgentConfig `json:"config"`
	Transcript []Message         `json:"transcript"`
	ModelID    string            `json:"modelId"`
}

// Decoder validates and decodes session blobs.
type Decoder struct {
	logger       zerolog.Logger
	schemaLoader gojsonschema.JSONLoader
}

// NewDecoder creates a session blob decoder.
func NewDecoder(logger zerolog.Logger) *Decoder {
	return &Decoder{
		logger:       logger.With().Str("module", "sessionblob").Logger(),
		schemaLoader: gojsonschema.NewStringLoader(SessionSchema),
	}
}

// Decode validates the blob against the schema, then applies the config
// rules the schema cannot express.
func (d *Decoder) Decode(data []byte) (*Session, error) {
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session JSON: %w", err)
	}

	if err := d.validateSchema(data); err != nil {
		return nil, fmt.Errorf("session schema validation failed: %w", err)
	}

	if err := session.Config.Validate(); err != nil {
		return nil, fmt.Errorf("session config invalid: %w", err)
	}

	d.logger.Debug().
		Str("agent_name", session.Config.Name).
		Str("model_id", session.ModelID).
		Int("transcript_len", len(session.Transcript)).
		Msg("Decoded session")

	return &session, nil
}

func (d *Decoder) validateSchema(data []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(d.schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errMsg string
		for i, verr := range result.Errors() {
			if i > 0 {
				errMsg += "; "
			}
			errMsg += verr.String()
		}
		return fmt.Errorf("schema validation errors: %s", errMsg)
	}

	return nil
}

// Encode serializes a session back to the blob format.
func Encode(session *Session) ([]byte, error) {
	if session.Transcript == nil {
		// The schema wants an array, not null.
		session.Transcript = []Message{}
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}
