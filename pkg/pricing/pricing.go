// Package pricing maps model identifiers to per-1000-token USD prices.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Price holds the per-1000-token input and output prices in USD.
type Price struct {
	InputPer1K  float64
	OutputPer1K float64
}

// table is the static price list. Keys are bare model IDs; provider-qualified
// IDs are normalized before lookup.
var table = map[string]Price{
	"claude-opus-4":             {InputPer1K: 0.015, OutputPer1K: 0.075},
	"claude-sonnet-4":           {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-5-haiku-20241022": {InputPer1K: 0.0008, OutputPer1K: 0.004},
	"gpt-4o":                    {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":               {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4-turbo":               {InputPer1K: 0.01, OutputPer1K: 0.03},
	"o3-mini":                   {InputPer1K: 0.0011, OutputPer1K: 0.0044},
}

// PriceFor looks up the price for a model. The second return value is false
// when the model is unpriced.
func PriceFor(modelID string) (Price, bool) {
	id := modelID
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	p, ok := table[id]
	return p, ok
}

// Cost computes the USD cost of a turn. Unpriced models cost 0.0 regardless
// of token counts.
func Cost(modelID string, promptTokens, completionTokens int) float64 {
	p, ok := PriceFor(modelID)
	if !ok {
		return 0.0
	}
	if promptTokens < 0 {
		promptTokens = 0
	}
	if completionTokens < 0 {
		completionTokens = 0
	}
	return float64(promptTokens)/1000.0*p.InputPer1K +
		float64(completionTokens)/1000.0*p.OutputPer1K
}

// ParsePrice parses a provider-supplied price string. It tolerates currency
// prefixes ("$0.0015"), plain decimals and scientific notation. The second
// return value is false when the string cannot be read as a non-negative
// finite number.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
