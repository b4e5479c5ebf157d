package sessions

import (
	"slices"

	"dario.cat/mergo"
	"github.com/shopspring/decimal"
	"github.com/tqye/geminiecho/messages"
)

// TrimContents applies the bounded eviction policy to the request buffer.
// Whenever the buffer holds more than maxMessages entries beyond the seed,
// the two oldest entries after the seed (index 1 and the entry that slides
// into index 1) are dropped. The seed at index 0 is never evicted.
func TrimContents(parts []messages.Part, maxMessages int) []messages.Part {
	if maxMessages <= 0 {
		return parts // No limit
	}
	for len(parts) > maxMessages+1 {
		parts = slices.Delete(parts, 1, 3)
	}
	return parts
}

// CopyHistory creates a defensive copy of a history slice, parts included
func CopyHistory(history []messages.Message) []messages.Message {
	result := make([]messages.Message, len(history))
	for i, msg := range history {
		msg.Parts = CopyParts(msg.Parts)
		result[i] = msg
	}
	return result
}

// CopyParts creates a defensive copy of a part slice
func CopyParts(parts []messages.Part) []messages.Part {
	result := make([]messages.Part, len(parts))
	copy(result, parts)
	return result
}

// MergeSettings merges non-zero fields from 'in' over 'existing' and returns
// a new value. Zero values in 'in' keep the existing setting.
func MergeSettings(existing, in Settings) Settings {
	out := in
	if err := mergo.Merge(&out, existing); err != nil {
		return existing
	}
	out.Temperature = ClampTemperature(out.Temperature)
	return out
}

// ClampTemperature bounds a sampling temperature to the supported range.
// The UI clamps at the boundary already; this re-validates defensively.
func ClampTemperature(t float64) float64 {
	switch {
	case t < 0.1:
		return 0.1
	case t > 2.0:
		return 2.0
	}
	return t
}

// costPerKiloTokens is the approximate charge per 1000 tokens, in CNY cents.
var costPerKiloTokens = decimal.RequireFromString("0.12")

// EstimateCost converts a token total into an approximate monetary cost.
func EstimateCost(tokens uint64) decimal.Decimal {
	return decimal.NewFromUint64(tokens).
		Mul(costPerKiloTokens).
		Div(decimal.NewFromInt(1000)).
		Round(4)
}
