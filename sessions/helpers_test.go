package sessions

import (
	"fmt"
	"testing"

	"github.com/tqye/geminiecho/messages"
)

func textParts(n int) []messages.Part {
	parts := make([]messages.Part, n)
	for i := range parts {
		parts[i] = messages.TextPart(fmt.Sprintf("entry-%d", i))
	}
	return parts
}

// TestTrimContents verifies the bounded eviction policy: the buffer holds at
// most maxMessages entries beyond the reserved first entry, and eviction
// always removes the two oldest non-reserved entries.
func TestTrimContents(t *testing.T) {
	t.Run("UnderBound", func(t *testing.T) {
		parts := textParts(3)
		trimmed := TrimContents(parts, 20)
		if len(trimmed) != 3 {
			t.Errorf("Expected 3 entries, got %d", len(trimmed))
		}
	})

	t.Run("EvictsOldestPairs", func(t *testing.T) {
		parts := textParts(7)
		trimmed := TrimContents(parts, 4)
		if len(trimmed) != 5 {
			t.Fatalf("Expected 5 entries, got %d", len(trimmed))
		}
		// Entry 0 survives, entries 1..2 evicted
		if trimmed[0].Text != "entry-0" {
			t.Errorf("First entry evicted: got %q", trimmed[0].Text)
		}
		if trimmed[1].Text != "entry-3" {
			t.Errorf("Expected entry-3 at index 1, got %q", trimmed[1].Text)
		}
	})

	t.Run("RepeatsUntilBoundHolds", func(t *testing.T) {
		parts := textParts(11)
		trimmed := TrimContents(parts, 2)
		if len(trimmed) != 3 {
			t.Fatalf("Expected 3 entries, got %d", len(trimmed))
		}
		if trimmed[0].Text != "entry-0" {
			t.Errorf("First entry evicted: got %q", trimmed[0].Text)
		}
		if trimmed[1].Text != "entry-9" || trimmed[2].Text != "entry-10" {
			t.Errorf("Wrong survivors: %q, %q", trimmed[1].Text, trimmed[2].Text)
		}
	})

	t.Run("ZeroMeansUnbounded", func(t *testing.T) {
		parts := textParts(50)
		trimmed := TrimContents(parts, 0)
		if len(trimmed) != 50 {
			t.Errorf("Expected 50 entries, got %d", len(trimmed))
		}
	})
}

func TestClampTemperature(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.0, 0.1},
		{-1.0, 0.1},
		{0.1, 0.1},
		{0.7, 0.7},
		{2.0, 2.0},
		{5.0, 2.0},
	}
	for _, tc := range cases {
		if got := ClampTemperature(tc.in); got != tc.want {
			t.Errorf("ClampTemperature(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestMergeSettings verifies partial updates: zero fields keep the existing
// value, non-zero fields win.
func TestMergeSettings(t *testing.T) {
	existing := Settings{
		Model:        "Gemini 2.5 Pro",
		Temperature:  0.7,
		SystemPrompt: "base prompt",
		Persona:      "default",
	}

	t.Run("PartialUpdate", func(t *testing.T) {
		merged := MergeSettings(existing, Settings{Model: "Gemini 2.5 flash"})
		if merged.Model != "Gemini 2.5 flash" {
			t.Errorf("Model not updated: %q", merged.Model)
		}
		if merged.Temperature != 0.7 {
			t.Errorf("Temperature lost: %v", merged.Temperature)
		}
		if merged.SystemPrompt != "base prompt" {
			t.Errorf("SystemPrompt lost: %q", merged.SystemPrompt)
		}
	})

	t.Run("TemperatureClamped", func(t *testing.T) {
		merged := MergeSettings(existing, Settings{Temperature: 9.0})
		if merged.Temperature != 2.0 {
			t.Errorf("Expected clamped 2.0, got %v", merged.Temperature)
		}
	})
}

func TestEstimateCost(t *testing.T) {
	cost := EstimateCost(10000)
	if got := cost.StringFixed(4); got != "1.2000" {
		t.Errorf("EstimateCost(10000) = %s, want 1.2000", got)
	}
	if !EstimateCost(0).IsZero() {
		t.Errorf("EstimateCost(0) should be zero")
	}
}
