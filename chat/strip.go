package chat

import "regexp"

// contextBlockRE matches a delimited context block, non-greedy, across
// newlines. Nested blocks are not specially handled.
var contextBlockRE = regexp.MustCompile(`(?s)<CONTEXT>.*?</CONTEXT>`)

// contextPlaceholder replaces each stripped block
const contextPlaceholder = "{...}"

// StripContextBlocks removes delimited context blocks from a reply,
// replacing each span with a placeholder. Applying the transform to an
// already-stripped reply is a no-op.
func StripContextBlocks(text string) string {
	return contextBlockRE.ReplaceAllString(text, contextPlaceholder)
}

// ContextStripper applies the strip transform for a configured set of
// persona names. Only standard-variant replies are ever stripped.
type ContextStripper struct {
	personas map[string]bool
}

// NewContextStripper creates a stripper for the named personas
func NewContextStripper(personas []string) *ContextStripper {
	set := make(map[string]bool, len(personas))
	for _, p := range personas {
		set[p] = true
	}
	return &ContextStripper{personas: set}
}

// Applies reports whether replies for this persona get stripped
func (s *ContextStripper) Applies(persona string) bool {
	if s == nil {
		return false
	}
	return s.personas[persona]
}
