package llm

import (
	"context"

	"github.com/tqye/geminiecho/messages"
)

// GenerateConfig carries the request shape for one model invocation
type GenerateConfig struct {
	// Model is the provider model identifier (not the human label)
	Model string

	// Multimodal requests TEXT+IMAGE response modalities with permissive
	// safety thresholds. System prompt and temperature are not sent in
	// this mode.
	Multimodal bool

	SystemPrompt string
	Temperature  float64

	// EnableSearch augments the request with the provider's web-search tool
	EnableSearch bool
}

// Response is the provider-agnostic result of one model invocation
type Response struct {
	// Parts holds the ordered reply content. Standard variants produce a
	// single text part; the multimodal variant may interleave text and
	// inline images.
	Parts []messages.Part

	// TotalTokens is the provider-reported total token count for the turn
	TotalTokens uint64
}

// Gateway defines the contract for remote model invocation
type Gateway interface {
	Generate(ctx context.Context, contents []messages.Part, cfg *GenerateConfig) (*Response, error)
}

// ImageGenerator defines the contract for the image-generation capability.
// Synchronous, no retries; any failure collapses to an error with no images.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, prompt string, count int) ([][]byte, error)
}
