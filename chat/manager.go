package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tqye/geminiecho/llm"
	"github.com/tqye/geminiecho/messages"
	"github.com/tqye/geminiecho/sessions"
)

// ErrEmptyPrompt is returned when the trimmed input is empty. No session
// state is mutated in that case.
var ErrEmptyPrompt = errors.New("chat: empty prompt")

// imageDirectivePrefixes mark a prompt as an image-generation request
var imageDirectivePrefixes = []string{"!!!", "！！！"}

// TurnKind distinguishes the two submission paths
type TurnKind string

const (
	// TurnChat is a regular conversational turn
	TurnChat TurnKind = "chat"
	// TurnImage is an image-generation directive. Chat history is not
	// updated for this path.
	TurnImage TurnKind = "image"
)

// TurnInput carries one user submission: the raw prompt, optional extracted
// document text, and an optional uploaded image.
type TurnInput struct {
	Prompt  string
	DocText string
	Image   *messages.Part
}

// TurnResult is the outcome of one submitted turn
type TurnResult struct {
	Kind TurnKind

	// Reply holds the assistant reply parts (chat path), or a synthesized
	// status message (image path)
	Reply []messages.Part

	// Images holds decoded generated images (image path, success only)
	Images  [][]byte
	ImageOK bool

	// TokensUsed is the provider-reported total for the turn; zero on any
	// gateway failure, a flat charge for successful image generation
	TokensUsed uint64
}

// Config tunes the manager
type Config struct {
	// Text2ImgEnabled gates the image-generation directive
	Text2ImgEnabled bool

	// ImageCount is the number of images per directive
	ImageCount int

	// ImageTokenCharge is the flat token cost applied for a successful
	// generation (not derived from provider usage)
	ImageTokenCharge uint64

	// StripPersonas names the personas whose standard-variant replies get
	// the context-block strip transform
	StripPersonas []string
}

// Manager owns the turn-taking protocol: it bounds the request buffer,
// shapes the payload for the selected model variant, interprets the reply,
// and appends the exchange to the transcript. It performs no side effects;
// mail, audio and logging belong to the caller.
type Manager struct {
	gateway  llm.Gateway
	imagen   llm.ImageGenerator
	stripper *ContextStripper
	cfg      Config
}

// NewManager creates a conversation manager
func NewManager(gateway llm.Gateway, imagen llm.ImageGenerator, cfg Config) *Manager {
	if cfg.ImageCount <= 0 {
		cfg.ImageCount = 2
	}
	if cfg.ImageTokenCharge == 0 {
		cfg.ImageTokenCharge = 1500
	}
	return &Manager{
		gateway:  gateway,
		imagen:   imagen,
		stripper: NewContextStripper(cfg.StripPersonas),
		cfg:      cfg,
	}
}

// ImageDirective reports whether the prompt starts with an image-generation
// marker, and returns the prompt body with the marker token removed.
func ImageDirective(prompt string) (bool, string) {
	for _, prefix := range imageDirectivePrefixes {
		if strings.HasPrefix(prompt, prefix) {
			fields := strings.Fields(prompt)
			if len(fields) > 1 {
				return true, strings.Join(fields[1:], " ")
			}
			return true, strings.TrimPrefix(fields[0], prefix)
		}
	}
	return false, ""
}

// SubmitTurn processes one user submission against the session and returns
// the reply parts and token usage. Failures contacting the model degrade to
// a synthesized error reply with zero tokens; the turn is still recorded so
// the user sees what happened. The caller is responsible for recording
// usage and for all side effects.
func (m *Manager) SubmitTurn(ctx context.Context, sess *sessions.Session, in TurnInput) (*TurnResult, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	if ok, body := ImageDirective(prompt); ok {
		return m.generateImages(ctx, body)
	}

	settings := sess.Settings()
	spec := llm.Resolve(settings.Model)
	docText := strings.TrimSpace(in.DocText)

	parts := messages.AssembleParts(prompt, docText, in.Image)
	sess.AppendContents(parts...)

	cfg := &llm.GenerateConfig{
		Model:      spec.APIModel,
		Multimodal: spec.MultimodalOutput,
	}
	if !spec.MultimodalOutput {
		cfg.SystemPrompt = settings.SystemPrompt
		cfg.Temperature = sessions.ClampTemperature(settings.Temperature)
		// Document attachments force the search tool off
		cfg.EnableSearch = spec.SearchCapable && sess.SearchEnabled() && docText == ""
	}

	var reply []messages.Part
	var tokens uint64

	resp, err := m.gateway.Generate(ctx, sess.Contents(), cfg)
	if err != nil {
		log.Printf("chat: model %s failed: %v", spec.APIModel, err)
		reply = []messages.Part{messages.TextPart(fmt.Sprintf("AI model returned error! %v", err))}
	} else {
		tokens = resp.TotalTokens
		if spec.MultimodalOutput {
			// Interleaved text/image reply; model parts accumulate into
			// the request buffer for the next turn
			reply = resp.Parts
			sess.AppendContents(resp.Parts...)
		} else {
			text := joinText(resp.Parts)
			if m.stripper.Applies(settings.Persona) {
				text = StripContextBlocks(text)
			}
			reply = []messages.Part{messages.TextPart(text)}
		}
	}

	sess.AppendExchange(messages.UserMessage(parts...), messages.ModelMessage(reply...))

	return &TurnResult{Kind: TurnChat, Reply: reply, TokensUsed: tokens}, nil
}

// generateImages handles the image-generation directive path. History is
// never touched here.
func (m *Manager) generateImages(ctx context.Context, prompt string) (*TurnResult, error) {
	if !m.cfg.Text2ImgEnabled || m.imagen == nil {
		return &TurnResult{
			Kind:  TurnImage,
			Reply: []messages.Part{messages.TextPart("Image generation is not currently enabled. Please try again later!")},
		}, nil
	}

	images, err := m.imagen.GenerateImages(ctx, prompt, m.cfg.ImageCount)
	if err != nil {
		log.Printf("chat: image generation failed: %v", err)
		return &TurnResult{
			Kind:  TurnImage,
			Reply: []messages.Part{messages.TextPart("Image generation failed. Please try again later!")},
		}, nil
	}

	return &TurnResult{
		Kind:       TurnImage,
		ImageOK:    true,
		Images:     images,
		TokensUsed: m.cfg.ImageTokenCharge,
	}, nil
}

func joinText(parts []messages.Part) string {
	var sb strings.Builder
	for _, part := range parts {
		if part.IsText() {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
