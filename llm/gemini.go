package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/tqye/geminiecho/messages"
	"google.golang.org/genai"
)

// permissiveSafety turns off blocking for all harm categories. Used by the
// experimental multimodal variant only.
var permissiveSafety = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

// GeminiClient implements Gateway and ImageGenerator against the hosted
// Gemini API.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a client for the hosted Gemini API
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		log.Println("gemini: warning - no API key configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Generate sends the request buffer to the selected model and returns the
// ordered reply parts plus the provider-reported token total.
func (g *GeminiClient) Generate(ctx context.Context, contents []messages.Part, cfg *GenerateConfig) (*Response, error) {
	config := &genai.GenerateContentConfig{}

	if cfg.Multimodal {
		config.ResponseModalities = []string{"TEXT", "IMAGE"}
		config.SafetySettings = permissiveSafety
	} else {
		config.ResponseModalities = []string{"TEXT"}
		if cfg.SystemPrompt != "" {
			config.SystemInstruction = genai.NewContentFromText(cfg.SystemPrompt, genai.RoleUser)
		}
		config.Temperature = genai.Ptr(float32(cfg.Temperature))
		if cfg.EnableSearch {
			config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		}
	}

	log.Printf("gemini: sending %d content parts to model %s", len(contents), cfg.Model)

	resp, err := g.client.Models.GenerateContent(ctx, cfg.Model, partsToContents(contents), config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	result := &Response{}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			switch {
			case part.Text != "":
				result.Parts = append(result.Parts, messages.TextPart(part.Text))
			case part.InlineData != nil:
				result.Parts = append(result.Parts, messages.ImagePart(
					base64.StdEncoding.EncodeToString(part.InlineData.Data),
					part.InlineData.MIMEType,
				))
			}
		}
	}
	if len(result.Parts) == 0 {
		return nil, fmt.Errorf("gemini: model %s returned no content", cfg.Model)
	}

	if resp.UsageMetadata != nil {
		result.TotalTokens = uint64(resp.UsageMetadata.TotalTokenCount)
	}

	log.Printf("gemini: completed, %d reply parts, %d tokens", len(result.Parts), result.TotalTokens)
	return result, nil
}

// GenerateImages invokes the Imagen model. No retries; failures return an
// error and no images.
func (g *GeminiClient) GenerateImages(ctx context.Context, prompt string, count int) ([][]byte, error) {
	resp, err := g.client.Models.GenerateImages(ctx, ImagenModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages:    int32(count),
		OutputMIMEType:    "image/jpeg",
		SafetyFilterLevel: genai.SafetyFilterLevelBlockOnlyHigh,
		PersonGeneration:  genai.PersonGenerationAllowAdult,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate images: %w", err)
	}

	var images [][]byte
	for _, generated := range resp.GeneratedImages {
		if generated.Image != nil && len(generated.Image.ImageBytes) > 0 {
			images = append(images, generated.Image.ImageBytes)
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("gemini: imagen returned no images")
	}

	log.Printf("gemini: imagen produced %d images", len(images))
	return images, nil
}

// partsToContents converts the flattened request buffer to provider content.
// Each buffer entry becomes its own content entry, the way the original
// flat-list API normalized them.
func partsToContents(parts []messages.Part) []*genai.Content {
	contents := make([]*genai.Content, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case messages.PartTypeText:
			contents = append(contents, genai.NewContentFromText(part.Text, genai.RoleUser))
		case messages.PartTypeImage:
			data, err := base64.StdEncoding.DecodeString(part.ImageData)
			if err != nil {
				log.Printf("gemini: dropping undecodable image part: %v", err)
				continue
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromBytes(data, part.MimeType),
			}, genai.RoleUser))
		case messages.PartTypeRaw:
			if c, ok := part.Raw.(*genai.Content); ok {
				contents = append(contents, c)
			} else {
				contents = append(contents, genai.NewContentFromText(fmt.Sprint(part.Raw), genai.RoleUser))
			}
		}
	}
	return contents
}
