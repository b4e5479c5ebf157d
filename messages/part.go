package messages

// Part types
const (
	PartTypeText  = "text"
	PartTypeImage = "image_base64"
	PartTypeRaw   = "raw"
)

// Part represents one atomic unit of message content (text, image, or an
// opaque provider-specific payload)
type Part struct {
	Type      string // "text", "image_base64", "raw"
	Text      string // For text content
	ImageData string // Base64 encoded image bytes
	MimeType  string // MIME type for images
	FileName  string // Original filename if applicable
	Raw       any    // Opaque pre-serialized provider content
}

// TextPart creates a text part
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// ImagePart creates a base64 image part
func ImagePart(data, mimeType string) Part {
	return Part{Type: PartTypeImage, ImageData: data, MimeType: mimeType}
}

// RawPart wraps an opaque provider payload
func RawPart(v any) Part {
	return Part{Type: PartTypeRaw, Raw: v}
}

// IsText reports whether the part carries text content
func (p *Part) IsText() bool {
	return p.Type == PartTypeText
}

// IsImage reports whether the part carries image content
func (p *Part) IsImage() bool {
	return p.Type == PartTypeImage
}
