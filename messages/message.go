package messages

// Standard role constants
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message represents one chronological entry in a chat transcript.
// Parts hold the ordered content of the turn: for standard model variants a
// single element, for multimodal turns prompt text, then optional document
// text, then optional image, in that fixed order.
type Message struct {
	Role  string
	Parts []Part
}

// UserMessage creates a user-role message from ordered parts
func UserMessage(parts ...Part) Message {
	return Message{Role: RoleUser, Parts: parts}
}

// ModelMessage creates a model-role message from ordered parts
func ModelMessage(parts ...Part) Message {
	return Message{Role: RoleModel, Parts: parts}
}

// Text returns the concatenated text content of the message
func (m *Message) Text() string {
	var result string
	for _, part := range m.Parts {
		if part.IsText() && part.Text != "" {
			result += part.Text
		}
	}
	return result
}

// HasImages returns true if the message contains image content
func (m *Message) HasImages() bool {
	for _, part := range m.Parts {
		if part.IsImage() {
			return true
		}
	}
	return false
}

// AssembleParts builds the ordered part sequence for one user turn: the
// prompt text first, then the extracted document text when non-empty, then
// the uploaded image when present. The order is fixed and never rearranged.
func AssembleParts(prompt, docText string, image *Part) []Part {
	parts := []Part{TextPart(prompt)}
	if docText != "" {
		parts = append(parts, TextPart(docText))
	}
	if image != nil {
		parts = append(parts, *image)
	}
	return parts
}
