package messages

import "testing"

// TestAssembleParts verifies the fixed submission order: prompt text first,
// document text second, image last.
func TestAssembleParts(t *testing.T) {
	img := ImagePart("aGVsbG8=", "image/jpeg")

	t.Run("PromptOnly", func(t *testing.T) {
		parts := AssembleParts("hello", "", nil)
		if len(parts) != 1 {
			t.Fatalf("Expected 1 part, got %d", len(parts))
		}
		if parts[0].Text != "hello" {
			t.Errorf("Wrong prompt: %q", parts[0].Text)
		}
	})

	t.Run("PromptAndDoc", func(t *testing.T) {
		parts := AssembleParts("summarize this", "doc body", nil)
		if len(parts) != 2 {
			t.Fatalf("Expected 2 parts, got %d", len(parts))
		}
		if parts[0].Text != "summarize this" || parts[1].Text != "doc body" {
			t.Errorf("Wrong order: %q, %q", parts[0].Text, parts[1].Text)
		}
	})

	t.Run("FullAssembly", func(t *testing.T) {
		parts := AssembleParts("describe", "doc body", &img)
		if len(parts) != 3 {
			t.Fatalf("Expected 3 parts, got %d", len(parts))
		}
		if !parts[0].IsText() || !parts[1].IsText() || !parts[2].IsImage() {
			t.Error("Image not last")
		}
	})

	t.Run("ImageWithoutDoc", func(t *testing.T) {
		parts := AssembleParts("describe", "", &img)
		if len(parts) != 2 {
			t.Fatalf("Expected 2 parts, got %d", len(parts))
		}
		if !parts[1].IsImage() {
			t.Error("Image not last")
		}
	})
}

func TestMessageText(t *testing.T) {
	msg := ModelMessage(
		TextPart("first "),
		ImagePart("aGVsbG8=", "image/png"),
		TextPart("second"),
	)
	if got := msg.Text(); got != "first second" {
		t.Errorf("Text() = %q", got)
	}
	if !msg.HasImages() {
		t.Error("HasImages() = false")
	}

	plain := UserMessage(TextPart("just text"))
	if plain.HasImages() {
		t.Error("HasImages() = true for text-only message")
	}
}
