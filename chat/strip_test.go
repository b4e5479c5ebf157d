package chat

import "testing"

func TestStripContextBlocks(t *testing.T) {
	t.Run("SingleBlock", func(t *testing.T) {
		in := "prefix <CONTEXT>secret instructions</CONTEXT> suffix"
		want := "prefix {...} suffix"
		if got := StripContextBlocks(in); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("Multiline", func(t *testing.T) {
		in := "card:\n<CONTEXT>\nline one\nline two\n</CONTEXT>\ndone"
		want := "card:\n{...}\ndone"
		if got := StripContextBlocks(in); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("MultipleBlocks", func(t *testing.T) {
		in := "<CONTEXT>a</CONTEXT> mid <CONTEXT>b</CONTEXT>"
		want := "{...} mid {...}"
		if got := StripContextBlocks(in); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := StripContextBlocks("x <CONTEXT>y</CONTEXT> z")
		twice := StripContextBlocks(once)
		if once != twice {
			t.Errorf("second pass changed output: %q vs %q", once, twice)
		}
	})

	t.Run("NoBlocks", func(t *testing.T) {
		in := "plain reply with <CONTEXT> only an opener"
		if got := StripContextBlocks(in); got != in {
			t.Errorf("unmatched opener altered: %q", got)
		}
	})
}

func TestContextStripper(t *testing.T) {
	s := NewContextStripper([]string{"汉语新解", "诗词卡片"})

	if !s.Applies("汉语新解") {
		t.Error("configured persona not matched")
	}
	if s.Applies("default") {
		t.Error("unconfigured persona matched")
	}

	var nilStripper *ContextStripper
	if nilStripper.Applies("汉语新解") {
		t.Error("nil stripper should never apply")
	}
}
