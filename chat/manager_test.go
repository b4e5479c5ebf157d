package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/tqye/geminiecho/llm"
	"github.com/tqye/geminiecho/messages"
	"github.com/tqye/geminiecho/sessions"
)

type fakeGateway struct {
	resp *llm.Response
	err  error

	calls        int
	lastContents []messages.Part
	lastCfg      *llm.GenerateConfig
}

func (f *fakeGateway) Generate(ctx context.Context, contents []messages.Part, cfg *llm.GenerateConfig) (*llm.Response, error) {
	f.calls++
	f.lastContents = contents
	f.lastCfg = cfg
	return f.resp, f.err
}

type fakeImagen struct {
	images [][]byte
	err    error

	calls      int
	lastPrompt string
	lastCount  int
}

func (f *fakeImagen) GenerateImages(ctx context.Context, prompt string, count int) ([][]byte, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastCount = count
	return f.images, f.err
}

func textResponse(text string, tokens uint64) *llm.Response {
	return &llm.Response{
		Parts:       []messages.Part{messages.TextPart(text)},
		TotalTokens: tokens,
	}
}

func testSession(maxMessages int) *sessions.Session {
	store := sessions.NewStore(&sessions.Defaults{
		Settings: sessions.Settings{
			Model:        "Gemini 2.5 Pro",
			Temperature:  0.7,
			SystemPrompt: "be helpful",
			Persona:      "default",
		},
		Limits: sessions.Limits{MaxMessages: maxMessages},
	})
	return store.Get("tester")
}

func TestImageDirective(t *testing.T) {
	cases := []struct {
		prompt string
		ok     bool
		body   string
	}{
		{"!!! a red fox", true, "a red fox"},
		{"！！！ 一只狐狸", true, "一只狐狸"},
		{"!!!fox", true, "fox"},
		{"hello there", false, ""},
		{"well !!! nope", false, ""},
	}
	for _, tc := range cases {
		ok, body := ImageDirective(tc.prompt)
		if ok != tc.ok || body != tc.body {
			t.Errorf("ImageDirective(%q) = (%v, %q), want (%v, %q)",
				tc.prompt, ok, body, tc.ok, tc.body)
		}
	}
}

func TestSubmitTurnEmptyPrompt(t *testing.T) {
	gw := &fakeGateway{resp: textResponse("hi", 1)}
	m := NewManager(gw, nil, Config{})
	sess := testSession(20)

	_, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "   "})
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("Expected ErrEmptyPrompt, got %v", err)
	}
	if gw.calls != 0 {
		t.Error("Gateway called for empty prompt")
	}
	if len(sess.History()) != 0 || len(sess.Contents()) != 0 {
		t.Error("Session mutated by empty prompt")
	}
}

func TestSubmitTurnStandard(t *testing.T) {
	gw := &fakeGateway{resp: textResponse("the answer", 42)}
	m := NewManager(gw, nil, Config{})
	sess := testSession(20)
	sess.SetSearchEnabled(true)

	result, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "a question"})
	if err != nil {
		t.Fatalf("SubmitTurn failed: %v", err)
	}

	if result.Kind != TurnChat {
		t.Errorf("Kind = %s", result.Kind)
	}
	if result.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d", result.TokensUsed)
	}
	if len(result.Reply) != 1 || result.Reply[0].Text != "the answer" {
		t.Errorf("Reply = %+v", result.Reply)
	}

	cfg := gw.lastCfg
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("API model = %q", cfg.Model)
	}
	if cfg.Multimodal {
		t.Error("Standard variant flagged multimodal")
	}
	if cfg.SystemPrompt != "be helpful" {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if !cfg.EnableSearch {
		t.Error("Search not enabled")
	}

	// Transcript gains exactly one user and one model entry
	history := sess.History()
	if len(history) != 2 {
		t.Fatalf("History length = %d", len(history))
	}
	if history[0].Role != messages.RoleUser || history[1].Role != messages.RoleModel {
		t.Errorf("Wrong roles: %s, %s", history[0].Role, history[1].Role)
	}

	// Standard replies never accumulate into the request buffer
	contents := sess.Contents()
	if len(contents) != 1 || contents[0].Text != "a question" {
		t.Errorf("Contents = %+v", contents)
	}
}

func TestSubmitTurnGatewayFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("backend down")}
	m := NewManager(gw, nil, Config{})
	sess := testSession(20)

	result, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Gateway failure should degrade, not propagate: %v", err)
	}

	if result.TokensUsed != 0 {
		t.Errorf("TokensUsed = %d on failure", result.TokensUsed)
	}
	want := "AI model returned error! backend down"
	if len(result.Reply) != 1 || result.Reply[0].Text != want {
		t.Errorf("Reply = %+v, want %q", result.Reply, want)
	}

	// The failed turn is still recorded
	history := sess.History()
	if len(history) != 2 {
		t.Fatalf("History length = %d", len(history))
	}
	if history[1].Text() != want {
		t.Errorf("Recorded reply = %q", history[1].Text())
	}
}

func TestSubmitTurnMultimodal(t *testing.T) {
	resp := &llm.Response{
		Parts: []messages.Part{
			messages.TextPart("here you go"),
			messages.ImagePart("aW1n", "image/jpeg"),
		},
		TotalTokens: 99,
	}
	gw := &fakeGateway{resp: resp}
	m := NewManager(gw, nil, Config{})
	sess := testSession(20)
	sess.ApplySettings(sessions.Settings{Model: "Gemini 2.0 flash Exp （图，文）"})
	sess.SetSearchEnabled(true)

	result, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "draw a cat"})
	if err != nil {
		t.Fatalf("SubmitTurn failed: %v", err)
	}

	cfg := gw.lastCfg
	if !cfg.Multimodal {
		t.Error("Experimental variant not flagged multimodal")
	}
	if cfg.SystemPrompt != "" || cfg.Temperature != 0 {
		t.Error("Experimental variant carries system prompt or temperature")
	}
	if cfg.EnableSearch {
		t.Error("Experimental variant requested search")
	}

	if len(result.Reply) != 2 {
		t.Fatalf("Reply length = %d", len(result.Reply))
	}

	// Multimodal replies accumulate: prompt + two reply parts
	contents := sess.Contents()
	if len(contents) != 3 {
		t.Fatalf("Contents length = %d", len(contents))
	}
	if !contents[2].IsImage() {
		t.Error("Reply image not in request buffer")
	}
}

func TestSubmitTurnDocDisablesSearch(t *testing.T) {
	gw := &fakeGateway{resp: textResponse("summary", 10)}
	m := NewManager(gw, nil, Config{})
	sess := testSession(20)
	sess.SetSearchEnabled(true)

	_, err := m.SubmitTurn(context.Background(), sess, TurnInput{
		Prompt:  "summarize",
		DocText: "a long document",
	})
	if err != nil {
		t.Fatalf("SubmitTurn failed: %v", err)
	}

	if gw.lastCfg.EnableSearch {
		t.Error("Search enabled despite document attachment")
	}
	if len(gw.lastContents) != 2 {
		t.Errorf("Expected prompt + doc in contents, got %d parts", len(gw.lastContents))
	}
}

func TestSubmitTurnPersonaStrip(t *testing.T) {
	gw := &fakeGateway{resp: textResponse("解: <CONTEXT>内部指令</CONTEXT> 结束", 5)}
	m := NewManager(gw, nil, Config{StripPersonas: []string{"汉语新解"}})

	t.Run("ConfiguredPersona", func(t *testing.T) {
		sess := testSession(20)
		sess.ApplySettings(sessions.Settings{Persona: "汉语新解"})
		result, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "词"})
		if err != nil {
			t.Fatal(err)
		}
		if got := result.Reply[0].Text; got != "解: {...} 结束" {
			t.Errorf("Reply = %q", got)
		}
	})

	t.Run("OtherPersona", func(t *testing.T) {
		sess := testSession(20)
		result, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "词"})
		if err != nil {
			t.Fatal(err)
		}
		if got := result.Reply[0].Text; got != "解: <CONTEXT>内部指令</CONTEXT> 结束" {
			t.Errorf("Reply stripped for unconfigured persona: %q", got)
		}
	})
}

func TestSubmitTurnImagePath(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		imagen := &fakeImagen{images: [][]byte{{1}}}
		m := NewManager(&fakeGateway{}, imagen, Config{Text2ImgEnabled: false})
		sess := testSession(20)

		result, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "!!! a fox"})
		if err != nil {
			t.Fatal(err)
		}
		if result.Kind != TurnImage || result.ImageOK {
			t.Errorf("Kind=%s ImageOK=%v", result.Kind, result.ImageOK)
		}
		if imagen.calls != 0 {
			t.Error("Generator called while disabled")
		}
		if result.Reply[0].Text != "Image generation is not currently enabled. Please try again later!" {
			t.Errorf("Reply = %q", result.Reply[0].Text)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		imagen := &fakeImagen{err: errors.New("quota")}
		m := NewManager(&fakeGateway{}, imagen, Config{Text2ImgEnabled: true})
		sess := testSession(20)

		result, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "!!! a fox"})
		if err != nil {
			t.Fatal(err)
		}
		if result.ImageOK || result.TokensUsed != 0 {
			t.Errorf("ImageOK=%v tokens=%d", result.ImageOK, result.TokensUsed)
		}
		if result.Reply[0].Text != "Image generation failed. Please try again later!" {
			t.Errorf("Reply = %q", result.Reply[0].Text)
		}
	})

	t.Run("Success", func(t *testing.T) {
		imagen := &fakeImagen{images: [][]byte{{1}, {2}}}
		gw := &fakeGateway{}
		m := NewManager(gw, imagen, Config{Text2ImgEnabled: true})
		sess := testSession(20)

		result, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "！！！ a fox"})
		if err != nil {
			t.Fatal(err)
		}
		if !result.ImageOK || len(result.Images) != 2 {
			t.Errorf("ImageOK=%v images=%d", result.ImageOK, len(result.Images))
		}
		if result.TokensUsed != 1500 {
			t.Errorf("TokensUsed = %d, want flat 1500", result.TokensUsed)
		}
		if imagen.lastPrompt != "a fox" || imagen.lastCount != 2 {
			t.Errorf("Generator called with (%q, %d)", imagen.lastPrompt, imagen.lastCount)
		}

		// Image turns never touch the transcript
		if len(sess.History()) != 0 || len(sess.Contents()) != 0 {
			t.Error("Image directive mutated the session")
		}
		if gw.calls != 0 {
			t.Error("Chat gateway called for image directive")
		}
	})
}

// TestSubmitTurnEviction runs repeated multimodal turns against a tight
// bound and verifies the request buffer stays bounded with the first prompt
// preserved.
func TestSubmitTurnEviction(t *testing.T) {
	gw := &fakeGateway{resp: textResponse("reply", 1)}
	m := NewManager(gw, nil, Config{})
	sess := testSession(2)
	sess.ApplySettings(sessions.Settings{Model: "Gemini 2.0 flash Exp （图，文）"})

	for i := 0; i < 6; i++ {
		if _, err := m.SubmitTurn(context.Background(), sess, TurnInput{Prompt: "again"}); err != nil {
			t.Fatal(err)
		}
	}

	contents := sess.Contents()
	if len(contents) > 3 {
		t.Fatalf("Buffer exceeds bound: %d entries", len(contents))
	}
	if contents[0].Text != "again" {
		t.Errorf("Seed entry lost: %q", contents[0].Text)
	}
	if len(sess.History()) != 12 {
		t.Errorf("History length = %d, want 12", len(sess.History()))
	}
}
