// Package tts synthesizes spoken audio for assistant replies. Synthesis is
// an optional side effect; failures are logged by the caller, never fatal.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/abadojack/whatlanggo"
)

const ttsEndpoint = "https://translate.google.com/translate_tts"

// chunkRunes is the per-request text limit of the speech endpoint
const chunkRunes = 100

// supportedLangs are the languages the player handles
var supportedLangs = map[string]bool{
	"zh": true,
	"en": true,
	"de": true,
	"fr": true,
}

// ErrUnsupportedLanguage is returned when the reply's detected language has
// no speech support
var ErrUnsupportedLanguage = fmt.Errorf("tts: unsupported language")

// Synthesizer fetches MP3 speech for text
type Synthesizer struct {
	client   *http.Client
	endpoint string
}

// NewSynthesizer creates a synthesizer with a default HTTP timeout
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		client:   &http.Client{Timeout: 30 * time.Second},
		endpoint: ttsEndpoint,
	}
}

// DetectLanguage returns the ISO 639-1 code of the text's language
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	return info.Lang.Iso6391()
}

// Speak detects the text's language and returns MP3 audio for it, along
// with the detected language code. Unsupported languages return
// ErrUnsupportedLanguage.
func (s *Synthesizer) Speak(ctx context.Context, text string) ([]byte, string, error) {
	lang := DetectLanguage(text)
	if !supportedLangs[lang] {
		return nil, lang, ErrUnsupportedLanguage
	}

	// The endpoint caps request length; MP3 streams concatenate cleanly,
	// so long replies are fetched chunk by chunk.
	var audio bytes.Buffer
	for _, chunk := range splitChunks(text, chunkRunes) {
		data, err := s.fetch(ctx, chunk, lang)
		if err != nil {
			return nil, lang, err
		}
		audio.Write(data)
	}
	return audio.Bytes(), lang, nil
}

func (s *Synthesizer) fetch(ctx context.Context, text, lang string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// splitChunks breaks text into rune-bounded chunks, preferring whitespace
// boundaries
func splitChunks(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i] == ' ' || runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}
