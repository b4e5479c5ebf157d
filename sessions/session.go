package sessions

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tqye/geminiecho/messages"
)

// Session holds the conversation state for one user identity. All mutation
// goes through methods so the invariants (bounded contents buffer, monotonic
// counters, one-way quota latch) hold no matter who calls.
type Session struct {
	mu      sync.RWMutex
	name    string
	created time.Time
	last    time.Time

	history  []messages.Message
	contents []messages.Part

	settings      Settings
	limits        Limits
	searchEnabled bool

	loadedDoc   string
	loadedImage *messages.Part

	totalTokens   uint64
	totalQueries  uint32
	quotaExceeded bool
}

// Name returns the identity key the session was created under
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// History returns a copy of the display transcript
func (s *Session) History() []messages.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CopyHistory(s.history)
}

// AppendExchange appends one user message and the resulting model message to
// the transcript. Messages are only ever appended in call order.
func (s *Session) AppendExchange(user, reply messages.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, user, reply)
	s.last = time.Now()
}

// Contents returns a copy of the bounded request buffer
func (s *Session) Contents() []messages.Part {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CopyParts(s.contents)
}

// AppendContents appends parts to the request buffer and applies the bounded
// eviction policy. The seed entry at index 0 always survives.
func (s *Session) AppendContents(parts ...messages.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents = append(s.contents, parts...)
	s.contents = TrimContents(s.contents, s.limits.MaxMessages)
	s.last = time.Now()
}

// ResetTopic clears the transcript, the request buffer and any loaded
// uploads. Counters, settings and the quota latch are preserved.
func (s *Session) ResetTopic() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.history[:0]
	s.contents = s.contents[:0]
	s.loadedDoc = ""
	s.loadedImage = nil
	s.last = time.Now()
}

// ClearUploads drops only the loaded document and image buffers. Used when
// switching to a model that does not accept attachments.
func (s *Session) ClearUploads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedDoc = ""
	s.loadedImage = nil
}

// SetLoadedDoc stages extracted document text for the next turn
func (s *Session) SetLoadedDoc(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedDoc = text
}

// SetLoadedImage stages an uploaded image for the next turn
func (s *Session) SetLoadedImage(img *messages.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedImage = img
}

// LoadedDoc returns the staged document text
func (s *Session) LoadedDoc() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedDoc
}

// LoadedImage returns the staged image part, or nil
func (s *Session) LoadedImage() *messages.Part {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedImage
}

// RecordUsage adds the turn's token cost to the session counters. When the
// identity is outside the allow-list and its query count passes the trial
// limit, the quota latch engages. The latch is one-way: nothing clears it
// short of a process restart.
func (s *Session) RecordUsage(tokens uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalTokens += tokens
	s.totalQueries++
	if s.limits.TotalTrials > 0 && !s.limits.Exempt(s.name) && s.totalQueries > s.limits.TotalTrials {
		s.quotaExceeded = true
	}
}

// RecordTokens adds a token cost without counting a query. Image generation
// charges a flat token cost but does not consume a trial query.
func (s *Session) RecordTokens(tokens uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalTokens += tokens
}

// TotalTokens returns the lifetime token count
func (s *Session) TotalTokens() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalTokens
}

// TotalQueries returns the lifetime query count
func (s *Session) TotalQueries() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalQueries
}

// QuotaExceeded reports whether the quota latch has engaged
func (s *Session) QuotaExceeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotaExceeded
}

// CostEstimate returns the approximate monetary cost of the session so far
func (s *Session) CostEstimate() decimal.Decimal {
	return EstimateCost(s.TotalTokens())
}

// Settings returns the current session settings
func (s *Session) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ApplySettings applies a partial settings update. Zero fields keep their
// current values; temperature is re-clamped.
func (s *Session) ApplySettings(in Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = MergeSettings(s.settings, in)
	s.last = time.Now()
}

// SearchEnabled reports whether the web-search tool is requested
func (s *Session) SearchEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchEnabled
}

// SetSearchEnabled toggles the web-search tool request
func (s *Session) SetSearchEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchEnabled = enabled
}

// LastUsed returns when the session was last touched
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
