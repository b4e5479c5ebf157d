package sessions

import (
	"slices"
	"time"
)

// Settings holds the per-session tunables a user can change mid-conversation.
// Zero values mean "keep whatever is already set" when applied as a partial
// update.
type Settings struct {
	Model        string  // human model label, resolved by the llm catalog
	Temperature  float64 // clamped to [0.1, 2.0]
	SystemPrompt string
	Persona      string // named system-prompt preset currently selected
}

// Limits holds the quota configuration consumed by sessions.
type Limits struct {
	// MaxMessages bounds the contents request buffer. The buffer may hold
	// MaxMessages entries plus the reserved seed entry at index 0.
	// 0 means unbounded.
	MaxMessages int

	// TotalTrials is the number of queries a non-exempt identity may make
	// before the quota latch engages. 0 means no trial limit.
	TotalTrials uint32

	// AllowList names identities exempt from the trial quota.
	AllowList []string
}

// Exempt reports whether the identity is on the quota allow-list.
func (l *Limits) Exempt(user string) bool {
	return slices.Contains(l.AllowList, user)
}

// Defaults seeds newly created sessions.
type Defaults struct {
	Settings Settings
	Limits   Limits

	// TTL is the duration after which inactive sessions expire.
	// 0 means no expiration.
	TTL time.Duration
}

// DefaultConfig returns session defaults matching the hosted deployment.
func DefaultConfig() *Defaults {
	return &Defaults{
		Settings: Settings{
			Temperature:  0.7,
			SystemPrompt: "You are a helpful assistant who can answer or handle all my queries!",
		},
		Limits: Limits{
			MaxMessages: 20,
			TotalTrials: 30,
		},
	}
}
