// Package translog appends chat turns to a line-oriented transcript log.
// Logging is best-effort: the caller swallows append failures.
package translog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Record is one submission, successful or failed-but-handled
type Record struct {
	ID       uuid.UUID
	Time     time.Time
	User     string
	Remote   string // remote-origin identifier (client address)
	Prompt   string
	Reply    string
	Tokens   uint64
	UserIP   string
	Location string
}

// NewRecord stamps a record with a fresh ID and the current time
func NewRecord(user, remote, prompt, reply string, tokens uint64) *Record {
	return &Record{
		ID:     uuid.New(),
		Time:   time.Now(),
		User:   user,
		Remote: remote,
		Prompt: prompt,
		Reply:  reply,
		Tokens: tokens,
	}
}

// Logger appends records to a single transcript file. Concurrent writers
// (other processes included) are serialized with a file lock on the log
// itself.
type Logger struct {
	path        string
	lockTimeout time.Duration
}

// New creates a transcript logger writing to path
func New(path string) *Logger {
	return &Logger{path: path, lockTimeout: 5 * time.Second}
}

// Append writes one record. The write is atomic with respect to other
// lock-honoring writers; errors are returned for the caller to ignore.
func (l *Logger) Append(rec *Record) error {
	if l == nil || l.path == "" {
		return nil
	}

	fileLock := flock.New(l.path)
	ctx, cancel := context.WithTimeout(context.Background(), l.lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("translog: acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("translog: %s is locked by another writer", l.path)
	}
	defer fileLock.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("translog: open log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(rec.format()); err != nil {
		return fmt.Errorf("translog: write: %w", err)
	}
	return nil
}

func (r *Record) format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s %s:(%s):\n", r.Time.Format("01/02/2006, 15:04:05"), r.ID, r.User, r.Remote)
	fmt.Fprintf(&sb, "[You]: %s\n", r.Prompt)
	fmt.Fprintf(&sb, "[GPT]: %s\n", r.Reply)
	fmt.Fprintf(&sb, "[Tokens]: %d\n", r.Tokens)
	fmt.Fprintf(&sb, "User ip: %s\n", r.UserIP)
	fmt.Fprintf(&sb, "User Geo: %s\n", r.Location)
	sb.WriteString(strings.Repeat("-", 100) + "\n\n")
	return sb.String()
}
