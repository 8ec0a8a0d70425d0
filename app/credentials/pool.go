package credentials

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrAllExhausted is returned by Next when every credential in the pool
// has hit its quota. It is fatal for the current scan or enrichment run.
var ErrAllExhausted = errors.New("all API credentials are exhausted")

type Status string

const (
	StatusAvailable Status = "available"
	StatusExhausted Status = "exhausted"
)

type Entry struct {
	Key    string
	Status Status
}

// Pool tracks API credentials and their quota state. Exhaustion is sticky:
// entries are never removed during a session, only Reset clears the state.
type Pool struct {
	mu      sync.Mutex
	entries []Entry
	current int // index of the last-returned credential
}

func NewPool(keys []string) *Pool {
	p := &Pool{}
	p.Reset(keys)
	return p
}

// Next returns an available credential, scanning round-robin from the
// position after the last-returned one. A credential already in hand stays
// current until it is marked exhausted, so repeated Next calls without an
// intervening MarkExhausted rotate through the pool deliberately.
func (p *Pool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := len(p.entries)
	if total == 0 {
		return "", ErrAllExhausted
	}

	for offset := 1; offset <= total; offset++ {
		idx := (p.current + offset) % total
		if p.entries[idx].Status == StatusAvailable {
			p.current = idx
			return p.entries[idx].Key, nil
		}
	}

	return "", ErrAllExhausted
}

// MarkExhausted transitions the entry for key to exhausted. Marking an
// already-exhausted or unknown key is a no-op.
func (p *Pool) MarkExhausted(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.entries {
		if p.entries[i].Key == key && p.entries[i].Status == StatusAvailable {
			p.entries[i].Status = StatusExhausted
			slog.Warn("Credential exhausted", "index", i, "remaining", p.availableLocked())
			return
		}
	}
}

// Reset replaces the pool contents and marks every entry available.
func (p *Pool) Reset(keys []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = make([]Entry, 0, len(keys))
	for _, key := range keys {
		p.entries = append(p.entries, Entry{Key: key, Status: StatusAvailable})
	}
	p.current = len(p.entries) - 1 // first Next starts at index 0
}

// Available reports how many credentials are still usable.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availableLocked()
}

// Entries returns a copy of the pool state for status reporting.
func (p *Pool) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

func (p *Pool) availableLocked() int {
	count := 0
	for i := range p.entries {
		if p.entries[i].Status == StatusAvailable {
			count++
		}
	}
	return count
}
