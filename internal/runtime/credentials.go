package runtime

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Credential tracks one loaded secret's usage and health. The secret
// material itself never lives here or in any log line — callers look it up
// by ID from the environment at the point a provider call is made.
type Credential struct {
	ID       string
	Provider string

	LastUsed      time.Time
	LastGood      time.Time
	FailureCount  int
	SuccessCount  int
	CooldownUntil time.Time

	backoffState *backoff.ExponentialBackOff
}

// CredentialManager rotates credentials within a provider, preferring the
// least-recently-used eligible one and applying an exponential cooldown
// after each failure.
type CredentialManager struct {
	mu         sync.Mutex
	byProvider map[string][]*Credential
	rrCursor   map[string]int
	base, max  time.Duration
}

// NewCredentialManager builds a manager whose cooldowns grow from base
// toward max, per config.RuntimeConfig.CredentialCooldownBase/Max.
func NewCredentialManager(base, max time.Duration) *CredentialManager {
	return &CredentialManager{
		byProvider: make(map[string][]*Credential),
		rrCursor:   make(map[string]int),
		base:       base,
		max:        max,
	}
}

func (m *CredentialManager) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.base
	b.MaxInterval = m.max
	b.MaxElapsedTime = 0 // never stop producing intervals
	b.Reset()
	return b
}

// Register adds a credential with the given id to provider's pool. id names
// an environment variable or secret-store key, resolved by the caller.
func (m *CredentialManager) Register(provider, id string) *Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &Credential{ID: id, Provider: provider, backoffState: m.newBackoff()}
	m.byProvider[provider] = append(m.byProvider[provider], c)
	return c
}

// Acquire picks the eligible credential (cooldown already elapsed) with the
// smallest LastUsed, round-robin tie-broken among ties, and marks it used.
// It reports false if provider has no registered or eligible credential.
func (m *CredentialManager) Acquire(provider string) (*Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool := m.byProvider[provider]
	if len(pool) == 0 {
		return nil, false
	}

	now := time.Now()
	var eligible []*Credential
	for _, c := range pool {
		if now.After(c.CooldownUntil) || now.Equal(c.CooldownUntil) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}

	min := eligible[0].LastUsed
	for _, c := range eligible[1:] {
		if c.LastUsed.Before(min) {
			min = c.LastUsed
		}
	}
	var tied []*Credential
	for _, c := range eligible {
		if c.LastUsed.Equal(min) {
			tied = append(tied, c)
		}
	}

	cursor := m.rrCursor[provider] % len(tied)
	m.rrCursor[provider] = cursor + 1
	chosen := tied[cursor]
	chosen.LastUsed = now
	return chosen, true
}

// MarkSuccess resets a credential's failure streak and cooldown.
func (m *CredentialManager) MarkSuccess(c *Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.SuccessCount++
	c.FailureCount = 0
	c.LastGood = time.Now()
	c.CooldownUntil = time.Time{}
	c.backoffState = m.newBackoff()
}

// MarkFailure increments a credential's failure streak and pushes its
// cooldown out by the next exponential interval, capped at m.max.
func (m *CredentialManager) MarkFailure(c *Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.FailureCount++
	d := c.backoffState.NextBackOff()
	if d <= 0 || d > m.max {
		d = m.max
	}
	c.CooldownUntil = time.Now().Add(d)
}
