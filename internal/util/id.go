// Package util holds small helpers shared across the server: clocks, date
// formats, document numbers and request identifiers.
package util

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// DocNumberGenerator issues document numbers of the form
// PREFIX-YYYY-MM-DD-<unix millis>. Numbers are strictly increasing within a
// process even when two are requested in the same millisecond.
type DocNumberGenerator struct {
	mu    sync.Mutex
	clock Clock
	last  int64
}

// NewDocNumberGenerator creates a generator reading time from clock.
func NewDocNumberGenerator(clock Clock) *DocNumberGenerator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DocNumberGenerator{clock: clock}
}

// Next returns a new document number for prefix and business date.
func (g *DocNumberGenerator) Next(prefix, bizDate string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UnixMilli()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now

	return fmt.Sprintf("%s-%s-%d", prefix, bizDate, now)
}

// NewRequestID returns a random identifier for correlating log lines.
func NewRequestID() string {
	return uuid.NewString()
}

// IsValidRequestID reports whether s looks like an identifier from NewRequestID.
func IsValidRequestID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
