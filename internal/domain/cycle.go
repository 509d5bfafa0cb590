package domain

import "time"

// Cycle records one pass through Recording → Dispatching.
type Cycle struct {
	ID         string
	StartedAt  time.Time
	Chunks     int
	Transcript string
	Command    Command
	Flushed    bool
	Err        string // empty when the cycle completed cleanly
}
