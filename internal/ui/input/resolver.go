package input

import (
	"time"

	"github.com/kk-code-lab/meowpdf/internal/state"
)

// Result is the outcome of feeding one key to the Resolver.
type Result int

const (
	// NoMatch: the buffered keys match nothing; they are discarded.
	NoMatch Result = iota
	// Pending: the keys are a prefix of a binding; more keys may follow.
	Pending
	// Matched: a binding completed.
	Matched
)

// Resolver turns key presses into actions, buffering multi-key sequences
// until they complete, stop matching or time out. It is idle when the buffer
// is empty. A Resolver is not safe for concurrent use.
type Resolver struct {
	table    *Table
	timeout  time.Duration
	buf      Sequence
	deadline time.Time
}

// NewResolver creates an idle resolver. A non-positive timeout keeps partial
// sequences pending until the next key.
func NewResolver(table *Table, timeout time.Duration) *Resolver {
	return &Resolver{table: table, timeout: timeout}
}

// Feed processes one key press at time now.
func (r *Resolver) Feed(key Key, now time.Time) (state.Action, Result) {
	r.Expire(now)

	r.buf = append(r.buf, key)
	action, match := r.table.Lookup(r.buf)
	switch match {
	case MatchExact:
		r.Reset()
		return action, Matched
	case MatchPrefix:
		if r.timeout > 0 {
			r.deadline = now.Add(r.timeout)
		}
		return state.ActionNone, Pending
	default:
		r.Reset()
		return state.ActionNone, NoMatch
	}
}

// Expire discards a pending sequence whose deadline has passed and reports
// whether it did.
func (r *Resolver) Expire(now time.Time) bool {
	if len(r.buf) == 0 || r.deadline.IsZero() || now.Before(r.deadline) {
		return false
	}
	r.Reset()
	return true
}

// Deadline returns when the pending sequence times out.
func (r *Resolver) Deadline() (time.Time, bool) {
	if len(r.buf) == 0 || r.deadline.IsZero() {
		return time.Time{}, false
	}
	return r.deadline, true
}

// Pending returns the keys typed so far.
func (r *Resolver) Pending() Sequence {
	return r.buf
}

// Reset returns to the idle state.
func (r *Resolver) Reset() {
	r.buf = nil
	r.deadline = time.Time{}
}
