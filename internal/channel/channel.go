// Package channel implements the priority queue that carries commands from the
// input dispatcher to the render worker.
package channel

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned once the consumer has shut the channel down.
var ErrClosed = errors.New("channel closed")

// Tier orders messages; higher tiers are always received first.
type Tier uint8

const (
	TierPreload Tier = iota
	TierViewport
	TierLayout
	TierControl

	tierCount
)

func (t Tier) String() string {
	switch t {
	case TierPreload:
		return "preload"
	case TierViewport:
		return "viewport"
	case TierLayout:
		return "layout"
	case TierControl:
		return "control"
	default:
		return "unknown"
	}
}

// coalesces reports whether a newer message of the same kind replaces a queued one.
func (t Tier) coalesces() bool {
	return t == TierPreload || t == TierViewport
}

// Message is anything that can travel through a Channel.
type Message interface {
	Tier() Tier
	Kind() string
}

// Channel is a single-consumer queue with one FIFO per tier.
//
// Send never blocks. Viewport and Preload messages replace a queued message
// of the same kind; Layout and Control messages are never dropped and flush
// every queued Viewport and Preload message.
type Channel[M Message] struct {
	mu     sync.Mutex
	queues [tierCount][]M
	notify chan struct{}
	closed bool
}

// New creates an empty channel.
func New[M Message]() *Channel[M] {
	return &Channel[M]{notify: make(chan struct{}, 1)}
}

// Send enqueues msg. It fails only after Close.
//
// A viewport or preload message replaces queued messages of its kind. A
// layout or control message drops every queued viewport and preload message
// and leaves queued layout messages in place.
func (c *Channel[M]) Send(msg M) error {
	tier := msg.Tier()
	if tier >= tierCount {
		tier = TierControl
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if tier.coalesces() {
		kind := msg.Kind()
		queue := c.queues[tier]
		kept := queue[:0]
		for _, queued := range queue {
			if queued.Kind() != kind {
				kept = append(kept, queued)
			}
		}
		clearTail(queue, len(kept))
		c.queues[tier] = kept
	} else {
		for t := TierPreload; t < TierLayout; t++ {
			clearTail(c.queues[t], 0)
			c.queues[t] = c.queues[t][:0]
		}
	}
	c.queues[tier] = append(c.queues[tier], msg)

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// Receive blocks until a message is available and returns the oldest message
// of the highest non-empty tier.
func (c *Channel[M]) Receive(ctx context.Context) (M, error) {
	for {
		msg, ok, err := c.pop()
		if err != nil || ok {
			return msg, err
		}
		select {
		case <-c.notify:
		case <-ctx.Done():
			var zero M
			return zero, ctx.Err()
		}
	}
}

// TryReceive returns the next message without blocking.
func (c *Channel[M]) TryReceive() (M, bool) {
	msg, ok, _ := c.pop()
	return msg, ok
}

func (c *Channel[M]) pop() (M, bool, error) {
	var zero M
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return zero, false, ErrClosed
	}
	for t := TierControl; ; t-- {
		if queue := c.queues[t]; len(queue) > 0 {
			msg := queue[0]
			queue[0] = zero
			c.queues[t] = queue[1:]
			return msg, true, nil
		}
		if t == TierPreload {
			return zero, false, nil
		}
	}
}

// Pending reports whether a message of tier min or higher is queued.
func (c *Channel[M]) Pending(min Tier) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for t := min; t < tierCount; t++ {
		if len(c.queues[t]) > 0 {
			return true
		}
	}
	return false
}

// Len returns the number of queued messages.
func (c *Channel[M]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, queue := range c.queues {
		n += len(queue)
	}
	return n
}

// Close drops every queued message and returns them in receive order. Later
// Send and Receive calls return ErrClosed.
func (c *Channel[M]) Close() []M {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var dropped []M
	for t := TierControl; ; t-- {
		dropped = append(dropped, c.queues[t]...)
		c.queues[t] = nil
		if t == TierPreload {
			break
		}
	}
	close(c.notify)
	return dropped
}

// clearTail zeroes queue[from:] so dropped messages can be collected.
func clearTail[M any](queue []M, from int) {
	var zero M
	for i := from; i < len(queue); i++ {
		queue[i] = zero
	}
}
