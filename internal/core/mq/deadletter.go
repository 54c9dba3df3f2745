package mq

import (
	"sync"
	"time"

	"github.com/relayq/relayq/pkg/sequence"
)

// DeadLetter records one message that exhausted its retry budget at one
// subscriber, with enough context to diagnose or manually replay it.
type DeadLetter struct {
	Message        Message
	SubscriptionID string
	Reason         string
	FailedAt       time.Time
}

// deadLetters is the bounded FIFO sink of terminally failed messages. The
// oldest entry is evicted on overflow.
type deadLetters struct {
	mu   sync.Mutex
	ring *sequence.Ring[DeadLetter]
}

func newDeadLetters(capacity int) *deadLetters {
	return &deadLetters{ring: sequence.NewRing[DeadLetter](capacity)}
}

func (d *deadLetters) add(msg *Message, subID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ring.Append(DeadLetter{
		Message:        *msg,
		SubscriptionID: subID,
		Reason:         err.Error(),
		FailedAt:       time.Now().UTC(),
	})
}

func (d *deadLetters) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ring.Len()
}

func (d *deadLetters) snapshot() []DeadLetter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ring.Snapshot()
}

func (q *queue) DeadLetters() []DeadLetter {
	return q.dead.snapshot()
}
