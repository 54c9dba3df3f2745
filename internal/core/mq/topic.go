package mq

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/relayq/relayq/internal/core/observability/log"
	"github.com/relayq/relayq/pkg/sequence"
)

// topicState owns one topic's buffer and subscriber list. Its mutex
// serializes delivery for the topic, which gives per-topic FIFO order and
// per-subscriber serialization while leaving other topics uncontended.
type topicState struct {
	name string

	mu     sync.Mutex
	buffer *sequence.Ring[*Message]
	subs   []*subscription
}

func newTopicState(name string, capacity int) *topicState {
	return &topicState{
		name:   name,
		buffer: sequence.NewRing[*Message](capacity),
	}
}

// subscription implements Subscription. Cancel only flips the active flag so
// it can run inside the handler itself; the slot is reclaimed on the next
// delivery or registration.
type subscription struct {
	id      string
	topic   string
	handler Handler
	active  atomic.Bool
}

func (s *subscription) ID() string     { return s.id }
func (s *subscription) Topic() string  { return s.topic }
func (s *subscription) IsActive() bool { return s.active.Load() }
func (s *subscription) Cancel() error {
	s.active.Store(false)
	return nil
}

// add registers a subscriber, compacting cancelled slots on the way.
func (t *topicState) add(sub *subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compactLocked()
	t.subs = append(t.subs, sub)
}

func (t *topicState) compactLocked() {
	live := t.subs[:0]
	for _, s := range t.subs {
		if s.IsActive() {
			live = append(live, s)
		}
	}
	for i := len(live); i < len(t.subs); i++ {
		t.subs[i] = nil
	}
	t.subs = live
}

// deliveryAttempt pairs a message with one subscriber that still owes a
// successful delivery.
type deliveryAttempt struct {
	msg *Message
	sub *subscription
}

// deliver appends msg to the buffer and fans it out to every active
// subscriber in registration order. Failed attempts are retried on later
// passes within the same call, so a failing subscriber never starves the
// rest of the fan-out, until they succeed or exhaust the retry budget and
// are dead-lettered. The topic lock is held throughout.
func (q *queue) deliver(t *topicState, msg *Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buffer.Append(msg) {
		q.log.Debug("topic buffer full, oldest message evicted",
			log.String("topic", t.name))
	}

	t.compactLocked()
	pending := make([]deliveryAttempt, 0, len(t.subs))
	for _, sub := range t.subs {
		pending = append(pending, deliveryAttempt{msg: msg, sub: sub})
	}

	for len(pending) > 0 {
		var retries []deliveryAttempt
		for _, a := range pending {
			if !a.sub.IsActive() {
				continue
			}
			err := invoke(a.sub.handler, *a.msg)
			if err == nil {
				q.counters.delivered.Add(1)
				continue
			}
			q.counters.failed.Add(1)
			q.log.Warn("delivery failed",
				log.String("topic", t.name),
				log.String("message_id", a.msg.ID),
				log.String("subscription_id", a.sub.id),
				log.Int("retries", a.msg.Retries),
				log.Err(err))
			if a.msg.Retries < q.cfg.MaxRetries {
				a.msg.Retries++
				t.buffer.Append(a.msg)
				retries = append(retries, a)
				q.log.Debug("delivery retry scheduled",
					log.String("topic", t.name),
					log.String("message_id", a.msg.ID),
					log.Int("retry", a.msg.Retries))
				continue
			}
			if q.cfg.DeadLetterEnabled {
				q.dead.add(a.msg, a.sub.id, err)
				q.counters.deadLettered.Add(1)
				q.log.Error("message dead-lettered",
					log.String("topic", t.name),
					log.String("message_id", a.msg.ID),
					log.String("subscription_id", a.sub.id),
					log.Err(err))
			}
		}
		pending = retries
	}
}

// invoke runs a handler, converting a panic into a failed delivery so one
// subscriber cannot take down the publisher.
func invoke(h Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(msg)
}
