package mq

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relayq/relayq/internal/core/observability/log"
)

// pendingResponses is the correlation table behind Request/Respond. A waiter
// is a one-slot channel registered before the request is published, so the
// responder's handler can fulfill it synchronously from inside the publish
// fan-out. Responses with no waiter are parked until their TTL expires.
type pendingResponses struct {
	mu      sync.Mutex
	waiters map[string]chan any
	parked  map[string]parkedResponse
}

type parkedResponse struct {
	payload any
	expires time.Time
}

func newPendingResponses() *pendingResponses {
	return &pendingResponses{
		waiters: make(map[string]chan any),
		parked:  make(map[string]parkedResponse),
	}
}

func (p *pendingResponses) register(id string) chan any {
	ch := make(chan any, 1)
	p.mu.Lock()
	p.waiters[id] = ch
	p.mu.Unlock()
	return ch
}

func (p *pendingResponses) forget(id string) {
	p.mu.Lock()
	delete(p.waiters, id)
	p.mu.Unlock()
}

// fulfill routes a response to its waiter, or parks it when the waiter
// already timed out or never existed.
func (p *pendingResponses) fulfill(id string, payload any, expires time.Time) (delivered bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.waiters[id]; ok {
		select {
		case ch <- payload:
		default:
		}
		delete(p.waiters, id)
		return true
	}
	p.parked[id] = parkedResponse{payload: payload, expires: expires}
	return false
}

func (p *pendingResponses) sweep(now time.Time) (expired int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, r := range p.parked {
		if now.After(r.expires) {
			delete(p.parked, id)
			expired++
		}
	}
	return expired
}

func (p *pendingResponses) parkedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.parked)
}

func (q *queue) Request(ctx context.Context, topic string, payload any, timeout time.Duration) (any, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if q.closed.Load() {
		return nil, ErrClosed
	}

	id := uuid.NewString()
	ch := q.pending.register(id)
	defer q.pending.forget(id)

	if _, err := q.Publish(RequestTopic(topic), RequestEnvelope{RequestID: id, Payload: payload}); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		q.log.Warn("request timed out",
			log.String("topic", topic),
			log.String("request_id", id),
			log.Duration("timeout", timeout))
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		return nil, ErrClosed
	}
}

func (q *queue) Respond(requestID string, payload any) {
	if q.closed.Load() {
		return
	}
	if !q.pending.fulfill(requestID, payload, time.Now().Add(q.cfg.ResponseTTL.Std())) {
		q.log.Debug("response parked, no waiting request",
			log.String("request_id", requestID))
	}
}

// sweepLoop expires parked responses so Respond calls for abandoned requests
// do not accumulate. It runs until Close.
func (q *queue) sweepLoop() {
	defer q.janitor.Done()
	ticker := time.NewTicker(q.cfg.SweepInterval.Std())
	defer ticker.Stop()
	for {
		select {
		case <-q.done:
			return
		case now := <-ticker.C:
			if n := q.pending.sweep(now); n > 0 {
				q.log.Debug("expired parked responses", log.Int("count", n))
			}
		}
	}
}
