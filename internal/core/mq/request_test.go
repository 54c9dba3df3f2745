package mq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRequestResponseRoundTrip(t *testing.T) {
	q := newTestQueue(t)

	_, err := q.Subscribe(RequestTopic("calc"), func(m Message) error {
		env := m.Payload.(RequestEnvelope)
		q.Respond(env.RequestID, env.Payload.(int)*2)
		return nil
	})
	require.NoError(t, err)

	resp, err := q.Request(context.Background(), "calc", 21, time.Second)
	require.NoError(t, err)
	require.Equal(t, 42, resp)
}

func TestRequestTimeout(t *testing.T) {
	q := newTestQueue(t)

	start := time.Now()
	resp, err := q.Request(context.Background(), "silent", "anyone?", 200*time.Millisecond)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrRequestTimeout)
	require.Nil(t, resp)
	require.GreaterOrEqual(t, elapsed, 150*time.Millisecond, "must not return early")
	require.Less(t, elapsed, 2*time.Second, "must not block past the deadline")
}

func TestLateRespondIsParkedAndSwept(t *testing.T) {
	q := newTestQueue(t, func(c *Config) {
		c.ResponseTTL = Duration(20 * time.Millisecond)
		c.SweepInterval = Duration(10 * time.Millisecond)
	})

	var requestID string
	_, err := q.Subscribe(RequestTopic("slow"), func(m Message) error {
		requestID = m.Payload.(RequestEnvelope).RequestID
		return nil // deliberately never responds in time
	})
	require.NoError(t, err)

	_, err = q.Request(context.Background(), "slow", "x", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrRequestTimeout)
	require.NotEmpty(t, requestID)

	// the response arrives after the waiter gave up and gets parked
	q.Respond(requestID, "too late")
	inner := q.(*queue)
	require.Equal(t, 1, inner.pending.parkedCount())

	// the janitor expires it
	require.Eventually(t, func() bool {
		return inner.pending.parkedCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRespondAfterTimeoutDoesNotResurrectRequest(t *testing.T) {
	q := newTestQueue(t)

	var requestID string
	_, err := q.Subscribe(RequestTopic("flaky"), func(m Message) error {
		requestID = m.Payload.(RequestEnvelope).RequestID
		return nil
	})
	require.NoError(t, err)

	resp, err := q.Request(context.Background(), "flaky", 1, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrRequestTimeout)
	require.Nil(t, resp)

	q.Respond(requestID, "stale")

	// a fresh request still works and gets its own response
	_, err = q.Subscribe(RequestTopic("healthy"), func(m Message) error {
		env := m.Payload.(RequestEnvelope)
		q.Respond(env.RequestID, "ok")
		return nil
	})
	require.NoError(t, err)
	resp, err = q.Request(context.Background(), "healthy", 1, time.Second)
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
}

func TestRequestContextCancellation(t *testing.T) {
	q := newTestQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := q.Request(ctx, "nobody", 1, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRespondWithoutRequestDoesNotPanic(t *testing.T) {
	q := newTestQueue(t)

	require.NotPanics(t, func() {
		q.Respond("no-such-request", "orphan")
	})
}

func TestRequestOnClosedQueue(t *testing.T) {
	q := New(DefaultConfig())
	require.NoError(t, q.Close())

	_, err := q.Request(context.Background(), "t", 1, time.Second)
	require.ErrorIs(t, err, ErrClosed)
}
