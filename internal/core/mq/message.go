package mq

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Priority hints at the relative importance of a message. It is advisory:
// the per-topic buffer stays FIFO regardless of priority, and the field is
// carried solely for consumers that want to act on it.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Message is the unit of delivery. Every field except Retries is write-once
// at construction. Handlers receive messages by value and must treat the
// payload as read-only; the queue never copies payloads.
type Message struct {
	// ID is derived from the topic and a monotonically increasing timestamp.
	// It is diagnostic, not a delivery key; uniqueness is best effort.
	ID    string
	Topic string
	// Payload is opaque to the queue.
	Payload  any
	Priority Priority
	// Persistent marks the message for durable logging by an external
	// collaborator. The queue itself holds no persistent store.
	Persistent bool
	Timestamp  time.Time
	// Retries counts failed delivery attempts. Only the delivery engine
	// mutates it.
	Retries int
}

// RequestEnvelope is the payload shape published to RequestTopic(topic) by
// Request. Responders decode it and pass RequestID to Respond.
type RequestEnvelope struct {
	RequestID string `json:"request_id"`
	Payload   any    `json:"payload"`
}

const requestTopicSuffix = "_request"

// RequestTopic returns the topic Request publishes to for a given logical
// topic. Responders subscribe to it.
func RequestTopic(topic string) string {
	return topic + requestTopicSuffix
}

// lastStamp backs message id generation. Ids must increase even when the
// wall clock returns the same nanosecond twice.
var lastStamp atomic.Int64

func nextStamp() int64 {
	for {
		now := time.Now().UnixNano()
		prev := lastStamp.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastStamp.CompareAndSwap(prev, now) {
			return now
		}
	}
}

func newMessage(topic string, payload any, priority Priority, persistent bool) *Message {
	return &Message{
		ID:         fmt.Sprintf("%s-%d", topic, nextStamp()),
		Topic:      topic,
		Payload:    payload,
		Priority:   priority,
		Persistent: persistent,
		Timestamp:  time.Now().UTC(),
	}
}
