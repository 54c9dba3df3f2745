package mq

import (
	"context"
	"time"
)

// MessageQueue is a thread-safe, in-process pub/sub message queue.
//
// Key characteristics:
// - Named topics, created lazily on first publish, subscribe or CreateTopic.
// - Bounded per-topic FIFO buffer; the oldest message is evicted on overflow.
// - Synchronous fan-out: Publish invokes every subscriber of the topic in
//   registration order before returning.
// - At-least-once with bounded retry: a failed delivery is re-attempted on a
//   later pass within the same publish call, up to Config.MaxRetries, then
//   dead-lettered.
// - Request/response correlation layered entirely on publish/subscribe.
//
// Notes:
// - For a given topic, messages reach each subscriber in publish order and a
//   handler is never invoked concurrently with itself. Different topics make
//   progress independently.
// - Handlers run in the publisher's goroutine and should be quick. A handler
//   must not call Publish, Subscribe or ClearTopic for its own topic
//   synchronously; use PublishAsync to feed back into the same topic.
// - A subscriber failure is invisible to the publisher. The only error a
//   caller sees from a delivery path is a request timeout.
// - All methods are safe for concurrent use.
type MessageQueue interface {
	// Publish delivers payload to every current subscriber of topic and
	// returns the message id. Delivery is best-effort: the id comes back
	// even when every subscriber failed. Errors are limited to an empty
	// topic name or a closed queue.
	Publish(topic string, payload any, opts ...PublishOption) (string, error)
	// PublishAsync runs Publish in its own goroutine and returns a channel
	// that receives the message id once the fan-out has completed, then
	// closes. The channel stays open-and-empty only until delivery finishes.
	PublishAsync(topic string, payload any, opts ...PublishOption) <-chan string

	// Subscribe registers a handler on topic, creating the topic if absent,
	// and returns a cancelable handle. The same handler may be registered
	// more than once; each registration receives every message.
	Subscribe(topic string, handler Handler) (Subscription, error)
	// Unsubscribe cancels the given subscription. Safe to call with nil.
	Unsubscribe(sub Subscription) error

	// Request publishes a RequestEnvelope to RequestTopic(topic) and blocks
	// until a matching Respond call or the timeout, whichever comes first.
	// A timeout is reported as ErrRequestTimeout.
	Request(ctx context.Context, topic string, payload any, timeout time.Duration) (any, error)
	// Respond posts the response for a request id. If no Request is waiting
	// on the id the response is parked until its TTL expires.
	Respond(requestID string, payload any)

	// CreateTopic declares a topic. Repeat declarations are no-ops.
	CreateTopic(name string)
	// ClearTopic empties the topic's buffer, preserving subscribers.
	// Unknown topics are a no-op.
	ClearTopic(name string)
	// QueueSize returns the number of buffered messages on topic; 0 for
	// unknown topics (lazily created topics make "unknown" and "empty"
	// indistinguishable).
	QueueSize(topic string) int
	// Topics returns a snapshot of all known topics.
	Topics() []TopicInfo

	// DeadLetters returns a snapshot of the dead-letter sink, oldest first.
	// There is no automatic replay; re-publishing a dead-lettered message's
	// topic and payload is the caller's operation.
	DeadLetters() []DeadLetter

	// Stats returns a point-in-time snapshot of queue activity.
	Stats() Stats

	// Close stops background work and rejects further operations with
	// ErrClosed. The first call returns nil; later calls return ErrClosed.
	Close() error
}

// Handler is a subscriber callback. A non-nil error (or a panic, which the
// queue recovers) marks the delivery as failed and triggers retry or
// dead-lettering.
type Handler func(msg Message) error

// Subscription is a registered handler bound to one topic.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// Topic returns the topic this subscription listens to.
	Topic() string
	// IsActive reports whether the subscription still receives messages.
	IsActive() bool
	// Cancel stops delivery to this subscription. Multiple calls are safe,
	// and Cancel may be called from inside the handler itself.
	Cancel() error
}

// TopicInfo is a point-in-time snapshot of one topic.
type TopicInfo struct {
	Name        string
	Queued      int
	Subscribers int
}

// PublishOption adjusts a single publish call.
type PublishOption func(*publishOptions)

type publishOptions struct {
	priority   Priority
	persistent bool
}

// WithPriority sets the advisory priority carried by the message.
func WithPriority(p Priority) PublishOption {
	return func(o *publishOptions) { o.priority = p }
}

// WithPersistent marks the message for durable logging by external
// collaborators.
func WithPersistent() PublishOption {
	return func(o *publishOptions) { o.persistent = true }
}
