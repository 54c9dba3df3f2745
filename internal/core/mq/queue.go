package mq

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/relayq/relayq/internal/core/observability/log"
)

// topicShards spreads the topic registry over independent locks so topic
// lookup never contends across unrelated topics.
const topicShards = 16

type topicShard struct {
	mu     sync.RWMutex
	topics map[string]*topicState
}

var _ MessageQueue = (*queue)(nil)

// queue is the MessageQueue implementation.
type queue struct {
	cfg Config
	log log.Log

	shards  [topicShards]topicShard
	dead    *deadLetters
	pending *pendingResponses

	counters counters

	closed  atomic.Bool
	done    chan struct{}
	janitor sync.WaitGroup
}

// Option adjusts queue construction.
type Option func(*queue)

// WithLogger injects the observational logger. Absent, the queue is silent.
func WithLogger(l log.Log) Option {
	return func(q *queue) { q.log = l }
}

// New creates a MessageQueue with the given configuration.
func New(cfg Config, opts ...Option) MessageQueue {
	cfg.normalize()
	q := &queue{
		cfg:     cfg,
		log:     log.Nop(),
		dead:    newDeadLetters(cfg.DeadLetterCapacity),
		pending: newPendingResponses(),
		done:    make(chan struct{}),
	}
	for i := range q.shards {
		q.shards[i].topics = make(map[string]*topicState)
	}
	for _, opt := range opts {
		opt(q)
	}

	q.janitor.Add(1)
	go q.sweepLoop()

	q.log.Info("message queue created",
		log.Int("max_queue_size", cfg.MaxQueueSize),
		log.Int("max_retries", cfg.MaxRetries),
		log.Bool("dead_letter_enabled", cfg.DeadLetterEnabled))
	return q
}

func (q *queue) shardFor(topic string) *topicShard {
	return &q.shards[xxhash.Sum64String(topic)%topicShards]
}

// lookupTopic returns the topic's state or nil; it never creates.
func (q *queue) lookupTopic(name string) *topicState {
	s := q.shardFor(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topics[name]
}

// ensureTopic returns the topic's state, creating it on first reference.
func (q *queue) ensureTopic(name string) *topicState {
	s := q.shardFor(name)
	s.mu.RLock()
	t := s.topics[name]
	s.mu.RUnlock()
	if t != nil {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t = s.topics[name]; t != nil {
		return t
	}
	t = newTopicState(name, q.cfg.MaxQueueSize)
	s.topics[name] = t
	q.log.Debug("topic created", log.String("topic", name))
	return t
}

func (q *queue) forEachTopic(fn func(*topicState)) {
	for i := range q.shards {
		s := &q.shards[i]
		s.mu.RLock()
		states := make([]*topicState, 0, len(s.topics))
		for _, t := range s.topics {
			states = append(states, t)
		}
		s.mu.RUnlock()
		for _, t := range states {
			fn(t)
		}
	}
}

func (q *queue) Publish(topic string, payload any, opts ...PublishOption) (string, error) {
	if topic == "" {
		return "", ErrEmptyTopic
	}
	if q.closed.Load() {
		return "", ErrClosed
	}
	var o publishOptions
	o.priority = PriorityNormal
	for _, opt := range opts {
		opt(&o)
	}

	t := q.ensureTopic(topic)
	msg := newMessage(topic, payload, o.priority, o.persistent)
	q.counters.published.Add(1)
	q.log.Debug("message published",
		log.String("topic", topic),
		log.String("message_id", msg.ID),
		log.String("priority", msg.Priority.String()))

	q.deliver(t, msg)
	return msg.ID, nil
}

func (q *queue) PublishAsync(topic string, payload any, opts ...PublishOption) <-chan string {
	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		if id, err := q.Publish(topic, payload, opts...); err == nil {
			ch <- id
		} else {
			q.log.Warn("async publish rejected", log.String("topic", topic), log.Err(err))
		}
	}()
	return ch
}

func (q *queue) Subscribe(topic string, handler Handler) (Subscription, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	if q.closed.Load() {
		return nil, ErrClosed
	}

	t := q.ensureTopic(topic)
	sub := &subscription{
		id:      uuid.NewString(),
		topic:   topic,
		handler: handler,
	}
	sub.active.Store(true)
	t.add(sub)
	q.log.Debug("subscriber registered",
		log.String("topic", topic),
		log.String("subscription_id", sub.id))
	return sub, nil
}

func (q *queue) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (q *queue) CreateTopic(name string) {
	if name == "" || q.closed.Load() {
		return
	}
	q.ensureTopic(name)
}

func (q *queue) ClearTopic(name string) {
	t := q.lookupTopic(name)
	if t == nil {
		return
	}
	t.mu.Lock()
	t.buffer.Clear()
	t.mu.Unlock()
	q.log.Debug("topic cleared", log.String("topic", name))
}

func (q *queue) QueueSize(topic string) int {
	t := q.lookupTopic(topic)
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffer.Len()
}

func (q *queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(q.done)
	q.janitor.Wait()
	q.log.Info("message queue closed")
	return nil
}
