package mq

import "errors"

var (
	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("mq: queue is closed")
	// ErrEmptyTopic is returned when a topic name is empty.
	ErrEmptyTopic = errors.New("mq: topic name must not be empty")
	// ErrNilHandler is returned by Subscribe when the handler is nil.
	ErrNilHandler = errors.New("mq: handler must not be nil")
	// ErrRequestTimeout is returned by Request when no response arrived
	// within the deadline.
	ErrRequestTimeout = errors.New("mq: request timed out")
)
