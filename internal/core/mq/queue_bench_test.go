package mq

import (
	"sync/atomic"
	"testing"
)

// no-op handler that increments a counter to avoid the compiler eliminating
// the delivery path
func countingHandler(c *int64) Handler {
	return func(m Message) error {
		atomic.AddInt64(c, 1)
		return nil
	}
}

func BenchmarkPublishSingleSubscriber(b *testing.B) {
	q := New(DefaultConfig())
	defer func() { _ = q.Close() }()

	var c int64
	if _, err := q.Subscribe("bench", countingHandler(&c)); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = q.Publish("bench", i)
	}
}

func BenchmarkPublishFanOut(b *testing.B) {
	q := New(DefaultConfig())
	defer func() { _ = q.Close() }()

	var c int64
	for i := 0; i < 8; i++ {
		if _, err := q.Subscribe("bench", countingHandler(&c)); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = q.Publish("bench", i)
	}
}

func BenchmarkPublishParallelTopics(b *testing.B) {
	q := New(DefaultConfig())
	defer func() { _ = q.Close() }()

	var c int64
	topics := []string{"t0", "t1", "t2", "t3"}
	for _, topic := range topics {
		if _, err := q.Subscribe(topic, countingHandler(&c)); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = q.Publish(topics[i%len(topics)], i)
			i++
		}
	})
}
