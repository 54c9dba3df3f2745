package mq

import "sync/atomic"

// Stats is a point-in-time snapshot of queue activity. Counters are
// cumulative since construction; gauges are derived at the time of the call.
type Stats struct {
	Published    uint64
	Delivered    uint64
	Failed       uint64
	DeadLettered uint64

	Topics         int
	TotalQueued    int
	DeadLetterSize int
	Subscribers    int
}

type counters struct {
	published    atomic.Uint64
	delivered    atomic.Uint64
	failed       atomic.Uint64
	deadLettered atomic.Uint64
}

func (q *queue) Stats() Stats {
	s := Stats{
		Published:      q.counters.published.Load(),
		Delivered:      q.counters.delivered.Load(),
		Failed:         q.counters.failed.Load(),
		DeadLettered:   q.counters.deadLettered.Load(),
		DeadLetterSize: q.dead.size(),
	}
	q.forEachTopic(func(t *topicState) {
		t.mu.Lock()
		s.Topics++
		s.TotalQueued += t.buffer.Len()
		for _, sub := range t.subs {
			if sub.IsActive() {
				s.Subscribers++
			}
		}
		t.mu.Unlock()
	})
	return s
}

func (q *queue) Topics() []TopicInfo {
	var out []TopicInfo
	q.forEachTopic(func(t *topicState) {
		t.mu.Lock()
		info := TopicInfo{Name: t.name, Queued: t.buffer.Len()}
		for _, sub := range t.subs {
			if sub.IsActive() {
				info.Subscribers++
			}
		}
		t.mu.Unlock()
		out = append(out, info)
	})
	return out
}
