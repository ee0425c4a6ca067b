// Package feed is an in-process change-notification hub. Notifications are
// trigger-only: a subscriber learns that rows in a watched table may have
// changed and must re-read to learn what. Delivery is at-least-once and
// coalesced, never ordered across tables.
package feed

import (
	"sync"

	"sideout/internal/util/idgen"
)

// Topic identifies a watched table, optionally narrowed to a single row.
type Topic struct {
	Table string
	RowID string
}

func TableTopic(table string) Topic {
	return Topic{Table: table}
}

func RowTopic(table, rowID string) Topic {
	return Topic{Table: table, RowID: rowID}
}

type Feed struct {
	mu     sync.RWMutex
	subs   map[Topic]map[string]chan struct{}
	closed bool
}

func New() *Feed {
	return &Feed{
		subs: make(map[Topic]map[string]chan struct{}),
	}
}

// Subscription is a scoped resource: acquire on view activation, Close
// unconditionally on teardown. After Close returns, no further notification
// is delivered on C.
type Subscription struct {
	f      *Feed
	id     string
	topics []Topic
	ch     chan struct{}
	once   sync.Once
}

func (s *Subscription) C() <-chan struct{} {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.f.mu.Lock()
		alive := !s.f.closed
		if alive {
			for _, topic := range s.topics {
				m := s.f.subs[topic]
				delete(m, s.id)
				if len(m) == 0 {
					delete(s.f.subs, topic)
				}
			}
		}
		s.f.mu.Unlock()
		// Publish holds the read lock while sending, so past this point
		// nobody writes to the channel and closing it is safe. On a closed
		// feed the hub has closed the channel already.
		if alive {
			close(s.ch)
		}
	})
}

// Subscribe registers a subscriber for all the given topics. The returned
// channel has capacity 1: bursts of notifications coalesce and the
// subscriber re-reads once per wakeup. Subscribing to a closed feed yields
// an already-closed channel.
func (f *Feed) Subscribe(topics ...Topic) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{}, 1)
	sub := &Subscription{
		f:      f,
		id:     idgen.ID(),
		topics: topics,
		ch:     ch,
	}
	if f.closed {
		close(ch)
		return sub
	}
	for _, topic := range topics {
		m, ok := f.subs[topic]
		if !ok {
			m = make(map[string]chan struct{})
			f.subs[topic] = m
		}
		if _, ok := m[sub.id]; ok {
			panic("id collision")
		}
		m[sub.id] = ch
	}
	return sub
}

// Publish wakes the subscribers of the table topic and, when rowID is not
// empty, of the matching row topic. Sends never block: a subscriber that
// has a pending notification is not notified again.
func (f *Feed) Publish(table, rowID string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	f.notify(TableTopic(table))
	if rowID != "" {
		f.notify(RowTopic(table, rowID))
	}
}

func (f *Feed) notify(topic Topic) {
	for _, ch := range f.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close shuts the hub down, closing every subscriber channel. Further
// Publish calls are no-ops.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	seen := make(map[chan struct{}]struct{})
	for _, m := range f.subs {
		for _, ch := range m {
			if _, ok := seen[ch]; ok {
				continue
			}
			seen[ch] = struct{}{}
			close(ch)
		}
	}
	f.subs = nil
}
