package feed

import (
	"testing"
	"time"
)

func recvSoon(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("expected notification, got none")
	}
}

func expectSilent(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("unexpected notification")
		}
		t.Fatalf("unexpected channel close")
	default:
	}
}

func TestSubscribePublish(t *testing.T) {
	f := New()
	defer f.Close()

	table := f.Subscribe(TableTopic("matches"))
	defer table.Close()
	row := f.Subscribe(RowTopic("matches", "m1"))
	defer row.Close()
	other := f.Subscribe(RowTopic("matches", "m2"))
	defer other.Close()

	f.Publish("matches", "m1")
	recvSoon(t, table.C())
	recvSoon(t, row.C())
	expectSilent(t, other.C())

	f.Publish("sets", "s1")
	expectSilent(t, table.C())
}

func TestPublishCoalesces(t *testing.T) {
	f := New()
	defer f.Close()

	sub := f.Subscribe(TableTopic("sets"))
	defer sub.Close()

	for range 10 {
		f.Publish("sets", "")
	}
	recvSoon(t, sub.C())
	expectSilent(t, sub.C())
}

func TestCloseStopsDelivery(t *testing.T) {
	f := New()
	defer f.Close()

	sub := f.Subscribe(TableTopic("matches"))
	sub.Close()
	f.Publish("matches", "m1")

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatalf("notification delivered after Close")
		}
	default:
		t.Fatalf("channel must be closed after Close")
	}
}

func TestSubscriptionCloseIdempotent(t *testing.T) {
	f := New()
	defer f.Close()
	sub := f.Subscribe(TableTopic("matches"))
	sub.Close()
	sub.Close()
}

func TestFeedClose(t *testing.T) {
	f := New()
	multi := f.Subscribe(TableTopic("matches"), TableTopic("sets"))
	f.Close()

	if _, ok := <-multi.C(); ok {
		t.Fatalf("expected closed channel after feed close")
	}
	// Closing the subscription after the feed must not panic on the
	// already-closed channel.
	multi.Close()

	late := f.Subscribe(TableTopic("matches"))
	if _, ok := <-late.C(); ok {
		t.Fatalf("subscription on closed feed must start closed")
	}
	f.Publish("matches", "m1")
}
