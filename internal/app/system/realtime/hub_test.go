package realtime

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func recv(t *testing.T, ch <-chan Event) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}, false
	}
}

func expectNone(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversToMatchingSubscribers(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	users, cancelUsers := h.Subscribe(InCollection(CollUsers))
	defer cancelUsers()
	msgs, cancelMsgs := h.Subscribe(InCollection(CollMessages))
	defer cancelMsgs()

	ev := NewEvent(CollUsers, OpUpdate, "abc", map[string]string{"role": "player"})
	if err := h.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, ok := recv(t, users)
	if !ok || got.ID != ev.ID || got.DocID != "abc" {
		t.Errorf("got %+v ok=%v", got, ok)
	}
	if !strings.Contains(string(got.Data), `"player"`) {
		t.Errorf("data: got %s", got.Data)
	}
	expectNone(t, msgs)
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	ch, cancel := h.Subscribe(nil)
	cancel()
	cancel() // idempotent

	if _, ok := recv(t, ch); ok {
		t.Fatal("stream should be closed after cancel")
	}
	_ = h.Publish(context.Background(), NewEvent(CollUsers, OpInsert, "x", nil))
	expectNone(t, ch)
}

func TestHub_CloseClosesStreams(t *testing.T) {
	h := NewHub(zap.NewNop())
	ch, cancel := h.Subscribe(nil)
	h.Close()
	h.Close()

	if _, ok := recv(t, ch); ok {
		t.Fatal("stream should be closed after hub Close")
	}
	cancel()

	if err := h.Publish(context.Background(), Event{}); err != ErrHubClosed {
		t.Errorf("Publish after Close: got %v, want ErrHubClosed", err)
	}

	late, cancelLate := h.Subscribe(nil)
	defer cancelLate()
	if _, ok := <-late; ok {
		t.Error("subscribe after Close should return a closed stream")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	slow, cancelSlow := h.Subscribe(nil)
	defer cancelSlow()

	for i := 0; i < subscriberBuffer*2; i++ {
		_ = h.Publish(context.Background(), NewEvent(CollLedger, OpInsert, "e", nil))
	}

	fast, cancelFast := h.Subscribe(func(ev Event) bool { return ev.DocID == "last" })
	defer cancelFast()
	last := NewEvent(CollLedger, OpInsert, "last", nil)
	_ = h.Publish(context.Background(), last)

	got, ok := recv(t, fast)
	if !ok || got.ID != last.ID {
		t.Errorf("fast subscriber: got %+v", got)
	}

	n := 0
	for len(slow) > 0 {
		<-slow
		n++
	}
	if n > subscriberBuffer {
		t.Errorf("slow subscriber buffered %d events, cap %d", n, subscriberBuffer)
	}
}

func TestHub_SubscriberCount(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Close()

	_, c1 := h.Subscribe(nil)
	_, c2 := h.Subscribe(nil)
	waitFor(t, func() bool { return h.SubscriberCount() == 2 })
	c1()
	waitFor(t, func() bool { return h.SubscriberCount() == 1 })
	c2()
	waitFor(t, func() bool { return h.SubscriberCount() == 0 })
}

func TestFormatSSE(t *testing.T) {
	ev := Event{ID: "1", Collection: CollMessages, Op: OpInsert, DocID: "m1", Data: []byte(`{"text":"a\nb"}`)}
	got := string(FormatSSE(ev))

	if !strings.HasPrefix(got, "id: 1\nevent: messages\ndata: {") {
		t.Errorf("unexpected framing: %q", got)
	}
	if !strings.HasSuffix(got, "}\n\n") {
		t.Errorf("missing terminator: %q", got)
	}
	if strings.Count(got, "\n") != 4 {
		t.Errorf("data should be a single line: %q", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
