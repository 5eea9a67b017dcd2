package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []RepEvent
	gate chan struct{} // when non-nil, each write waits for a token
	fail bool
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) WriteRepEvent(ctx context.Context, ev RepEvent) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.fail {
		return errors.New("sink down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	return nil
}

func (s *recordingSink) events() []RepEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RepEvent(nil), s.got...)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(8, sink)

	for i := 1; i <= 3; i++ {
		if !d.Publish(RepEvent{Exercise: "squat", Count: i}) {
			t.Fatalf("publish %d was dropped", i)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatal(err)
	}

	got := sink.events()
	if len(got) != 3 {
		t.Fatalf("delivered %d events, want 3", len(got))
	}
	for i, ev := range got {
		if ev.Count != i+1 {
			t.Errorf("event %d has count %d", i, ev.Count)
		}
		if ev.RunID != d.RunID() || ev.At.IsZero() {
			t.Errorf("event %d not stamped: %+v", i, ev)
		}
	}
	if s := d.Stats(); s.Delivered != 3 || s.Dropped != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestDispatcherNeverBlocksOnSlowSink(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	d := NewDispatcher(2, sink)

	start := time.Now()
	queued := 0
	for i := 0; i < 50; i++ {
		if d.Publish(RepEvent{Exercise: "curl", Count: i}) {
			queued++
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("publishing took %v with a stalled sink", elapsed)
	}
	// One event may be held by the stalled sink in addition to the two buffered.
	if queued < 2 || queued > 3 {
		t.Errorf("queued %d events, want 2 or 3", queued)
	}
	if got := d.Stats().Dropped; got != uint64(50-queued) {
		t.Errorf("dropped = %d, want %d", got, 50-queued)
	}

	close(sink.gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(sink.events()); got != queued {
		t.Errorf("delivered %d, want %d", got, queued)
	}
}

func TestDispatcherCountsSinkFailures(t *testing.T) {
	bad := &recordingSink{fail: true}
	good := &recordingSink{}
	d := NewDispatcher(4, bad, good)
	d.Publish(RepEvent{Exercise: "squat", Count: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if len(good.events()) != 1 {
		t.Error("a failing sink must not stop delivery to the others")
	}
	if s := d.Stats(); s.Failed != 1 {
		t.Errorf("failed = %d, want 1", s.Failed)
	}
}

func TestPublishAfterClose(t *testing.T) {
	d := NewDispatcher(1)
	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d.Publish(RepEvent{Exercise: "squat"}) {
		t.Error("publish after close should be dropped")
	}
	if d.Stats().Dropped != 1 {
		t.Error("drop after close not counted")
	}
}

func TestMQTTTopicAndBroker(t *testing.T) {
	s := &MQTTSink{cfg: MQTTConfig{Topic: "gym"}}
	if got := s.Topic(RepEvent{Exercise: "curl"}); got != "gym/reps/curl" {
		t.Errorf("topic = %q", got)
	}
	if got := brokerURL("localhost:1883"); got != "tcp://localhost:1883" {
		t.Errorf("brokerURL = %q", got)
	}
	if got := brokerURL("ssl://broker:8883"); got != "ssl://broker:8883" {
		t.Errorf("brokerURL = %q", got)
	}
	if _, err := NewMQTTSink(MQTTConfig{}); err == nil {
		t.Error("expected error without broker")
	}
}
