package eventbus

import "testing"

type runEvent struct {
	RunID     string
	Scheduled int
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[runEvent](4)
	ch := bus.Subscribe()
	bus.Publish(runEvent{RunID: "run-1", Scheduled: 7})
	got := <-ch
	if got.RunID != "run-1" || got.Scheduled != 7 {
		t.Fatalf("unexpected event %+v", got)
	}
	bus.Unsubscribe(ch)
}

func TestBusFullSubscriberDropsEvent(t *testing.T) {
	bus := New[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2) // buffer full, dropped
	if got := <-ch; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	select {
	case v := <-ch:
		t.Fatalf("expected no second event, got %d", v)
	default:
	}
}

func TestBusClose(t *testing.T) {
	bus := New[string](1)
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatal("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatal("expected ch2 closed")
	}
	bus.Publish("after close") // must not panic
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New[int](1)
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
