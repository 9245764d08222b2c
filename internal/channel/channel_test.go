package channel

import (
	"testing"
	"time"
)

func TestBufferedSendReceive(t *testing.T) {
	ch := NewBuffered[int](2)
	defer ch.Close()

	ch.Send(1)
	ch.Send(2)
	if got := ch.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}

	if got := <-ch.Receive(); got != 1 {
		t.Errorf("first receive = %d, want 1", got)
	}
	if got := <-ch.Receive(); got != 2 {
		t.Errorf("second receive = %d, want 2", got)
	}
}

func TestBufferedTrySendDropsWhenFull(t *testing.T) {
	ch := NewBuffered[string](1)
	defer ch.Close()

	if !ch.TrySend("first") {
		t.Fatal("TrySend into empty buffer should succeed")
	}
	if ch.TrySend("second") {
		t.Error("TrySend into full buffer should report a drop")
	}
	if got := <-ch.Receive(); got != "first" {
		t.Errorf("receive = %q, want %q", got, "first")
	}
}

func TestUnbufferedBlocksUntilReceived(t *testing.T) {
	ch := NewUnbuffered[int]()
	defer ch.Close()

	done := make(chan struct{})
	go func() {
		ch.Send(42)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Send returned before a receiver was ready")
	case <-time.After(10 * time.Millisecond):
	}

	if got := <-ch.Receive(); got != 42 {
		t.Errorf("receive = %d, want 42", got)
	}
	<-done
}

func TestUnbufferedTrySendNeedsWaitingReceiver(t *testing.T) {
	ch := NewUnbuffered[int]()
	defer ch.Close()

	if ch.TrySend(1) {
		t.Error("TrySend with no receiver should fail")
	}

	ready := make(chan struct{})
	got := make(chan int)
	go func() {
		close(ready)
		got <- <-ch.Receive()
	}()
	<-ready

	// Retry until the receiver goroutine is parked on the channel.
	deadline := time.After(time.Second)
	for !ch.TrySend(7) {
		select {
		case <-deadline:
			t.Fatal("TrySend never succeeded with a waiting receiver")
		case <-time.After(time.Millisecond):
		}
	}

	if v := <-got; v != 7 {
		t.Errorf("received %d, want 7", v)
	}
}

func TestUnbufferedLenIsZero(t *testing.T) {
	ch := NewUnbuffered[int]()
	defer ch.Close()
	if got := ch.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}
