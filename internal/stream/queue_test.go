package stream

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_BasicSendReceive(t *testing.T) {
	q := NewQueue[int](10, 100)

	for i := 0; i < 5; i++ {
		if !q.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	if q.Len() != 5 {
		t.Errorf("Len() = %d, want 5", q.Len())
	}

	for i := 0; i < 5; i++ {
		val, ok := q.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueue_GrowAt70Percent(t *testing.T) {
	q := NewQueue[int](10, 100)

	for i := 0; i < 7; i++ {
		q.Send(i)
	}

	stats := q.Stats()
	if stats.Capacity != 20 {
		t.Errorf("Capacity = %d, want 20", stats.Capacity)
	}
	if stats.ResizeCount != 1 {
		t.Errorf("ResizeCount = %d, want 1", stats.ResizeCount)
	}

	for i := 0; i < 7; i++ {
		val, ok := q.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}
}

func TestQueue_DropsOldestAtMaxCapacity(t *testing.T) {
	q := NewQueue[int](4, 16)

	for i := 0; i < 100; i++ {
		if !q.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	stats := q.Stats()
	if stats.Capacity != 16 {
		t.Errorf("Capacity = %d, want 16", stats.Capacity)
	}
	if stats.Count != 16 {
		t.Errorf("Count = %d, want 16", stats.Count)
	}
	if stats.Dropped != 84 {
		t.Errorf("Dropped = %d, want 84", stats.Dropped)
	}
	if stats.TotalReceived != 100 {
		t.Errorf("TotalReceived = %d, want 100", stats.TotalReceived)
	}

	// The newest 16 survive, in order.
	for i := 84; i < 100; i++ {
		val, ok := q.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}
}

func TestQueue_FixedCapacityDrop(t *testing.T) {
	q := NewQueue[string](2, 2)

	q.Send("a")
	q.Send("b")
	q.Send("c")

	if got := q.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
	for _, want := range []string{"b", "c"} {
		got, ok := q.TryReceive()
		if !ok || got != want {
			t.Errorf("TryReceive() = %q, %v, want %q, true", got, ok, want)
		}
	}
}

func TestQueue_BlockingReceive(t *testing.T) {
	q := NewQueue[int](10, 10)

	received := make(chan int)
	go func() {
		val, ok := q.Receive()
		if ok {
			received <- val
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Send(42)

	select {
	case val := <-received:
		if val != 42 {
			t.Errorf("received %d, want 42", val)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() did not unblock")
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue[int](10, 10)
	q.Send(1)
	q.Close()

	if q.Send(2) {
		t.Error("Send() after Close() returned true")
	}
	if _, ok := q.Receive(); ok {
		t.Error("Receive() after Close() returned true")
	}
	if _, ok := q.TryReceive(); ok {
		t.Error("TryReceive() after Close() returned true")
	}
}

func TestQueue_CloseUnblocksReceive(t *testing.T) {
	q := NewQueue[int](10, 10)

	done := make(chan bool)
	go func() {
		_, ok := q.Receive()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Receive() returned true after Close()")
		}
	case <-time.After(time.Second):
		t.Fatal("Close() did not unblock Receive()")
	}
}

func TestQueue_ConcurrentSendReceive(t *testing.T) {
	q := NewQueue[int](4, 1<<16)
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Send(i)
		}
	}()

	got := make([]int, 0, n)
	for len(got) < n {
		val, ok := q.Receive()
		if !ok {
			t.Fatal("Receive() returned false")
		}
		got = append(got, val)
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestQueue_WrapAround(t *testing.T) {
	q := NewQueue[int](10, 100)

	for round := 0; round < 5; round++ {
		for i := 0; i < 5; i++ {
			q.Send(round*10 + i)
		}
		for i := 0; i < 5; i++ {
			val, ok := q.TryReceive()
			if !ok {
				t.Fatalf("round %d: TryReceive() returned false", round)
			}
			if want := round*10 + i; val != want {
				t.Errorf("round %d: received %d, want %d", round, val, want)
			}
		}
	}
}

func TestNewQueue_MinCapacity(t *testing.T) {
	q := NewQueue[int](0, 0)

	stats := q.Stats()
	if stats.Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", stats.Capacity)
	}
	q.Send(1)
	q.Send(2)
	if val, ok := q.TryReceive(); !ok || val != 2 {
		t.Errorf("TryReceive() = %d, %v, want 2, true", val, ok)
	}
}
