package websocket

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestBroadcastToReachesSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, "poll-1")
	hub.Register <- client

	payload := []byte(`{"action":"poll_update"}`)
	deadline := time.After(time.Second)
	for {
		// Registration is handled asynchronously by the Run loop, so keep
		// broadcasting until the subscription takes effect.
		hub.BroadcastTo("poll-1", payload)
		select {
		case got := <-client.Send:
			if !bytes.Equal(got, payload) {
				t.Fatalf("received %s, want %s", got, payload)
			}
			return
		case <-deadline:
			t.Fatal("subscriber never received the broadcast")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestBroadcastToIgnoresOtherPolls(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, "poll-1")
	hub.Register <- client

	hub.BroadcastTo("poll-2", []byte("x"))
	select {
	case got := <-client.Send:
		t.Fatalf("received %s for a poll the client never subscribed to", got)
	case <-time.After(50 * time.Millisecond):
	}
}

// Votes broadcast from request goroutines while clients connect and
// disconnect through the Run loop; the maps must survive that interleaving.
func TestHubConcurrentRegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	payload := []byte(`{"action":"poll_update"}`)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		pollID := fmt.Sprintf("poll-%d", i%4)
		client := NewClient(hub, nil, pollID)

		wg.Add(3)
		go func() {
			defer wg.Done()
			hub.Register <- client
		}()
		go func() {
			defer wg.Done()
			hub.BroadcastTo(pollID, payload)
		}()
		go func() {
			defer wg.Done()
			hub.Unregister <- client
		}()
	}
	wg.Wait()
}

func TestDeliverAfterShutdown(t *testing.T) {
	client := NewClient(nil, nil, "poll-1")

	if !client.Deliver([]byte("first")) {
		t.Fatal("delivery to a live client failed")
	}

	client.shutdown()
	client.shutdown() // idempotent

	if client.Deliver([]byte("second")) {
		t.Error("delivery succeeded after shutdown")
	}
}

func TestDeliverDropsWhenBufferFull(t *testing.T) {
	client := NewClient(nil, nil, "poll-1")

	for i := 0; i < cap(client.Send); i++ {
		if !client.Deliver([]byte("fill")) {
			t.Fatalf("delivery %d failed before the buffer filled", i)
		}
	}
	if client.Deliver([]byte("overflow")) {
		t.Error("delivery succeeded past a full buffer")
	}
}
