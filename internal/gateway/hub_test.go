package gateway

import (
	"testing"

	"github.com/celebiasallll/coffychess/pkg/gamedto"
)

func TestHub_SendQueues(t *testing.T) {
	h := NewHub()
	c := newClient("sub-1", nil)
	h.add(c)

	h.Send("sub-1", gamedto.Event{Type: gamedto.EvPong})
	select {
	case ev := <-c.out:
		if ev.Type != gamedto.EvPong {
			t.Fatalf("queued %q", ev.Type)
		}
	default:
		t.Fatalf("event not queued")
	}

	// Unknown subscribers are a silent no-op.
	h.Send("sub-404", gamedto.Event{Type: gamedto.EvPong})

	if h.count() != 1 {
		t.Fatalf("count %d", h.count())
	}
	h.remove("sub-1")
	if h.count() != 0 {
		t.Fatalf("count after remove %d", h.count())
	}
}

func TestHub_SendNeverBlocks(t *testing.T) {
	h := NewHub()
	c := newClient("sub-1", nil)
	h.add(c)

	// No reader draining c.out: once the buffer is full, sends must drop
	// instead of stalling the caller (rooms call Send under their lock).
	for i := 0; i < sendBuffer*2; i++ {
		h.Send("sub-1", gamedto.Event{Type: gamedto.EvTimerUpdate})
	}
	if len(c.out) != sendBuffer {
		t.Fatalf("queue length %d, want %d", len(c.out), sendBuffer)
	}
}
