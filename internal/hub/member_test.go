package hub

import (
	"sync"
	"testing"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

// fakeMember records every delivered message.
type fakeMember struct {
	id string

	mu   sync.Mutex
	msgs []signaling.Message
}

func newFakeMember(id string) *fakeMember {
	return &fakeMember{id: id}
}

func (f *fakeMember) ID() string { return f.id }

func (f *fakeMember) Deliver(msg signaling.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return true
}

func (f *fakeMember) messages() []signaling.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]signaling.Message(nil), f.msgs...)
}

func (f *fakeMember) ofType(t signaling.MessageType) []signaling.Message {
	var out []signaling.Message
	for _, m := range f.messages() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func decodeAs[T any](t *testing.T, msg signaling.Message) T {
	t.Helper()

	v, err := msg.Decode()
	if err != nil {
		t.Fatalf("decode %s: %v", msg.Type, err)
	}
	p, ok := v.(T)
	if !ok {
		t.Fatalf("decoded %T", v)
	}
	return p
}
