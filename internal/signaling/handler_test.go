package signaling

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHandler_Routes(t *testing.T) {
	in := make(chan Message, 8)
	h := newHandler(in, nil)
	go h.Start()

	in <- MustMessage(TypeWelcome, Welcome{PeerID: "me"})
	in <- MustMessage(TypePeerJoined, PeerJoined{PeerID: "other"})
	in <- Message{Type: "nonsense", Payload: json.RawMessage(`{}`)}
	in <- MustMessage(TypeSignal, SignalEnvelope{RoomID: "r", From: "other", Kind: KindGeneric})
	in <- MustMessage(TypeTransferLogged, TransferLogged{ID: 42})
	in <- MustMessage(TypeError, ErrorPayload{Error: "nope"})
	close(in)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not finish")
	}

	if id := <-h.Welcome; id != "me" {
		t.Fatalf("welcome = %q", id)
	}
	if p := <-h.PeerJoined; p.PeerID != "other" {
		t.Fatalf("peer joined = %+v", p)
	}
	if env := <-h.Signal; env.From != "other" || env.Kind != KindGeneric {
		t.Fatalf("signal = %+v", env)
	}
	if ack := <-h.Logged; ack.ID != 42 {
		t.Fatalf("logged = %+v", ack)
	}
	if msg := <-h.Error; msg != "nope" {
		t.Fatalf("error = %q", msg)
	}
}

func TestHandler_InformationalMessagesDoNotBlock(t *testing.T) {
	in := make(chan Message, 16)
	h := newHandler(in, nil)
	go h.Start()

	for i := 0; i < 10; i++ {
		in <- MustMessage(TypeError, ErrorPayload{Error: "x"})
	}
	close(in)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("handler blocked on a full error channel")
	}
	if got := len(h.Error); got != cap(h.Error) {
		t.Fatalf("buffered errors = %d, want %d", got, cap(h.Error))
	}
}
