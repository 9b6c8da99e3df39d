package peer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/BioHazard786/roomdrop/internal/config"
	"github.com/BioHazard786/roomdrop/internal/signaling"
	"github.com/BioHazard786/roomdrop/internal/transfer"
)

// pipeSignaler delivers envelopes to the other session in order, the way
// the hub would, stamping From.
type pipeSignaler struct {
	from  string
	queue chan signaling.SignalEnvelope
}

func (p *pipeSignaler) Signal(env signaling.SignalEnvelope) error {
	env.From = p.from
	p.queue <- env
	return nil
}

// pump feeds queue to the session. Failures surface as a channel that
// never opens.
func pump(ctx context.Context, queue <-chan signaling.SignalEnvelope, to *Session) {
	for {
		select {
		case env := <-queue:
			_ = to.HandleSignal(&env)
		case <-ctx.Done():
			return
		}
	}
}

func TestSession_TransfersFile(t *testing.T) {
	if testing.Short() {
		t.Skip("opens real peer connections")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cfg := &config.Config{}
	toB := &pipeSignaler{from: "a", queue: make(chan signaling.SignalEnvelope, 64)}
	toA := &pipeSignaler{from: "b", queue: make(chan signaling.SignalEnvelope, 64)}

	completed := make(chan transfer.Artifact, 1)
	receiver := transfer.NewReceiver(transfer.ReceiverOptions{
		OnComplete: func(a transfer.Artifact) { completed <- a },
	})

	a, err := NewSession(SessionConfig{
		Config: cfg, Signaler: toB, RoomID: "room", LocalID: "a", RemoteID: "b", Initiator: true,
	})
	if err != nil {
		t.Fatalf("session a: %v", err)
	}
	defer a.Close()

	b, err := NewSession(SessionConfig{
		Config: cfg, Signaler: toA, RoomID: "room", LocalID: "b", RemoteID: "a",
		OnFrame: func(f transfer.Frame) { receiver.HandleFrame(f) },
	})
	if err != nil {
		t.Fatalf("session b: %v", err)
	}
	defer b.Close()

	go pump(ctx, toB.queue, b)
	go pump(ctx, toA.queue, a)

	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	ch, err := a.WaitOpen(ctx)
	if err != nil {
		t.Fatalf("wait open: %v", err)
	}

	data := bytes.Repeat([]byte("roomdrop"), 10000)
	res, err := transfer.NewSender(ch, transfer.SenderOptions{}).Send(ctx, "payload.bin", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Transferred != int64(len(data)) {
		t.Fatalf("transferred = %d", res.Transferred)
	}

	select {
	case art := <-completed:
		if art.Filename != "payload.bin" || !bytes.Equal(art.Data, data) {
			t.Fatalf("artifact %s has %d bytes", art.Filename, len(art.Data))
		}
	case <-ctx.Done():
		t.Fatalf("receiver did not complete, state %s, received %d", receiver.State(), receiver.Received())
	}
}

func TestSession_GenericSignalIgnored(t *testing.T) {
	s, err := NewSession(SessionConfig{
		Config:   &config.Config{},
		Signaler: &fakeSignaler{},
		RoomID:   "room",
		LocalID:  "b",
		RemoteID: "a",
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer s.Close()

	if err := s.HandleSignal(&signaling.SignalEnvelope{RoomID: "room", From: "a", Kind: signaling.KindGeneric}); err != nil {
		t.Fatalf("generic: %v", err)
	}
	if err := s.HandleSignal(&signaling.SignalEnvelope{RoomID: "room", From: "a", Kind: signaling.KindOffer, Data: []byte(`"nope"`)}); err == nil {
		t.Fatal("accepted a malformed offer")
	}
}

func TestSession_CloseUnblocksWaitOpen(t *testing.T) {
	s, err := NewSession(SessionConfig{
		Config: &config.Config{}, Signaler: &fakeSignaler{}, RoomID: "room", LocalID: "a", RemoteID: "b", Initiator: true,
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := s.WaitOpen(ctx); err == nil {
		t.Fatal("WaitOpen succeeded on a closed session")
	}
}
