package peer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

// Negotiator is the part of a Session the pairing logic drives.
type Negotiator interface {
	RemoteID() string
	Start() error
	HandleSignal(env *signaling.SignalEnvelope) error
	Close() error
}

// NegotiatorFactory creates the session with remoteID. initiator reports
// whether the local side sends the offer.
type NegotiatorFactory func(remoteID string, initiator bool) (Negotiator, error)

// Initiates reports whether localID sends the offer when paired with
// remoteID. Exactly one of two distinct peers initiates.
func Initiates(localID, remoteID string) bool {
	return localID < remoteID
}

// Pairing turns room events into exactly one negotiated session. When a
// peer joins, the side with the smaller connection id initiates. The other
// side says hello with a generic envelope so the initiator learns its id.
type Pairing struct {
	roomID   string
	localID  string
	signaler Signaler
	factory  NegotiatorFactory
	logger   *slog.Logger

	mu      sync.Mutex
	session Negotiator
	ready   chan Negotiator
}

func NewPairing(roomID, localID string, signaler Signaler, factory NegotiatorFactory, logger *slog.Logger) *Pairing {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pairing{
		roomID:   roomID,
		localID:  localID,
		signaler: signaler,
		factory:  factory,
		logger:   logger.With("component", "pairing", "local", localID),
		ready:    make(chan Negotiator, 1),
	}
}

// Ready delivers the session once it has been created.
func (p *Pairing) Ready() <-chan Negotiator {
	return p.ready
}

// Session returns the current session, if any.
func (p *Pairing) Session() Negotiator {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// HandlePeerJoined reacts to a new member of the room.
func (p *Pairing) HandlePeerJoined(joined *signaling.PeerJoined) error {
	if joined.PeerID == p.localID || p.Session() != nil {
		return nil
	}

	if Initiates(p.localID, joined.PeerID) {
		return p.begin(joined.PeerID, true)
	}

	p.logger.Debug("sending hello", "remote", joined.PeerID)
	return p.signaler.Signal(signaling.SignalEnvelope{
		RoomID: p.roomID,
		To:     joined.PeerID,
		Kind:   signaling.KindGeneric,
	})
}

// HandleSignal routes an envelope to the session, creating the session
// when the envelope is a hello from a peer this side must initiate with,
// or an offer.
func (p *Pairing) HandleSignal(env *signaling.SignalEnvelope) error {
	if env.From == "" || env.From == p.localID {
		return nil
	}

	if s := p.Session(); s != nil {
		if s.RemoteID() != env.From {
			p.logger.Debug("ignoring signal from a third peer", "from", env.From, "kind", env.Kind)
			return nil
		}
		return s.HandleSignal(env)
	}

	switch env.Kind {
	case signaling.KindGeneric:
		if Initiates(p.localID, env.From) {
			return p.begin(env.From, true)
		}
		return nil

	case signaling.KindOffer:
		if err := p.begin(env.From, false); err != nil {
			return err
		}
		return p.Session().HandleSignal(env)

	default:
		p.logger.Debug("dropping signal before session", "from", env.From, "kind", env.Kind)
		return nil
	}
}

func (p *Pairing) begin(remoteID string, initiator bool) error {
	s, err := p.factory(remoteID, initiator)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.session = s
	p.mu.Unlock()

	p.logger.Info("pairing", "remote", remoteID, "initiator", initiator)
	p.ready <- s

	return s.Start()
}

// Run routes the handler's room events until ctx is done or the signaling
// connection ends.
func (p *Pairing) Run(ctx context.Context, h *signaling.Handler) {
	for {
		var err error
		select {
		case joined := <-h.PeerJoined:
			err = p.HandlePeerJoined(joined)
		case env := <-h.Signal:
			err = p.HandleSignal(env)
		case <-h.Done():
			return
		case <-ctx.Done():
			return
		}
		if err != nil {
			p.logger.Warn("negotiation failed", "error", err)
		}
	}
}
