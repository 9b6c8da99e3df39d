package peer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/BioHazard786/roomdrop/internal/config"
	"github.com/BioHazard786/roomdrop/internal/signaling"
	"github.com/BioHazard786/roomdrop/internal/transfer"
	"github.com/pion/webrtc/v4"
)

// Signaler sends envelopes through the hub. *signaling.Client satisfies it.
type Signaler interface {
	Signal(env signaling.SignalEnvelope) error
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Config   *config.Config
	Signaler Signaler
	RoomID   string
	LocalID  string
	RemoteID string

	// Initiator creates the data channel and sends the offer.
	Initiator bool

	// OnFrame receives every data-channel message in arrival order.
	OnFrame func(transfer.Frame)

	Logger *slog.Logger
}

// Session is one side of a direct peer connection carrying a single data
// channel. Negotiation envelopes are always unicast to the remote peer.
type Session struct {
	cfg    SessionConfig
	pc     *webrtc.PeerConnection
	logger *slog.Logger

	mu        sync.Mutex
	channel   *dataChannel
	pending   []webrtc.ICECandidateInit
	remoteSet bool

	open      chan struct{}
	openOnce  sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

// NewSession creates the peer connection. For the initiator it also
// creates the data channel; Start sends the offer.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	pc, err := NewPeerConnection(cfg.Config)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		pc:     pc,
		logger: cfg.Logger.With("component", "peer", "remote", cfg.RemoteID),
		open:   make(chan struct{}),
		closed: make(chan struct{}),
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		if err := s.send(signaling.KindICECandidate, c.ToJSON()); err != nil {
			s.logger.Warn("failed to send ICE candidate", "error", err)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.logger.Debug("connection state", "state", state.String())
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			s.markClosed()
		}
	})

	if cfg.Initiator {
		dc, err := createDataChannel(pc)
		if err != nil {
			pc.Close()
			return nil, err
		}
		s.attach(dc)
	} else {
		pc.OnDataChannel(func(dc *webrtc.DataChannel) {
			if dc.Label() != ChannelLabel {
				s.logger.Warn("ignoring unexpected data channel", "label", dc.Label())
				return
			}
			s.attach(dc)
		})
	}

	return s, nil
}

func (s *Session) attach(dc *webrtc.DataChannel) {
	ch := newDataChannel(dc)

	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()

	dc.OnOpen(func() {
		s.logger.Debug("data channel open")
		s.openOnce.Do(func() { close(s.open) })
	})
	dc.OnClose(func() {
		s.logger.Debug("data channel closed")
		s.markClosed()
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if s.cfg.OnFrame != nil {
			s.cfg.OnFrame(transfer.ClassifyFrame(msg.IsString, msg.Data))
		}
	})
}

func (s *Session) markClosed() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *Session) send(kind signaling.SignalKind, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.cfg.Signaler.Signal(signaling.SignalEnvelope{
		RoomID: s.cfg.RoomID,
		To:     s.cfg.RemoteID,
		Kind:   kind,
		Data:   raw,
	})
}

// RemoteID returns the connection id of the other peer.
func (s *Session) RemoteID() string {
	return s.cfg.RemoteID
}

// Start sends the offer. It does nothing for the answering side.
func (s *Session) Start() error {
	if !s.cfg.Initiator {
		return nil
	}

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return transfer.NewError("create offer", err)
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return transfer.NewError("set local description", err)
	}
	return s.send(signaling.KindOffer, s.pc.LocalDescription())
}

// HandleSignal applies a negotiation envelope from the remote peer.
func (s *Session) HandleSignal(env *signaling.SignalEnvelope) error {
	switch env.Kind {
	case signaling.KindOffer:
		var desc webrtc.SessionDescription
		if err := json.Unmarshal(env.Data, &desc); err != nil {
			return transfer.WrapError("parse offer", transfer.ErrProtocolViolation, err.Error())
		}
		if err := s.setRemote(desc); err != nil {
			return err
		}

		answer, err := s.pc.CreateAnswer(nil)
		if err != nil {
			return transfer.NewError("create answer", err)
		}
		if err := s.pc.SetLocalDescription(answer); err != nil {
			return transfer.NewError("set local description", err)
		}
		return s.send(signaling.KindAnswer, s.pc.LocalDescription())

	case signaling.KindAnswer:
		var desc webrtc.SessionDescription
		if err := json.Unmarshal(env.Data, &desc); err != nil {
			return transfer.WrapError("parse answer", transfer.ErrProtocolViolation, err.Error())
		}
		return s.setRemote(desc)

	case signaling.KindICECandidate:
		var ice webrtc.ICECandidateInit
		if err := json.Unmarshal(env.Data, &ice); err != nil {
			return transfer.WrapError("parse ICE candidate", transfer.ErrProtocolViolation, err.Error())
		}

		s.mu.Lock()
		if !s.remoteSet {
			s.pending = append(s.pending, ice)
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		if err := s.pc.AddICECandidate(ice); err != nil {
			return transfer.NewError("add ICE candidate", err)
		}
		return nil

	default:
		return nil
	}
}

// setRemote applies desc and flushes candidates that arrived before it.
func (s *Session) setRemote(desc webrtc.SessionDescription) error {
	if err := s.pc.SetRemoteDescription(desc); err != nil {
		return transfer.NewError("set remote description", err)
	}

	s.mu.Lock()
	s.remoteSet = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ice := range pending {
		if err := s.pc.AddICECandidate(ice); err != nil {
			s.logger.Warn("failed to add queued ICE candidate", "error", err)
		}
	}
	return nil
}

// WaitOpen blocks until the data channel is open and returns it.
func (s *Session) WaitOpen(ctx context.Context) (*Channel, error) {
	select {
	case <-s.open:
		s.mu.Lock()
		ch := s.channel
		s.mu.Unlock()
		return &Channel{dataChannel: ch}, nil
	case <-s.closed:
		return nil, transfer.ErrChannelClosed
	case <-ctx.Done():
		return nil, transfer.NewError("wait for data channel", errors.Join(transfer.ErrTimeout, ctx.Err()))
	}
}

// Closed is closed when the data channel or the peer connection goes away.
func (s *Session) Closed() <-chan struct{} {
	return s.closed
}

// Close tears down the peer connection.
func (s *Session) Close() error {
	s.markClosed()
	return s.pc.Close()
}

// Channel is an open transfer channel.
type Channel struct {
	*dataChannel
}
