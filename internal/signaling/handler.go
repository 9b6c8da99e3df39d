package signaling

import (
	"log/slog"
)

// Handler routes incoming signaling messages to typed channels.
type Handler struct {
	incoming <-chan Message
	logger   *slog.Logger

	Welcome    chan string
	PeerJoined chan *PeerJoined
	Signal     chan *SignalEnvelope
	Logged     chan *TransferLogged
	Error      chan string

	done chan struct{}
}

// NewHandler creates a handler reading from client.
func NewHandler(client *Client) *Handler {
	return newHandler(client.Incoming(), client.logger)
}

func newHandler(incoming <-chan Message, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		incoming:   incoming,
		logger:     logger,
		Welcome:    make(chan string, 1),
		PeerJoined: make(chan *PeerJoined, 8),
		Signal:     make(chan *SignalEnvelope, 32),
		Logged:     make(chan *TransferLogged, 4),
		Error:      make(chan string, 4),
		done:       make(chan struct{}),
	}
}

// Start routes messages until the incoming channel closes. It is meant to
// run in its own goroutine.
func (h *Handler) Start() {
	defer close(h.done)

	for msg := range h.incoming {
		payload, err := msg.Decode()
		if err != nil {
			h.logger.Warn("dropping message", "type", msg.Type, "error", err)
			continue
		}

		switch p := payload.(type) {
		case *Welcome:
			offer(h.Welcome, p.PeerID)
		case *PeerJoined:
			h.PeerJoined <- p
		case *SignalEnvelope:
			h.Signal <- p
		case *TransferLogged:
			offer(h.Logged, p)
		case *ErrorPayload:
			offer(h.Error, p.Error)
		default:
			h.logger.Debug("ignoring message", "type", msg.Type)
		}
	}
}

// Done is closed once the connection has ended and every message was routed.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// offer delivers v if the channel has room. Informational messages are not
// worth stalling the read loop for.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
