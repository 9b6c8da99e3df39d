package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 128

	// recordTimeout bounds a single ledger write.
	recordTimeout = 10 * time.Second
)

var (
	ErrNoRecorder     = errors.New("hub: a recorder is required")
	ErrAlreadyStarted = errors.New("hub: already started")
	ErrStopped        = errors.New("hub: stopped")
)

// Recorder persists transfer outcomes and returns a confirmation id.
type Recorder interface {
	Record(ctx context.Context, outcome signaling.TransferOutcome) (string, error)
}

// Config configures a Hub.
type Config struct {
	Recorder Recorder
	Logger   *slog.Logger

	// Workers is the number of goroutines writing outcomes to the Recorder.
	Workers int

	// QueueSize bounds the outcomes waiting for a worker. Outcomes reported
	// while the queue is full are dropped.
	QueueSize int

	// Now returns the current time; it feeds transfer-logged tokens.
	Now func() time.Time
}

// Hub is the signaling relay. It tracks live connections, keeps room
// membership in a Registry and forwards transfer outcomes to the ledger.
type Hub struct {
	registry *Registry
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	workers  int

	// mu guards conns, started and stopped. outcomes is only sent on
	// while mu is read-held and stopped is false.
	mu       sync.RWMutex
	conns    map[string]*Conn
	outcomes chan signaling.TransferOutcome
	started  bool
	stopped  bool

	wg sync.WaitGroup
}

// New creates a Hub. Start must be called before outcomes reach the ledger.
func New(cfg Config) (*Hub, error) {
	if cfg.Recorder == nil {
		return nil, ErrNoRecorder
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Hub{
		registry: NewRegistry(),
		recorder: cfg.Recorder,
		logger:   cfg.Logger.With("component", "hub"),
		now:      cfg.Now,
		workers:  cfg.Workers,
		conns:    make(map[string]*Conn),
		outcomes: make(chan signaling.TransferOutcome, cfg.QueueSize),
	}, nil
}

// Start launches the ledger workers. ctx is used for every ledger write.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return ErrStopped
	}
	if h.started {
		return ErrAlreadyStarted
	}
	h.started = true

	for i := 0; i < h.workers; i++ {
		h.wg.Add(1)
		go h.recordLoop(ctx, i)
	}

	h.logger.Info("hub started", "workers", h.workers)
	return nil
}

// Stop closes every connection and waits for queued outcomes to be
// written, or for ctx to expire.
func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	close(h.outcomes)
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	drained := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		h.logger.Info("hub stopped", "closed_connections", len(conns))
		return nil
	case <-ctx.Done():
		h.logger.Warn("hub stopped before the ledger queue drained", "pending", len(h.outcomes))
		return ctx.Err()
	}
}

func (h *Hub) recordLoop(ctx context.Context, worker int) {
	defer h.wg.Done()

	for outcome := range h.outcomes {
		recordCtx, cancel := context.WithTimeout(ctx, recordTimeout)
		id, err := h.recorder.Record(recordCtx, outcome)
		cancel()

		if err != nil {
			h.logger.Error("failed to record transfer",
				"worker", worker, "room", outcome.RoomID, "file", outcome.Filename, "error", err)
			continue
		}
		h.logger.Info("transfer recorded",
			"id", id, "room", outcome.RoomID, "file", outcome.Filename, "status", outcome.Status)
	}
}

// Dispatch decodes msg and routes it to the matching operation. Messages
// that do not match their schema, or that only the hub may send, are
// dropped and answered with an error message.
func (h *Hub) Dispatch(m Member, msg signaling.Message) {
	payload, err := msg.Decode()
	if err != nil {
		h.reject(m, msg.Type, err)
		return
	}

	switch p := payload.(type) {
	case *signaling.JoinRoom:
		h.Join(m, p.RoomID, p.Meta)
	case *signaling.SignalEnvelope:
		h.Relay(m, *p)
	case *signaling.TransferOutcome:
		h.ReportOutcome(m, *p)
	default:
		h.reject(m, msg.Type, errors.New("message type is not accepted from peers"))
	}
}

func (h *Hub) reject(m Member, t signaling.MessageType, err error) {
	h.logger.Warn("protocol violation", "conn", m.ID(), "type", t, "error", err)
	m.Deliver(signaling.MustMessage(signaling.TypeError, signaling.ErrorPayload{Error: err.Error()}))
}

// Join adds m to roomID and announces it to the room's other members.
// Repeated joins of the same room are no-ops.
func (h *Hub) Join(m Member, roomID string, meta json.RawMessage) {
	announce := signaling.MustMessage(signaling.TypePeerJoined, signaling.PeerJoined{
		PeerID: m.ID(),
		Meta:   meta,
	})

	if !h.registry.Join(m, roomID, announce) {
		h.logger.Debug("already in room", "conn", m.ID(), "room", roomID)
		return
	}
	h.logger.Info("joined room", "conn", m.ID(), "room", roomID)
}

// Relay forwards env from m. The envelope's From is always m's id. A
// unicast reaches its target only while the target is in env.RoomID;
// otherwise the envelope is dropped. Nothing is ever delivered back to m.
func (h *Hub) Relay(m Member, env signaling.SignalEnvelope) {
	env.From = m.ID()
	msg := signaling.MustMessage(signaling.TypeSignal, env)

	if env.To != "" {
		if env.To == m.ID() || !h.registry.Unicast(env.RoomID, env.To, msg) {
			h.logger.Debug("dropped unicast signal",
				"from", env.From, "to", env.To, "room", env.RoomID, "kind", env.Kind)
			return
		}
		h.logger.Debug("relayed signal", "from", env.From, "to", env.To, "kind", env.Kind)
		return
	}

	n := h.registry.Broadcast(env.RoomID, m.ID(), msg)
	h.logger.Debug("broadcast signal", "from", env.From, "room", env.RoomID, "kind", env.Kind, "recipients", n)
}

// OnDisconnect removes m from every room. Remaining members are not notified.
func (h *Hub) OnDisconnect(m Member) {
	rooms := h.registry.LeaveAll(m.ID())

	h.mu.Lock()
	delete(h.conns, m.ID())
	h.mu.Unlock()

	h.logger.Info("connection closed", "conn", m.ID(), "rooms", rooms)
}

// ReportOutcome acknowledges outcome to every member of its room and queues
// it for the ledger. The ledger write happens in the background; its result
// never reaches the peers.
func (h *Hub) ReportOutcome(m Member, outcome signaling.TransferOutcome) {
	ack := signaling.MustMessage(signaling.TypeTransferLogged, signaling.TransferLogged{
		ID: h.now().UnixMilli(),
	})
	h.registry.Broadcast(outcome.RoomID, "", ack)

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		h.logger.Warn("hub stopped, outcome not recorded", "conn", m.ID(), "room", outcome.RoomID)
		return
	}

	select {
	case h.outcomes <- outcome:
		h.logger.Debug("outcome queued", "conn", m.ID(), "room", outcome.RoomID, "status", outcome.Status)
	default:
		h.logger.Warn("ledger queue full, outcome dropped", "conn", m.ID(), "room", outcome.RoomID)
	}
}

// Stats is a point-in-time view of the hub for health checks.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// Stats returns the number of live rooms and connections.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	conns := len(h.conns)
	h.mu.RUnlock()

	return Stats{Rooms: h.registry.RoomCount(), Connections: conns}
}

// Registry exposes room membership.
func (h *Hub) Registry() *Registry {
	return h.registry
}
