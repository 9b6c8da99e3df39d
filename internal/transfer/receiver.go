package transfer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

type ReceiverState int

const (
	AwaitingMetadata ReceiverState = iota
	Receiving
	Complete
)

func (s ReceiverState) String() string {
	switch s {
	case AwaitingMetadata:
		return "awaiting-metadata"
	case Receiving:
		return "receiving"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("ReceiverState(%d)", int(s))
	}
}

// Artifact is a reassembled file.
type Artifact struct {
	Filename string

	// Size is the size announced by the sender; len(Data) may exceed it
	// when SizeMismatch is set.
	Size int64
	Data []byte

	SizeMismatch bool
	StartedAt    time.Time
	CompletedAt  time.Time
}

// ReceiverOptions configures a Receiver. All fields are optional.
type ReceiverOptions struct {
	// OnMetadata is called when a transfer is announced.
	OnMetadata func(Metadata)

	// OnProgress is called after every chunk with the bytes received so far.
	OnProgress func(received, total int64)

	// OnComplete receives each reassembled artifact exactly once.
	OnComplete func(Artifact)

	// Report receives failed results: size mismatches and aborted transfers.
	Report func(Result)

	Logger *slog.Logger
	Now    func() time.Time
}

// Receiver reassembles files from the frames of one data channel. Frames
// must be handed to HandleFrame in arrival order.
type Receiver struct {
	opts ReceiverOptions

	mu        sync.Mutex
	state     ReceiverState
	meta      Metadata
	chunks    [][]byte
	received  int64
	startedAt time.Time
}

func NewReceiver(opts ReceiverOptions) *Receiver {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Receiver{opts: opts}
}

func (r *Receiver) State() ReceiverState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Received returns the bytes received for the current transfer.
func (r *Receiver) Received() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

// HandleFrame advances the state machine by one frame. Frames that break
// the protocol are logged and ignored; the returned error wraps
// ErrProtocolViolation in that case and the state is unchanged.
func (r *Receiver) HandleFrame(f Frame) error {
	if f.Kind == FrameControl {
		meta, err := DecodeControl(f.Data)
		if err != nil {
			r.opts.Logger.Warn("ignoring control frame", "error", err)
			return err
		}
		r.begin(meta)
		return nil
	}
	return r.appendChunk(f.Data)
}

func (r *Receiver) begin(meta Metadata) {
	r.mu.Lock()
	if r.state == Receiving {
		r.opts.Logger.Warn("discarding unfinished transfer",
			"file", r.meta.Filename, "received", r.received, "size", r.meta.Filesize)
	}
	r.state = Receiving
	r.meta = meta
	r.chunks = nil
	r.received = 0
	r.startedAt = r.opts.Now()
	r.mu.Unlock()

	r.opts.Logger.Info("receiving", "file", meta.Filename, "size", meta.Filesize)
	if r.opts.OnMetadata != nil {
		r.opts.OnMetadata(meta)
	}

	if meta.Filesize == 0 {
		r.finish()
	}
}

func (r *Receiver) appendChunk(data []byte) error {
	r.mu.Lock()
	if r.state != Receiving {
		state := r.state
		r.mu.Unlock()
		r.opts.Logger.Warn("ignoring chunk outside a transfer", "state", state, "bytes", len(data))
		return WrapError("receive chunk", ErrProtocolViolation, "no transfer in progress")
	}

	chunk := make([]byte, len(data))
	copy(chunk, data)
	r.chunks = append(r.chunks, chunk)
	r.received += int64(len(data))
	received, total := r.received, r.meta.Filesize
	r.mu.Unlock()

	if r.opts.OnProgress != nil {
		r.opts.OnProgress(received, total)
	}
	if received >= total {
		r.finish()
	}
	return nil
}

// finish assembles every buffered chunk, hands the artifact over and
// releases the session.
func (r *Receiver) finish() {
	r.mu.Lock()
	if r.state != Receiving {
		r.mu.Unlock()
		return
	}

	data := make([]byte, 0, r.received)
	for _, c := range r.chunks {
		data = append(data, c...)
	}
	art := Artifact{
		Filename:     r.meta.Filename,
		Size:         r.meta.Filesize,
		Data:         data,
		SizeMismatch: r.received > r.meta.Filesize,
		StartedAt:    r.startedAt,
		CompletedAt:  r.opts.Now(),
	}
	r.state = Complete
	r.chunks = nil
	r.mu.Unlock()

	if art.SizeMismatch {
		r.opts.Logger.Warn("size mismatch", "file", art.Filename, "announced", art.Size, "received", len(art.Data))
	} else {
		r.opts.Logger.Info("receive complete", "file", art.Filename, "size", art.Size)
	}

	if r.opts.OnComplete != nil {
		r.opts.OnComplete(art)
	}
	if art.SizeMismatch && r.opts.Report != nil {
		r.opts.Report(Result{
			Filename:    art.Filename,
			Size:        art.Size,
			Transferred: int64(len(art.Data)),
			StartedAt:   art.StartedAt,
			CompletedAt: art.CompletedAt,
			Status:      signaling.StatusFailed,
			Err:         ErrSizeMismatch,
		})
	}
}

// Abort ends an unfinished transfer because the channel went away. The
// buffered chunks are released and a failed result is reported. It
// reports whether a transfer was in progress.
func (r *Receiver) Abort(cause error) bool {
	r.mu.Lock()
	if r.state != Receiving {
		r.mu.Unlock()
		return false
	}
	res := Result{
		Filename:    r.meta.Filename,
		Size:        r.meta.Filesize,
		Transferred: r.received,
		StartedAt:   r.startedAt,
		CompletedAt: r.opts.Now(),
		Status:      signaling.StatusFailed,
		Err:         NewFileError("receive", r.meta.Filename, cause),
	}
	r.state = AwaitingMetadata
	r.chunks = nil
	r.received = 0
	r.mu.Unlock()

	r.opts.Logger.Warn("transfer aborted", "file", res.Filename, "received", res.Transferred, "error", cause)
	if r.opts.Report != nil {
		r.opts.Report(res)
	}
	return true
}
