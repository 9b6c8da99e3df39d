package transfer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

// Channel is the sending half of an open data channel. Send must not keep
// a reference to data after it returns.
type Channel interface {
	SendText(s string) error
	Send(data []byte) error
}

// Drainer is implemented by channels that queue outgoing data. Send waits
// on Drain after the last chunk so the result is reported once the bytes
// have left the process.
type Drainer interface {
	Drain(ctx context.Context)
}

// Result describes how a transfer ended on one side.
type Result struct {
	Filename    string
	Size        int64
	Transferred int64
	StartedAt   time.Time
	CompletedAt time.Time
	Status      signaling.OutcomeStatus
	Err         error
}

// Outcome converts r into the record reported to the hub.
func (r Result) Outcome(roomID, fromPeer, toPeer string) signaling.TransferOutcome {
	out := signaling.TransferOutcome{
		RoomID:      roomID,
		FromPeer:    fromPeer,
		ToPeer:      toPeer,
		Filename:    r.Filename,
		Filesize:    r.Size,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Status:      r.Status,
	}
	if r.Err != nil {
		out.Reason = r.Err.Error()
	}
	return out
}

type SenderState int

const (
	SenderIdle SenderState = iota
	SenderSending
	SenderDone
)

// SenderOptions configures a Sender. All fields are optional.
type SenderOptions struct {
	// OnProgress is called after every chunk with the bytes sent so far.
	OnProgress func(sent, total int64)

	// Report receives the result once, whether the transfer succeeded or not.
	Report func(Result)

	Logger *slog.Logger
	Now    func() time.Time
}

// Sender streams one file over a channel: a meta frame, then the file in
// ChunkSize binary frames in offset order. A Sender is single use.
type Sender struct {
	ch   Channel
	opts SenderOptions

	mu    sync.Mutex
	state SenderState
}

func NewSender(ch Channel, opts SenderOptions) *Sender {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sender{ch: ch, opts: opts}
}

func (s *Sender) State() SenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send transfers size bytes read from src under the name filename. It
// returns once every chunk was handed to the channel, the channel failed
// or ctx was cancelled. A failed Result is returned together with its error.
func (s *Sender) Send(ctx context.Context, filename string, src io.Reader, size int64) (Result, error) {
	s.mu.Lock()
	if s.state != SenderIdle {
		s.mu.Unlock()
		return Result{}, ErrSenderUsed
	}
	s.state = SenderSending
	s.mu.Unlock()

	res := Result{
		Filename:  filename,
		Size:      size,
		StartedAt: s.opts.Now(),
	}
	err := s.stream(ctx, &res, src)
	res.CompletedAt = s.opts.Now()

	if err != nil {
		res.Status = signaling.StatusFailed
		res.Err = err
		s.opts.Logger.Warn("send failed", "file", filename, "sent", res.Transferred, "size", size, "error", err)
	} else {
		res.Status = signaling.StatusCompleted
		s.opts.Logger.Info("send complete", "file", filename, "size", size)
	}

	s.mu.Lock()
	s.state = SenderDone
	s.mu.Unlock()

	if s.opts.Report != nil {
		s.opts.Report(res)
	}
	return res, err
}

func (s *Sender) stream(ctx context.Context, res *Result, src io.Reader) error {
	meta, err := EncodeMeta(res.Filename, res.Size)
	if err != nil {
		return err
	}
	if err := s.ch.SendText(meta); err != nil {
		return NewFileError("send metadata", res.Filename, err)
	}

	buf := make([]byte, ChunkSize)
	for res.Transferred < res.Size {
		if err := ctx.Err(); err != nil {
			return NewFileError("send", res.Filename, err)
		}

		n := int(min(int64(ChunkSize), res.Size-res.Transferred))
		if _, err := io.ReadFull(src, buf[:n]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return NewFileError("read", res.Filename, ErrSourceShort)
			}
			return NewFileError("read", res.Filename, err)
		}

		if err := s.ch.Send(buf[:n]); err != nil {
			return NewFileError("send chunk", res.Filename, err)
		}

		res.Transferred += int64(n)
		if s.opts.OnProgress != nil {
			s.opts.OnProgress(res.Transferred, res.Size)
		}
	}

	if d, ok := s.ch.(Drainer); ok {
		d.Drain(ctx)
	}
	return nil
}
