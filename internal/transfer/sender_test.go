package transfer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BioHazard786/roomdrop/internal/signaling"
)

// recordingChannel copies every frame it is handed.
type recordingChannel struct {
	texts   []string
	chunks  [][]byte
	failAt  int
	drained bool
}

func (c *recordingChannel) SendText(s string) error {
	c.texts = append(c.texts, s)
	return nil
}

func (c *recordingChannel) Send(data []byte) error {
	if c.failAt > 0 && len(c.chunks)+1 == c.failAt {
		return ErrChannelClosed
	}
	c.chunks = append(c.chunks, append([]byte(nil), data...))
	return nil
}

func (c *recordingChannel) Drain(context.Context) {
	c.drained = true
}

func TestSender_StreamsMetaThenChunks(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 5000) // 50000 bytes
	ch := &recordingChannel{}

	var reported []Result
	var progress []int64
	s := NewSender(ch, SenderOptions{
		OnProgress: func(sent, total int64) {
			if total != int64(len(data)) {
				t.Errorf("total = %d", total)
			}
			progress = append(progress, sent)
		},
		Report: func(r Result) { reported = append(reported, r) },
	})

	res, err := s.Send(context.Background(), "big.bin", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(ch.texts) != 1 || !strings.Contains(ch.texts[0], `"filesize":50000`) {
		t.Fatalf("meta frames = %v", ch.texts)
	}
	if len(ch.chunks) != 4 {
		t.Fatalf("chunks = %d, want 4", len(ch.chunks))
	}
	for i, c := range ch.chunks[:3] {
		if len(c) != ChunkSize {
			t.Fatalf("chunk %d is %d bytes", i, len(c))
		}
	}
	if got := bytes.Join(ch.chunks, nil); !bytes.Equal(got, data) {
		t.Fatal("reassembled chunks differ from source")
	}
	if !ch.drained {
		t.Fatal("channel was not drained")
	}

	if res.Status != signaling.StatusCompleted || res.Transferred != int64(len(data)) {
		t.Fatalf("result = %+v", res)
	}
	if len(reported) != 1 || reported[0].Status != signaling.StatusCompleted {
		t.Fatalf("reported = %+v", reported)
	}
	if progress[len(progress)-1] != int64(len(data)) {
		t.Fatalf("last progress = %d", progress[len(progress)-1])
	}
	if s.State() != SenderDone {
		t.Fatalf("state = %v", s.State())
	}
}

func TestSender_EmptyFileSendsOnlyMeta(t *testing.T) {
	ch := &recordingChannel{}
	res, err := NewSender(ch, SenderOptions{}).Send(context.Background(), "empty", bytes.NewReader(nil), 0)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(ch.texts) != 1 || len(ch.chunks) != 0 {
		t.Fatalf("texts=%d chunks=%d", len(ch.texts), len(ch.chunks))
	}
	if res.Status != signaling.StatusCompleted {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestSender_ChannelFailureReportsFailed(t *testing.T) {
	ch := &recordingChannel{failAt: 2}
	var reported []Result
	s := NewSender(ch, SenderOptions{Report: func(r Result) { reported = append(reported, r) }})

	data := make([]byte, 3*ChunkSize)
	res, err := s.Send(context.Background(), "f", bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("err = %v, want ErrChannelClosed", err)
	}
	if res.Status != signaling.StatusFailed || res.Transferred != ChunkSize {
		t.Fatalf("result = %+v", res)
	}
	if len(reported) != 1 || reported[0].Err == nil {
		t.Fatalf("reported = %+v", reported)
	}

	out := res.Outcome("room", "a", "b")
	if out.Status != signaling.StatusFailed || out.Reason == "" || out.FromPeer != "a" || out.ToPeer != "b" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestSender_ShortSource(t *testing.T) {
	ch := &recordingChannel{}
	_, err := NewSender(ch, SenderOptions{}).Send(context.Background(), "f", strings.NewReader("abc"), 10)
	if !errors.Is(err, ErrSourceShort) {
		t.Fatalf("err = %v, want ErrSourceShort", err)
	}
}

func TestSender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := &recordingChannel{}
	_, err := NewSender(ch, SenderOptions{}).Send(ctx, "f", bytes.NewReader(make([]byte, 10)), 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(ch.chunks) != 0 {
		t.Fatalf("sent %d chunks after cancel", len(ch.chunks))
	}
}

func TestSender_SingleUse(t *testing.T) {
	s := NewSender(&recordingChannel{}, SenderOptions{})
	if _, err := s.Send(context.Background(), "f", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := s.Send(context.Background(), "f", strings.NewReader("x"), 1); !errors.Is(err, ErrSenderUsed) {
		t.Fatalf("err = %v, want ErrSenderUsed", err)
	}
}
