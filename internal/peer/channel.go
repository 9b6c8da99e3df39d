package peer

import (
	"context"
	"time"

	"github.com/BioHazard786/roomdrop/internal/transfer"
	"github.com/pion/webrtc/v4"
)

const (
	HighWaterMark = 2 * 1024 * 1024 // backpressure threshold
	LowWaterMark  = 512 * 1024      // resume threshold

	SendTimeout  = 60 * time.Second
	DrainTimeout = 30 * time.Second
)

// dataChannel adapts a pion DataChannel to transfer.Channel. Sends block
// while more than HighWaterMark bytes are queued, until the queue drains
// below LowWaterMark.
type dataChannel struct {
	dc  *webrtc.DataChannel
	low chan struct{}
}

func newDataChannel(dc *webrtc.DataChannel) *dataChannel {
	c := &dataChannel{dc: dc, low: make(chan struct{}, 1)}
	dc.SetBufferedAmountLowThreshold(LowWaterMark)
	dc.OnBufferedAmountLow(func() {
		select {
		case c.low <- struct{}{}:
		default:
		}
	})
	return c
}

func (c *dataChannel) waitForWindow() error {
	if c.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return transfer.ErrChannelNotOpen
	}

	for c.dc.BufferedAmount() >= HighWaterMark {
		if c.dc.ReadyState() != webrtc.DataChannelStateOpen {
			return transfer.ErrChannelClosed
		}

		before := c.dc.BufferedAmount()
		select {
		case <-c.low:
		case <-time.After(SendTimeout):
			if c.dc.BufferedAmount() < before {
				continue
			}
			return transfer.WrapError("send", transfer.ErrBufferTimeout, "buffer not draining")
		}
	}
	return nil
}

func (c *dataChannel) Send(data []byte) error {
	if err := c.waitForWindow(); err != nil {
		return err
	}
	return c.dc.Send(data)
}

func (c *dataChannel) SendText(s string) error {
	if err := c.waitForWindow(); err != nil {
		return err
	}
	return c.dc.SendText(s)
}

// Drain waits until every queued byte has been handed to the transport,
// the channel closes, DrainTimeout passes or ctx is done.
func (c *dataChannel) Drain(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(DrainTimeout)

	for c.dc.BufferedAmount() > 0 {
		if c.dc.ReadyState() != webrtc.DataChannelStateOpen {
			return
		}
		select {
		case <-ticker.C:
		case <-deadline:
			return
		case <-ctx.Done():
			return
		}
	}
}
