package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BioHazard786/roomdrop/internal/config"
	"github.com/BioHazard786/roomdrop/internal/peer"
	"github.com/BioHazard786/roomdrop/internal/signaling"
	"github.com/BioHazard786/roomdrop/internal/transfer"
	"github.com/BioHazard786/roomdrop/internal/ui"
	"github.com/BioHazard786/roomdrop/internal/utils"
	"github.com/BioHazard786/roomdrop/internal/version"
)

const (
	// SignalTimeout bounds server round trips and data channel setup.
	SignalTimeout = 30 * time.Second

	// ackTimeout bounds the wait for the hub to acknowledge an outcome.
	ackTimeout = 5 * time.Second
)

type joinMeta struct {
	Agent string `json:"agent"`
	Role  string `json:"role"`
}

// ConnectionContext is a live signaling connection and the id the server
// assigned to it.
type ConnectionContext struct {
	Client  *signaling.Client
	Handler *signaling.Handler
	Config  *config.Config
	PeerID  string
}

func NewConnectionContext(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	client := signaling.NewClient(cfg.ServerURL, slog.Default())

	dialCtx, cancel := context.WithTimeout(ctx, SignalTimeout)
	defer cancel()
	if err := client.Connect(dialCtx); err != nil {
		return nil, transfer.NewError("connect to server", err)
	}

	handler := signaling.NewHandler(client)
	go handler.Start()

	c := &ConnectionContext{Client: client, Handler: handler, Config: cfg}

	select {
	case id := <-handler.Welcome:
		c.PeerID = id
		return c, nil
	case <-handler.Done():
		return nil, transfer.NewError("connect to server", fmt.Errorf("connection closed before welcome"))
	case <-dialCtx.Done():
		client.Close()
		return nil, transfer.WrapError("connect to server", transfer.ErrTimeout, "no welcome from server")
	}
}

func (c *ConnectionContext) Close() {
	c.Client.Close()
}

// Pair joins roomID and blocks until a data channel with another member is
// open. onFrame receives every frame arriving on that channel.
func (c *ConnectionContext) Pair(ctx context.Context, roomID, role string, onFrame func(transfer.Frame)) (*peer.Session, *peer.Channel, error) {
	factory := func(remoteID string, initiator bool) (peer.Negotiator, error) {
		return peer.NewSession(peer.SessionConfig{
			Config:    c.Config,
			Signaler:  c.Client,
			RoomID:    roomID,
			LocalID:   c.PeerID,
			RemoteID:  remoteID,
			Initiator: initiator,
			OnFrame:   onFrame,
		})
	}
	pairing := peer.NewPairing(roomID, c.PeerID, c.Client, factory, slog.Default())
	go pairing.Run(ctx, c.Handler)

	if err := c.Client.JoinRoom(roomID, joinMeta{Agent: version.UserAgent(), Role: role}); err != nil {
		return nil, nil, transfer.NewError("join room", err)
	}

	var session *peer.Session
	select {
	case n := <-pairing.Ready():
		session = n.(*peer.Session)
	case msg := <-c.Handler.Error:
		return nil, nil, transfer.WrapError("join room", fmt.Errorf("signaling error"), msg)
	case <-c.Handler.Done():
		return nil, nil, transfer.NewError("join room", signaling.ErrClientClosed)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	stopSpinner := ui.RunConnectionSpinner("Establishing peer connection...")
	defer stopSpinner()

	openCtx, cancel := context.WithTimeout(ctx, SignalTimeout)
	defer cancel()
	ch, err := session.WaitOpen(openCtx)
	if err != nil {
		session.Close()
		return nil, nil, err
	}
	return session, ch, nil
}

// report submits outcome and waits briefly for the hub's acknowledgement.
func (c *ConnectionContext) report(outcome signaling.TransferOutcome) {
	if err := c.Client.ReportOutcome(outcome); err != nil {
		slog.Warn("failed to report outcome", "error", err)
		return
	}

	select {
	case ack := <-c.Handler.Logged:
		slog.Debug("outcome acknowledged", "id", ack.ID)
	case <-time.After(ackTimeout):
		slog.Warn("no acknowledgement for reported outcome")
	case <-c.Handler.Done():
	}
}

func renderSummary(res transfer.Result, savedTo string) {
	duration := res.CompletedAt.Sub(res.StartedAt)
	speed := 0.0
	if s := duration.Seconds(); s > 0 {
		speed = float64(res.Transferred) / s
	}

	status := ui.IconSuccess + " Complete"
	if res.Err != nil {
		status = ui.IconError + " Failed"
	}

	fmt.Println()
	ui.RenderTransferSummary(ui.TransferSummary{
		Status:   status,
		File:     res.Filename,
		Size:     utils.FormatSize(res.Size),
		Duration: utils.FormatTimeDuration(duration),
		Speed:    utils.FormatSpeed(speed),
		SavedTo:  savedTo,
	})
}
