package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BioHazard786/roomdrop/internal/transfer"
	"github.com/BioHazard786/roomdrop/internal/ui"
	"github.com/spf13/cobra"
)

var flagOutput string

var receiveCmd = &cobra.Command{
	Use:   "receive <room-id>",
	Short: "Join a room and receive the file sent there",
	Long: `Join the room a sender created and receive its file. The file is
written to the output directory; an existing file with the same name is never
overwritten.`,
	Example: `  roomdrop receive happy-tiger-jazz
  roomdrop receive happy-tiger-jazz -o ~/Downloads`,
	Args: cobra.ExactArgs(1),
	RunE: runReceive,
}

func init() {
	rootCmd.AddCommand(receiveCmd)
	addConnectionFlags(receiveCmd)
	receiveCmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "Directory to save the received file in")
}

// receiveProgress owns the progress view, which is created when the sender
// announces the file.
type receiveProgress struct {
	mu   sync.Mutex
	view *ui.TransferUI
}

func (p *receiveProgress) begin(meta transfer.Metadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view != nil {
		p.view.Finish(fmt.Errorf("superseded by %s", meta.Filename))
	}
	p.view = ui.NewTransferUI(ui.ModeReceive, meta.Filename, meta.Filesize, nil)
	p.view.Start()
}

func (p *receiveProgress) update(received int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view != nil {
		p.view.Update(received)
	}
}

func (p *receiveProgress) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view != nil {
		p.view.Finish(err)
		p.view = nil
	}
}

func runReceive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	roomID := strings.TrimSpace(args[0])
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := NewConnectionContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	var progress receiveProgress
	completed := make(chan transfer.Artifact, 1)
	failed := make(chan transfer.Result, 1)

	receiver := transfer.NewReceiver(transfer.ReceiverOptions{
		OnMetadata: progress.begin,
		OnProgress: func(received, _ int64) { progress.update(received) },
		OnComplete: func(a transfer.Artifact) {
			select {
			case completed <- a:
			default:
				slog.Warn("dropping extra artifact", "file", a.Filename)
			}
		},
		Report: func(res transfer.Result) {
			select {
			case failed <- res:
			default:
			}
		},
	})

	onFrame := func(f transfer.Frame) {
		if err := receiver.HandleFrame(f); err != nil {
			slog.Debug("frame rejected", "kind", f.Kind, "error", err)
		}
	}

	stopJoining := ui.RunSpinner(fmt.Sprintf("Joining room %s...", roomID))
	session, _, err := conn.Pair(ctx, roomID, "receiver", onFrame)
	stopJoining()
	if err != nil {
		return err
	}
	defer session.Close()

	ui.PrintSuccessf("%s Connected to %s", ui.IconPeer, session.RemoteID())

	// The sender reports the outcome of a successful transfer; this side
	// only reports what the sender cannot see.
	report := func(res transfer.Result) {
		conn.report(res.Outcome(roomID, session.RemoteID(), conn.PeerID))
	}

	select {
	case art := <-completed:
		progress.finish(nil)
		return saveReceived(art, failed, report)
	case <-session.Closed():
		if !receiver.Abort(transfer.ErrChannelClosed) {
			select {
			case art := <-completed:
				progress.finish(nil)
				return saveReceived(art, failed, report)
			default:
			}
		}
	case <-ctx.Done():
		receiver.Abort(ctx.Err())
	}

	select {
	case res := <-failed:
		progress.finish(res.Err)
		report(res)
		renderSummary(res, "")
		return res.Err
	default:
		return transfer.ErrChannelClosed
	}
}

func saveReceived(art transfer.Artifact, failed <-chan transfer.Result, report func(transfer.Result)) error {
	path, err := transfer.SaveArtifact(flagOutput, art)
	if err != nil {
		return err
	}

	res := transfer.Result{
		Filename:    art.Filename,
		Size:        art.Size,
		Transferred: int64(len(art.Data)),
		StartedAt:   art.StartedAt,
		CompletedAt: art.CompletedAt,
	}
	if art.SizeMismatch {
		res.Err = transfer.ErrSizeMismatch
		report(<-failed)
		ui.PrintWarning(fmt.Sprintf("%s received more data than announced", art.Filename))
	}
	renderSummary(res, path)
	return res.Err
}
