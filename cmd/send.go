package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/BioHazard786/roomdrop/internal/config"
	"github.com/BioHazard786/roomdrop/internal/files"
	"github.com/BioHazard786/roomdrop/internal/signaling"
	"github.com/BioHazard786/roomdrop/internal/transfer"
	"github.com/BioHazard786/roomdrop/internal/ui"
	"github.com/spf13/cobra"
)

var flagRoom string

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Send a file to the next peer that joins the room",
	Long: `Send a file directly to another peer. A room id is generated unless
--room is given; share it with the receiver. The file is streamed as soon as a
peer joins the room and the data channel opens.`,
	Example: `  roomdrop send photo.jpg
  roomdrop send backup.tar --room happy-tiger-jazz
  roomdrop send report.pdf --server wss://drop.example.com/ws`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addConnectionFlags(sendCmd)
	sendCmd.Flags().StringVar(&flagRoom, "room", "", "Room id to use instead of a generated one")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	info, err := files.ValidateFile(args[0])
	if err != nil {
		return err
	}

	ui.RenderFileTable([]ui.FileTableItem{{
		Name: info.Name,
		Size: info.Size,
		Type: info.Type,
	}})
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := NewConnectionContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	roomID := flagRoom
	if roomID == "" {
		roomID = signaling.NewRoomID()
	}

	room := ui.RoomInfo{RoomID: roomID}
	if cfg.ServerURL != config.DefaultServerURL {
		room.ServerURL = cfg.ServerURL
	}
	ui.RenderRoomInfo(room)
	fmt.Println()

	stopWaiting := ui.RunWaitingSpinner("Waiting for a receiver to join...")
	session, ch, err := conn.Pair(ctx, roomID, "sender", nil)
	stopWaiting()
	if err != nil {
		return err
	}
	defer session.Close()

	ui.PrintSuccessf("%s Connected to %s", ui.IconPeer, session.RemoteID())

	f, err := os.Open(info.Path)
	if err != nil {
		return transfer.NewFileError("open", info.Name, err)
	}
	defer f.Close()

	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := ui.NewTransferUI(ui.ModeSend, info.Name, info.Size, cancel)
	progress.Start()

	sender := transfer.NewSender(ch, transfer.SenderOptions{
		OnProgress: func(sent, _ int64) { progress.Update(sent) },
	})
	res, sendErr := sender.Send(sendCtx, info.Name, f, info.Size)
	progress.Finish(sendErr)

	conn.report(res.Outcome(roomID, conn.PeerID, session.RemoteID()))

	renderSummary(res, "")
	return sendErr
}
