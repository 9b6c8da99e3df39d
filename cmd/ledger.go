package cmd

import (
	"context"
	"os"
	"time"

	"github.com/BioHazard786/roomdrop/internal/ledger"
	"github.com/BioHazard786/roomdrop/internal/signaling"
	"github.com/BioHazard786/roomdrop/internal/ui"
	"github.com/spf13/cobra"
)

var (
	flagLedgerDSN    string
	flagLedgerRoom   string
	flagLedgerStatus string
	flagLedgerLimit  int
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the transfer ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded transfers, newest first",
	Example: `  roomdrop ledger list --ledger-dsn sqlite://ledger.db
  LEDGER_DSN=ledger.db roomdrop ledger list --status failed`,
	Args: cobra.NoArgs,
	RunE: runLedgerList,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerListCmd)

	ledgerListCmd.Flags().StringVar(&flagLedgerDSN, "ledger-dsn", "", "Ledger data source (env LEDGER_DSN)")
	ledgerListCmd.Flags().StringVar(&flagLedgerRoom, "room", "", "Only show transfers in this room")
	ledgerListCmd.Flags().StringVar(&flagLedgerStatus, "status", "", "Only show transfers with this status (completed or failed)")
	ledgerListCmd.Flags().IntVarP(&flagLedgerLimit, "limit", "n", 50, "Maximum number of rows; 0 for all")
}

func runLedgerList(cmd *cobra.Command, _ []string) error {
	dsn := flagLedgerDSN
	if dsn == "" {
		dsn = os.Getenv("LEDGER_DSN")
	}

	l, err := ledger.Open(dsn)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	records, err := l.List(ctx, ledger.Filter{
		RoomID: flagLedgerRoom,
		Status: signaling.OutcomeStatus(flagLedgerStatus),
		Limit:  flagLedgerLimit,
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		ui.PrintInfo("No transfers recorded")
		return nil
	}

	rows := make([]ui.LedgerRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, ui.LedgerRow{
			ID:          r.ID,
			RoomID:      r.RoomID,
			FromPeer:    r.FromPeerID,
			ToPeer:      r.ToPeerID,
			Filename:    r.Filename,
			Filesize:    r.Filesize,
			Status:      r.Status,
			Reason:      r.Reason,
			CompletedAt: r.CompletedAt,
		})
	}
	ui.RenderLedger(os.Stdout, rows)
	return nil
}
