package ui

import (
	"io"
	"time"

	"github.com/BioHazard786/roomdrop/internal/utils"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// LedgerRow is one transfer record as shown by `roomdrop ledger list`.
type LedgerRow struct {
	ID          uint
	RoomID      string
	FromPeer    string
	ToPeer      string
	Filename    string
	Filesize    int64
	Status      string
	Reason      string
	CompletedAt time.Time
}

// RenderLedger writes rows as a table to w.
func RenderLedger(w io.Writer, rows []LedgerRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(IconLedger + " Transfers")
	t.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}

	t.AppendHeader(table.Row{"#", "Room", "File", "Size", "From", "To", "Status", "Completed"})
	for _, r := range rows {
		status := r.Status
		switch r.Status {
		case "completed":
			status = text.FgGreen.Sprint(r.Status)
		case "failed":
			status = text.FgRed.Sprint(r.Status)
			if r.Reason != "" {
				status += "\n" + text.FgHiBlack.Sprint(utils.TruncateString(r.Reason, 40))
			}
		}

		t.AppendRow(table.Row{
			r.ID,
			r.RoomID,
			utils.TruncateString(r.Filename, 32),
			utils.FormatSize(r.Filesize),
			shortID(r.FromPeer),
			shortID(r.ToPeer),
			status,
			r.CompletedAt.Local().Format(time.DateTime),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(rows)})
	t.Render()
}

// shortID keeps the first block of a connection id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
