package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRenderLedger(t *testing.T) {
	var buf bytes.Buffer
	RenderLedger(&buf, []LedgerRow{
		{
			ID:          1,
			RoomID:      "happy-tiger-jazz",
			FromPeer:    "0f8e2c1a-aaaa-bbbb-cccc-000000000000",
			ToPeer:      "7b6d5e4f-aaaa-bbbb-cccc-000000000000",
			Filename:    "photo.jpg",
			Filesize:    2048,
			Status:      "completed",
			CompletedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:       2,
			RoomID:   "happy-tiger-jazz",
			Filename: "broken.iso",
			Status:   "failed",
			Reason:   "channel closed",
		},
	})

	out := buf.String()
	for _, want := range []string{"happy-tiger-jazz", "photo.jpg", "2.00 KB", "0f8e2c1a", "channel closed", "broken.iso"} {
		if !strings.Contains(out, want) {
			t.Fatalf("ledger output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0f8e2c1a-aaaa") {
		t.Fatal("peer ids should be shortened")
	}
}

func TestRoomInfoView(t *testing.T) {
	view := RoomInfo{RoomID: "sleepy-ramen-comet", ServerURL: "wss://drop.example/ws"}.View()
	if !strings.Contains(view, "sleepy-ramen-comet") || !strings.Contains(view, "--server wss://drop.example/ws") {
		t.Fatalf("view = %s", view)
	}
}
