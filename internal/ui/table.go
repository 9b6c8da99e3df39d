package ui

import (
	"fmt"

	"github.com/BioHazard786/roomdrop/internal/utils"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// FileTableItem is one row of the file table.
type FileTableItem struct {
	Name string
	Size int64
	Type string
}

func styledTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		}).
		Render()
}

// FileTableView renders the files about to be sent.
func FileTableView(items []FileTableItem) string {
	if len(items) == 0 {
		return MutedStyle.Render("No files")
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			utils.TruncateString(item.Name, 50),
			utils.FormatSize(item.Size),
			utils.TruncateString(item.Type, 24),
		})
	}
	return styledTable([]string{"Name", "Size", "Type"}, rows)
}

func RenderFileTable(items []FileTableItem) {
	fmt.Println(FileTableView(items))
}

// TransferSummary is shown once a transfer ends.
type TransferSummary struct {
	Status   string
	File     string
	Size     string
	Duration string
	Speed    string
	SavedTo  string
}

func TransferSummaryView(summary TransferSummary) string {
	rows := [][]string{
		{"Status", summary.Status},
		{"File", summary.File},
		{"Size", summary.Size},
		{"Duration", summary.Duration},
		{"Avg Speed", summary.Speed},
	}
	if summary.SavedTo != "" {
		rows = append(rows, []string{"Saved To", summary.SavedTo})
	}
	return styledTable([]string{"Metric", "Value"}, rows)
}

func RenderTransferSummary(summary TransferSummary) {
	fmt.Println(TransferSummaryView(summary))
}

// RoomInfo tells the sender how the receiver can join.
type RoomInfo struct {
	RoomID    string
	ServerURL string
}

func (r RoomInfo) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Success).
		Padding(1, 2)

	command := fmt.Sprintf("roomdrop receive %s", r.RoomID)
	if r.ServerURL != "" {
		command += fmt.Sprintf(" --server %s", r.ServerURL)
	}

	content := fmt.Sprintf("%s Room Ready!\n\n%s Room ID:  %s\n%s Receive:  %s",
		IconRoom,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconTerminal, MutedStyle.Render(command),
	)
	return boxStyle.Render(content)
}

func RenderRoomInfo(info RoomInfo) {
	fmt.Println(info.View())
}
