package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BioHazard786/roomdrop/internal/utils"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TransferMode tells the progress view which direction data flows.
type TransferMode int

const (
	ModeSend TransferMode = iota
	ModeReceive
)

type progressMsg struct{ current int64 }

type finishMsg struct{ err error }

// TransferUI shows live progress of a single transfer.
type TransferUI struct {
	program *tea.Program
	model   *transferModel
	once    sync.Once
	wg      sync.WaitGroup
}

type transferModel struct {
	mode      TransferMode
	name      string
	size      int64
	current   int64
	startTime time.Time
	bar       progress.Model
	spinner   spinner.Model
	done      bool
	err       error
	cancelled bool

	// onCancel is called once if the user presses q or ctrl+c.
	onCancel func()
}

// NewTransferUI creates a progress view for name. onCancel may be nil.
func NewTransferUI(mode TransferMode, name string, size int64, onCancel func()) *TransferUI {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	model := &transferModel{
		mode: mode,
		name: name,
		size: size,
		bar: progress.New(
			progress.WithGradient(ProgressStart, ProgressEnd),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		spinner:   s,
		startTime: time.Now(),
		onCancel:  onCancel,
	}
	return &TransferUI{model: model}
}

// Start runs the view in its own goroutine. The view renders inline so
// earlier terminal output stays visible.
func (u *TransferUI) Start() {
	u.program = tea.NewProgram(u.model)
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		if _, err := u.program.Run(); err != nil {
			fmt.Printf("UI error: %v\n", err)
		}
	}()
}

// Update reports the bytes transferred so far.
func (u *TransferUI) Update(current int64) {
	if u.program != nil {
		u.program.Send(progressMsg{current: current})
	}
}

// Finish renders the final state and waits for the view to exit.
func (u *TransferUI) Finish(err error) {
	u.once.Do(func() {
		if u.program != nil {
			u.program.Send(finishMsg{err: err})
		}
		u.wg.Wait()
	})
}

func (m *transferModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *transferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancelled = true
			if m.onCancel != nil {
				m.onCancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(30, msg.Width-60))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.current = msg.current

	case finishMsg:
		m.done = true
		m.err = msg.err
		if msg.err == nil {
			m.current = m.size
		}
		return m, tea.Quit

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m *transferModel) percent() float64 {
	if m.size <= 0 {
		if m.done {
			return 1
		}
		return 0
	}
	return min(1, float64(m.current)/float64(m.size))
}

func (m *transferModel) View() string {
	var b strings.Builder

	icon, verb := IconSend, "Sending"
	if m.mode == ModeReceive {
		icon, verb = IconReceive, "Receiving"
	}

	var status string
	switch {
	case m.cancelled:
		status = WarningStyle.Render(IconWarning)
	case m.err != nil:
		status = ErrorStyle.Render(IconError)
	case m.done:
		status = SuccessStyle.Render(IconSuccess)
	default:
		status = m.spinner.View()
	}

	fmt.Fprintf(&b, "\n%s %s %s\n\n", icon, verb, BoldStyle.Render(utils.TruncateString(m.name, 40)))
	fmt.Fprintf(&b, "  %s %s %5.1f%%", status, m.bar.ViewAs(m.percent()), m.percent()*100)
	fmt.Fprintf(&b, "  %s / %s", utils.FormatSize(m.current), utils.FormatSize(m.size))

	if elapsed := time.Since(m.startTime).Seconds(); elapsed > 0 && m.current > 0 {
		b.WriteString(MutedStyle.Render("  " + utils.FormatSpeed(float64(m.current)/elapsed)))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString("\n" + ErrorStyle.Render(m.err.Error()) + "\n")
	case !m.done && !m.cancelled:
		b.WriteString("\n" + MutedStyle.Render("Press q to cancel") + "\n")
	}
	return b.String()
}
