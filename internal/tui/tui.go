// Package tui implements the live dashboard behind `foldwatch watch`: a
// thin external consumer of the monitor's event surface that renders
// FileChanged/Checkpoint events as they arrive. It never computes a
// diff or a hunk itself — it only ever displays the Change/Checkpoint
// records it's handed.
//
// Because a session lives only as long as the process that created it
// (nothing is persisted across restarts), the full create/start/pause/
// resume/checkpoint/revert/stop lifecycle has nowhere to be driven
// from except this one long-running command — there is no separate
// `stop` process that could reach a watch another process started.
// Each lifecycle step is bound to a key instead of a standalone
// subcommand.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foldwatch/foldwatch/internal/monitor"
	"github.com/foldwatch/foldwatch/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	confirmBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("52")).
			Foreground(lipgloss.Color("231")).
			Bold(true).
			Padding(0, 1)

	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	timeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	kindCreatedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	kindModifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	kindDeletedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	kindRenamedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	checkpointStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	noticeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
)

// eventMsg wraps a monitor.Event as it crosses from the session's
// subscriber callback (running on the monitor's loop goroutine) into
// bubbletea's own event loop via Program.Send.
type eventMsg struct{ ev monitor.Event }

// Model is the root bubbletea model for the live dashboard.
type Model struct {
	sess     *session.Session
	viewport viewport.Model
	lines    []string
	width    int
	height   int
	ready    bool
	quitting bool

	// confirmingStop is set once 'q' is pressed against a log that
	// isn't empty, pending the operator's y/n answer before Stop is
	// actually called.
	confirmingStop bool
}

func newModel(sess *session.Session) Model {
	return Model{sess: sess}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.lines = append(m.lines, renderEvent(msg.ev))
		if m.ready {
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
			m.viewport.GotoBottom()
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirmingStop {
			return m.updateConfirmingStop(msg)
		}
		return m.updateNormal(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 3
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
		return m, nil
	}
	return m, nil
}

func (m Model) updateConfirmingStop(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		// The operator already confirmed through this prompt, so the
		// decision function Session.Stop calls back into just reports
		// that outcome rather than asking again.
		if err := m.sess.Stop(session.StopOpts{Confirm: func() bool { return true }}); err != nil {
			m.lines = append(m.lines, noticeStyle.Render("  stop failed: "+err.Error()))
		}
		m.quitting = true
		m.confirmingStop = false
		return m, tea.Quit
	default:
		m.confirmingStop = false
		m.lines = append(m.lines, noticeStyle.Render("  stop cancelled"))
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
		return m, nil
	}
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if len(m.sess.GetChanges()) == 0 {
			if err := m.sess.Stop(session.StopOpts{}); err != nil {
				m.lines = append(m.lines, noticeStyle.Render("  stop failed: "+err.Error()))
				m.viewport.SetContent(strings.Join(m.lines, "\n"))
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		}
		m.confirmingStop = true
		return m, nil

	case "c":
		if m.sess.State() != session.StateWatching {
			m.note("checkpoint: not watching")
			return m, nil
		}
		m.sess.CreateCheckpoint("", nil) // the Checkpoint event itself drives the visible line, via eventMsg
		return m, nil

	case "p":
		if m.sess.State() != session.StateWatching {
			m.note("pause: not watching")
			return m, nil
		}
		if err := m.sess.Pause(nil); err != nil {
			m.note("pause failed: " + err.Error())
		}
		return m, nil

	case "r":
		if m.sess.State() != session.StateIdle {
			m.note("resume: not paused")
			return m, nil
		}
		if _, err := m.sess.Resume(session.StartOpts{}); err != nil {
			m.note("resume failed: " + err.Error())
		}
		return m, nil

	case "u":
		return m.revert(func() *monitor.RevertResult {
			checkpoints := m.sess.GetCheckpoints()
			if len(checkpoints) < 2 {
				return nil
			}
			return m.sess.RevertToCheckpoint(len(checkpoints) - 1)
		}, "nothing to undo — fewer than two checkpoints"), nil

	case "o":
		return m.revert(m.sess.RevertToOriginal, "nothing to revert — log is empty"), nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) note(text string) {
	m.lines = append(m.lines, noticeStyle.Render("  "+text))
	if m.ready {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
	}
}

// revert runs a revert action and appends a summary line. action
// returning nil (no-op, e.g. reverting to the final checkpoint) prints
// noop instead of a result.
func (m Model) revert(action func() *monitor.RevertResult, noop string) tea.Model {
	result := action()
	if result == nil {
		m.note(noop)
		return m
	}
	m.note(fmt.Sprintf("reverted %d change(s), %d error(s)", result.RevertedCount, result.ErrorCount))
	return m
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}
	title := titleStyle.Width(m.width).Render("  foldwatch  " + m.sess.Root())

	var bottom string
	if m.confirmingStop {
		bottom = confirmBarStyle.Width(m.width).Render("  stop and discard the unflushed log? [y/N]")
	} else {
		stats := m.sess.GetStats()
		state := "watching"
		if m.sess.State() == session.StateIdle {
			state = "paused"
		}
		hint := fmt.Sprintf("  [%s]  q stop  c checkpoint  p pause  r resume  u undo  o revert-all   created=%d modified=%d deleted=%d renamed=%d",
			state, stats.CountByKind[monitor.Created], stats.CountByKind[monitor.Modified],
			stats.CountByKind[monitor.Deleted], stats.CountByKind[monitor.Renamed])
		bottom = statusBarStyle.Width(m.width).Render(hint)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), bottom)
}

func renderEvent(ev monitor.Event) string {
	switch ev.Type {
	case monitor.EventFileChanged:
		c := ev.Change
		ts := timeStyle.Render(fmt.Sprintf("%12d", c.Timestamp))
		var badge string
		switch c.Kind {
		case monitor.Created:
			badge = kindCreatedStyle.Render(" created ")
		case monitor.Modified:
			badge = kindModifiedStyle.Render(" modified")
		case monitor.Deleted:
			badge = kindDeletedStyle.Render(" deleted ")
		case monitor.Renamed:
			badge = kindRenamedStyle.Render(" renamed ")
		}
		return fmt.Sprintf("  %s  %s  %s", ts, badge, c.Path)
	case monitor.EventCheckpoint:
		label := ev.Checkpoint.Label
		if label == "" {
			label = fmt.Sprintf("checkpoint #%d", ev.Checkpoint.ChangeCount)
		}
		return checkpointStyle.Render(fmt.Sprintf("  ── %s ──", label))
	case monitor.EventStarted:
		return dimStyle.Render("  watch started at " + ev.Root)
	case monitor.EventStopped:
		return dimStyle.Render("  watch stopped")
	}
	return ""
}

// Run starts the dashboard for sess, which must already have an active
// watch. It blocks until the operator quits. Quitting always goes
// through Session.Stop — confirmed on the spot by this model when the
// log isn't empty — so Destroy is only ever reached already-terminal,
// making this call a no-op safety net rather than the real teardown
// path.
func Run(sess *session.Session) error {
	m := newModel(sess)
	p := tea.NewProgram(m, tea.WithAltScreen())

	unsubscribe := sess.Subscribe(func(ev monitor.Event) {
		p.Send(eventMsg{ev: ev})
	})
	defer unsubscribe()

	_, err := p.Run()
	sess.Destroy(nil)
	return err
}
