// Package tui implements the terminal user interface using Bubble Tea.
// It walks the user through the sync flow: pick episodes to copy, pick
// device files to keep, apply the changes, then optionally unmount.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dbuxton/simple-podcast-sync/internal/config"
	"github.com/dbuxton/simple-podcast-sync/internal/device"
	"github.com/dbuxton/simple-podcast-sync/internal/library"
	"github.com/dbuxton/simple-podcast-sync/internal/theme"
	"github.com/dbuxton/simple-podcast-sync/internal/transcode"
	"github.com/dbuxton/simple-podcast-sync/internal/version"
)

// Screens. The flow only moves forward; there is no back navigation.
type screen int

const (
	screenEpisodes screen = iota
	screenDeviceFiles
	screenApplying
	screenUnmount
)

// Model is the main application state
type Model struct {
	cfg config.Config
	log *slog.Logger

	dev    *device.Manager
	engine *transcode.Engine

	episodes []*library.Episode
	files    []device.File
	selected []*library.Episode // batch snapshot taken when apply starts

	scr        screen
	epCursor   int
	fileCursor int

	spinner       spinner.Model
	applying      bool
	applyLog      []string
	copied        int
	skipped       int
	failed        int
	deleted       int
	failedDeletes int

	unmounting bool
	unmountErr error

	statusMsg      string
	finalMsg       string
	confirmingQuit bool

	width  int
	height int
}

// Messages
type episodeDoneMsg struct {
	index  int
	result transcode.Result
}

type pruneDoneMsg struct {
	deleted int
	errs    []error
}

type unmountDoneMsg struct {
	err error
}

type updateCheckMsg struct {
	info version.UpdateInfo
}

// ThemeChangedMsg is sent from outside the program when the terminal theme
// watcher detects a change; it only triggers a repaint.
type ThemeChangedMsg struct{}

// NewModel creates the initial model. The episode list has already been read
// from the catalog and the device confirmed present by the caller.
func NewModel(cfg config.Config, logger *slog.Logger, episodes []*library.Episode, dev *device.Manager, engine *transcode.Engine) Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.CurrentPalette.Accent))

	return Model{
		cfg:      cfg,
		log:      logger,
		dev:      dev,
		engine:   engine,
		episodes: episodes,
		spinner:  sp,
		scr:      screenEpisodes,
	}
}

// FinalMessage is the line printed after the program exits.
func (m Model) FinalMessage() string {
	return m.finalMsg
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		if m.applying || m.unmounting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case ThemeChangedMsg:
		// Styles are re-read on every render; nothing to update.

	case updateCheckMsg:
		if msg.info.Error != nil {
			m.statusMsg = fmt.Sprintf("Update check failed: %v", msg.info.Error)
		} else if msg.info.UpdateAvailable {
			m.statusMsg = fmt.Sprintf("Update available: v%s -> v%s (run: %s)",
				msg.info.CurrentVersion, msg.info.LatestVersion, version.InstallCommand())
		} else {
			m.statusMsg = fmt.Sprintf("You're on the latest version (v%s)", msg.info.CurrentVersion)
		}

	case episodeDoneMsg:
		m.recordResult(msg.result)
		if next := msg.index + 1; next < len(m.selected) {
			cmds = append(cmds, m.processCmd(next))
		} else {
			cmds = append(cmds, m.pruneCmd())
		}

	case pruneDoneMsg:
		m.deleted = msg.deleted
		m.failedDeletes = len(msg.errs)
		for _, err := range msg.errs {
			m.applyLog = append(m.applyLog, GetStyles().Error.Render(fmt.Sprintf("✗ %v", err)))
		}
		m.applyLog = append(m.applyLog, fmt.Sprintf("Copied %d, skipped %d, failed %d. Deleted %d old files.",
			m.copied, m.skipped, m.failed, m.deleted))
		m.log.Info("sync complete",
			"copied", m.copied, "skipped", m.skipped, "failed", m.failed,
			"deleted", m.deleted, "delete_failures", m.failedDeletes)
		m.applying = false
		m.scr = screenUnmount

	case unmountDoneMsg:
		m.unmounting = false
		if msg.err != nil {
			m.unmountErr = msg.err
			m.statusMsg = fmt.Sprintf("Unmount failed: %v", msg.err)
			return m, nil
		}
		m.finalMsg = "Device unmounted. Bye!"
		return m, tea.Quit
	}

	return m, tea.Batch(cmds...)
}

// handled returns a no-op command to signal the key was handled
func handled() tea.Cmd {
	return func() tea.Msg { return nil }
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global quit - always works
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// Quit confirmation modal
	if m.confirmingQuit {
		switch key {
		case "q", "y", "enter":
			return m, tea.Quit
		default:
			m.confirmingQuit = false
			return m, handled()
		}
	}

	// No input while the batch runs; it cannot be cancelled once started.
	if m.scr == screenApplying {
		return m, handled()
	}

	switch m.scr {
	case screenEpisodes:
		return m.handleEpisodesKey(key)
	case screenDeviceFiles:
		return m.handleDeviceFilesKey(key)
	case screenUnmount:
		return m.handleUnmountKey(key)
	}

	return m, handled()
}

func (m Model) handleEpisodesKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		m.confirmingQuit = true

	case "up", "k":
		if m.epCursor > 0 {
			m.epCursor--
		}

	case "down", "j":
		if m.epCursor < len(m.episodes)-1 {
			m.epCursor++
		}

	case " ", "space":
		ep := m.episodes[m.epCursor]
		ep.Selected = !ep.Selected
		m.log.Info("episode selection changed", "episode", ep.Title, "selected", ep.Selected)

	case "a":
		// Toggle all: select everything unless everything is selected.
		all := true
		for _, ep := range m.episodes {
			if !ep.Selected {
				all = false
				break
			}
		}
		for _, ep := range m.episodes {
			ep.Selected = !all
		}

	case "u":
		m.statusMsg = "Checking for updates..."
		return m, checkForUpdate()

	case "enter":
		// Scan happens on entry so the management screen is current.
		m.files = m.dev.Scan()
		m.fileCursor = 0
		m.statusMsg = ""
		m.scr = screenDeviceFiles
	}

	return m, handled()
}

func (m Model) handleDeviceFilesKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		m.confirmingQuit = true

	case "up", "k":
		if m.fileCursor > 0 {
			m.fileCursor--
		}

	case "down", "j":
		if m.fileCursor < len(m.files)-1 {
			m.fileCursor++
		}

	case " ", "space":
		if len(m.files) > 0 {
			f := &m.files[m.fileCursor]
			f.Keep = !f.Keep
			m.log.Info("device file keep changed", "name", f.Name, "keep", f.Keep)
		}

	case "r":
		m.files = m.dev.Scan()
		m.fileCursor = 0
		m.statusMsg = "Device rescanned"

	case "enter":
		return m.startApply()
	}

	return m, handled()
}

func (m Model) handleUnmountKey(key string) (tea.Model, tea.Cmd) {
	if m.unmounting {
		return m, handled()
	}

	switch key {
	case "u", "enter":
		m.unmounting = true
		m.statusMsg = "Unmounting..."
		return m, tea.Batch(m.spinner.Tick, m.unmountCmd())

	case "k", "esc", "q":
		m.finalMsg = "Sync complete. Device remains mounted."
		return m, tea.Quit
	}

	return m, handled()
}

// startApply snapshots the selection and kicks off the sequential batch:
// transcode/copy each selected episode, then prune unkept device files.
func (m Model) startApply() (tea.Model, tea.Cmd) {
	m.scr = screenApplying
	m.applying = true
	m.applyLog = nil
	m.copied, m.skipped, m.failed = 0, 0, 0
	m.deleted, m.failedDeletes = 0, 0

	m.selected = nil
	for _, ep := range m.episodes {
		if ep.Selected {
			m.selected = append(m.selected, ep)
		}
	}
	m.log.Info("applying changes", "selected", len(m.selected), "device_files", len(m.files))

	cmds := []tea.Cmd{m.spinner.Tick}
	if len(m.selected) == 0 {
		m.applyLog = append(m.applyLog, "No episodes selected to copy.")
		cmds = append(cmds, m.pruneCmd())
	} else {
		cmds = append(cmds, m.processCmd(0))
	}
	return m, tea.Batch(cmds...)
}

// processCmd runs the engine for one episode. The next episode is only
// started once this one's message arrives, keeping the batch sequential.
func (m Model) processCmd(index int) tea.Cmd {
	ep := m.selected[index]
	engine := m.engine
	destDir := m.dev.PodcastDir()
	return func() tea.Msg {
		res := engine.Process(context.Background(), ep, destDir)
		return episodeDoneMsg{index: index, result: res}
	}
}

func (m Model) pruneCmd() tea.Cmd {
	dev := m.dev
	files := m.files
	return func() tea.Msg {
		deleted, errs := dev.Prune(files)
		return pruneDoneMsg{deleted: deleted, errs: errs}
	}
}

func (m Model) unmountCmd() tea.Cmd {
	dev := m.dev
	return func() tea.Msg {
		return unmountDoneMsg{err: dev.Unmount(context.Background())}
	}
}

func checkForUpdate() tea.Cmd {
	return func() tea.Msg {
		return updateCheckMsg{info: version.CheckForUpdate()}
	}
}

func (m *Model) recordResult(res transcode.Result) {
	styles := GetStyles()
	title := TruncateString(res.Episode.Title, 60)

	switch res.Status {
	case transcode.StatusCopied:
		m.copied++
		m.applyLog = append(m.applyLog, styles.Success.Render("✓ Copied: "+title))
	case transcode.StatusSkipped:
		m.skipped++
		m.applyLog = append(m.applyLog, styles.Muted.Render("- Already on device: "+title))
	default:
		m.failed++
		m.applyLog = append(m.applyLog, styles.Error.Render(fmt.Sprintf("✗ %s: %v", title, res.Err)))
	}
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	contentHeight := m.height - 10
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch m.scr {
	case screenEpisodes:
		b.WriteString(m.renderEpisodes(contentHeight))
	case screenDeviceFiles:
		b.WriteString(m.renderDeviceFiles(contentHeight))
	case screenApplying:
		b.WriteString(m.renderApplying(contentHeight))
	case screenUnmount:
		b.WriteString(m.renderUnmount())
	}

	base := b.String()

	if m.confirmingQuit {
		return m.overlayCentered(base, m.renderQuitModal())
	}
	return base
}

func (m Model) renderHeader() string {
	styles := GetStyles()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styles.Header.Render("PODCAST SYNC"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(fmt.Sprintf("  2x speed, pitch preserved | v%s | [u]check update", version.Version)))
	b.WriteString("\n\n")
	return b.String()
}

func (m Model) renderStatusBar() string {
	styles := GetStyles()

	devLabel := styles.Success.Render(m.dev.Root())
	if !m.dev.Connected() {
		devLabel = styles.Error.Render(m.dev.Root() + " (disconnected)")
	}

	parts := []string{
		"Device: " + devLabel,
		fmt.Sprintf("Episodes: %d", len(m.episodes)),
	}
	if m.scr >= screenDeviceFiles {
		parts = append(parts, fmt.Sprintf("On device: %d", len(m.files)))
	}
	line := styles.StatusBar.Render(strings.Join(parts, "  |  "))

	if m.statusMsg != "" {
		line += "\n" + styles.Muted.Render("  "+m.statusMsg)
	}
	return line
}

func (m Model) renderEpisodes(height int) string {
	styles := GetStyles()
	var b strings.Builder

	b.WriteString(styles.PanelTitle.Render("Select podcasts to copy to device"))
	b.WriteString("  ")
	b.WriteString(styles.Muted.Render("[space]Toggle  [a]All  [enter]Continue  [q]Quit"))
	b.WriteString("\n\n")

	nameWidth := m.listNameWidth(14)
	start, end := listWindow(m.epCursor, len(m.episodes), height-3)

	for i := start; i < end; i++ {
		ep := m.episodes[i]

		check := "[ ]"
		checkStyled := styles.Muted.Render(check)
		if ep.Selected {
			check = "[x]"
			checkStyled = styles.Checked.Render(check)
		}

		label := TruncateString(fmt.Sprintf("%s - %s", ep.Title, ep.Podcast), nameWidth)
		date := ep.Added.Format("2006-01-02")

		row := fmt.Sprintf("%s %s %s", checkStyled, PadRight(label, nameWidth), styles.Muted.Render(date))
		if i == m.epCursor {
			b.WriteString(styles.ListSelected.Render("> ") + row)
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderDeviceFiles(height int) string {
	styles := GetStyles()
	var b strings.Builder

	b.WriteString(styles.PanelTitle.Render("Manage files on device"))
	b.WriteString("  ")
	b.WriteString(styles.Muted.Render("[space]Keep (default is remove)  [r]Rescan  [enter]Apply  [q]Quit"))
	b.WriteString("\n\n")

	if len(m.files) == 0 {
		b.WriteString(styles.Muted.Render("No audio files on the device."))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpDesc.Render("Press enter to copy the selected episodes."))
		return b.String()
	}

	nameWidth := m.listNameWidth(16)
	start, end := listWindow(m.fileCursor, len(m.files), height-3)

	for i := start; i < end; i++ {
		f := m.files[i]

		check := styles.Error.Render("[del]")
		if f.Keep {
			check = styles.Checked.Render("[keep]")
		} else {
			check += " "
		}

		row := fmt.Sprintf("%s %s %s", check,
			PadRight(TruncateString(f.Name, nameWidth), nameWidth),
			styles.Muted.Render(PadLeft(formatMB(f.SizeMB()), 10)))
		if i == m.fileCursor {
			b.WriteString(styles.ListSelected.Render("> ") + row)
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderApplying(height int) string {
	styles := GetStyles()
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(styles.Title.Render(" Applying changes..."))
	b.WriteString("\n\n")

	// Show the most recent lines that fit.
	lines := m.applyLog
	if max := height - 3; len(lines) > max && max > 0 {
		lines = lines[len(lines)-max:]
	}
	for _, line := range lines {
		b.WriteString("  " + line + "\n")
	}

	return b.String()
}

func (m Model) renderUnmount() string {
	styles := GetStyles()
	var b strings.Builder

	b.WriteString(styles.PanelTitle.Render("Sync complete"))
	b.WriteString("\n\n")
	for _, line := range m.applyLog {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	if m.unmounting {
		b.WriteString(m.spinner.View() + " Unmounting device...")
		return b.String()
	}
	if m.unmountErr != nil {
		b.WriteString(styles.Error.Render(fmt.Sprintf("  Unmount failed: %v", m.unmountErr)))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.HelpDesc.Render("  [u] Unmount the device"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("  [k] Keep mounted and exit"))
	return b.String()
}

func (m Model) renderQuitModal() string {
	styles := GetStyles()

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.CurrentPalette.Accent)).
		Background(lipgloss.Color(theme.CurrentPalette.BG)).
		Padding(1, 3)

	content := styles.Title.Render("Quit without syncing?") + "\n\n" +
		styles.Muted.Render("Press ") + styles.HelpKey.Render("q") + styles.Muted.Render(" or ") +
		styles.HelpKey.Render("enter") + styles.Muted.Render(" to quit, any other key to cancel")

	return modalStyle.Render(content)
}

// overlayCentered replaces the view with a centered modal. Terminals do not
// support true overlays, so the base content is dropped while the modal shows.
func (m Model) overlayCentered(_, modal string) string {
	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

// listNameWidth computes the width left for the name column.
func (m Model) listNameWidth(reserved int) int {
	w := m.width - reserved - 6
	if w < 20 {
		w = 20
	}
	return w
}

// listWindow returns the visible [start, end) slice bounds keeping the
// cursor in view.
func listWindow(cursor, total, visible int) (int, int) {
	if visible < 1 {
		visible = 1
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > total {
		end = total
	}
	return start, end
}
