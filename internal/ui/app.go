package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/maximbilan/esmify/internal/cache"
	"github.com/maximbilan/esmify/internal/clipboard"
	"github.com/maximbilan/esmify/internal/config"
	"github.com/maximbilan/esmify/internal/converter"
	"github.com/maximbilan/esmify/internal/display"
	"github.com/maximbilan/esmify/internal/files"
	"github.com/maximbilan/esmify/internal/ratelimit"
	"github.com/maximbilan/esmify/internal/session"
)

const (
	// maxEditableLines is the largest buffer mirrored into the textarea.
	// Bigger sources are converted from the buffer and shown read-only.
	maxEditableLines = 5000

	// unsafeRunes are rewritten by the textarea (tabs to spaces, CR to LF),
	// so text holding them is never mirrored into it.
	unsafeRunes = "\t\r"

	copiedFor = 2 * time.Second
)

type Mode int

const (
	ModeMain Mode = iota
	ModeHelp
	ModePrompt
)

type focus int

const (
	focusInput focus = iota
	focusOutput
)

type promptKind int

const (
	promptLoad promptKind = iota
	promptSave
)

type Model struct {
	mode   Mode
	focus  focus
	prompt promptKind

	// UI Components
	input     textarea.Model
	preview   viewport.Model // read-only view of sources too large to edit
	output    viewport.Model
	spinner   spinner.Model
	pathInput textinput.Model

	// State flags
	editable    bool
	showChanges bool
	notice      string
	copySeq     int

	// Services
	session  *session.Session
	client   session.Converter
	renderer *display.Renderer
	fs       afero.Fs
	copy     func(string) error
	paste    func() (string, error)
	config   *config.Config
	logger   *zap.Logger

	// Dimensions
	width  int
	height int
}

// Messages
type conversionDoneMsg struct {
	result string
	err    error
}

type copiedResetMsg struct {
	seq int
}

// NewModel wires a session around client. fs is used for loading and saving files.
func NewModel(cfg *config.Config, client session.Converter, fs afero.Fs, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	input := textarea.New()
	input.Placeholder = "Paste CommonJS code here, or press Ctrl+O to load a file..."
	input.CharLimit = 0
	input.MaxHeight = maxEditableLines
	input.ShowLineNumbers = true
	input.SetWidth(80)
	input.SetHeight(10)
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	pathInput := textinput.New()
	pathInput.CharLimit = 4096

	m := Model{
		mode:      ModeMain,
		focus:     focusInput,
		input:     input,
		preview:   viewport.New(80, 10),
		output:    viewport.New(80, 10),
		spinner:   sp,
		pathInput: pathInput,
		editable:  true,
		session:   session.New(client, cfg.HighlightThreshold, logger),
		client:    client,
		renderer:  display.NewRenderer(cfg.HighlightStyle),
		fs:        fs,
		copy:      clipboard.Copy,
		paste:     clipboard.Paste,
		config:    cfg,
		logger:    logger,
	}
	m.refreshOutput()
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// LoadFile loads path into the buffer before the program starts
func (m *Model) LoadFile(path string) error {
	if err := m.session.Load(m.fs, path); err != nil {
		return err
	}
	m.syncInput()
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshOutput()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeHelp:
			if msg.Type == tea.KeyEsc || msg.String() == "f1" || msg.String() == "q" {
				m.mode = ModeMain
			}
			return m, nil
		case ModePrompt:
			return m.handlePromptMode(msg)
		}
		return m.handleMainMode(msg)

	case conversionDoneMsg:
		m.session.Finish(msg.result, msg.err)
		m.showChanges = false
		m.refreshOutput()
		return m, nil

	case copiedResetMsg:
		if msg.seq == m.copySeq {
			m.session.ResetCopied()
		}
		return m, nil

	case spinner.TickMsg:
		if m.session.Status() != session.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.forward(msg)
}

func (m Model) handleMainMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "f1":
		m.mode = ModeHelp
		return m, nil
	case "ctrl+r":
		return m.startConversion()
	case "ctrl+o":
		if !m.session.CanSubmit() {
			return m, nil
		}
		return m.openPrompt(promptLoad, ""), textinput.Blink
	case "ctrl+w":
		if m.session.Output() == "" {
			return m, nil
		}
		return m.openPrompt(promptSave, m.config.OutputFile), textinput.Blink
	case "ctrl+y":
		return m.copyOutput()
	case "ctrl+v":
		// the textarea's own paste would skip fitsEditor
		text, err := m.paste()
		if err != nil {
			m.notice = fmt.Sprintf("Failed to paste: %v", err)
			return m, nil
		}
		return m.forward(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	case "ctrl+t":
		if m.session.Output() != "" && m.session.Display().Large() {
			m.session.Display().Toggle()
			m.refreshOutput()
		}
		return m, nil
	case "ctrl+d":
		if m.session.Output() != "" {
			m.showChanges = !m.showChanges
			m.refreshOutput()
		}
		return m, nil
	case "ctrl+l":
		if m.session.CanSubmit() {
			m.session.Clear()
			m.syncInput()
			m.notice = ""
		}
		return m, nil
	case "esc":
		m.session.Dismiss()
		m.notice = ""
		return m, nil
	case "tab":
		return m.toggleFocus()
	}

	return m.forward(msg)
}

// forward hands the message to the focused component. Edits go straight to the buffer.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusOutput {
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	if !m.editable {
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}
	if m.session.Status() == session.Loading {
		// input is disabled while a conversion is outstanding
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyRunes && !m.fitsEditor(string(keyMsg.Runes)) {
		return m.pasteRaw(string(keyMsg.Runes))
	}

	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.session.Write(after)
	}
	return m, cmd
}

// fitsEditor reports whether inserting text keeps the textarea an exact copy of the buffer
func (m Model) fitsEditor(text string) bool {
	if strings.ContainsAny(text, unsafeRunes) {
		return false
	}
	return m.session.Stats().Lines+strings.Count(text, "\n") <= maxEditableLines
}

// pasteRaw takes a paste the textarea cannot hold verbatim. Into an empty
// input it becomes the buffer as is; otherwise it is refused.
func (m Model) pasteRaw(text string) (tea.Model, tea.Cmd) {
	if m.session.Read() != "" {
		m.notice = "Paste refused: it holds tabs, carriage returns or too many lines to edit in place. Press Ctrl+L, then paste again."
		return m, nil
	}
	m.session.Write(text)
	m.syncInput()
	m.notice = "Pasted source is shown read-only so it is sent unchanged."
	return m, nil
}

func (m Model) toggleFocus() (tea.Model, tea.Cmd) {
	if m.focus == focusInput {
		m.focus = focusOutput
		m.input.Blur()
		return m, nil
	}
	m.focus = focusInput
	return m, m.input.Focus()
}

func (m Model) startConversion() (tea.Model, tea.Cmd) {
	if !m.session.CanSubmit() {
		return m, nil
	}
	source, err := m.session.Begin()
	if err != nil {
		return m, nil
	}
	m.notice = ""
	m.showChanges = false
	m.refreshOutput()

	client := m.client
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, err := client.Convert(context.Background(), source)
		return conversionDoneMsg{result: result, err: err}
	})
}

func (m Model) copyOutput() (tea.Model, tea.Cmd) {
	output := m.session.Output()
	if output == "" {
		return m, nil
	}
	if err := m.copy(output); err != nil {
		m.notice = fmt.Sprintf("Failed to copy: %v", err)
		m.logger.Warn("clipboard write failed", zap.Error(err))
		return m, nil
	}
	m.session.MarkCopied()
	m.copySeq++
	seq := m.copySeq
	return m, tea.Tick(copiedFor, func(time.Time) tea.Msg {
		return copiedResetMsg{seq: seq}
	})
}

func (m Model) openPrompt(kind promptKind, value string) Model {
	m.mode = ModePrompt
	m.prompt = kind
	if kind == promptLoad {
		m.pathInput.Prompt = "Load file: "
		m.pathInput.Placeholder = "path/to/file.js (" + strings.Join(files.SourceExts, ", ") + ")"
	} else {
		m.pathInput.Prompt = "Save as: "
		m.pathInput.Placeholder = config.DefaultOutputFile
	}
	m.pathInput.SetValue(value)
	m.pathInput.CursorEnd()
	m.pathInput.Focus()
	m.input.Blur()
	return m
}

func (m Model) handlePromptMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closePrompt()
	case "enter":
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			return m.closePrompt()
		}
		if m.prompt == promptLoad {
			if err := m.LoadFile(path); err != nil {
				m.notice = err.Error()
			} else {
				stats := m.session.Stats()
				m.notice = fmt.Sprintf("Loaded %s (%s lines)", m.session.Filename(), humanize.Comma(int64(stats.Lines)))
			}
		} else {
			saved, err := files.Save(m.fs, path, m.session.Output())
			if err != nil {
				m.notice = err.Error()
			} else {
				m.notice = "Saved " + saved
				m.logger.Info("output saved", zap.String("path", saved))
			}
		}
		return m.closePrompt()
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) closePrompt() (tea.Model, tea.Cmd) {
	m.mode = ModeMain
	m.pathInput.Blur()
	if m.focus == focusInput && m.editable {
		return m, m.input.Focus()
	}
	return m, nil
}

// syncInput mirrors the buffer into the input pane after a load or clear
func (m *Model) syncInput() {
	text := m.session.Read()
	m.editable = m.session.Stats().Lines <= maxEditableLines && !strings.ContainsAny(text, unsafeRunes)
	if m.editable {
		m.input.SetValue(text)
		m.preview.SetContent("")
		return
	}
	m.input.SetValue("")
	m.preview.SetContent(text)
	m.preview.GotoTop()
}

// refreshOutput renders the output pane once per state change, never per frame
func (m *Model) refreshOutput() {
	output := m.session.Output()
	switch {
	case m.session.Status() == session.Loading:
		m.output.SetContent("")
	case output == "":
		m.output.SetContent(placeholderStyle.Render("Ready to convert legacy code."))
	case m.showChanges:
		m.output.SetContent(renderChanges(m.session.Source(), output))
	default:
		m.output.SetContent(m.renderer.Render(m.session.Display().Mode(), output))
	}
	m.output.GotoTop()
}

func (m *Model) layout() {
	paneWidth, paneHeight := m.paneSize()
	m.input.SetWidth(paneWidth)
	m.input.SetHeight(paneHeight)
	m.preview.Width = paneWidth
	m.preview.Height = paneHeight
	m.output.Width = paneWidth
	m.output.Height = paneHeight
	m.pathInput.Width = max(20, m.width-20)
}

// sideBySide reports whether the panes fit next to each other
func (m Model) sideBySide() bool {
	return m.width >= 100
}

// paneSize returns the inner size of each pane. Fixed rows: header (2),
// pane titles and borders (3 per pane), footer (2).
func (m Model) paneSize() (int, int) {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.sideBySide() {
		return max(20, width/2-4), max(5, height-9)
	}
	return max(20, width-4), max(3, (height-12)/2)
}

// Run starts the terminal UI, optionally with initialFile already loaded
func Run(cfg *config.Config, logger *zap.Logger, initialFile string) error {
	client, err := NewClient(cfg, logger)
	if err != nil {
		return err
	}

	model := NewModel(cfg, client, afero.NewOsFs(), logger)
	if initialFile != "" {
		if err := model.LoadFile(initialFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", initialFile, err)
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// NewClient builds the conversion client with the cache and limiter the config asks for
func NewClient(cfg *config.Config, logger *zap.Logger) (*converter.Client, error) {
	opts := []converter.Option{
		converter.WithLogger(logger),
		converter.WithLimiter(ratelimit.FromConfig(cfg)),
	}
	if cfg.CacheEnabled {
		c, err := cache.New(cfg.CacheTTLDays)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		opts = append(opts, converter.WithCache(c))
	}
	return converter.New(cfg, opts...), nil
}
