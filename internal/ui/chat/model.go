// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/state"
	"github.com/abdulsamad/polychat/internal/threads"
	"github.com/abdulsamad/polychat/internal/ui/components"
	"github.com/abdulsamad/polychat/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Responder produces assistant replies for prompts.
type Responder interface {
	Submit(ctx context.Context, prompt string) (model.Message, error)
	Dictate(ctx context.Context) (model.Message, error)
	StopListening()
	Cancel()
	Busy() bool
}

// ThreadService manages saved threads.
type ThreadService interface {
	List(ctx context.Context) ([]threads.Entry, error)
	Select(ctx context.Context, id string) error
	NewChat(ctx context.Context) model.Thread
	Delete(ctx context.Context, id string, confirm threads.ConfirmFunc) (bool, error)
}

// Deps wires the model to the rest of the application.
type Deps struct {
	State     *state.State
	Responder Responder
	Threads   ThreadService
	Toasts    *components.ToastManager
	Theme     *styles.Theme
	Logger    logrus.FieldLogger

	// VoiceInput enables the voice key; the responder must have a
	// recognizer.
	VoiceInput bool
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// viewMode selects which screen is shown.
type viewMode int

const (
	modeChat viewMode = iota
	modeThreads
)

// Layout heights. renderChat measures the real heights and these must
// stay in sync with it.
const (
	headerHeight    = 1
	inputHeight     = 3
	inputAreaHeight = inputHeight + 1 // top border
	statusBarHeight = 1
)

// Model is the Bubble Tea model for the whole TUI.
type Model struct {
	ctx       context.Context
	state     *state.State
	responder Responder
	threads   ThreadService
	toasts    *components.ToastManager
	log       logrus.FieldLogger

	// Styling
	theme    *styles.Theme
	keys     KeyMap
	listKeys ListKeyMap

	// Dimensions
	width  int
	height int

	mode   viewMode
	events <-chan state.Event
	snap   state.Snapshot

	// UI Components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model
	renderer *components.MessageRenderer
	list     components.ThreadList

	// Delete confirmation
	confirm       *components.ConfirmDialog
	pendingDelete string

	voiceInput bool
	listening  bool

	showHelp bool
	spinning bool
	ticking  bool
}

// New creates the model and subscribes to state events until ctx ends.
func New(ctx context.Context, deps Deps) Model {
	theme := deps.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}
	toasts := deps.Toasts
	if toasts == nil {
		toasts = components.NewToastManager()
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Ask anything... (Alt+Enter for a new line)"
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.NewLine
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Loading

	vp := viewport.New(80, 20)

	m := Model{
		ctx:       ctx,
		state:     deps.State,
		responder: deps.Responder,
		threads:   deps.Threads,
		toasts:    toasts,
		log:       log.WithField("component", "tui"),
		theme:     theme,
		keys:      keys,
		listKeys:  DefaultListKeyMap(),
		events:    deps.State.Subscribe(ctx),
		viewport:  vp,
		input:     ta,
		spinner:   sp,
		help:      help.New(),
		renderer:  components.NewMessageRenderer(theme, 80),
		list:      components.NewThreadList(),

		voiceInput: deps.VoiceInput,
	}
	m.snap = m.state.Snapshot()
	m.refreshViewport()
	return m
}

// Init starts listening for state events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.events))
}

// =============================================================================
// ACCESSORS
// =============================================================================

// InThreadList reports whether the thread list is shown.
func (m Model) InThreadList() bool {
	return m.mode == modeThreads
}

// Confirming reports whether the delete confirmation is open.
func (m Model) Confirming() bool {
	return m.confirm != nil
}

// InputValue returns the current prompt text.
func (m Model) InputValue() string {
	return m.input.Value()
}

// =============================================================================
// VIEWPORT
// =============================================================================

// refreshViewport re-renders the transcript, following the bottom when
// the user had not scrolled away.
func (m *Model) refreshViewport() {
	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0

	content := m.renderer.RenderAll(m.snap.Messages)
	if m.snap.Loading {
		if content != "" {
			content += "\n\n"
		}
		content += m.spinner.View() + m.theme.Loading.Render(" thinking...")
	}
	if content == "" {
		content = m.theme.Muted.Render("Start the conversation by typing below.")
	}
	m.viewport.SetContent(content)

	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) layout() {
	vpHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if m.showHelp {
		vpHeight -= len(m.keys.FullHelp()[0])
	}
	if vpHeight < 1 {
		vpHeight = 1
	}
	width := m.width
	if width < 1 {
		width = 1
	}

	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.SetWidth(width)
	m.help.Width = width
	m.renderer.SetWidth(width - 2)
	m.list.SetSize(width, m.height-statusBarHeight)
	m.theme.SetSize(m.width, m.height)
}
