// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The "chat" command: a line-based chat REPL.
//
// Command: chat
// Short:   Chat in the terminal without the full-screen interface
//
// Examples:
//   polychat chat                       Continue the most recent thread
//   polychat --model gpt-4o chat        Switch the thread to gpt-4o first
//
// Interactive Commands (during chat):
//   /help, /h              Show available commands
//   /new, /n               Start a new thread
//   /threads [n|id]        List threads, or switch to one
//   /model [name]          Show or switch model
//   /variation [code]      Show or switch variation
//   /context [on|off]      Toggle sending earlier messages
//   /tts [on|off]          Toggle reading replies aloud
//   /rename <name>         Rename the thread
//   /delete [n|id]         Delete a thread (default: this one)
//   /history               Show the thread so far
//   /voice                 Speak a prompt (needs ui.listen_command)
//   /quit, /q              Exit chat
//   Ctrl+C                 Stop listening or the reply being written
//   Ctrl+D                 Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/abdulsamad/polychat/internal/chat"
	"github.com/abdulsamad/polychat/internal/config"
	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/threads"
	"github.com/abdulsamad/polychat/internal/ui/styles"
	"github.com/abdulsamad/polychat/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Confirm asks a yes/no question without adding it to history.
func (c *ChatCLI) Confirm(question string) bool {
	answer, err := c.line.Prompt(question + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession is the state of one REPL run.
type ChatSession struct {
	app     *App
	out     io.Writer
	confirm func(question string) bool

	// listed is the last /threads output, for selecting by number.
	listed []threads.Entry
	sent   int
}

// NewChatSession creates a session writing to app.Out. confirm answers
// /delete prompts.
func NewChatSession(app *App, confirm func(question string) bool) *ChatSession {
	if confirm == nil {
		confirm = func(string) bool { return false }
	}
	return &ChatSession{app: app, out: app.Out, confirm: confirm}
}

// HandleChat runs the REPL until /quit, Ctrl+D or Ctrl+C at the prompt.
func HandleChat(ctx context.Context, app *App, args Args) error {
	if !stdinIsTTY() {
		return &TTYRequiredError{Operation: "chat", Hint: "use `polychat ask` with piped input"}
	}
	if err := app.ApplySettings(args.Model, args.Variation); err != nil {
		return err
	}

	input := NewChatCLI()
	defer input.Close()

	session := NewChatSession(app, input.Confirm)
	if !args.Quiet {
		session.printWelcome()
	}

	// Ctrl+C while listening or streaming stops that; at the prompt liner
	// handles it and the loop exits.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			app.Responder.StopListening()
			if app.Responder.Busy() {
				app.Responder.Cancel()
			}
		}
	}()

	for {
		line, err := input.ReadInput("polychat> ")
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) or io.EOF (Ctrl+D)
			fmt.Fprintln(session.out)
			session.printGoodbye()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			keepGoing, err := session.HandleSlash(ctx, line)
			if err != nil {
				DisplayError(app.Err, err, false)
			}
			if !keepGoing {
				session.printGoodbye()
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			session.printGoodbye()
			return nil
		}

		if err := session.Send(ctx, line); err != nil {
			DisplayError(app.Err, err, false)
		}
	}
}

// Send submits prompt to the active thread and streams the reply.
func (s *ChatSession) Send(ctx context.Context, prompt string) error {
	fmt.Fprintln(s.out)
	_, err := respond(ctx, s.app, s.out, prompt, false)
	fmt.Fprintln(s.out)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(s.out, warningStyle.Render("[Cancelled]"))
		return nil
	}
	if err != nil {
		return reported(err)
	}
	s.sent++
	return nil
}

// Voice takes the prompt from the configured listen command and streams
// the reply.
func (s *ChatSession) Voice(ctx context.Context) error {
	if !s.app.VoiceInput {
		return &ValidationError{
			Field:   "voice",
			Reason:  "no listen command configured",
			Example: `polychat config set ui.listen_command "whisper-listen --lang {lang}"`,
		}
	}

	fmt.Fprintln(s.out, infoStyle.Render("[Listening... Ctrl+C to stop]"))
	_, err := dictate(ctx, s.app, s.out)
	switch {
	case errors.Is(err, chat.ErrListenStopped):
		fmt.Fprintln(s.out, warningStyle.Render("[Stopped listening]"))
		return nil
	case errors.Is(err, chat.ErrNoSpeech):
		fmt.Fprintln(s.out, warningStyle.Render("[Nothing heard]"))
		return nil
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(s.out, warningStyle.Render("[Cancelled]"))
		return nil
	case err != nil:
		return reported(err)
	}
	s.sent++
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// HandleSlash runs one slash command. It returns false when the session
// should end.
func (s *ChatSession) HandleSlash(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true, nil
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		s.printHelp()
		return true, nil
	case "/quit", "/q", "/exit":
		return false, nil
	case "/new", "/n":
		s.app.Threads.NewChat(ctx)
		fmt.Fprintln(s.out, commandStyle.Render("[New thread]"))
		return true, nil
	case "/threads", "/t":
		if len(args) == 0 {
			return true, s.listThreads(ctx)
		}
		return true, s.selectThread(ctx, args[0])
	case "/model", "/m":
		return true, s.setModel(args)
	case "/variation", "/v":
		return true, s.setVariation(args)
	case "/context":
		return true, s.toggle(args, "Context aware", func(st *model.Settings) *bool { return &st.IsContextAware })
	case "/tts", "/speech":
		return true, s.toggle(args, "Speech", func(st *model.Settings) *bool { return &st.IsTextToSpeechEnabled })
	case "/rename":
		return true, s.rename(ctx, strings.Join(args, " "))
	case "/delete":
		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}
		return true, s.deleteThread(ctx, ref)
	case "/history":
		printTranscript(s.out, s.app.State.Messages())
		return true, nil
	case "/voice", "/listen":
		return true, s.Voice(ctx)
	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

func (s *ChatSession) listThreads(ctx context.Context) error {
	entries, err := s.app.Threads.List(ctx)
	if err != nil {
		return err
	}
	s.listed = entries
	if len(entries) == 0 {
		fmt.Fprintln(s.out, infoStyle.Render("No saved threads yet."))
		return nil
	}
	at := now()
	for i, e := range entries {
		marker := " "
		if e.Active {
			marker = activeColor.Sprint("*")
		}
		fmt.Fprintf(s.out, "%s %2d  %s  %s  %s\n",
			marker, i+1,
			idColor.Sprint(shortID(e.Thread.ID)),
			threadTitle(e.Thread),
			mutedColor.Sprintf("%d msgs, %s", e.Messages, util.RelativeTime(e.Thread.Time(), at)))
	}
	fmt.Fprintln(s.out, infoStyle.Render("Switch with /threads <number>"))
	return nil
}

// lookup resolves a list number from the last /threads or an id prefix.
func (s *ChatSession) lookup(ctx context.Context, ref string) (threads.Entry, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(s.listed) {
			return threads.Entry{}, &ValidationError{Field: "thread number", Value: ref, Reason: "run /threads to see the list"}
		}
		return s.listed[n-1], nil
	}
	return resolveThread(ctx, s.app, ref)
}

func (s *ChatSession) selectThread(ctx context.Context, ref string) error {
	entry, err := s.lookup(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.app.Threads.Select(ctx, entry.Thread.ID); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s %s (%d messages)\n",
		commandStyle.Render("[Switched]"), threadTitle(entry.Thread), entry.Messages)
	return nil
}

func (s *ChatSession) deleteThread(ctx context.Context, ref string) error {
	var entry threads.Entry
	if ref == "" {
		t, ok := s.app.State.Thread()
		if !ok {
			return errors.New("no active thread")
		}
		entry = threads.Entry{Thread: t, Messages: len(s.app.State.Messages()), Active: true}
	} else {
		var err error
		if entry, err = s.lookup(ctx, ref); err != nil {
			return err
		}
	}

	deleted, err := s.app.Threads.Delete(ctx, entry.Thread.ID, func(t model.Thread) bool {
		return s.confirm(fmt.Sprintf("Delete %q and its %d messages?", threadTitle(t), entry.Messages))
	})
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(s.out, infoStyle.Render("Cancelled."))
		return nil
	}
	s.listed = nil
	fmt.Fprintf(s.out, "%s %s\n", commandStyle.Render("[Deleted]"), threadTitle(entry.Thread))
	return nil
}

func (s *ChatSession) rename(ctx context.Context, name string) error {
	id := s.app.State.ThreadID()
	if err := s.app.Threads.Rename(ctx, id, name); err != nil {
		if errors.Is(err, threads.ErrEmptyName) {
			return &ValidationError{Field: "name", Reason: "cannot be empty", Example: "/rename Trip planning"}
		}
		return err
	}
	fmt.Fprintf(s.out, "%s %s\n", commandStyle.Render("[Renamed]"), strings.TrimSpace(name))
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *ChatSession) setModel(args []string) error {
	if len(args) == 0 {
		t, _ := s.app.State.Thread()
		fmt.Fprintf(s.out, "%s Current model: %s\n", infoStyle.Render("[Model]"), commandStyle.Render(t.Settings.Model))
		fmt.Fprintln(s.out, infoStyle.Render("Available: "+strings.Join(model.ModelNames(), ", ")))
		return nil
	}
	if err := s.app.ApplySettings(args[0], ""); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s Switched to model: %s\n", commandStyle.Render("[OK]"), args[0])
	return nil
}

func (s *ChatSession) setVariation(args []string) error {
	if len(args) == 0 {
		t, _ := s.app.State.Thread()
		codes := make([]string, 0, len(model.Variations()))
		for _, v := range model.Variations() {
			codes = append(codes, v.Code)
		}
		fmt.Fprintf(s.out, "%s Current variation: %s\n", infoStyle.Render("[Variation]"), commandStyle.Render(t.Settings.Variation))
		fmt.Fprintln(s.out, infoStyle.Render("Available: "+strings.Join(codes, ", ")))
		return nil
	}
	if err := s.app.ApplySettings("", args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s Switched to variation: %s\n", commandStyle.Render("[OK]"), args[0])
	return nil
}

// toggle flips the flag field selects, or sets it from args[0].
func (s *ChatSession) toggle(args []string, label string, field func(*model.Settings) *bool) error {
	var explicit *bool
	if len(args) > 0 {
		v, err := ParseBoolString(args[0])
		if err != nil {
			return &ValidationError{Field: label, Value: args[0], Reason: "expected on or off"}
		}
		explicit = &v
	}

	var value bool
	err := s.app.State.UpdateThread(func(t *model.Thread) {
		f := field(&t.Settings)
		if explicit != nil {
			*f = *explicit
		} else {
			*f = !*f
		}
		value = *f
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s %s: %s\n", commandStyle.Render("[OK]"), label, onOff(value))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// =============================================================================
// DISPLAY
// =============================================================================

func (s *ChatSession) printWelcome() {
	t, _ := s.app.State.Thread()
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, welcomeStyle.Render("polychat"))
	fmt.Fprintln(s.out, infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Fprintf(s.out, "%s %s\n", infoStyle.Render("Thread:"), commandStyle.Render(threadTitle(t)))
	fmt.Fprintf(s.out, "%s %s\n", infoStyle.Render("Model:"), commandStyle.Render(t.Settings.Model))
	fmt.Fprintf(s.out, "%s %s\n", infoStyle.Render("Variation:"), commandStyle.Render(t.Settings.Variation))
	if n := len(s.app.State.Messages()); n > 0 {
		fmt.Fprintf(s.out, "%s %d (/history to show)\n", infoStyle.Render("Messages:"), n)
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new, /n", "Start a new thread"},
		{"/threads [n|id]", "List threads, or switch to one"},
		{"/model [name]", "Show or switch model"},
		{"/variation [code]", "Show or switch variation"},
		{"/context [on|off]", "Send earlier messages with each prompt"},
		{"/tts [on|off]", "Read replies aloud"},
		{"/rename <name>", "Rename this thread"},
		{"/delete [n|id]", "Delete a thread (default: this one)"},
		{"/history", "Show this thread so far"},
		{"/voice", "Speak a prompt"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Fprintln(s.out)
	for _, c := range commands {
		fmt.Fprintf(s.out, "  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-18s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, infoStyle.Render("Tip: Ctrl+C stops a reply, Ctrl+D exits"))
	fmt.Fprintln(s.out)
}

func (s *ChatSession) printGoodbye() {
	if s.sent > 0 {
		fmt.Fprintf(s.out, "%s\n", infoStyle.Render(fmt.Sprintf("%d messages sent. Goodbye!", s.sent)))
		return
	}
	fmt.Fprintln(s.out, infoStyle.Render("Goodbye!"))
}
