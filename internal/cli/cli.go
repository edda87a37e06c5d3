// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing, usage and version output for polychat.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdThreads
	CmdConfig
	CmdExport
	CmdModels
	CmdVersion
	CmdHelp
)

// String returns the command word.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdThreads:
		return "threads"
	case CmdConfig:
		return "config"
	case CmdExport:
		return "export"
	case CmdModels:
		return "models"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// NeedsApp reports whether the command runs against the store and backend.
func (c Command) NeedsApp() bool {
	switch c {
	case CmdModels, CmdVersion, CmdHelp:
		return false
	default:
		return true
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	NoColor    bool
	JSON       bool
	Model      string
	Variation  string
	ConfigPath string

	// ask
	Query  string
	File   string
	Render bool

	// Subcommand is the first word after threads/config.
	Subcommand string

	// Unknown is set when the command word was not recognized.
	Unknown string

	// Raw args (remaining after the command word and global flags)
	Raw []string
}

const usageText = `polychat - chat with many AI models from the terminal

Usage:
  polychat                          Start the full-screen chat (default)
  polychat ask "prompt"             Ask once in a new thread, streaming the answer
    -f, --file FILE                 Append the contents of FILE to the prompt
    -r, --render                    Render the finished answer as markdown
  polychat chat                     Line-based chat with slash commands
  polychat threads [list]           List saved threads
    --limit N                       Show at most N threads
  polychat threads show <id>        Print a thread's messages
  polychat threads delete <id>      Delete a thread and its messages
    -y, --yes                       Skip the confirmation prompt
  polychat threads rename <id> <name>
                                    Rename a thread
  polychat config show              Show settings and preferences
  polychat config get <key>         Print one setting or preference
  polychat config set <key> <value> Change one setting or preference
  polychat export <id>              Export a thread
    --format md|html|json           Output format (default: md)
    --output DIR                    Output directory (default: current)
  polychat models                   List models and variations
  polychat version                  Show version information

Thread ids may be shortened to any unique prefix.

Global flags:
  -m, --model NAME                  Model for new threads
  --variation CODE                  Variation (persona) for new threads
  --config FILE                     Config file (default: ~/.polychat/config.toml)
  -q, --quiet                       Only print answers and errors
  --no-color                        Disable colored output
  --json                            JSON output for list commands

Preferences (stored with your threads):
  language, imageSize, quality, style

Environment:
  POLYCHAT_HOME                     Data directory (default: ~/.polychat)
  POLYCHAT_API_BASE_URL             Backend URL
  POLYCHAT_API_TOKEN                Backend bearer token
  POLYCHAT_DB_PATH                  Database file
  POLYCHAT_LOG_LEVEL                debug, info, warn, error
  POLYCHAT_DEFAULT_MODEL            Model for new threads
  NO_COLOR                          Disable colored output

Examples:
  polychat ask "Explain goroutines in one paragraph"
  polychat --model dall-e-3 ask "a lighthouse at dusk, watercolor"
  git diff | polychat ask "Write a commit message for this diff"
  polychat threads delete 3f2a --yes
  polychat config set language hi-IN
  polychat export 3f2a --format html --output ~/Desktop

Version: %s
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// =============================================================================
// VERSION
// =============================================================================

// VersionData is the JSON form of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return writeJSON(w, VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		})
	}
	fmt.Fprintf(w, "polychat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s\n", runtime.Version())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) and returns the command
// and its arguments.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask", "a":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "c":
		return CmdChat, parsedArgs

	case "threads", "thread", "t":
		parsedArgs.Subcommand = firstWord(remaining, "list")
		return CmdThreads, parsedArgs

	case "config":
		parsedArgs.Subcommand = firstWord(remaining, "show")
		return CmdConfig, parsedArgs

	case "export":
		return CmdExport, parsedArgs

	case "models", "model":
		return CmdModels, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Unknown = cmd
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Global flags may appear anywhere on the command line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// Everything after "--" belongs to the command.
		if arg == "--" {
			remaining = append(remaining, args[i:]...)
			break
		}

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--no-color":
			parsedArgs.NoColor = true
		case "--json":
			parsedArgs.JSON = true
		case "-m", "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--variation":
			if i+1 < len(args) {
				i++
				parsedArgs.Variation = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--variation="):
				parsedArgs.Variation = strings.TrimPrefix(arg, "--variation=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "-r", "--render":
			args.Render = true
		case "--":
			query = append(query, remaining[i+1:]...)
			i = len(remaining)
		default:
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else {
				query = append(query, arg)
			}
		}
	}

	args.Query = strings.Join(query, " ")
}

func firstWord(args []string, fallback string) string {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return fallback
	}
	return strings.ToLower(args[0])
}
