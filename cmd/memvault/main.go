// ABOUTME: CLI for the memvault remote memory service
// ABOUTME: Manages vault entries, contexts, conversations, and local archives

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
)

const banner = `
 _ __ ___   ___ _ __ _____   ____ _ _   _| | |_
| '_ ' _ \ / _ \ '_ ' _ \ \ / / _' | | | | | __|
| | | | | |  __/ | | | | \ V / (_| | |_| | | |_
|_| |_| |_|\___|_| |_| |_|\_/ \__,_|\__,_|_|\__|
            m e m v a u l t
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	cfg, err := Load(getConfigPath())
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	app := &app{cfg: cfg, logger: logger}

	switch cmd {
	case "status":
		err = app.cmdStatus()
	case "list":
		err = app.cmdList()
	case "search":
		err = app.cmdSearch(args)
	case "read":
		err = app.cmdRead(args)
	case "write":
		err = app.cmdWrite(args)
	case "delete":
		err = app.cmdDelete(args)
	case "context":
		err = app.cmdContext(args)
	case "conversation":
		err = app.cmdConversation(args)
	case "export":
		err = app.cmdExport(args)
	case "import":
		err = app.cmdImport(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: memvault <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  status                         Show server info, session, and profile")
	fmt.Println("  list                           List all vault entries")
	fmt.Println("  search <query> [--limit n]     Search vault entries")
	fmt.Println("  read <path>                    Print an entry's content")
	fmt.Println("  write <path> <content>         Write an entry (--desc to describe it)")
	fmt.Println("  delete <path>                  Delete an entry")
	fmt.Println("  context get <name>             Show a context record")
	fmt.Println("  context update <name> k=v ...  Merge updates into a context")
	fmt.Println("  conversation store <file|->    Store a conversation transcript")
	fmt.Println("  conversation get <id>          Show a stored conversation")
	fmt.Println("  export [--format json|yaml]    Export all entries (also archives locally)")
	fmt.Println("  import <file>                  Import entries from an export file")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  MEMVAULT_CONFIG    Config file path (default: ~/.config/memvault/config.toml)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  memvault write notes/deal 'counterpart opened at 120' --desc 'lease deal'")
	fmt.Println("  memvault search 'lease' --limit 5")
	fmt.Println("  memvault context update deal stage=closing")
	fmt.Println("  memvault export --format yaml -o backup.yaml")
	fmt.Println()
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn // keep CLI output clean unless asked
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
