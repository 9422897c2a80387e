// ABOUTME: Command implementations for the memvault CLI
// ABOUTME: Each command opens a session, performs its calls, and terminates

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/tactolearn/memvault/internal/archive"
	"github.com/tactolearn/memvault/internal/memory"
	"github.com/tactolearn/memvault/internal/protocol"
	"github.com/tactolearn/memvault/internal/vault"
)

type app struct {
	cfg    *Config
	logger *slog.Logger
}

// session bundles the established protocol client with the layers
// built on top of it.
type session struct {
	client *protocol.Client
	vault  *vault.Client
	memory *memory.Manager
	server *protocol.ServerInfo
}

// openSession establishes a session against the configured endpoint.
// The caller must close it.
func (a *app) openSession(ctx context.Context) (*session, error) {
	transport, err := protocol.NewTransport(protocol.TransportConfig{
		Endpoint: a.cfg.Vault.Endpoint,
		Credentials: protocol.Credentials{
			APIKey: a.cfg.Vault.APIKey,
			UserID: a.cfg.Vault.UserID,
		},
		Timeout:               a.cfg.Timeout(),
		InsecureSkipTLSVerify: a.cfg.Vault.InsecureSkipTLSVerify,
		Logger:                a.logger,
	})
	if err != nil {
		return nil, err
	}

	info := protocol.ClientInfo{Name: a.cfg.Client.Name, Version: a.cfg.Client.Version}
	client, err := protocol.NewClient(protocol.ClientConfig{
		Transport:  transport,
		ClientInfo: info,
		Logger:     a.logger,
	})
	if err != nil {
		return nil, err
	}

	server, err := client.Initialize(ctx)
	if err != nil {
		return nil, err
	}

	v := vault.New(client, a.logger)
	return &session{
		client: client,
		vault:  v,
		memory: memory.NewManager(v, a.logger),
		server: server,
	}, nil
}

// close terminates the session. Termination never fails the command.
func (s *session) close(ctx context.Context) {
	s.client.Terminate(ctx)
}

func (a *app) cmdStatus() error {
	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Endpoint:  %s\n", a.cfg.Vault.Endpoint)
	green.Print("    ▶ ")
	fmt.Printf("Server:    %s %s\n", s.server.Server.Name, s.server.Server.Version)
	green.Print("    ▶ ")
	fmt.Printf("Protocol:  %s\n", s.server.ProtocolVersion)
	green.Print("    ▶ ")
	fmt.Printf("Session:   %s\n", s.client.SessionID())

	profile, err := s.vault.GetProfile(ctx)
	if err != nil {
		color.Yellow("    ▶ Profile:   unavailable (%v)\n", err)
		return nil
	}
	green.Print("    ▶ ")
	fmt.Printf("User:      %s", profile.UserID)
	if profile.Email != "" {
		fmt.Printf(" <%s>", profile.Email)
	}
	if profile.Plan != "" {
		fmt.Printf(" [%s]", profile.Plan)
	}
	fmt.Println()
	return nil
}

func (a *app) cmdList() error {
	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	entries := s.vault.List(ctx)
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Path, e.Description)
	}
	return w.Flush()
}

func (a *app) cmdSearch(args []string) error {
	var query string
	limit := 0
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--limit", "-n":
			if i+1 < len(args) {
				n, err := strconv.Atoi(args[i+1])
				if err != nil {
					return fmt.Errorf("invalid limit %q", args[i+1])
				}
				limit = n
				i++
			}
		default:
			if query == "" {
				query = args[i]
			}
		}
	}
	if query == "" {
		return fmt.Errorf("usage: search <query> [--limit n]")
	}

	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	results := s.vault.Search(ctx, query, limit)
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tSCORE\tDESCRIPTION")
	for _, e := range results {
		fmt.Fprintf(w, "%s\t%.3f\t%s\n", e.Path, e.Score, e.Description)
	}
	return w.Flush()
}

func (a *app) cmdRead(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: read <path>")
	}

	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	content, err := s.vault.Read(ctx, args[0])
	if err != nil {
		return err
	}
	os.Stdout.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

func (a *app) cmdWrite(args []string) error {
	var path, content, desc string
	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--desc", "-d":
			if i+1 < len(args) {
				desc = args[i+1]
				i++
			}
		default:
			positional = append(positional, args[i])
		}
	}
	if len(positional) < 2 {
		return fmt.Errorf("usage: write <path> <content|-> [--desc text]")
	}
	path, content = positional[0], positional[1]

	if content == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		content = string(data)
	}

	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if err := s.vault.Write(ctx, path, content, desc); err != nil {
		return err
	}
	color.Green("Wrote %s (%d bytes)\n", path, len(content))
	return nil
}

func (a *app) cmdDelete(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: delete <path>")
	}

	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if err := s.vault.Delete(ctx, args[0]); err != nil {
		return err
	}
	color.Green("Deleted %s\n", args[0])
	return nil
}

func (a *app) cmdContext(args []string) error {
	// Arguments are validated before any session is opened; a typo
	// should not cost a handshake round trip.
	if len(args) < 2 {
		return fmt.Errorf("usage: context get <name> | context update <name> key=value ...")
	}
	sub, name := args[0], args[1]

	switch sub {
	case "get":
		return a.contextGet(name)
	case "update":
		updates, err := parseKeyValues(args[2:])
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return fmt.Errorf("usage: context update <name> key=value ...")
		}
		return a.contextUpdate(name, updates)
	default:
		return fmt.Errorf("unknown context subcommand: %s", sub)
	}
}

func (a *app) contextGet(name string) error {
	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	record, err := s.memory.GetContext(ctx, name)
	if err != nil {
		return err
	}
	return printJSON(record)
}

func (a *app) contextUpdate(name string, updates map[string]any) error {
	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	record, err := s.memory.UpdateContext(ctx, name, updates)
	if err != nil {
		return err
	}
	color.Green("Updated %s (%d changes, %d history entries)\n", name, len(updates), len(record.History))
	return nil
}

func (a *app) cmdConversation(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: conversation store <file|-> [--id id] [--outcome o] [--strategies a,b] | conversation get <id>")
	}

	switch args[0] {
	case "get":
		return a.conversationGet(args[1])
	case "store":
		return a.conversationStore(args[1:])
	default:
		return fmt.Errorf("unknown conversation subcommand: %s", args[0])
	}
}

func (a *app) conversationGet(id string) error {
	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	record, err := s.memory.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(record)
}

func (a *app) conversationStore(args []string) error {
	var file, id string
	var meta memory.ConversationMeta
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--id":
			if i+1 < len(args) {
				id = args[i+1]
				i++
			}
		case "--outcome":
			if i+1 < len(args) {
				meta.Outcome = args[i+1]
				i++
			}
		case "--strategies":
			if i+1 < len(args) {
				meta.Strategies = strings.Split(args[i+1], ",")
				i++
			}
		default:
			if file == "" {
				file = args[i]
			}
		}
	}
	if file == "" {
		return fmt.Errorf("usage: conversation store <file|-> [--id id] [--outcome o] [--strategies a,b]")
	}

	// The transcript is parsed before the session is opened, so a bad
	// file never costs a handshake.
	data, err := readFileOrStdin(file)
	if err != nil {
		return err
	}
	var msgs []memory.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return fmt.Errorf("parsing messages (expected a JSON array of {role, content}): %w", err)
	}

	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	record, err := s.memory.StoreConversation(ctx, id, msgs, meta)
	if err != nil {
		return err
	}

	// Keep a local copy; remote success already happened, so archive
	// failure only warns.
	if arch, err := archive.Open(a.cfg.Archive.Path); err == nil {
		defer arch.Close()
		if err := arch.SaveConversation(ctx, record); err != nil {
			a.logger.Warn("archiving conversation failed", "id", record.ID, "error", err)
		}
	} else {
		a.logger.Warn("opening archive failed", "path", a.cfg.Archive.Path, "error", err)
	}

	color.Green("Stored conversation %s (%d messages)\n", record.ID, len(record.Messages))
	return nil
}

func (a *app) cmdExport(args []string) error {
	format := memory.FormatJSON
	var outPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--format", "-f":
			if i+1 < len(args) {
				format = memory.Format(args[i+1])
				i++
			}
		case "--output", "-o":
			if i+1 < len(args) {
				outPath = args[i+1]
				i++
			}
		}
	}

	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	data, result, err := s.memory.ExportAll(ctx, format)
	if err != nil {
		return err
	}
	for _, f := range result.Failed {
		color.Yellow("Skipped %s: %v\n", f.Path, f.Err)
	}

	export, err := memory.ParseExport(data, format)
	if err == nil {
		if arch, archErr := archive.Open(a.cfg.Archive.Path); archErr == nil {
			defer arch.Close()
			if archErr := arch.SaveSnapshot(ctx, export); archErr != nil {
				a.logger.Warn("archiving snapshot failed", "error", archErr)
			}
		} else {
			a.logger.Warn("opening archive failed", "path", a.cfg.Archive.Path, "error", archErr)
		}
	}

	if outPath == "" {
		os.Stdout.Write(data)
		return nil
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	color.Green("Exported %d entries to %s\n", len(result.Succeeded), outPath)
	return nil
}

func (a *app) cmdImport(args []string) error {
	var file string
	var format memory.Format
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--format", "-f":
			if i+1 < len(args) {
				format = memory.Format(args[i+1])
				i++
			}
		default:
			if file == "" {
				file = args[i]
			}
		}
	}
	if file == "" {
		return fmt.Errorf("usage: import <file|-> [--format json|yaml]")
	}
	if format == "" {
		format = formatFromPath(file)
	}

	data, err := readFileOrStdin(file)
	if err != nil {
		return err
	}
	export, err := memory.ParseExport(data, format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	start := time.Now()
	result := s.memory.ImportAll(ctx, export.Entries)
	for _, f := range result.Failed {
		color.Yellow("Failed %s: %v\n", f.Path, f.Err)
	}
	color.Green("Imported %d entries in %s (%d failed)\n",
		len(result.Succeeded), time.Since(start).Round(time.Millisecond), len(result.Failed))
	return nil
}

// parseKeyValues turns "key=value" args into an update map. Values that
// parse as JSON keep their type; everything else is a string.
func parseKeyValues(args []string) (map[string]any, error) {
	updates := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			updates[key] = parsed
		} else {
			updates[key] = value
		}
	}
	return updates, nil
}

func readFileOrStdin(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func formatFromPath(path string) memory.Format {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return memory.FormatYAML
	}
	return memory.FormatJSON
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
