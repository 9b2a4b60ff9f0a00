// Command simpleai runs the SimpleAI request pipeline against a file from
// the terminal: the same settings resolution, prompt snippets, and API client
// an editor host drives, with a file standing in for the buffer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/james2doyle/sublime-simpleai/pkg/apiclient"
	"github.com/james2doyle/sublime-simpleai/pkg/commands"
	"github.com/james2doyle/sublime-simpleai/pkg/editor"
	"github.com/james2doyle/sublime-simpleai/pkg/settings"
	"github.com/james2doyle/sublime-simpleai/pkg/snippets"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: simpleai [flags] <completion|instruct> FILE\n\nFlags:\n")
		flag.PrintDefaults()
	}

	settingsPath := flag.String("settings", defaultSettingsPath(), "path to the global settings file")
	projectPath := flag.String("project", ".simpleai.yaml", "path to the project settings file")
	envPath := flag.String("env", ".env", "path to a .env file with API tokens")
	snippetsRoot := flag.String("snippets", "", "directory for user prompt snippets")
	begin := flag.Int("begin", -1, "selection start byte offset (-1 for none)")
	end := flag.Int("end", -1, "selection end byte offset (-1 for none)")
	instruction := flag.String("instruction", "", "instruction text for the instruct command")
	write := flag.Bool("write", false, "write the modified buffer back to FILE")
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(options{
		command:      flag.Arg(0),
		file:         flag.Arg(1),
		settingsPath: *settingsPath,
		projectPath:  *projectPath,
		envPath:      *envPath,
		snippetsRoot: *snippetsRoot,
		begin:        *begin,
		end:          *end,
		instruction:  *instruction,
		write:        *write,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	command      string
	file         string
	settingsPath string
	projectPath  string
	envPath      string
	snippetsRoot string
	begin        int
	end          int
	instruction  string
	write        bool
}

func run(opts options) error {
	if err := loadDotEnv(opts.envPath); err != nil {
		return err
	}

	// Logging level follows the debug_logging setting and can change while a
	// request is in flight.
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	source := commands.SettingsFunc(func() (*settings.Document, settings.Document, error) {
		global, err := loadGlobal(opts.settingsPath)
		if err != nil {
			return nil, settings.Document{}, err
		}

		project, err := settings.LoadProject(opts.projectPath)
		if err != nil {
			return nil, settings.Document{}, err
		}

		return project, global, nil
	})

	applyLogLevel := func() {
		_, global, err := source.Documents()
		if err == nil && global.DebugLogging != nil && *global.DebugLogging {
			level.Set(slog.LevelDebug)
		} else {
			level.Set(slog.LevelWarn)
		}
	}
	applyLogLevel()

	watcher, err := settings.Watch([]string{opts.settingsPath, opts.projectPath}, func(path string) {
		logger.Debug("settings changed", "path", path)
		applyLogLevel()
	})
	if err == nil {
		defer func() { _ = watcher.Close() }()
	}

	content, err := os.ReadFile(opts.file) //nolint:gosec // FILE argument is the whole point of the command
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}

	sel := selection(string(content), opts.begin, opts.end)
	view := newFileView(opts.file, string(content), sel, os.Stderr)

	orch := &commands.Orchestrator{
		Settings:    source,
		Store:       snippets.New(opts.snippetsRoot),
		Client:      &apiclient.Client{Logger: logger},
		Results:     consoleSink{out: os.Stdout},
		ProjectRoot: projectRoot(opts.projectPath),
		Logger:      logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := editor.NewEventBus()
	listener := commands.NewListener(bus, orch)
	defer listener.Close()

	var req *apiclient.InFlight
	switch opts.command {
	case "completion":
		req, err = orch.Completion(ctx, view)
	case "instruct":
		req, err = orch.Instruct(ctx, view, opts.instruction)
	default:
		return fmt.Errorf("unknown command %q (want completion or instruct)", opts.command)
	}
	if err != nil {
		return err
	}

	select {
	case <-req.Done():
	case <-ctx.Done():
		bus.Publish(editor.Event{Kind: editor.EventViewClosed, ViewID: view.ID()})
		<-req.Done()
		return errors.New("interrupted")
	}

	result := view.BufferText()
	if result == string(content) {
		// Request failed or was cancelled; the notification already said why.
		return nil
	}

	if opts.write {
		info, statErr := os.Stat(opts.file)
		mode := os.FileMode(0o644)
		if statErr == nil {
			mode = info.Mode()
		}
		return os.WriteFile(opts.file, []byte(result), mode)
	}

	fmt.Print(result)
	return nil
}

// selection builds the selection region from the offset flags. Negative
// offsets mean no selection, with the caret parked at end of buffer.
func selection(content string, begin, end int) editor.Region {
	if begin < 0 || end < begin || end > len(content) {
		return editor.Region{Begin: len(content), End: len(content)}
	}
	return editor.Region{Begin: begin, End: end}
}

// projectRoot treats the project settings file's directory as the project
// root when the file exists.
func projectRoot(projectPath string) string {
	if _, err := os.Stat(projectPath); err != nil {
		return ""
	}
	abs, err := filepath.Abs(filepath.Dir(projectPath))
	if err != nil {
		return ""
	}
	return abs
}

// loadGlobal reads the global settings document, tolerating a missing file so
// a project document (or defaults plus an api_token from the environment) can
// still carry an invocation.
func loadGlobal(path string) (settings.Document, error) {
	doc, err := settings.LoadGlobal(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings.Document{}, nil
	}
	return doc, err
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "simpleai-settings.yaml"
	}
	return filepath.Join(dir, "simpleai", "settings.yaml")
}
