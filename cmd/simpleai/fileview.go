package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/james2doyle/sublime-simpleai/pkg/editor"
)

var (
	statusStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// fileView is a headless editing surface over a file's content. It exists so
// the same pipeline an editor plugin drives can be exercised from the
// command line.
type fileView struct {
	mu     sync.Mutex
	path   string
	buf    string
	sel    editor.Region
	notify io.Writer
}

func newFileView(path, content string, sel editor.Region, notify io.Writer) *fileView {
	return &fileView{path: path, buf: content, sel: sel, notify: notify}
}

func (v *fileView) ID() string { return v.path }

func (v *fileView) FileName() string { return v.path }

func (v *fileView) Syntax() string { return syntaxForFile(v.path) }

func (v *fileView) Selection() editor.Region {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sel
}

func (v *fileView) Substr(r editor.Region) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if r.Empty() || r.Begin < 0 || r.End > len(v.buf) {
		return ""
	}
	return v.buf[r.Begin:r.End]
}

func (v *fileView) BufferText() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buf
}

func (v *fileView) Replace(r editor.Region, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buf = v.buf[:r.Begin] + text + v.buf[r.End:]
}

func (v *fileView) InsertAt(pos int, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos < 0 || pos > len(v.buf) {
		pos = len(v.buf)
	}
	v.buf = v.buf[:pos] + text + v.buf[pos:]
}

func (v *fileView) Notify(message string, level editor.Level) {
	style := statusStyle
	if level == editor.LevelError {
		style = errorStyle
	}
	fmt.Fprintln(v.notify, style.Render(message))
}

// consoleSink renders instruct result documents as markdown on the terminal,
// standing in for the editor's results tab.
type consoleSink struct {
	out io.Writer
}

func (s consoleSink) ShowDocument(title, markdown string) {
	rendered, err := glamour.Render(markdown, "auto")
	if err != nil {
		fmt.Fprintln(s.out, markdown)
		return
	}
	fmt.Fprintln(s.out, rendered)
}

// syntaxForFile guesses a language name from the file extension, matching
// what an editor host would report from its active syntax.
func syntaxForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "Go"
	case ".py":
		return "Python"
	case ".js", ".mjs":
		return "JavaScript"
	case ".ts":
		return "TypeScript"
	case ".rb":
		return "Ruby"
	case ".rs":
		return "Rust"
	case ".sh", ".bash":
		return "Shell"
	case ".md":
		return "Markdown"
	case ".yaml", ".yml":
		return "YAML"
	case ".json":
		return "JSON"
	case ".html":
		return "HTML"
	case ".css":
		return "CSS"
	case ".sql":
		return "SQL"
	case "":
		return ""
	default:
		return strings.TrimPrefix(filepath.Ext(path), ".")
	}
}
