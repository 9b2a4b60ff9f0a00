// Package promptctx captures the contextual variables available to prompt
// snippets. A Context is built once per command invocation and never mutated
// afterwards.
package promptctx

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/james2doyle/sublime-simpleai/pkg/editor"
)

// NoProject is substituted for $PROJECT_PATH when no project root is known.
const NoProject = "Not in a project context"

// Context is an immutable record of the variables a prompt snippet may
// reference.
type Context struct {
	OS           string
	Shell        string
	ProjectPath  string // "" when not inside a project.
	FileName     string
	Syntax       string
	SourceCode   string
	Instructions string // Free-form user instruction; instruct only.
}

// Capture builds a Context from the view and its surrounding environment.
// The source text is passed in explicitly since the orchestrator decides
// whether it is the selection or the whole buffer.
func Capture(view editor.View, projectRoot, source, instructions string) Context {
	return Context{
		OS:           runtime.GOOS,
		Shell:        shellName(),
		ProjectPath:  projectRoot,
		FileName:     view.FileName(),
		Syntax:       strings.ToLower(view.Syntax()),
		SourceCode:   source,
		Instructions: instructions,
	}
}

// Vars returns the substitution token set for the template engine. Every
// token maps to a concrete string; nullable fields get their documented
// placeholder values here.
func (c Context) Vars() map[string]string {
	project := c.ProjectPath
	if project == "" {
		project = NoProject
	}

	syntax := c.Syntax
	if syntax == "" {
		syntax = "plain text"
	}

	return map[string]string{
		"OS":           c.OS,
		"SHELL":        c.Shell,
		"PROJECT_PATH": project,
		"FILE_NAME":    c.FileName,
		"SYNTAX":       syntax,
		"SOURCE_CODE":  c.SourceCode,
		"INSTRUCTIONS": c.Instructions,
	}
}

// shellName returns the basename of the user's shell, preferring COMSPEC on
// Windows hosts, falling back to "unknown".
func shellName() string {
	path := os.Getenv("COMSPEC")
	if path == "" {
		path = os.Getenv("SHELL")
	}
	if path == "" {
		return "unknown"
	}
	return filepath.Base(path)
}
