// Package snippets loads prompt templates and materializes them against a
// fixed set of contextual variables. Built-in templates ship embedded under
// the "builtin/" virtual path; anything else resolves to a user-supplied file
// on disk. Substitution is purely textual: template content is never executed.
package snippets

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed builtin/*.md
var builtinFS embed.FS

// ErrNotFound is returned when a template path resolves to no resource.
var ErrNotFound = errors.New("snippets: template not found")

// ReadError reports an I/O failure reading a template that does exist.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("snippets: read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Store resolves virtual template paths. Paths under "builtin/" come from the
// embedded set; all other paths are files under Root (or as-given when Root
// is empty).
type Store struct {
	Root string
}

// New creates a Store that resolves user snippets relative to root.
func New(root string) Store {
	return Store{Root: root}
}

// Load returns the template text for a virtual path. It returns ErrNotFound
// when the resource does not exist and a ReadError on any other I/O failure.
func (s Store) Load(path string) (string, error) {
	if rest, ok := strings.CutPrefix(path, "builtin/"); ok {
		data, err := builtinFS.ReadFile("builtin/" + rest)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return string(data), nil
	}

	full := path
	if s.Root != "" && !filepath.IsAbs(path) {
		full = filepath.Join(s.Root, path)
	}

	data, err := os.ReadFile(full) //nolint:gosec // path comes from resolved settings, not request input
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}

	return string(data), nil
}

// Render substitutes $NAME and ${NAME} tokens in a single pass. Tokens not
// present in vars are left verbatim, as is any malformed ${ sequence, so the
// pass is total. Substituted values are never rescanned.
func Render(template string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}

		// ${NAME} form.
		if i+1 < len(template) && template[i+1] == '{' {
			if end := strings.IndexByte(template[i+2:], '}'); end >= 0 {
				name := template[i+2 : i+2+end]
				if val, ok := vars[name]; ok {
					b.WriteString(val)
					i += end + 3
					continue
				}
			}
			b.WriteByte(c)
			i++
			continue
		}

		// $NAME form.
		j := i + 1
		for j < len(template) && isTokenByte(template[j]) {
			j++
		}
		if j > i+1 {
			if val, ok := vars[template[i+1:j]]; ok {
				b.WriteString(val)
				i = j
				continue
			}
		}

		b.WriteByte(c)
		i++
	}

	return b.String()
}

func isTokenByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
