package promptctx_test

import (
	"runtime"
	"testing"

	"github.com/james2doyle/sublime-simpleai/pkg/editor"
	"github.com/james2doyle/sublime-simpleai/pkg/promptctx"
	"github.com/stretchr/testify/assert"
)

type stubView struct {
	file   string
	syntax string
}

func (v *stubView) ID() string { return "stub" }

func (v *stubView) FileName() string { return v.file }

func (v *stubView) Syntax() string { return v.syntax }

func (v *stubView) Selection() editor.Region { return editor.Region{} }

func (v *stubView) Substr(editor.Region) string { return "" }

func (v *stubView) BufferText() string { return "" }

func (v *stubView) Replace(editor.Region, string) {}

func (v *stubView) InsertAt(int, string) {}

func (v *stubView) Notify(string, editor.Level) {}

func TestCapture(t *testing.T) {
	t.Setenv("COMSPEC", "")
	t.Setenv("SHELL", "/usr/bin/zsh")

	view := &stubView{file: "/proj/main.go", syntax: "Go"}
	ctx := promptctx.Capture(view, "/proj", "print(1)", "make it faster")

	assert.Equal(t, runtime.GOOS, ctx.OS)
	assert.Equal(t, "zsh", ctx.Shell)
	assert.Equal(t, "/proj", ctx.ProjectPath)
	assert.Equal(t, "/proj/main.go", ctx.FileName)
	assert.Equal(t, "go", ctx.Syntax, "syntax is lowercased")
	assert.Equal(t, "print(1)", ctx.SourceCode)
	assert.Equal(t, "make it faster", ctx.Instructions)
}

func TestCapture_UnknownShell(t *testing.T) {
	t.Setenv("COMSPEC", "")
	t.Setenv("SHELL", "")

	ctx := promptctx.Capture(&stubView{}, "", "", "")
	assert.Equal(t, "unknown", ctx.Shell)
}

func TestVars(t *testing.T) {
	ctx := promptctx.Context{
		OS:         "linux",
		Shell:      "bash",
		FileName:   "a.py",
		Syntax:     "python",
		SourceCode: "x = 1",
	}

	vars := ctx.Vars()
	assert.Equal(t, "linux", vars["OS"])
	assert.Equal(t, "bash", vars["SHELL"])
	assert.Equal(t, promptctx.NoProject, vars["PROJECT_PATH"], "empty project path gets placeholder")
	assert.Equal(t, "a.py", vars["FILE_NAME"])
	assert.Equal(t, "python", vars["SYNTAX"])
	assert.Equal(t, "x = 1", vars["SOURCE_CODE"])
	assert.Equal(t, "", vars["INSTRUCTIONS"])
}

func TestVars_EmptySyntax(t *testing.T) {
	vars := promptctx.Context{}.Vars()
	assert.Equal(t, "plain text", vars["SYNTAX"])
}
