package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/james2doyle/sublime-simpleai/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection(t *testing.T) {
	content := "hello world"

	t.Run("explicit offsets", func(t *testing.T) {
		sel := selection(content, 0, 5)
		assert.Equal(t, editor.Region{Begin: 0, End: 5}, sel)
	})

	t.Run("no flags means caret at end", func(t *testing.T) {
		sel := selection(content, -1, -1)
		assert.True(t, sel.Empty())
		assert.Equal(t, len(content), sel.Begin)
	})

	t.Run("out of range falls back to caret", func(t *testing.T) {
		assert.True(t, selection(content, 4, 2).Empty())
		assert.True(t, selection(content, 0, 100).Empty())
	})
}

func TestSyntaxForFile(t *testing.T) {
	assert.Equal(t, "Go", syntaxForFile("pkg/foo/bar.go"))
	assert.Equal(t, "Python", syntaxForFile("script.PY"))
	assert.Equal(t, "", syntaxForFile("Makefile"))
	assert.Equal(t, "xyz", syntaxForFile("data.xyz"))
}

func TestLoadGlobal_MissingFileIsEmptyDocument(t *testing.T) {
	doc, err := loadGlobal(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Nil(t, doc.APIToken)
}

func TestFileView_EditsAndNotifications(t *testing.T) {
	var notes bytes.Buffer
	view := newFileView("a.go", "abcdef", editor.Region{Begin: 1, End: 3}, &notes)

	assert.Equal(t, "bc", view.Substr(view.Selection()))

	view.Replace(editor.Region{Begin: 1, End: 3}, "XY")
	assert.Equal(t, "aXYdef", view.BufferText())

	view.InsertAt(0, ">")
	assert.Equal(t, ">aXYdef", view.BufferText())

	view.InsertAt(-5, "!")
	assert.Equal(t, ">aXYdef!", view.BufferText(), "out-of-range insert appends")

	view.Notify("working", editor.LevelStatus)
	view.Notify("boom", editor.LevelError)
	out := notes.String()
	assert.Contains(t, out, "working")
	assert.Contains(t, out, "boom")
}
