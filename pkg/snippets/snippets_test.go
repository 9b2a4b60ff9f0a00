package snippets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/james2doyle/sublime-simpleai/pkg/snippets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Builtin(t *testing.T) {
	store := snippets.New("")

	for _, path := range []string{"builtin/completion_prompt.md", "builtin/instruct_prompt.md"} {
		text, err := store.Load(path)
		require.NoError(t, err, path)
		assert.Contains(t, text, "$SOURCE_CODE")
	}

	_, err := store.Load("builtin/missing.md")
	require.ErrorIs(t, err, snippets.ErrNotFound)
}

func TestLoad_UserFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "my_prompt.md"), []byte("Explain $SOURCE_CODE"), 0o644))

	store := snippets.New(root)

	t.Run("relative to root", func(t *testing.T) {
		text, err := store.Load("my_prompt.md")
		require.NoError(t, err)
		assert.Equal(t, "Explain $SOURCE_CODE", text)
	})

	t.Run("absolute path", func(t *testing.T) {
		text, err := store.Load(filepath.Join(root, "my_prompt.md"))
		require.NoError(t, err)
		assert.Equal(t, "Explain $SOURCE_CODE", text)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.Load("nope.md")
		require.ErrorIs(t, err, snippets.ErrNotFound)
	})

	t.Run("unreadable", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("permission bits do not apply to root")
		}

		locked := filepath.Join(root, "locked.md")
		require.NoError(t, os.WriteFile(locked, []byte("x"), 0o000))

		_, err := store.Load("locked.md")
		var rerr *snippets.ReadError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "locked.md", rerr.Path)
	})
}

func TestRender(t *testing.T) {
	vars := map[string]string{
		"SOURCE_CODE": "print(1)",
		"OS":          "linux",
	}

	t.Run("substitutes known tokens", func(t *testing.T) {
		got := snippets.Render("Explain $SOURCE_CODE on $OS", vars)
		assert.Equal(t, "Explain print(1) on linux", got)
	})

	t.Run("braced form", func(t *testing.T) {
		got := snippets.Render("Explain ${SOURCE_CODE}!", vars)
		assert.Equal(t, "Explain print(1)!", got)
	})

	t.Run("unknown tokens pass through", func(t *testing.T) {
		got := snippets.Render("$FOO and ${BAR} stay", vars)
		assert.Equal(t, "$FOO and ${BAR} stay", got)
	})

	t.Run("bare dollar passes through", func(t *testing.T) {
		got := snippets.Render("cost: $5, $ alone, trailing $", vars)
		assert.Equal(t, "cost: $5, $ alone, trailing $", got)
	})

	t.Run("unterminated brace passes through", func(t *testing.T) {
		got := snippets.Render("${SOURCE_CODE", vars)
		assert.Equal(t, "${SOURCE_CODE", got)
	})

	t.Run("single pass does not rescan values", func(t *testing.T) {
		got := snippets.Render("$A", map[string]string{"A": "$B", "B": "boom"})
		assert.Equal(t, "$B", got)
	})

	t.Run("pure function", func(t *testing.T) {
		first := snippets.Render("x $OS ${SOURCE_CODE} y", vars)
		second := snippets.Render("x $OS ${SOURCE_CODE} y", vars)
		assert.Equal(t, first, second)
	})
}
