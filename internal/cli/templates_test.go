package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastertools/spin-loader/pkg/templates"
)

// fakeClone makes the mock git create a repository holding the given templates
func fakeClone(git *templates.MockGit, names ...string) {
	git.RunFunc = func(ctx context.Context, dir string, args ...string) error {
		dst := args[len(args)-1]
		for _, n := range names {
			p := filepath.Join(dst, "templates", n)
			if err := os.MkdirAll(p, 0o750); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(p, "spin.toml"), []byte("spin_version = \"1\"\n"), 0o600); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestTemplatesCommand(t *testing.T) {
	cmd := newTemplatesCmd()
	assert.Equal(t, "templates", cmd.Use)

	add, _, err := cmd.Find([]string{"add"})
	require.NoError(t, err)
	for _, flag := range []string{"git", "branch", "local"} {
		assert.NotNil(t, add.Flags().Lookup(flag), flag)
	}

	list, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	assert.Contains(t, list.Aliases, "ls")
}

func TestTemplatesAdd_Git(t *testing.T) {
	cfg := useTestSettings(t)
	git := useMockGit(t)
	fakeClone(git, "http-rust")
	out := captureColorOutput(t)

	_, err := executeCommand(t, newTemplatesCmd(), "add", "fermyon", "--git", "https://github.com/fermyon/spin-templates", "--branch", "main")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Added templates repository fermyon")

	calls := git.CallsTo("Run")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{
		"clone", "--branch", "main", "https://github.com/fermyon/spin-templates",
		filepath.Join(cfg.TemplatesDir, "templates", "fermyon"),
	}, calls[0].Args)
}

func TestTemplatesAdd_Local(t *testing.T) {
	useTestSettings(t)
	useMockGit(t)
	out := captureColorOutput(t)

	src := t.TempDir()
	_, err := executeCommand(t, newTemplatesCmd(), "add", "mine", "--local", src)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Added local template mine")
}

func TestTemplatesAdd_FlagErrors(t *testing.T) {
	useTestSettings(t)
	useMockGit(t)

	_, err := executeCommand(t, newTemplatesCmd(), "add", "x")
	assert.Error(t, err)

	_, err = executeCommand(t, newTemplatesCmd(), "add", "x", "--git", "u", "--local", "d")
	assert.Error(t, err)

	AssertCommandError(t, newTemplatesCmd(), []string{"add", "x", "--local", t.TempDir(), "--branch", "b"}, "--branch")
}

func TestTemplatesList(t *testing.T) {
	useTestSettings(t)
	git := useMockGit(t)
	fakeClone(git, "http-go", "http-rust")
	git.OutputFunc = func(ctx context.Context, dir string, args ...string) (string, error) {
		if args[0] == "rev-parse" {
			return "main", nil
		}
		if args[2] == "remote.origin.url" {
			return "https://github.com/fermyon/spin-templates", nil
		}
		return "", nil
	}
	captureColorOutput(t)

	_, err := executeCommand(t, newTemplatesCmd(), "add", "fermyon", "--git", "https://github.com/fermyon/spin-templates")
	require.NoError(t, err)

	out, err := executeCommand(t, newTemplatesCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "REPOSITORY")
	assert.Contains(t, out, "fermyon")
	assert.Contains(t, out, "http-go, http-rust")
	assert.Contains(t, out, "https://github.com/fermyon/spin-templates")

	out, err = executeCommand(t, newTemplatesCmd(), "list", "-o", "json")
	require.NoError(t, err)
	var repos []templates.Repository
	require.NoError(t, json.Unmarshal([]byte(out), &repos))
	require.Len(t, repos, 2)
	assert.Equal(t, templates.Repository{
		Name:      "fermyon",
		Git:       "https://github.com/fermyon/spin-templates",
		Branch:    "main",
		Templates: []string{"http-go", "http-rust"},
	}, repos[0])
	assert.Equal(t, templates.LocalRepository, repos[1].Name)
}
