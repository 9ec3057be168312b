package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastertools/spin-loader/internal/config"
	"github.com/fastertools/spin-loader/pkg/templates"
)

// useTestSettings installs a configuration rooted in temporary directories
// and restores the previous one when the test ends.
func useTestSettings(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		LogLevel:     "error",
		LogFormat:    "text",
		CacheDir:     filepath.Join(root, "registry"),
		TemplatesDir: filepath.Join(root, "templates-cache"),
		Concurrency:  1,
		Insecure:     false,
	}
	old := settings
	settings = cfg
	t.Cleanup(func() { settings = old })
	return cfg
}

// useMockGit routes template commands through a mock git runner
func useMockGit(t *testing.T) *templates.MockGit {
	t.Helper()
	git := templates.NewMockGit()
	old := newGit
	newGit = func(*cobra.Command) templates.Git { return git }
	t.Cleanup(func() { newGit = old })
	return git
}

// captureColorOutput redirects the Success/Info/Error helpers to a buffer
func captureColorOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldErr := colorOutput, errorOutput
	colorOutput, errorOutput = &buf, &buf
	t.Cleanup(func() { colorOutput, errorOutput = oldOut, oldErr })
	return &buf
}

// chdir switches the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

// MockSurveyAskOne answers survey prompts from a queue of responses
func MockSurveyAskOne(responses ...interface{}) func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	return func(p survey.Prompt, resp interface{}, opts ...survey.AskOpt) error {
		if len(responses) == 0 {
			return nil
		}
		next := responses[0]
		responses = responses[1:]
		switch v := resp.(type) {
		case *string:
			*v = next.(string)
		case *bool:
			*v = next.(bool)
		case *int:
			*v = next.(int)
		}
		return nil
	}
}

// useSurvey replaces the prompt function for the duration of the test
func useSurvey(t *testing.T, responses ...interface{}) {
	t.Helper()
	old := askOne
	askOne = MockSurveyAskOne(responses...)
	t.Cleanup(func() { askOne = old })
}

// CreateTestApplication writes a small application with one local and one
// remote component and returns its directory.
func CreateTestApplication(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	manifest := `spin_version = "1"
name = "test-app"
version = "0.1.0"
description = "An application for CLI tests"
authors = ["Test Author <test@example.com>"]
trigger = { type = "http", base = "/" }

[[component]]
id = "hello"
source = "hello.wasm"
files = ["static/*", { source = "assets", destination = "/assets" }]
environment = { GREETING = "hi" }
[component.trigger]
route = "/hello"

[[component]]
id = "cgi"
[component.source]
reference = "example.com/cgi:v1"
parcel = "sha256:6e340b9cffb37a989ca544e6bb780a2c78901d3fb33738768511a30617afa01d"
[component.trigger]
route = "/cgi/..."
executor = { type = "wagi" }
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spin.toml"), []byte(manifest), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static"), 0750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "index.html"), []byte("<html/>"), 0600))
	return dir
}

// executeCommand runs cmd with args and returns its combined output
func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// AssertCommandError checks that command fails with expected error
func AssertCommandError(t *testing.T, cmd *cobra.Command, args []string, expectedErr string) {
	t.Helper()
	_, err := executeCommand(t, cmd, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), expectedErr)
}
