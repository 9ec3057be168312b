// Package templates manages a local cache of application templates.
//
// The cache lives under a root directory:
//
//	<root>/templates/<repo>/templates/<template>
//
// Repositories are git clones. Local templates are symlinked into the
// reserved "local" repository.
package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

const (
	templatesDir = "templates"

	// LocalRepository holds templates added from local directories
	LocalRepository = "local"
)

var (
	// ErrRepositoryNotFound is returned for an unknown repository name
	ErrRepositoryNotFound = errors.New("templates repository not found")

	// ErrTemplateNotFound is returned for an unknown template name
	ErrTemplateNotFound = errors.New("template not found")

	// ErrNotDirectory is returned when a cache path exists but is not a directory
	ErrNotDirectory = errors.New("not a directory")

	// ErrAlreadyExists is returned when adding a name that is already taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidName is returned for names that are not a single path element
	ErrInvalidName = errors.New("invalid name")
)

// Repository is a templates repository in the cache
type Repository struct {
	Name      string   `json:"name"`
	Git       string   `json:"git,omitempty"`
	Branch    string   `json:"branch,omitempty"`
	Templates []string `json:"templates"`
}

// Manager handles the local templates cache
type Manager struct {
	root   string
	git    Git
	logger *slog.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithGit sets the git runner
func WithGit(g Git) Option {
	return func(m *Manager) {
		m.git = g
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager opens the cache at root, creating its directory layout
func NewManager(root string, opts ...Option) (*Manager, error) {
	m := &Manager{
		root:   root,
		git:    NewGit(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, dir := range []string{
		root,
		m.templatesRoot(),
		m.repoPath(LocalRepository),
		m.localTemplatesPath(),
	} {
		if err := m.ensure(dir); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// DefaultRoot returns the default cache root, <user cache dir>/spin
func DefaultRoot() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", pkgerrors.Wrap(err, "cannot get system cache directory")
	}
	return filepath.Join(dir, "spin"), nil
}

// Root returns the cache root directory
func (m *Manager) Root() string {
	return m.root
}

// AddRepo clones a git repository of templates as name
func (m *Manager) AddRepo(ctx context.Context, name, url, branch string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if name == LocalRepository {
		return fmt.Errorf("%w: %q is reserved for local templates", ErrInvalidName, name)
	}

	dst := m.repoPath(name)
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("repository %q: %w", name, ErrAlreadyExists)
	}

	args := []string{"clone"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dst)

	m.logger.Debug("adding templates repository", "url", url, "dest", dst, "branch", branch)
	if err := m.git.Run(ctx, "", args...); err != nil {
		return pkgerrors.Wrapf(err, "cloning %s", url)
	}
	return nil
}

// AddLocal links the directory src into the local repository as name
func (m *Manager) AddLocal(name, src string) error {
	if err := validateName(name); err != nil {
		return err
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return pkgerrors.Wrapf(err, "resolving %s", src)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return pkgerrors.Wrapf(err, "resolving %s", src)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return pkgerrors.Wrapf(err, "reading %s", src)
	}
	if !info.IsDir() {
		return fmt.Errorf("template source %s: %w", src, ErrNotDirectory)
	}

	dst := filepath.Join(m.localTemplatesPath(), name)
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("local template %q: %w", name, ErrAlreadyExists)
	}

	m.logger.Debug("adding local template", "src", abs, "dest", dst)
	if err := os.Symlink(abs, dst); err != nil {
		return pkgerrors.Wrapf(err, "linking %s", abs)
	}
	return nil
}

// List returns every repository in the cache, sorted by name
func (m *Manager) List(ctx context.Context) ([]Repository, error) {
	entries, err := os.ReadDir(m.templatesRoot())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading templates cache")
	}

	var repos []Repository
	for _, e := range entries {
		repoDir := filepath.Join(m.templatesRoot(), e.Name())
		if !isDir(repoDir) {
			continue
		}

		templates, err := subdirs(filepath.Join(repoDir, templatesDir))
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "listing templates of %s", e.Name())
		}

		repo := Repository{Name: e.Name(), Templates: templates}
		if e.Name() != LocalRepository {
			repo.Branch = m.gitBranch(ctx, repoDir)
			repo.Git = m.gitRemoteURL(ctx, repoDir, repo.Branch)
		}
		m.logger.Debug("listed templates repository", "repo", repo.Name, "templates", len(templates))
		repos = append(repos, repo)
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
	return repos, nil
}

// Path returns the directory of a template
func (m *Manager) Path(repo, template string) (string, error) {
	repoDir := m.repoPath(repo)
	if validateName(repo) != nil || !isDir(repoDir) {
		return "", fmt.Errorf("%w: %q", ErrRepositoryNotFound, repo)
	}

	dir := filepath.Join(repoDir, templatesDir, template)
	if validateName(template) != nil || !isDir(dir) {
		return "", fmt.Errorf("%w: %q in repository %q", ErrTemplateNotFound, template, repo)
	}
	return dir, nil
}

// Generate copies a template into dst, which must not exist yet
func (m *Manager) Generate(repo, template, dst string) error {
	src, err := m.Path(repo, template)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("destination %s: %w", dst, ErrAlreadyExists)
	}

	m.logger.Debug("generating from template", "repo", repo, "template", template, "dest", dst)
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return pkgerrors.Wrapf(err, "copying template %s/%s", repo, template)
	}
	return nil
}

func (m *Manager) templatesRoot() string {
	return filepath.Join(m.root, templatesDir)
}

func (m *Manager) repoPath(name string) string {
	return filepath.Join(m.templatesRoot(), name)
}

func (m *Manager) localTemplatesPath() string {
	return filepath.Join(m.repoPath(LocalRepository), templatesDir)
}

func (m *Manager) ensure(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.logger.Debug("creating cache directory", "path", dir)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return pkgerrors.Wrapf(err, "failed to create cache directory %s", dir)
		}
		return nil
	case err != nil:
		return pkgerrors.Wrapf(err, "reading cache directory %s", dir)
	case !info.IsDir():
		return fmt.Errorf("cache root %s already exists and is %w", dir, ErrNotDirectory)
	}
	return nil
}

func (m *Manager) gitBranch(ctx context.Context, dir string) string {
	out, err := m.git.Output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return ""
	}
	return out
}

func (m *Manager) gitRemoteURL(ctx context.Context, dir, branch string) string {
	if branch == "" {
		branch = "main"
	}
	remote, err := m.git.Output(ctx, dir, "config", "--get", "branch."+branch+".remote")
	if err != nil || remote == "" {
		remote = "origin"
	}
	url, err := m.git.Output(ctx, dir, "config", "--get", "remote."+remote+".url")
	if err != nil {
		return ""
	}
	return url
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// isDir follows symlinks
func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if isDir(filepath.Join(dir, e.Name())) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
