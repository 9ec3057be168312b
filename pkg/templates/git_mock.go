package templates

import (
	"context"
	"sync"
)

// MockGit is a Git that records calls instead of running git
type MockGit struct {
	RunFunc    func(ctx context.Context, dir string, args ...string) error
	OutputFunc func(ctx context.Context, dir string, args ...string) (string, error)

	mu    sync.Mutex
	Calls []MockCall
}

// MockCall records one git invocation
type MockCall struct {
	Method string
	Dir    string
	Args   []string
}

// NewMockGit returns a mock whose commands all succeed with no output
func NewMockGit() *MockGit {
	return &MockGit{}
}

// Run implements Git
func (m *MockGit) Run(ctx context.Context, dir string, args ...string) error {
	m.record("Run", dir, args)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, dir, args...)
	}
	return nil
}

// Output implements Git
func (m *MockGit) Output(ctx context.Context, dir string, args ...string) (string, error) {
	m.record("Output", dir, args)
	if m.OutputFunc != nil {
		return m.OutputFunc(ctx, dir, args...)
	}
	return "", nil
}

func (m *MockGit) record(method, dir string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Dir: dir, Args: args})
}

// CallsTo returns the recorded calls of one method
func (m *MockGit) CallsTo(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCall
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
