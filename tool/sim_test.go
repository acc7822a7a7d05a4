package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockClient answers the plan call first, the summary call second.
type mockClient struct {
	answers []string
	err     error
	systems []string
	users   []string
}

func (m *mockClient) Name() string { return "mock" }

func (m *mockClient) Complete(_ context.Context, system, user string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.systems = append(m.systems, system)
	m.users = append(m.users, user)

	i := len(m.systems) - 1
	if i >= len(m.answers) {
		return "", nil
	}
	return m.answers[i], nil
}

// mockExec records the vetted command and plays back canned output.
type mockExec struct {
	lines      []string
	output     string
	err        error
	gotCommand string
	called     bool
}

func (m *mockExec) Run(_ context.Context, command string, onLine func(string)) (string, error) {
	m.called = true
	m.gotCommand = command
	if onLine != nil {
		for _, line := range m.lines {
			onLine(line)
		}
	}
	return m.output, m.err
}

func newTestRegistry(t *testing.T, opts Options, exec executor) *Registry {
	t.Helper()
	r, err := NewRegistry(opts)
	require.NoError(t, err)
	if exec != nil {
		r.exec = exec
	}
	return r
}
