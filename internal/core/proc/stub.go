package proc

import (
	"context"
	"sync"
)

// Call records one invocation seen by StubRunner.
type Call struct {
	Name  string
	Stdin []byte
	Args  []string
}

// StubRunner is a scripted Runner for tests and dry runs.
type StubRunner struct {
	Fn func(ctx context.Context, name string, stdin []byte, args ...string) ([]byte, []byte, error)

	mu    sync.Mutex
	calls []Call
}

func (s *StubRunner) Run(ctx context.Context, name string, stdin []byte, args ...string) ([]byte, []byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Name: name, Stdin: append([]byte(nil), stdin...), Args: append([]string(nil), args...)})
	s.mu.Unlock()
	if s.Fn == nil {
		return nil, nil, nil
	}
	return s.Fn(ctx, name, stdin, args...)
}

// Calls returns a copy of the recorded invocations.
func (s *StubRunner) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
