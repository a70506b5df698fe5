package recommender

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultSubprocessTimeout bounds one recommender invocation.
const DefaultSubprocessTimeout = 60 * time.Second

// Subprocess invokes a recommender as an external command, appending
// the query as the final argument and decoding the JSON array the
// command prints to stdout.
type Subprocess struct {
	command string
	args    []string
	timeout time.Duration
}

// SubprocessOption configures a Subprocess.
type SubprocessOption func(*Subprocess)

// WithSubprocessTimeout sets the per-invocation timeout.
func WithSubprocessTimeout(timeout time.Duration) SubprocessOption {
	return func(s *Subprocess) {
		s.timeout = timeout
	}
}

// NewSubprocess creates a subprocess recommender for the given command
// and fixed leading arguments.
func NewSubprocess(command string, args []string, opts ...SubprocessOption) *Subprocess {
	s := &Subprocess{
		command: command,
		args:    args,
		timeout: DefaultSubprocessTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend runs the command with the query appended and decodes its
// stdout. Invocation failures report FailUnreachable with the
// command's stderr attached; undecodable stdout reports FailMalformed.
func (s *Subprocess) Recommend(ctx context.Context, query string) Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(append([]string(nil), s.args...), query)
	cmd := exec.CommandContext(ctx, s.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return failure(FailUnreachable, fmt.Errorf("running %s: %w", s.command, err))
	}

	return decodeMovies(stdout.Bytes())
}
