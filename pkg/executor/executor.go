package executor

import (
	"context"
	"io"
)

// Executor runs a command somewhere (this host, or a remote control host)
// and streams its output into the given writers.
type Executor interface {
	Execute(ctx context.Context, stdout, stderr io.Writer, command string, args ...string) (exitCode int, err error)
	Name() string
}

type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Error    error
}

// Output returns stderr when the command wrote to it, stdout otherwise.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}
