package executor

import (
	"bytes"
	"context"
	"strings"
)

func RunAndCapture(ctx context.Context, exec Executor, command string, args ...string) (*Result, error) {
	var outBuf, errBuf bytes.Buffer

	exitCode, err := exec.Execute(ctx, &outBuf, &errBuf, command, args...)

	return &Result{
		ExitCode: exitCode,
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		Error:    err,
	}, err
}

// ShellQuote quotes s for a POSIX shell. Words made only of safe characters
// are returned unchanged.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuoting) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=,+@%", r)
}
