package zkclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/elementsproject/zkharness/log"
)

const defaultGracePeriod = 5 * time.Second

// ExitError is returned when the zkchannel process exits with a non-zero
// status.
type ExitError struct {
	Args   []string
	Code   int
	Stderr []string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("`%s` exited with status %d", strings.Join(e.Args, " "), e.Code)
	if n := len(e.Stderr); n > 0 {
		msg += ": " + e.Stderr[n-1]
	}
	return msg
}

// Output holds the lines a process wrote.
type Output struct {
	Stdout []string
	Stderr []string
}

// Process runs a single zkchannel invocation to completion. Stdout and
// stderr are logged line by line while the process runs and kept for
// the caller.
type Process struct {
	CmdLine     []string
	GracePeriod time.Duration

	stdout *lineWriter
	stderr *lineWriter
}

func NewProcess(cmdline []string) *Process {
	return &Process{
		CmdLine:     cmdline,
		GracePeriod: defaultGracePeriod,
		stdout:      &lineWriter{emit: logLine(log.Debugf)},
		stderr:      &lineWriter{emit: logLine(log.Warnf)},
	}
}

// WithStdout writes the stdout lines to w instead of the debug log.
func (p *Process) WithStdout(w io.Writer) *Process {
	p.stdout.emit = func(line string) {
		fmt.Fprintln(w, line)
	}
	return p
}

func logLine(logf func(format string, v ...interface{})) func(string) {
	return func(line string) {
		if line != "" {
			logf("-> %s", line)
		}
	}
}

// Run starts the process and waits for it. Cancelling ctx sends SIGTERM
// to the process group of the child and SIGKILL once GracePeriod has
// passed.
func (p *Process) Run(ctx context.Context) (*Output, error) {
	if len(p.CmdLine) == 0 {
		return nil, fmt.Errorf("empty command line")
	}
	cmd := exec.CommandContext(ctx, p.CmdLine[0], p.CmdLine[1:]...)
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	release := setProcessGroup(cmd, p.GracePeriod)
	cmd.WaitDelay = p.GracePeriod

	err := cmd.Run()
	release()
	p.stdout.flush()
	p.stderr.flush()
	out := &Output{Stdout: p.stdout.Lines(), Stderr: p.stderr.Lines()}

	if ctx.Err() != nil {
		return out, fmt.Errorf("`%s` interrupted: %w", strings.Join(p.CmdLine, " "), ctx.Err())
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return out, &ExitError{
				Args:   p.CmdLine,
				Code:   exitErr.ExitCode(),
				Stderr: out.Stderr,
			}
		}
		return out, fmt.Errorf("error running `%s`: %w", strings.Join(p.CmdLine, " "), err)
	}
	return out, nil
}

// lineWriter splits the stream into lines, logs each line and keeps
// them.
type lineWriter struct {
	sync.Mutex

	emit    func(line string)
	partial []byte
	lines   []string
}

func (w *lineWriter) Write(b []byte) (int, error) {
	w.Lock()
	defer w.Unlock()

	w.partial = append(w.partial, b...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.add(string(w.partial[:i]))
		w.partial = w.partial[i+1:]
	}
	return len(b), nil
}

func (w *lineWriter) flush() {
	w.Lock()
	defer w.Unlock()
	if len(w.partial) > 0 {
		w.add(string(w.partial))
		w.partial = nil
	}
}

func (w *lineWriter) add(line string) {
	line = strings.TrimRight(line, "\r ")
	w.lines = append(w.lines, line)
	if w.emit != nil {
		w.emit(line)
	}
}

func (w *lineWriter) Lines() []string {
	w.Lock()
	defer w.Unlock()
	lines := make([]string, len(w.lines))
	copy(lines, w.lines)
	return lines
}
