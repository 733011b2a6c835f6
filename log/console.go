package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

var (
	Green = color.New(color.FgGreen).SprintFunc()
	Red   = color.New(color.FgRed).SprintFunc()
	Faint = color.New(color.FgHiBlack).SprintFunc()
	Bold  = color.New(color.Bold).SprintFunc()
)

// ConsoleLogger prints the harness progress marks to a terminal:
// `[+]` for steps, `->` for child output and `ERROR` for failures.
// Debug output is only printed in verbose mode.
type ConsoleLogger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return &ConsoleLogger{out: color.Output, verbose: verbose}
}

// WithOutput redirects the logger, mostly useful in tests.
func (c *ConsoleLogger) WithOutput(w io.Writer) *ConsoleLogger {
	c.out = w
	return c
}

func (c *ConsoleLogger) Infof(format string, v ...interface{}) {
	c.println(Green("[+] " + fmt.Sprintf(format, v...)))
}

func (c *ConsoleLogger) Debugf(format string, v ...interface{}) {
	if !c.verbose {
		return
	}
	c.println(Faint(fmt.Sprintf(format, v...)))
}

func (c *ConsoleLogger) Warnf(format string, v ...interface{}) {
	c.println(Faint("ERROR?") + " " + Red(fmt.Sprintf(format, v...)))
}

func (c *ConsoleLogger) Errorf(format string, v ...interface{}) {
	c.println(Bold("ERROR:") + " " + Red(fmt.Sprintf(format, v...)))
}

func (c *ConsoleLogger) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
