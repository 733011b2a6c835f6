package log

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestConsoleLogger(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	l := NewConsoleLogger(false).WithOutput(&buf)
	l.Infof("Creating a new zkchannel: %s", "my-zkchannel-1")
	l.Debugf("-> %s", "hidden")
	l.Warnf("-> %s", "stderr line")
	l.Errorf("boom")

	assert.Equal(t,
		"[+] Creating a new zkchannel: my-zkchannel-1\n"+
			"ERROR? -> stderr line\n"+
			"ERROR: boom\n",
		buf.String(),
	)

	buf.Reset()
	l = NewConsoleLogger(true).WithOutput(&buf)
	l.Debugf("-> %s", "shown")
	assert.Equal(t, "-> shown\n", buf.String())
}

func TestFallbackToStdLogger(t *testing.T) {
	SetLogger(nil)
	// Must not panic without a configured logger.
	Infof("info %d", 1)
	Debugf("debug %d", 2)
}

func TestSetLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	SetLogger(NewConsoleLogger(false).WithOutput(&buf))
	defer SetLogger(nil)

	Infof("step %d", 1)
	Debugf("quiet")
	Errorf("failed")
	assert.Equal(t, "[+] step 1\nERROR: failed\n", buf.String())
}
