package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/elementsproject/zkharness/ledger"
	"github.com/elementsproject/zkharness/log"
	"github.com/elementsproject/zkharness/results"
	"github.com/elementsproject/zkharness/scenario"
	"github.com/elementsproject/zkharness/zkconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestCommandTokens(t *testing.T) {
	tokens := commandTokens("establish", []string{"pay", "store,pay", " close "})
	assert.Equal(t, []string{"establish", "pay", "store", "pay", "close"}, tokens)

	cmds, err := scenario.ParseCommands(tokens)
	require.NoError(t, err)
	assert.Equal(t, []scenario.Command{
		scenario.CMD_ESTABLISH, scenario.CMD_PAY, scenario.CMD_STORE, scenario.CMD_PAY, scenario.CMD_CLOSE,
	}, cmds)

	_, err = scenario.ParseCommands(commandTokens("establish", []string{"teleport"}))
	var unknown *scenario.UnknownCommandError
	assert.ErrorAs(t, err, &unknown)
}

func TestToRecord(t *testing.T) {
	start := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	res := scenario.Result{
		Index:     3,
		Label:     scenario.Label(3),
		Commands:  []scenario.Command{scenario.CMD_ESTABLISH, scenario.CMD_EXPIRE},
		Err:       errors.New("merchant close failed"),
		Remaining: ledger.Amount(2_500_000),
		Started:   start,
		Duration:  time.Second,
	}

	rec := toRecord("run-1", res)
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, 3, rec.Index)
	assert.Equal(t, "my-zkchannel-3", rec.Label)
	assert.Equal(t, []string{"establish", "expire"}, rec.Commands)
	assert.False(t, rec.Passed)
	assert.Equal(t, "merchant close failed", rec.Error)
	assert.Equal(t, int64(2_500_000), rec.Remaining)
	assert.True(t, rec.Started.Equal(start))

	res.Err = nil
	rec = toRecord("run-1", res)
	assert.True(t, rec.Passed)
	assert.Empty(t, rec.Error)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []scenario.Result{
		{Label: scenario.Label(0), Commands: []scenario.Command{scenario.CMD_ESTABLISH, scenario.CMD_CLOSE}},
		{Label: scenario.Label(1), Commands: []scenario.Command{scenario.CMD_ESTABLISH}, Err: errors.New("boom")},
	})
	out := buf.String()
	assert.Contains(t, out, "PASS my-zkchannel-0")
	assert.Contains(t, out, "[establish, close]")
	assert.Contains(t, out, "FAIL my-zkchannel-1")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "1/2 passed")
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	printRecords(&buf, []results.Record{
		{Index: 0, Label: "my-zkchannel-0", Commands: []string{"establish", "pay_all"}, Passed: true, Remaining: 0},
		{Index: 1, Label: "my-zkchannel-1", Error: "exit status 1", Remaining: 10_000_000},
	})
	out := buf.String()
	assert.Contains(t, out, "PASS my-zkchannel-0")
	assert.Contains(t, out, "[establish, pay_all]")
	assert.Contains(t, out, "FAIL my-zkchannel-1")
	assert.Contains(t, out, "remaining=10 XTZ")
	assert.Contains(t, out, "exit status 1")

	buf.Reset()
	printRuns(&buf, []results.RunSummary{{RunID: "r1", Cases: 16, Failed: 2}})
	assert.Contains(t, buf.String(), "r1  cases=16 failed=2")
}

func TestCommandDescription(t *testing.T) {
	d := commandDescription()
	for _, name := range []string{"establish", "pay_all", "mutual_close", "expire", "store", "restore"} {
		assert.Contains(t, d, name)
	}
}

const fakeZkchannel = `#!/bin/sh
echo "$@" >> "%s"
if [ "$4" = "list" ]; then
  echo '[{"label":"my-zkchannel-1","state":"ready","customer_balance":0,"merchant_balance":0,"channel_id":"chan-1"}]'
fi
`

// newTestbed writes a testnet customer config and a fake zkchannel
// binary that records its arguments.
func newTestbed(t *testing.T) (dir, bin, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a posix shell")
	}
	dir = t.TempDir()
	argsFile = filepath.Join(dir, "args")
	bin = filepath.Join(dir, "zkchannel")
	require.NoError(t, os.WriteFile(bin, []byte(strings.Replace(fakeZkchannel, "%s", argsFile, 1)), 0o755))

	p := zkconfig.NewPaths(dir, zkconfig.NETWORK_TESTNET)
	params := zkconfig.Params{Network: zkconfig.NETWORK_TESTNET, TezosURI: zkconfig.DefaultTezosURI, SelfDelay: 120, ConfirmationDepth: 1}
	require.NoError(t, zkconfig.WriteCustomer(p.CustomerConfig, zkconfig.NewCustomerConfig(p, params)))
	exiter := cli.OsExiter
	cli.OsExiter = func(int) {}
	t.Cleanup(func() {
		cli.OsExiter = exiter
		log.SetLogger(nil)
	})
	return dir, bin, argsFile
}

func recordedArgs(t *testing.T, argsFile string) []string {
	t.Helper()
	b, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func TestScenarioCommandLine(t *testing.T) {
	dir, bin, argsFile := newTestbed(t)

	err := newApp().Run([]string{
		"zkharness", "--network", "testnet", "--config-path", dir, "--zkchannel", bin, "--seed", "1",
		"scenario", "--channel", "1", "-v", "--command-list", "establish", "pay", "pay", "pay_all", "close",
	})
	require.NoError(t, err)

	args := recordedArgs(t, argsFile)
	require.Len(t, args, 5)
	assert.Contains(t, args[0], "establish zkchannel://localhost --label my-zkchannel-1 --deposit 10 XTZ")
	for _, a := range args[1:4] {
		assert.Contains(t, a, "pay my-zkchannel-1 ")
	}
	assert.Contains(t, args[4], "close --force my-zkchannel-1")
}

func TestScenarioShortCommandListFlag(t *testing.T) {
	dir, bin, argsFile := newTestbed(t)

	err := newApp().Run([]string{
		"zkharness", "--network", "testnet", "--config-path", dir, "--zkchannel", bin,
		"scenario", "--channel", "2", "-c", "establish", "mutual_close",
	})
	require.NoError(t, err)

	args := recordedArgs(t, argsFile)
	require.Len(t, args, 2)
	assert.Contains(t, args[0], "--label my-zkchannel-2")
	assert.Contains(t, args[1], "close my-zkchannel-2")
	assert.NotContains(t, args[1], "--force")
}

func TestScenarioRejectsUnknownCommand(t *testing.T) {
	dir, bin, argsFile := newTestbed(t)

	err := newApp().Run([]string{
		"zkharness", "--network", "testnet", "--config-path", dir, "--zkchannel", bin,
		"scenario", "--channel", "1", "-c", "establish", "teleport",
	})
	require.Error(t, err)
	assert.NoFileExists(t, argsFile)
}
