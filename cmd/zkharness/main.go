package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/elementsproject/zkharness/chain"
	"github.com/elementsproject/zkharness/log"
	"github.com/elementsproject/zkharness/scenario"
	"github.com/elementsproject/zkharness/zkconfig"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Errorf("%v", err)
		syncLogger(nil)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "zkharness"
	app.Usage = "zkChannels end-to-end test harness"
	app.Flags = []cli.Flag{
		configPathFlag, networkFlag, selfDelayFlag, confirmationDepthFlag,
		urlFlag, amountFlag, verboseFlag, logFormatFlag, zkchannelFlag,
		seedFlag, minLevelFlag, gateTimeoutFlag, resultsDbFlag,
	}
	app.Commands = []cli.Command{
		merchSetupCommand, custSetupCommand, scenarioCommand,
		testAllCommand, listCommand, historyCommand,
	}
	// -v is accepted after the command name as well.
	for i := range app.Commands {
		app.Commands[i].Flags = append(app.Commands[i].Flags, verboseFlag)
		app.Commands[i].Before = commandVerbose
	}
	app.Action = list
	app.Before = setupLogger
	app.After = syncLogger
	return app
}

var (
	configPathFlag = cli.StringFlag{
		Name:  "config-path",
		Value: ".",
		Usage: "directory of the customer and merchant config files",
	}
	networkFlag = cli.StringFlag{
		Name:  "network",
		Value: string(zkconfig.NETWORK_SANDBOX),
		Usage: "tezos network: 'sandbox' | 'testnet'",
	}
	selfDelayFlag = cli.Int64Flag{
		Name:  "self-delay, t",
		Value: zkconfig.DefaultSelfDelay,
		Usage: "dispute period of the channels in seconds",
	}
	confirmationDepthFlag = cli.Int64Flag{
		Name:  "confirmation-depth, d",
		Value: zkconfig.DefaultConfirmationDepth,
		Usage: "blocks to wait before an operation is considered final",
	}
	urlFlag = cli.StringFlag{
		Name:  "url, u",
		Value: zkconfig.DefaultTezosURI,
		Usage: "tezos node rpc url",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount, a",
		Value: "10",
		Usage: "channel deposit in tez",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose, v",
		Usage: "print the output of the zkchannel client",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log-format",
		Value: "console",
		Usage: "log output: 'console' | 'json'",
	}
	zkchannelFlag = cli.StringFlag{
		Name:  "zkchannel",
		Value: "../target/debug/zkchannel",
		Usage: "path to the zkchannel executable",
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "seed for the payment amounts (random if unset)",
	}
	minLevelFlag = cli.Uint64Flag{
		Name:  "min-level",
		Value: chain.DefaultMinLevel,
		Usage: "chain level required before channels are opened (sandbox only)",
	}
	gateTimeoutFlag = cli.DurationFlag{
		Name:  "gate-timeout",
		Value: chain.DefaultTimeout,
		Usage: "maximum time to wait for the chain level",
	}
	resultsDbFlag = cli.StringFlag{
		Name:  "results-db",
		Usage: "bbolt file to record test-all results in",
	}

	channelFlag = cli.IntFlag{
		Name:     "channel",
		Usage:    "channel number, the channel label is my-zkchannel-<n>",
		Required: true,
	}
	commandListFlag = cli.StringFlag{
		Name:     "command-list, c",
		Usage:    "commands to run, further commands follow as arguments",
		Required: true,
	}

	merchSetupCommand = cli.Command{
		Name:   "merch-setup",
		Usage:  "write the merchant config and run the merchant server",
		Action: merchSetup,
	}
	custSetupCommand = cli.Command{
		Name:   "cust-setup",
		Usage:  "write the customer config and watch the customer channels",
		Action: custSetup,
	}
	scenarioCommand = cli.Command{
		Name:      "scenario",
		Usage:     "run a list of commands on a single channel",
		ArgsUsage: "[command...]",
		Description: commandDescription(),
		Flags: []cli.Flag{
			channelFlag,
			commandListFlag,
		},
		Action: runScenario,
	}
	testAllCommand = cli.Command{
		Name:   "test-all",
		Usage:  "run every test case, each on its own channel",
		Action: testAll,
	}
	listCommand = cli.Command{
		Name:   "list",
		Usage:  "list the customer channels",
		Action: list,
	}
	historyCommand = cli.Command{
		Name:      "history",
		Usage:     "show recorded test-all runs",
		ArgsUsage: "[run-id]",
		Action:    history,
	}
)

var (
	zapBase   *zap.Logger
	zapLogger *log.ZapLogger
)

func setupLogger(ctx *cli.Context) error {
	verbose := ctx.Bool("verbose") || ctx.GlobalBool("verbose")
	switch ctx.GlobalString(logFormatFlag.Name) {
	case "json":
		l, err := log.NewJSONLogger(verbose)
		if err != nil {
			return err
		}
		zapBase = l
		zapLogger = log.NewZapLogger(l)
		log.SetLogger(zapLogger)
	case "console", "":
		log.SetLogger(log.NewConsoleLogger(verbose))
	default:
		return cli.NewExitError("log-format must be 'console' or 'json'", 1)
	}
	return nil
}

// commandVerbose reconfigures the logger when -v is given after the
// command name.
func commandVerbose(ctx *cli.Context) error {
	if !ctx.Bool("verbose") {
		return nil
	}
	_ = syncLogger(ctx)
	return setupLogger(ctx)
}

func syncLogger(*cli.Context) error {
	if zapLogger != nil {
		_ = zapLogger.Sync()
	}
	return nil
}

func commandDescription() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, h := range scenario.CommandHelp {
		fmt.Fprintf(&b, "   %-13s %s\n", h.Command, h.Description)
	}
	return b.String()
}

// signalContext is cancelled on SIGINT and SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func gateOptions(ctx *cli.Context) chain.GateOptions {
	opts := chain.DefaultGateOptions()
	opts.MinLevel = ctx.GlobalUint64(minLevelFlag.Name)
	opts.Timeout = ctx.GlobalDuration(gateTimeoutFlag.Name)
	return opts
}
