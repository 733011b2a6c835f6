package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elementsproject/zkharness/chain"
	"github.com/elementsproject/zkharness/ledger"
	"github.com/elementsproject/zkharness/log"
	"github.com/elementsproject/zkharness/results"
	"github.com/elementsproject/zkharness/scenario"
	"github.com/elementsproject/zkharness/snapshot"
	"github.com/elementsproject/zkharness/zkclient"
	"github.com/elementsproject/zkharness/zkconfig"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// harness holds the settings shared by all commands.
type harness struct {
	network zkconfig.Network
	paths   zkconfig.Paths
	params  zkconfig.Params
	deposit ledger.Amount
	client  *zkclient.Client
}

func newHarness(ctx *cli.Context) (*harness, error) {
	network, err := zkconfig.ParseNetwork(ctx.GlobalString("network"))
	if err != nil {
		return nil, cli.NewExitError(err.Error(), 1)
	}
	deposit, err := ledger.ParseAmount(ctx.GlobalString("amount"))
	if err != nil {
		return nil, cli.NewExitError(fmt.Sprintf("invalid amount: %v", err), 1)
	}
	if deposit <= 0 {
		return nil, cli.NewExitError("amount must be positive", 1)
	}
	paths := zkconfig.NewPaths(ctx.GlobalString("config-path"), network)
	return &harness{
		network: network,
		paths:   paths,
		params: zkconfig.Params{
			Network:           network,
			TezosURI:          ctx.GlobalString("url"),
			SelfDelay:         ctx.GlobalInt64("self-delay"),
			ConfirmationDepth: ctx.GlobalInt64("confirmation-depth"),
		},
		deposit: deposit,
		client: zkclient.NewClient(
			ctx.GlobalString(zkchannelFlag.Name),
			paths.CustomerConfig,
			paths.MerchantConfig,
		),
	}, nil
}

// runner builds the scenario runner. The chain gate is only used on the
// sandbox, where the chain starts at level zero.
func (h *harness) runner(ctx *cli.Context) (*scenario.Runner, error) {
	cfg, err := zkconfig.LoadCustomer(h.paths.CustomerConfig)
	if err != nil {
		return nil, cli.NewExitError(fmt.Sprintf("could not load customer config, run cust-setup first: %v", err), 1)
	}
	dbPath, err := cfg.DatabasePath(h.paths.CustomerConfig)
	if err != nil {
		return nil, cli.NewExitError(err.Error(), 1)
	}

	seed := time.Now().UnixNano()
	if ctx.GlobalIsSet(seedFlag.Name) {
		seed = ctx.GlobalInt64(seedFlag.Name)
	}
	log.Debugf("payment seed: %d", seed)

	r := &scenario.Runner{
		Deposit:   h.deposit,
		Client:    h.client,
		Snapshots: snapshot.New(filepath.Dir(dbPath), filepath.Base(dbPath), h.paths.ArchiveDir),
		Rand:      rand.New(rand.NewSource(seed)),
	}
	if h.network == zkconfig.NETWORK_SANDBOX {
		rpc := chain.NewClient(h.params.TezosURI).WithLogger(chainLogger())
		r.Gate = chain.NewGate(rpc, gateOptions(ctx))
	}
	return r, nil
}

func chainLogger() *zap.Logger {
	if zapBase != nil {
		return zapBase
	}
	return zap.NewNop()
}

func merchSetup(ctx *cli.Context) error {
	h, err := newHarness(ctx)
	if err != nil {
		return err
	}
	cfg := zkconfig.NewMerchantConfig(h.paths, h.params)
	if err := zkconfig.WriteMerchant(h.paths.MerchantConfig, cfg); err != nil {
		return err
	}

	c, cancel := signalContext()
	defer cancel()
	log.Infof("Running merchant server...")
	return h.client.Run(c)
}

func custSetup(ctx *cli.Context) error {
	h, err := newHarness(ctx)
	if err != nil {
		return err
	}
	cfg := zkconfig.NewCustomerConfig(h.paths, h.params)
	if err := zkconfig.WriteCustomer(h.paths.CustomerConfig, cfg); err != nil {
		return err
	}

	c, cancel := signalContext()
	defer cancel()
	log.Infof("Running customer watcher...")
	return h.client.Watch(c)
}

// commandTokens joins the --command-list value with the trailing
// arguments.
func commandTokens(first string, rest []string) []string {
	var tokens []string
	for _, t := range append([]string{first}, rest...) {
		tokens = append(tokens, strings.Fields(strings.ReplaceAll(t, ",", " "))...)
	}
	return tokens
}

func runScenario(ctx *cli.Context) error {
	h, err := newHarness(ctx)
	if err != nil {
		return err
	}
	channel := ctx.Int(channelFlag.Name)
	if channel <= 0 {
		return cli.NewExitError("channel must be greater than 0", 1)
	}
	cmds, err := scenario.ParseCommands(commandTokens(ctx.String("command-list"), ctx.Args()))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	r, err := h.runner(ctx)
	if err != nil {
		return err
	}

	c, cancel := signalContext()
	defer cancel()
	label := scenario.Label(channel)
	_, err = r.RunScenario(c, label, cmds)
	if err != nil {
		return fmt.Errorf("scenario on %s failed: %w", label, err)
	}
	return nil
}

func testAll(ctx *cli.Context) error {
	h, err := newHarness(ctx)
	if err != nil {
		return err
	}
	r, err := h.runner(ctx)
	if err != nil {
		return err
	}

	runID := results.NewRunID(time.Now())
	if p := ctx.GlobalString(resultsDbFlag.Name); p != "" {
		store, err := results.Open(p)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer store.Close()
		r.OnResult = func(res scenario.Result) {
			if err := store.Put(toRecord(runID, res)); err != nil {
				log.Warnf("could not record result of %s: %v", res.Label, err)
			}
		}
		log.Infof("Recording results as run %s", runID)
	}

	c, cancel := signalContext()
	defer cancel()
	res, err := r.RunAll(c)
	if err != nil {
		return err
	}
	printSummary(os.Stdout, res)
	if n := scenario.Failed(res); n > 0 {
		return fmt.Errorf("%d of %d test cases failed", n, len(res))
	}
	return nil
}

func toRecord(runID string, res scenario.Result) results.Record {
	rec := results.Record{
		RunID:     runID,
		Index:     res.Index,
		Label:     res.Label,
		Passed:    res.Passed(),
		Remaining: int64(res.Remaining),
		Started:   res.Started,
		Duration:  res.Duration,
	}
	for _, c := range res.Commands {
		rec.Commands = append(rec.Commands, c.String())
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return rec
}

func printSummary(w io.Writer, res []scenario.Result) {
	for _, r := range res {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s %-16s [%s]\n", status, r.Label, scenario.FormatCommands(r.Commands))
		if r.Err != nil {
			fmt.Fprintf(w, "     %v\n", r.Err)
		}
	}
	fmt.Fprintf(w, "%d/%d passed\n", len(res)-scenario.Failed(res), len(res))
}

func list(ctx *cli.Context) error {
	h, err := newHarness(ctx)
	if err != nil {
		return err
	}
	c, cancel := signalContext()
	defer cancel()
	return h.client.PrintList(c, os.Stdout)
}

func history(ctx *cli.Context) error {
	p := ctx.GlobalString(resultsDbFlag.Name)
	if p == "" {
		return cli.NewExitError("history needs --results-db", 1)
	}
	if !results.Exists(p) {
		return cli.NewExitError(fmt.Sprintf("no results database at %s", p), 1)
	}
	store, err := results.Open(p)
	if err != nil {
		return err
	}
	defer store.Close()

	if ctx.NArg() == 0 {
		runs, err := store.ListRuns()
		if err != nil {
			return err
		}
		printRuns(os.Stdout, runs)
		return nil
	}
	records, err := store.GetRun(ctx.Args().First())
	if errors.Is(err, results.ErrRunNotFound) {
		return cli.NewExitError(err.Error(), 1)
	}
	if err != nil {
		return err
	}
	printRecords(os.Stdout, records)
	return nil
}

func printRuns(w io.Writer, runs []results.RunSummary) {
	for _, r := range runs {
		fmt.Fprintf(w, "%s  cases=%d failed=%d started=%s\n",
			r.RunID, r.Cases, r.Failed, r.Started.Format(time.RFC3339))
	}
}

func printRecords(w io.Writer, records []results.Record) {
	for _, r := range records {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%2d %s %-16s [%s] %s remaining=%s\n", r.Index, status, r.Label,
			strings.Join(r.Commands, ", "), r.Duration.Round(time.Millisecond), ledger.Amount(r.Remaining))
		if r.Error != "" {
			fmt.Fprintf(w, "     %s\n", r.Error)
		}
	}
}
