package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/elementsproject/zkharness/ledger"
	"github.com/elementsproject/zkharness/log"
	"github.com/elementsproject/zkharness/zkclient"
)

const labelPrefix = "my-zkchannel-"

// Label returns the channel label of the n-th channel.
func Label(n int) string {
	return fmt.Sprintf("%s%d", labelPrefix, n)
}

// CloseMethods are the ways a channel can be closed.
var CloseMethods = []Command{CMD_MUTUAL_CLOSE, CMD_CLOSE, CMD_EXPIRE}

// TestCases returns the command lists run by test-all: every close
// method after no payment, one payment, two payments and a max payment,
// followed by the dispute flows that close on a revoked state.
func TestCases() [][]Command {
	var cases [][]Command
	for _, m := range CloseMethods {
		cases = append(cases,
			[]Command{CMD_ESTABLISH, m},
			[]Command{CMD_ESTABLISH, CMD_PAY, m},
			[]Command{CMD_ESTABLISH, CMD_PAY, CMD_PAY, m},
			[]Command{CMD_ESTABLISH, CMD_PAY_ALL, m},
		)
	}

	cases = append(cases,
		// close on the initial balance
		[]Command{CMD_ESTABLISH, CMD_STORE, CMD_PAY, CMD_RESTORE, CMD_CLOSE},
		// close on a non-initial balance
		[]Command{CMD_ESTABLISH, CMD_PAY, CMD_STORE, CMD_PAY, CMD_RESTORE, CMD_CLOSE},
		// close on a state several payments in the past
		[]Command{CMD_ESTABLISH, CMD_STORE, CMD_PAY, CMD_PAY, CMD_PAY, CMD_RESTORE, CMD_CLOSE},
		// close on the initial state after spending everything
		[]Command{CMD_ESTABLISH, CMD_STORE, CMD_PAY_ALL, CMD_RESTORE, CMD_CLOSE},
	)
	return cases
}

// Gate blocks until the chain is ready for channel operations.
type Gate interface {
	AwaitMinimumHeight(ctx context.Context) (uint64, error)
}

// Result is the outcome of one scenario.
type Result struct {
	Index     int
	Label     string
	Commands  []Command
	Err       error
	Remaining ledger.Amount
	Started   time.Time
	Duration  time.Duration
}

func (r Result) Passed() bool {
	return r.Err == nil
}

// Runner runs scenarios against a shared client and snapshot store. The
// gate, if set, is awaited once before anything runs.
type Runner struct {
	Deposit   ledger.Amount
	Client    zkclient.ChannelClient
	Snapshots SnapshotStore
	Rand      *rand.Rand
	Gate      Gate

	// OnResult is called after every scenario of RunAll.
	OnResult func(Result)
}

func (r *Runner) await(ctx context.Context) error {
	if r.Gate == nil {
		return nil
	}
	_, err := r.Gate.AwaitMinimumHeight(ctx)
	if err != nil {
		return fmt.Errorf("chain not ready: %w", err)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, index int, label string, cmds []Command) Result {
	s := New(label, r.Deposit, cmds, r.Client, r.Snapshots, r.Rand)
	res := Result{Index: index, Label: label, Commands: cmds, Started: time.Now()}
	res.Err = s.Run(ctx)
	res.Duration = time.Since(res.Started)
	res.Remaining = s.Ledger().Remaining()
	return res
}

// RunScenario waits for the gate and runs a single command list on
// label.
func (r *Runner) RunScenario(ctx context.Context, label string, cmds []Command) (Result, error) {
	err := r.await(ctx)
	if err != nil {
		return Result{Label: label, Commands: cmds, Err: err}, err
	}
	log.Infof("Running scenario: %s", FormatCommands(cmds))
	res := r.run(ctx, 0, label, cmds)
	return res, res.Err
}

// RunAll waits for the gate and runs every test case on its own
// channel. A failing case does not stop the others. If ctx is cancelled
// the cases not yet started are reported with the context error.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	err := r.await(ctx)
	if err != nil {
		return nil, err
	}

	cases := TestCases()
	log.Infof("The following %d scenarios will be tested:", len(cases))
	for i, c := range cases {
		log.Infof("  %d: [%s]", i, FormatCommands(c))
	}

	results := make([]Result, 0, len(cases))
	for i, cmds := range cases {
		var res Result
		if err := ctx.Err(); err != nil {
			res = Result{Index: i, Label: Label(i), Commands: cmds, Err: err}
		} else {
			log.Infof("Running [%s]", FormatCommands(cmds))
			res = r.run(ctx, i, Label(i), cmds)
			if res.Err != nil {
				log.Errorf("%s failed: %v", res.Label, res.Err)
			}
		}
		results = append(results, res)
		if r.OnResult != nil {
			r.OnResult(res)
		}
	}
	log.Infof("Done!")
	return results, nil
}

// Failed counts the failed results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed() {
			n++
		}
	}
	return n
}
