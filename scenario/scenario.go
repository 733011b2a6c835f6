// Package scenario runs lists of channel lifecycle commands against a
// zkchannel customer and merchant.
package scenario

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/elementsproject/zkharness/ledger"
	"github.com/elementsproject/zkharness/log"
	"github.com/elementsproject/zkharness/snapshot"
	"github.com/elementsproject/zkharness/zkclient"
)

// SnapshotStore saves and restores the customer's local state of a
// channel.
type SnapshotStore interface {
	Store(label string) error
	Restore(label string) error
}

// StepError is returned when a command of a scenario fails. The
// commands after it are not run.
type StepError struct {
	Index   int
	Command Command
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("command %d (%s) failed: %v", e.Index, e.Command, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Scenario is a command list run against one channel. It owns the
// balance ledger of the channel for the duration of the run.
type Scenario struct {
	Label    string
	Commands []Command

	client    zkclient.ChannelClient
	snapshots SnapshotStore
	ledger    *ledger.Ledger
	// stored is set once this run saved a snapshot. Snapshots of
	// earlier runs on the same label are never restored.
	stored bool
}

func New(label string, deposit ledger.Amount, cmds []Command, client zkclient.ChannelClient, snapshots SnapshotStore, rng *rand.Rand) *Scenario {
	return &Scenario{
		Label:     label,
		Commands:  cmds,
		client:    client,
		snapshots: snapshots,
		ledger:    ledger.New(deposit, rng),
	}
}

func (s *Scenario) Ledger() *ledger.Ledger {
	return s.ledger
}

// Run executes the commands in order, each one to completion before the
// next. It stops at the first failing command.
func (s *Scenario) Run(ctx context.Context) error {
	for i, cmd := range s.Commands {
		if err := ctx.Err(); err != nil {
			return &StepError{Index: i, Command: cmd, Err: err}
		}
		if err := s.step(ctx, cmd); err != nil {
			return &StepError{Index: i, Command: cmd, Err: err}
		}
	}
	return nil
}

func (s *Scenario) step(ctx context.Context, cmd Command) error {
	switch cmd {
	case CMD_ESTABLISH:
		log.Infof("Creating a new zkchannel: %s with initial deposit %s", s.Label, s.ledger.Deposit())
		return s.client.Establish(ctx, s.Label, s.ledger.Deposit())

	case CMD_PAY:
		amount := s.ledger.Pay()
		log.Infof("Making a %s payment on zkchannel: %s", amount, s.Label)
		return s.client.Pay(ctx, s.Label, amount)

	case CMD_PAY_ALL:
		amount := s.ledger.PayAll()
		log.Infof("Paying the remaining balance (%s) on zkchannel: %s", amount, s.Label)
		return s.client.Pay(ctx, s.Label, amount)

	case CMD_CLOSE:
		log.Infof("Initiate closing on the zkchannel: %s", s.Label)
		return s.client.Close(ctx, s.Label, true)

	case CMD_MUTUAL_CLOSE:
		log.Infof("Initiate mutual close on the zkchannel: %s", s.Label)
		return s.client.Close(ctx, s.Label, false)

	case CMD_EXPIRE:
		id, err := zkclient.ChannelID(ctx, s.client, s.Label)
		if err != nil {
			return err
		}
		log.Infof("Initiate expiry on the channel id: %s", id)
		return s.client.Expire(ctx, id)

	case CMD_STORE:
		log.Infof("Storing customer state of %s with remaining balance of %s", s.Label, s.ledger.Remaining())
		if err := s.snapshots.Store(s.Label); err != nil {
			return err
		}
		s.stored = true
		return nil

	case CMD_RESTORE:
		if !s.stored {
			return fmt.Errorf("%w: restore before store on %s", snapshot.ErrNoSnapshot, s.Label)
		}
		log.Infof("Restoring customer state of %s", s.Label)
		return s.snapshots.Restore(s.Label)
	}
	return &UnknownCommandError{Token: cmd.String()}
}
