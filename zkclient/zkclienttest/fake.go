// Package zkclienttest provides a ChannelClient that keeps the
// customer's channels in a local sqlite database, the same way the
// zkchannel customer does. Because the state lives in a database file,
// snapshot/restore of that file rewinds the fake exactly like it
// rewinds the real customer.
package zkclienttest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/elementsproject/zkharness/ledger"
	"github.com/elementsproject/zkharness/zkclient"
	_ "modernc.org/sqlite"
)

const (
	StateReady           = "ready"
	StatePendingClose    = "pending_close"
	StateMerchantExpired = "pending_expiry"
	StateClosed          = "closed"
)

const schema = `CREATE TABLE IF NOT EXISTS channels (
	label TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL UNIQUE,
	state TEXT NOT NULL,
	customer_balance INTEGER NOT NULL,
	merchant_balance INTEGER NOT NULL
)`

// Call records an operation the fake received. Balance is the customer
// balance stored in the database when the operation ran, so for a close
// it is the state the customer closed on.
type Call struct {
	Op        string
	Label     string
	ChannelID string
	Amount    ledger.Amount
	Force     bool
	Balance   ledger.Amount
}

// Client is a fake ChannelClient backed by a sqlite file.
type Client struct {
	sync.Mutex

	dbPath string
	calls  []Call
	failOn map[string]error
	nextID int
}

func NewClient(dbPath string) *Client {
	return &Client{
		dbPath: dbPath,
		failOn: map[string]error{},
	}
}

// FailOn makes every call of op return err.
func (c *Client) FailOn(op string, err error) {
	c.Lock()
	defer c.Unlock()
	c.failOn[op] = err
}

// Calls returns the recorded calls in order.
func (c *Client) Calls() []Call {
	c.Lock()
	defer c.Unlock()
	calls := make([]Call, len(c.calls))
	copy(calls, c.calls)
	return calls
}

func (c *Client) withDB(f func(db *sql.DB) error) error {
	db, err := sql.Open("sqlite", c.dbPath)
	if err != nil {
		return fmt.Errorf("sql.Open(%s) %w", c.dbPath, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("journal_mode %w", err)
	}
	_, err = db.Exec(schema)
	if err != nil {
		return fmt.Errorf("schema %w", err)
	}
	return f(db)
}

func (c *Client) record(call Call) error {
	c.calls = append(c.calls, call)
	if err, ok := c.failOn[call.Op]; ok {
		return err
	}
	return nil
}

func getChannel(db *sql.DB, label string) (*zkclient.ChannelDetails, error) {
	var ch zkclient.ChannelDetails
	err := db.QueryRow(
		"SELECT label, channel_id, state, customer_balance, merchant_balance FROM channels WHERE label = ?",
		label,
	).Scan(&ch.Label, &ch.ChannelID, &ch.State, &ch.CustomerBalance, &ch.MerchantBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", zkclient.ErrChannelNotFound, label)
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *Client) Establish(ctx context.Context, label string, deposit ledger.Amount) error {
	c.Lock()
	defer c.Unlock()
	if err := c.record(Call{Op: "establish", Label: label, Amount: deposit}); err != nil {
		return err
	}
	c.nextID++
	id := fmt.Sprintf("chan-%d", c.nextID)
	return c.withDB(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			"INSERT INTO channels (label, channel_id, state, customer_balance, merchant_balance) VALUES (?, ?, ?, ?, 0)",
			label, id, StateReady, int64(deposit),
		)
		if err != nil {
			return fmt.Errorf("channel %s already exists: %w", label, err)
		}
		return nil
	})
}

func (c *Client) Pay(ctx context.Context, label string, amount ledger.Amount) error {
	c.Lock()
	defer c.Unlock()
	return c.withDB(func(db *sql.DB) error {
		ch, err := getChannel(db, label)
		if err != nil {
			c.calls = append(c.calls, Call{Op: "pay", Label: label, Amount: amount})
			return err
		}
		if err := c.record(Call{Op: "pay", Label: label, Amount: amount, Balance: ledger.Amount(ch.CustomerBalance)}); err != nil {
			return err
		}
		if ch.State != StateReady {
			return fmt.Errorf("channel %s is %s", label, ch.State)
		}
		if int64(amount) > ch.CustomerBalance {
			return fmt.Errorf("insufficient balance %d for payment %d", ch.CustomerBalance, amount)
		}
		_, err = db.ExecContext(ctx,
			"UPDATE channels SET customer_balance = customer_balance - ?, merchant_balance = merchant_balance + ? WHERE label = ?",
			int64(amount), int64(amount), label,
		)
		return err
	})
}

func (c *Client) Close(ctx context.Context, label string, force bool) error {
	c.Lock()
	defer c.Unlock()
	op := "mutual_close"
	if force {
		op = "close"
	}
	return c.withDB(func(db *sql.DB) error {
		ch, err := getChannel(db, label)
		if err != nil {
			c.calls = append(c.calls, Call{Op: op, Label: label, Force: force})
			return err
		}
		if err := c.record(Call{Op: op, Label: label, Force: force, ChannelID: ch.ChannelID, Balance: ledger.Amount(ch.CustomerBalance)}); err != nil {
			return err
		}
		state := StateClosed
		if force {
			state = StatePendingClose
		}
		_, err = db.ExecContext(ctx, "UPDATE channels SET state = ? WHERE label = ?", state, label)
		return err
	})
}

func (c *Client) Expire(ctx context.Context, channelID string) error {
	c.Lock()
	defer c.Unlock()
	if err := c.record(Call{Op: "expire", ChannelID: channelID}); err != nil {
		return err
	}
	return c.withDB(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, "UPDATE channels SET state = ? WHERE channel_id = ?", StateMerchantExpired, channelID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", zkclient.ErrChannelNotFound, channelID)
		}
		return nil
	})
}

func (c *Client) List(ctx context.Context) ([]zkclient.ChannelDetails, error) {
	c.Lock()
	defer c.Unlock()
	if err := c.record(Call{Op: "list"}); err != nil {
		return nil, err
	}
	var channels []zkclient.ChannelDetails
	err := c.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT label, channel_id, state, customer_balance, merchant_balance FROM channels ORDER BY label")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var ch zkclient.ChannelDetails
			err = rows.Scan(&ch.Label, &ch.ChannelID, &ch.State, &ch.CustomerBalance, &ch.MerchantBalance)
			if err != nil {
				return err
			}
			channels = append(channels, ch)
		}
		return rows.Err()
	})
	return channels, err
}

var _ zkclient.ChannelClient = (*Client)(nil)
