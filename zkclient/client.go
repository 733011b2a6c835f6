package zkclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elementsproject/zkharness/ledger"
)

const (
	// DefaultMerchantAddress is the merchant all test channels are
	// established with.
	DefaultMerchantAddress = "zkchannel://localhost"
)

// ErrChannelNotFound is returned when a label is missing from the
// customer's channel list.
var ErrChannelNotFound = errors.New("channel not found")

// ChannelDetails is a row of `zkchannel customer list --json`.
type ChannelDetails struct {
	Label           string  `json:"label"`
	State           string  `json:"state"`
	CustomerBalance int64   `json:"customer_balance"`
	MerchantBalance int64   `json:"merchant_balance"`
	ChannelID       string  `json:"channel_id"`
	ContractID      *string `json:"contract_id,omitempty"`
}

// ChannelClient is the set of zkchannel operations a scenario uses.
type ChannelClient interface {
	//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_channel_client.go -package=mocks github.com/elementsproject/zkharness/zkclient ChannelClient
	Establish(ctx context.Context, label string, deposit ledger.Amount) error
	Pay(ctx context.Context, label string, amount ledger.Amount) error
	// Close closes the channel from the customer side, unilaterally if
	// force is set, cooperatively otherwise.
	Close(ctx context.Context, label string, force bool) error
	// Expire initiates a merchant side close of the channel.
	Expire(ctx context.Context, channelID string) error
	List(ctx context.Context) ([]ChannelDetails, error)
}

// ChannelID resolves the channel id of label from the customer's
// channel list.
func ChannelID(ctx context.Context, c ChannelClient, label string) (string, error) {
	channels, err := c.List(ctx)
	if err != nil {
		return "", fmt.Errorf("List() %w", err)
	}
	for _, ch := range channels {
		if ch.Label == label {
			return ch.ChannelID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrChannelNotFound, label)
}

// Client runs the zkchannel executable for each operation.
type Client struct {
	Binary         string
	CustomerConfig string
	MerchantConfig string
	MerchantURI    string
	GracePeriod    time.Duration
}

func NewClient(binary, customerConfig, merchantConfig string) *Client {
	return &Client{
		Binary:         binary,
		CustomerConfig: customerConfig,
		MerchantConfig: merchantConfig,
		MerchantURI:    DefaultMerchantAddress,
		GracePeriod:    defaultGracePeriod,
	}
}

func (c *Client) Customer(ctx context.Context, args ...string) (*Output, error) {
	return c.run(ctx, "customer", c.CustomerConfig, args)
}

func (c *Client) Merchant(ctx context.Context, args ...string) (*Output, error) {
	return c.run(ctx, "merchant", c.MerchantConfig, args)
}

func (c *Client) process(party, config string, args []string) *Process {
	cmdline := append([]string{c.Binary, party, "--config", config}, args...)
	p := NewProcess(cmdline)
	if c.GracePeriod > 0 {
		p.GracePeriod = c.GracePeriod
	}
	return p
}

func (c *Client) run(ctx context.Context, party, config string, args []string) (*Output, error) {
	return c.process(party, config, args).Run(ctx)
}

// PrintList writes the customer's human readable channel list to w.
func (c *Client) PrintList(ctx context.Context, w io.Writer) error {
	_, err := c.process("customer", c.CustomerConfig, []string{"list"}).WithStdout(w).Run(ctx)
	return err
}

func (c *Client) Establish(ctx context.Context, label string, deposit ledger.Amount) error {
	_, err := c.Customer(ctx, "establish", c.MerchantURI, "--label", label, "--deposit", deposit.String())
	return err
}

func (c *Client) Pay(ctx context.Context, label string, amount ledger.Amount) error {
	_, err := c.Customer(ctx, "pay", label, amount.String())
	return err
}

func (c *Client) Close(ctx context.Context, label string, force bool) error {
	args := []string{"close"}
	if force {
		args = append(args, "--force")
	}
	_, err := c.Customer(ctx, append(args, label)...)
	return err
}

func (c *Client) Expire(ctx context.Context, channelID string) error {
	_, err := c.Merchant(ctx, "close", "--channel", channelID)
	return err
}

func (c *Client) List(ctx context.Context) ([]ChannelDetails, error) {
	out, err := c.Customer(ctx, "list", "--json")
	if err != nil {
		return nil, err
	}
	return ParseChannelList(strings.Join(out.Stdout, "\n"))
}

// ParseChannelList decodes the json channel list printed by the
// customer.
func ParseChannelList(s string) ([]ChannelDetails, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var channels []ChannelDetails
	err := json.Unmarshal([]byte(s), &channels)
	if err != nil {
		return nil, fmt.Errorf("could not decode channel list: %w", err)
	}
	return channels, nil
}

// Run starts the merchant server and blocks until it exits.
func (c *Client) Run(ctx context.Context) error {
	_, err := c.Merchant(ctx, "run")
	return err
}

// Watch starts the customer chain watcher and blocks until it exits.
func (c *Client) Watch(ctx context.Context) error {
	_, err := c.Customer(ctx, "watch")
	return err
}
