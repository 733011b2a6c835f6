package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elementsproject/zkharness/log"
)

const (
	// DefaultMinLevel is the level the chain must have reached before
	// channel operations are run. Operations reference blocks up to 60
	// levels below the head.
	DefaultMinLevel = 60

	DefaultPerBlock = 2 * time.Second
	DefaultMaxWait  = time.Minute
	DefaultTimeout  = 30 * time.Minute
)

// ErrGateTimeout is returned when the chain did not reach the minimum
// level within GateOptions.Timeout.
var ErrGateTimeout = errors.New("timeout waiting for chain level")

// LevelSource returns the current level of the chain.
type LevelSource interface {
	Level(ctx context.Context) (uint64, error)
}

type GateOptions struct {
	MinLevel uint64
	// PerBlock is the expected block time. The gate waits
	// deficit*PerBlock before polling again.
	PerBlock time.Duration
	// MaxWait caps a single wait.
	MaxWait time.Duration
	// Timeout bounds the whole wait. Zero waits forever.
	Timeout time.Duration
}

func DefaultGateOptions() GateOptions {
	return GateOptions{
		MinLevel: DefaultMinLevel,
		PerBlock: DefaultPerBlock,
		MaxWait:  DefaultMaxWait,
		Timeout:  DefaultTimeout,
	}
}

// Gate blocks until the chain has a minimum number of blocks.
type Gate struct {
	source LevelSource
	opts   GateOptions
	timer  backoff.Timer
}

func NewGate(source LevelSource, opts GateOptions) *Gate {
	if opts.PerBlock <= 0 {
		opts.PerBlock = DefaultPerBlock
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}
	return &Gate{source: source, opts: opts}
}

// WithTimer replaces the timer used between polls.
func (g *Gate) WithTimer(t backoff.Timer) *Gate {
	g.timer = t
	return g
}

type belowMinError struct {
	level, min uint64
}

func (e *belowMinError) Error() string {
	return fmt.Sprintf("blockchain level is %d but needs to be at least %d", e.level, e.min)
}

// deficitBackOff waits proportionally to the number of missing blocks.
type deficitBackOff struct {
	perBlock time.Duration
	max      time.Duration
	deficit  uint64
}

func (b *deficitBackOff) Reset() {
	b.deficit = 1
}

func (b *deficitBackOff) NextBackOff() time.Duration {
	deficit := b.deficit
	if deficit == 0 {
		deficit = 1
	}
	if deficit > uint64(b.max/b.perBlock) {
		return b.max
	}
	return time.Duration(deficit) * b.perBlock
}

// AwaitMinimumHeight polls the chain level until it reaches
// GateOptions.MinLevel and returns the last observed level. Rpc errors
// are retried on the same schedule, a malformed answer is not.
func (g *Gate) AwaitMinimumHeight(ctx context.Context) (uint64, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	b := &deficitBackOff{perBlock: g.opts.PerBlock, max: g.opts.MaxWait}
	var level uint64
	operation := func() error {
		l, err := g.source.Level(ctx)
		if err != nil {
			if errors.Is(err, ErrMalformedResponse) {
				return backoff.Permanent(err)
			}
			b.deficit = 1
			return err
		}
		level = l
		if l >= g.opts.MinLevel {
			return nil
		}
		b.deficit = g.opts.MinLevel - l
		return &belowMinError{level: l, min: g.opts.MinLevel}
	}
	notify := func(err error, wait time.Duration) {
		var below *belowMinError
		if errors.As(err, &below) {
			log.Infof("%s. Reattempting in %s", below.Error(), wait)
			return
		}
		log.Warnf("could not get blockchain level: %v. Reattempting in %s", err, wait)
	}

	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(b, ctx), notify, g.timer)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && g.opts.Timeout > 0 {
			return level, fmt.Errorf("%w: level %d after %s, need %d", ErrGateTimeout, level, g.opts.Timeout, g.opts.MinLevel)
		}
		return level, err
	}
	log.Debugf("blockchain level %d reached minimum %d", level, g.opts.MinLevel)
	return level, nil
}
