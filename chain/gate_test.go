package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantTimer fires immediately and records the requested waits.
type instantTimer struct {
	mu    sync.Mutex
	c     chan time.Time
	waits []time.Duration
}

func (t *instantTimer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waits = append(t.waits, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c
}

// risingChain returns start, start+1, ... on each poll.
type risingChain struct {
	mu    sync.Mutex
	next  uint64
	polls int
	errs  []error
}

func (c *risingChain) Level(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return 0, err
	}
	l := c.next
	c.next++
	return l, nil
}

func TestGateWaitsForMinLevel(t *testing.T) {
	src := &risingChain{next: 0}
	timer := &instantTimer{}
	g := NewGate(src, GateOptions{MinLevel: 60, PerBlock: 2 * time.Second, MaxWait: time.Minute}).WithTimer(timer)

	level, err := g.AwaitMinimumHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(60), level)
	assert.Equal(t, 61, src.polls)
	require.Len(t, timer.waits, 60)
	// 60 blocks short, capped at a minute.
	assert.Equal(t, time.Minute, timer.waits[0])
	// 20 blocks short.
	assert.Equal(t, 40*time.Second, timer.waits[40])
	// 1 block short.
	assert.Equal(t, 2*time.Second, timer.waits[59])
}

func TestGateAlreadyMature(t *testing.T) {
	src := &risingChain{next: 100}
	timer := &instantTimer{}
	g := NewGate(src, GateOptions{MinLevel: 60}).WithTimer(timer)

	level, err := g.AwaitMinimumHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), level)
	assert.Equal(t, 1, src.polls)
	assert.Empty(t, timer.waits)
}

func TestGateRetriesRpcErrors(t *testing.T) {
	src := &risingChain{next: 60, errs: []error{errors.New("connection refused"), errors.New("connection refused")}}
	timer := &instantTimer{}
	g := NewGate(src, GateOptions{MinLevel: 60, PerBlock: time.Second}).WithTimer(timer)

	_, err := g.AwaitMinimumHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, src.polls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, timer.waits)
}

func TestGateMalformedIsPermanent(t *testing.T) {
	src := &risingChain{errs: []error{ErrMalformedResponse}}
	g := NewGate(src, GateOptions{MinLevel: 60}).WithTimer(&instantTimer{})

	_, err := g.AwaitMinimumHeight(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 1, src.polls)
}

func TestGateTimeout(t *testing.T) {
	src := &risingChain{next: 0}
	g := NewGate(src, GateOptions{MinLevel: 1000, PerBlock: time.Millisecond, MaxWait: 5 * time.Millisecond, Timeout: 50 * time.Millisecond})

	_, err := g.AwaitMinimumHeight(context.Background())
	assert.ErrorIs(t, err, ErrGateTimeout)
}

func TestGateCancel(t *testing.T) {
	src := &risingChain{next: 0}
	g := NewGate(src, GateOptions{MinLevel: 1000, PerBlock: time.Hour, MaxWait: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := g.AwaitMinimumHeight(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
