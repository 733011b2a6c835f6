package chain

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Option tunes the http client of the node rpc.
type Option struct {
	// Timeout bounds a single request, retries excluded.
	Timeout  time.Duration
	RetryMax int
	// RetryWait is the pause before the first retry, it doubles up to
	// four times its value.
	RetryWait time.Duration
}

const (
	defaultRequestTimeout = 5 * time.Second
	defaultRetryMax       = 2
	defaultRetryWait      = 500 * time.Millisecond
)

// zapLeveled adapts zap to retryablehttp.LeveledLogger.
type zapLeveled struct {
	s *zap.SugaredLogger
}

func (z zapLeveled) Error(msg string, kv ...interface{}) { z.s.Errorw(msg, kv...) }
func (z zapLeveled) Warn(msg string, kv ...interface{})  { z.s.Warnw(msg, kv...) }
func (z zapLeveled) Info(msg string, kv ...interface{})  { z.s.Debugw(msg, kv...) }
func (z zapLeveled) Debug(msg string, kv ...interface{}) { z.s.Debugw(msg, kv...) }

func (c *Client) WithLogger(logger *zap.Logger) *Client {
	c.logger = logger
	c.httpClient.Logger = zapLeveled{s: logger.Named("rpc").Sugar()}
	return c
}

func (c *Client) WithOption(o Option) *Client {
	applyOption(c.httpClient, o)
	return c
}

func newHttpClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.CheckRetry = retryOnTransportError
	applyOption(c, Option{
		Timeout:   defaultRequestTimeout,
		RetryMax:  defaultRetryMax,
		RetryWait: defaultRetryWait,
	})
	return c
}

// retryOnTransportError retries connection failures only. A node that
// answers, even with an error status, is not asked again here; the gate
// decides when to poll next.
func retryOnTransportError(ctx context.Context, res *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return err != nil && res == nil, nil
}

func applyOption(c *retryablehttp.Client, o Option) {
	c.HTTPClient = &http.Client{Timeout: o.Timeout}
	c.RetryMax = o.RetryMax
	if o.RetryWait > 0 {
		c.RetryWaitMin = o.RetryWait
		c.RetryWaitMax = 4 * o.RetryWait
	}
}
