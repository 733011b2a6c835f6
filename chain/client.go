package chain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const headMetadataPath = "/chains/main/blocks/head/metadata"

// ErrMalformedResponse is returned when the node answered but the head
// metadata could not be decoded. Retrying does not help in that case.
var ErrMalformedResponse = errors.New("malformed head metadata")

// Client reads the chain head from a tezos node rpc.
type Client struct {
	BaseURL    string
	logger     *zap.Logger
	httpClient *retryablehttp.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		logger:     zap.NewNop(),
		httpClient: newHttpClient(),
	}
}

type levelInfo struct {
	Level *uint64 `json:"level"`
}

type headMetadata struct {
	Level     *levelInfo `json:"level"`
	LevelInfo *levelInfo `json:"level_info"`
}

// Level returns the current level (block height) of the chain head.
func (c *Client) Level(ctx context.Context) (uint64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+headMetadataPath, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create head metadata request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "failed to call head metadata")
	}
	defer c.drain(res)

	if res.StatusCode != http.StatusOK {
		return 0, errors.Errorf("head metadata returned status %d", res.StatusCode)
	}

	var meta headMetadata
	err = json.NewDecoder(res.Body).Decode(&meta)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedResponse, "decode: %v", err)
	}
	switch {
	case meta.Level != nil && meta.Level.Level != nil:
		return *meta.Level.Level, nil
	case meta.LevelInfo != nil && meta.LevelInfo.Level != nil:
		return *meta.LevelInfo.Level, nil
	}
	return 0, errors.Wrap(ErrMalformedResponse, "no level field")
}

func (c *Client) drain(res *http.Response) {
	defer func() {
		_ = res.Body.Close()
	}()
	_, err := io.Copy(io.Discard, res.Body)
	if err != nil {
		c.logger.Warn("failed to drain response body")
	}
}
