// Package bootnodes fetches per-shard boot node lists from bootnodes routers.
package bootnodes

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/config"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
)

// Method is the router JSON-RPC method returning a BootnodesRouterConf.
const Method = "bootnodes"

const serviceName = "bootnodes-router"

// Fetcher is implemented by Client. The assembler depends on this interface.
type Fetcher interface {
	Fetch(ctx context.Context, urls []string) (*config.BootnodesRouterConf, error)
}

// Client calls bootnodes routers over JSON-RPC 2.0.
type Client struct {
	timeout    time.Duration
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// NewClient creates a router client. A non-positive timeout uses the default.
func NewClient(timeout time.Duration, logger *logging.ColoredLogger) *Client {
	if timeout <= 0 {
		timeout = config.DefaultRouterTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch tries each router in order and returns the first successful answer.
// The whole call is bounded by the client timeout. Each failed router is
// logged at warn level; when all fail the last failure is returned.
func (c *Client) Fetch(ctx context.Context, urls []string) (*config.BootnodesRouterConf, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for _, url := range urls {
		conf, err := c.fetchOne(ctx, url)
		if err == nil {
			c.logger.ComponentDebug(logging.ComponentRouter, "Fetched bootnodes router conf",
				zap.String("router", url),
				zap.Strings("shards", conf.ShardKeys()),
			)
			return conf, nil
		}
		lastErr = err
		c.logger.ComponentWarn(logging.ComponentRouter, "Bootnodes router request failed",
			zap.String("router", url),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}

	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errors.NewTimeoutError("bootnodes router fetch", c.timeout.String())
	}
	return nil, errors.NewServiceError(serviceName, "", lastErr)
}

func (c *Client) fetchOne(ctx context.Context, url string) (*config.BootnodesRouterConf, error) {
	client, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	defer client.Close()

	var conf config.BootnodesRouterConf
	if err := client.CallContext(ctx, &conf, Method); err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", Method, url, err)
	}
	if conf.Shards == nil {
		conf.Shards = make(map[string]config.ShardBootnodes)
	}
	return &conf, nil
}
