// Package fetch retrieves pool and user snapshots from the protocol subgraph.
package fetch

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
)

// Client defines the query service consumed by the dashboard
type Client interface {
	// Fetch reads one snapshot. A nil user fetches protocol data only.
	Fetch(ctx context.Context, user *common.Address) (model.Snapshot, error)
}

// newRetryClient creates a new HTTP client with retry capabilities
func newRetryClient(timeout time.Duration) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return c
}
