package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
)

// maxDeposits bounds the user's active deposits read per query.
const maxDeposits = 1000

// SubgraphClient reads snapshots from a GraphQL subgraph
type SubgraphClient struct {
	url   string
	pools []common.Address
	http  *retryablehttp.Client
	now   func() time.Time
}

// NewSubgraphClient creates a client for the given subgraph endpoint and pools
func NewSubgraphClient(url string, pools []common.Address, timeout time.Duration) *SubgraphClient {
	return &SubgraphClient{
		url:   url,
		pools: pools,
		http:  newRetryClient(timeout),
		now:   time.Now,
	}
}

// WithRetries sets the maximum number of retries per request
func (c *SubgraphClient) WithRetries(max int) *SubgraphClient {
	c.http.RetryMax = max
	return c
}

// WithClock sets the clock used to stamp snapshots
func (c *SubgraphClient) WithClock(now func() time.Time) *SubgraphClient {
	c.now = now
	return c
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data struct {
		Dpools    []model.PoolStats `json:"dpools"`
		DpoolList *struct {
			NumActiveUsers int64 `json:"numActiveUsers,string"`
		} `json:"dpoolList"`
		User *rawUser `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type rawUser struct {
	Address             common.Address `json:"address"`
	TotalActiveDeposit  num.Num        `json:"totalActiveDeposit"`
	TotalInterestEarned num.Num        `json:"totalInterestEarned"`
	Deposits            []rawDeposit   `json:"deposits"`
}

type rawDeposit struct {
	NftID int64 `json:"nftID,string"`
	Pool  struct {
		Address common.Address `json:"address"`
	} `json:"pool"`
	Amount              num.Num `json:"amount"`
	InterestEarned      num.Num `json:"interestEarned"`
	DepositTimestamp    int64   `json:"depositTimestamp,string"`
	MaturationTimestamp int64   `json:"maturationTimestamp,string"`
	CanEarlyWithdraw    bool    `json:"canEarlyWithdraw"`
}

// Query builds the GraphQL document for a snapshot. Subgraph ids are
// lower-case hex.
func (c *SubgraphClient) Query(user *common.Address) string {
	ids := make([]string, len(c.pools))
	for i, p := range c.pools {
		ids[i] = fmt.Sprintf("%q", strings.ToLower(p.Hex()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `{
  dpools(where: {id_in: [%s]}) {
    address
    totalActiveDeposit
    totalHistoricalDeposit
    totalInterestPaid
    numUsers
    numActiveUsers
    numDeposits
    numActiveDeposits
    deficit
    oneYearInterestRate
  }
  dpoolList(id: "0") {
    numActiveUsers
  }`, strings.Join(ids, ", "))

	if user != nil {
		fmt.Fprintf(&b, `
  user(id: %q) {
    address
    totalActiveDeposit
    totalInterestEarned
    deposits(first: %d, where: {active: true}, orderBy: nftID) {
      nftID
      pool {
        address
      }
      amount
      interestEarned
      depositTimestamp
      maturationTimestamp
      canEarlyWithdraw
    }
  }`, strings.ToLower(user.Hex()), maxDeposits)
	}
	b.WriteString("\n}")
	return b.String()
}

// Fetch retrieves one snapshot from the subgraph.
func (c *SubgraphClient) Fetch(ctx context.Context, user *common.Address) (model.Snapshot, error) {
	body, err := json.Marshal(graphQLRequest{Query: c.Query(user)})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("error encoding query: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logrus.Debugf("Fetching snapshot from subgraph: %s", c.url)
	resp, err := c.http.Do(req)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("error fetching snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return model.Snapshot{}, fmt.Errorf("subgraph error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var response graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return model.Snapshot{}, fmt.Errorf("error decoding response: %w", err)
	}
	if len(response.Errors) > 0 {
		return model.Snapshot{}, fmt.Errorf("subgraph query error: %s", response.Errors[0].Message)
	}

	snap := model.Snapshot{
		Pools:     response.Data.Dpools,
		FetchedAt: c.now(),
	}
	if response.Data.DpoolList != nil {
		snap.ActiveUsers = response.Data.DpoolList.NumActiveUsers
	}
	if u := response.Data.User; u != nil {
		snap.User = convertUser(*u)
	} else if user != nil {
		// A wallet that never deposited has no user entity.
		snap.User = &model.UserSnapshot{
			Address:             *user,
			TotalActiveDeposit:  num.Zero,
			TotalInterestEarned: num.Zero,
			Deposits:            []model.Deposit{},
		}
	}

	logrus.WithFields(logrus.Fields{
		"pools":     len(snap.Pools),
		"user":      snap.User != nil,
		"fetchedAt": snap.FetchedAt,
	}).Debug("Received snapshot from subgraph")
	return snap, nil
}

func convertUser(u rawUser) *model.UserSnapshot {
	out := &model.UserSnapshot{
		Address:             u.Address,
		TotalActiveDeposit:  u.TotalActiveDeposit,
		TotalInterestEarned: u.TotalInterestEarned,
		Deposits:            make([]model.Deposit, 0, len(u.Deposits)),
	}
	for _, d := range u.Deposits {
		out.Deposits = append(out.Deposits, model.Deposit{
			Index:               d.NftID,
			PoolAddress:         d.Pool.Address,
			Amount:              d.Amount,
			InterestEarned:      d.InterestEarned,
			DepositTimestamp:    time.Unix(d.DepositTimestamp, 0),
			MaturationTimestamp: time.Unix(d.MaturationTimestamp, 0),
			CanEarlyWithdraw:    d.CanEarlyWithdraw,
		})
	}
	return out
}
