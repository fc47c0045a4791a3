package validation

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
	"github.com/Bacon-labs/88mph-frontend/internal/types"
)

var (
	poolA    = common.HexToAddress("0x000000000000000000000000000000000000000a")
	poolB    = common.HexToAddress("0x000000000000000000000000000000000000000b")
	registry = types.Registry{{Address: poolA, Name: "A"}, {Address: poolB, Name: "B"}}
)

func TestValidRate(t *testing.T) {
	tests := []struct {
		rate string
		want bool
	}{
		{"0", true},
		{"0.05", true},
		{"0.999999", true},
		{"1", false},
		{"1.5", false},
		{"-0.01", false},
		{"NaN", false},
	}

	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidRate(num.FromString(tt.rate)))
		})
	}
}

func TestSanitizePools(t *testing.T) {
	stats := []model.PoolStats{
		{Address: poolA, OneYearInterestRate: num.MustParse("1.2"), TotalActiveDeposit: num.FromInt(5), Deficit: num.NaN()},
		{Address: common.HexToAddress("0x01"), OneYearInterestRate: num.MustParse("0.05")},
		{Address: poolB, OneYearInterestRate: num.NaN(), TotalActiveDeposit: num.NaN()},
		{Address: poolA, OneYearInterestRate: num.MustParse("0.05")},
	}

	got := SanitizePools(stats, DefaultValidationOptions(registry))

	require.Len(t, got, 2)
	assert.Equal(t, poolA, got[0].Address)
	assert.True(t, got[0].OneYearInterestRate.IsZero())
	assert.Equal(t, "5", got[0].TotalActiveDeposit.String())
	assert.True(t, got[0].Deficit.IsZero())
	assert.Equal(t, poolB, got[1].Address)
	assert.True(t, got[1].OneYearInterestRate.IsZero())
	assert.True(t, got[1].TotalActiveDeposit.IsZero())
}

func TestSanitizePoolsKeepsUnknownWhenAllowed(t *testing.T) {
	stats := []model.PoolStats{{Address: common.HexToAddress("0x01"), OneYearInterestRate: num.MustParse("0.05")}}
	got := SanitizePools(stats, ValidationOptions{Pools: registry})
	require.Len(t, got, 1)
	assert.Equal(t, "0.05", got[0].OneYearInterestRate.String())
}

func TestSanitizeDeposits(t *testing.T) {
	start := time.Unix(1_600_000_000, 0)
	deposits := []model.Deposit{
		{Index: 1, DepositTimestamp: start, MaturationTimestamp: start.Add(time.Hour), Amount: num.FromInt(10), InterestEarned: num.NaN()},
		{Index: 2, DepositTimestamp: start, MaturationTimestamp: start.Add(-time.Second)},
		{Index: 3, DepositTimestamp: start, MaturationTimestamp: start},
	}

	got := SanitizeDeposits(deposits)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Index)
	assert.True(t, got[0].InterestEarned.IsZero())
	assert.Equal(t, int64(3), got[1].Index)
}

func TestSanitizeSnapshot(t *testing.T) {
	snap := model.Snapshot{
		Pools:       []model.PoolStats{{Address: poolA, OneYearInterestRate: num.MustParse("0.04")}},
		ActiveUsers: -1,
		User: &model.UserSnapshot{
			TotalActiveDeposit: num.NaN(),
			Deposits: []model.Deposit{
				{Index: 2, DepositTimestamp: time.Unix(10, 0), MaturationTimestamp: time.Unix(5, 0)},
			},
		},
	}

	got := SanitizeSnapshot(snap, DefaultValidationOptions(registry))

	assert.Equal(t, int64(0), got.ActiveUsers)
	require.NotNil(t, got.User)
	assert.True(t, got.User.TotalActiveDeposit.IsZero())
	assert.Empty(t, got.User.Deposits)
	assert.Len(t, snap.User.Deposits, 1, "input snapshot is not modified")

	noUser := SanitizeSnapshot(model.Snapshot{}, DefaultValidationOptions(registry))
	assert.Nil(t, noUser.User)
	assert.Empty(t, noUser.Pools)
}
