package withdraw

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
)

var (
	poolA = common.HexToAddress("0x000000000000000000000000000000000000000a")
	poolB = common.HexToAddress("0x000000000000000000000000000000000000000b")
	now   = time.Unix(1_700_000_000, 0)
)

func deposit(idx int64, pool common.Address, matured bool) model.Deposit {
	maturation := now.Add(-time.Hour)
	if !matured {
		maturation = now.Add(time.Hour)
	}
	return model.Deposit{
		Index:               idx,
		PoolAddress:         pool,
		DepositTimestamp:    maturation.Add(-91 * 24 * time.Hour),
		MaturationTimestamp: maturation,
	}
}

func TestPartition(t *testing.T) {
	deposits := []model.Deposit{
		deposit(1, poolA, true),
		deposit(2, poolB, true),
		deposit(3, poolA, false),
	}

	got := Partition(deposits, now)

	require.Len(t, got, 2)
	assert.Equal(t, model.WithdrawalInstruction{PoolAddress: poolA, DepositIndices: []int64{1}}, got[0])
	assert.Equal(t, model.WithdrawalInstruction{PoolAddress: poolB, DepositIndices: []int64{2}}, got[1])
}

func TestPartitionOrdersIndicesWithinGroup(t *testing.T) {
	deposits := []model.Deposit{
		deposit(9, poolB, true),
		deposit(7, poolA, true),
		deposit(4, poolB, true),
		deposit(5, poolA, true),
		deposit(6, poolB, false),
	}

	got := Partition(deposits, now)

	require.Len(t, got, 2)
	assert.Equal(t, poolB, got[0].PoolAddress)
	assert.Equal(t, []int64{4, 9}, got[0].DepositIndices)
	assert.Equal(t, poolA, got[1].PoolAddress)
	assert.Equal(t, []int64{5, 7}, got[1].DepositIndices)
}

func TestPartitionMaturityBoundary(t *testing.T) {
	d := deposit(1, poolA, false)
	d.MaturationTimestamp = now

	assert.Len(t, Partition([]model.Deposit{d}, now), 1)
	assert.Empty(t, Partition([]model.Deposit{d}, now.Add(-time.Nanosecond)))
}

func TestPartitionNothingMatured(t *testing.T) {
	assert.Empty(t, Partition(nil, now))
	assert.Empty(t, Partition([]model.Deposit{deposit(1, poolA, false)}, now))
}

func TestEarly(t *testing.T) {
	open := deposit(3, poolA, false)
	open.CanEarlyWithdraw = true

	got, ok := Early(open, now)
	require.True(t, ok)
	assert.Equal(t, model.WithdrawalInstruction{PoolAddress: poolA, DepositIndices: []int64{3}, Early: true}, got)

	locked := deposit(4, poolA, false)
	_, ok = Early(locked, now)
	assert.False(t, ok, "pool disallows early exit")

	matured := deposit(5, poolA, true)
	matured.CanEarlyWithdraw = true
	_, ok = Early(matured, now)
	assert.False(t, ok, "matured deposits are withdrawn in full")
}

func TestMatured(t *testing.T) {
	deposits := []model.Deposit{deposit(1, poolA, true), deposit(2, poolA, false), deposit(3, poolB, true)}
	got := Matured(deposits, now)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Index)
	assert.Equal(t, int64(3), got[1].Index)
}
