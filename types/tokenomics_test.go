package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateRewardBeforeFirstHalving(t *testing.T) {
	tk := DefaultTokenomics()
	reward := tk.CalculateReward(0)
	want, err := NewAmount("100")
	require.NoError(t, err)
	require.Equal(t, want, reward)
}

func TestCalculateRewardHalvesAtBoundary(t *testing.T) {
	tk := DefaultTokenomics()
	atBoundary := tk.CalculateReward(int64(tk.HalvingInterval))
	want, err := NewAmount("50")
	require.NoError(t, err)
	require.Equal(t, want, atBoundary)

	justBefore := tk.CalculateReward(int64(tk.HalvingInterval) - 1)
	wantBefore, err := NewAmount("100")
	require.NoError(t, err)
	require.Equal(t, wantBefore, justBefore)
}

func TestCalculateRewardZeroAfterMaxHalvings(t *testing.T) {
	tk := DefaultTokenomics()
	height := int64(tk.HalvingInterval) * int64(maxHalvings)
	require.Equal(t, Amount(0), tk.CalculateReward(height))
}

func TestClampToRemainingSupplyPartial(t *testing.T) {
	tk := DefaultTokenomics()
	remaining, err := NewAmount("30")
	require.NoError(t, err)
	totalMined := tk.MaxSupply - remaining

	reward, err := NewAmount("50")
	require.NoError(t, err)

	clamped := tk.ClampToRemainingSupply(reward, totalMined)
	require.Equal(t, remaining, clamped)
}

func TestClampToRemainingSupplyExhausted(t *testing.T) {
	tk := DefaultTokenomics()
	clamped := tk.ClampToRemainingSupply(Amount(1), tk.MaxSupply)
	require.Equal(t, Amount(0), clamped)
}

func TestEraTracksHalvingInterval(t *testing.T) {
	tk := DefaultTokenomics()
	require.Equal(t, uint64(0), tk.Era(0))
	require.Equal(t, uint64(1), tk.Era(int64(tk.HalvingInterval)))
	require.Equal(t, uint64(2), tk.Era(int64(tk.HalvingInterval)*2))
}
