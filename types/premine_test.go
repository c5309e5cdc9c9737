package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPremineAllocationsCanonicalOrder(t *testing.T) {
	amt, err := NewAmount("1")
	require.NoError(t, err)

	got := DefaultPremineAllocations("0xfounder", amt, "0xtreasury", amt, "0xliquidity", amt)
	require.Len(t, got, 3)
	require.Equal(t, PremineFounder, got[0].Tag)
	require.Equal(t, PremineTreasury, got[1].Tag)
	require.Equal(t, PremineLiquidityPool, got[2].Tag)

	require.Equal(t, "0xfounder", got[0].Address)
	require.Equal(t, "0xtreasury", got[1].Address)
	require.Equal(t, "0xliquidity", got[2].Address)
}

func TestDefaultPremineAllocationsAllowsEmptyAddress(t *testing.T) {
	amt, err := NewAmount("0")
	require.NoError(t, err)

	got := DefaultPremineAllocations("", amt, "0xtreasury", amt, "", amt)
	require.Equal(t, "", got[0].Address)
	require.Equal(t, "0xtreasury", got[1].Address)
	require.Equal(t, "", got[2].Address)
}
