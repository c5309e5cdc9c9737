package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAmountParsesWholeAndFractional(t *testing.T) {
	a, err := NewAmount("10")
	require.NoError(t, err)
	require.Equal(t, "10", a.String())

	b, err := NewAmount("0.00000001")
	require.NoError(t, err)
	require.Equal(t, Amount(1), b)

	c, err := NewAmount("1.5")
	require.NoError(t, err)
	require.Equal(t, "1.5", c.String())
}

func TestNewAmountRejectsNegative(t *testing.T) {
	_, err := NewAmount("-1")
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestNewAmountRejectsTooManyFractionalDigits(t *testing.T) {
	_, err := NewAmount("1.123456789")
	require.Error(t, err)
}

func TestNewAmountRejectsEmpty(t *testing.T) {
	_, err := NewAmount("")
	require.Error(t, err)
}

func TestAmountArithmeticIsExact(t *testing.T) {
	a, err := NewAmount("0.1")
	require.NoError(t, err)
	b, err := NewAmount("0.2")
	require.NoError(t, err)

	sum := a.Add(b)
	require.Equal(t, "0.3", sum.String())
}

func TestAmountLessThanAndIsZero(t *testing.T) {
	zero, err := NewAmount("0")
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	one, err := NewAmount("1")
	require.NoError(t, err)
	require.True(t, zero.LessThan(one))
	require.False(t, one.LessThan(zero))
}

func TestAmountJSONRoundTripAcceptsNumberAndString(t *testing.T) {
	a, err := NewAmount("42.5")
	require.NoError(t, err)

	b, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded Amount
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, a, decoded)

	var fromString Amount
	require.NoError(t, json.Unmarshal([]byte(`"42.5"`), &fromString))
	require.Equal(t, a, fromString)
}
