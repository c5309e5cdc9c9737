package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sealedBlock(t *testing.T, index int64, previousHash string, difficulty int) Block {
	t.Helper()
	b := Block{
		Index:        index,
		Timestamp:    1000,
		PreviousHash: previousHash,
		Difficulty:   difficulty,
	}
	for nonce := uint64(0); ; nonce++ {
		b.Nonce = nonce
		h, err := HashBlock(b)
		require.NoError(t, err)
		if MeetsDifficulty(h.String(), difficulty) {
			b.Hash = h.String()
			return b
		}
	}
}

func TestMeetsDifficultyCountsLeadingZeros(t *testing.T) {
	require.True(t, MeetsDifficulty("000abc", 3))
	require.False(t, MeetsDifficulty("00aabc", 3))
	require.True(t, MeetsDifficulty("anything", 0))
	require.False(t, MeetsDifficulty("00", 3))
}

func TestHashBlockDeterministic(t *testing.T) {
	b := Block{Index: 1, Timestamp: 100, PreviousHash: "0", Nonce: 7}
	h1, err := HashBlock(b)
	require.NoError(t, err)
	h2, err := HashBlock(b)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestHashBlockChangesWithNonce(t *testing.T) {
	b1 := Block{Index: 1, Timestamp: 100, PreviousHash: "0", Nonce: 7}
	b2 := b1
	b2.Nonce = 8

	h1, err := HashBlock(b1)
	require.NoError(t, err)
	h2, err := HashBlock(b2)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestVerifyHashAcceptsSealedBlock(t *testing.T) {
	b := sealedBlock(t, 0, GenesisPreviousHash, 1)
	require.NoError(t, b.VerifyHash())
}

func TestVerifyHashRejectsTamperedHash(t *testing.T) {
	b := sealedBlock(t, 0, GenesisPreviousHash, 1)
	b.Hash = "ff" + b.Hash[2:]
	require.Error(t, b.VerifyHash())
}

func TestVerifyHashRejectsUnmetDifficulty(t *testing.T) {
	b := sealedBlock(t, 0, GenesisPreviousHash, 1)
	b.Difficulty = 64
	require.Error(t, b.VerifyHash())
}

func TestCoinbaseFindsTrailingRewardTransaction(t *testing.T) {
	reward, err := NewAmount("50")
	require.NoError(t, err)
	transfer := Transaction{From: "0xa", To: "0xb", Amount: reward}
	coinbase := Transaction{To: "0xminer", Amount: reward, Data: TxData{Type: TxMiningReward}}

	b := Block{Transactions: []Transaction{transfer, coinbase}}
	got, ok := b.Coinbase()
	require.True(t, ok)
	require.Equal(t, coinbase, got)
}

func TestCoinbaseAbsentWhenNoRewardTransaction(t *testing.T) {
	transfer := Transaction{From: "0xa", To: "0xb"}
	b := Block{Transactions: []Transaction{transfer}}
	_, ok := b.Coinbase()
	require.False(t, ok)
}

func TestCoinbaseAbsentOnEmptyBlock(t *testing.T) {
	b := Block{}
	_, ok := b.Coinbase()
	require.False(t, ok)
}
