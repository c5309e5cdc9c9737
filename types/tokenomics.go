package types

import "math"

// Default tokenomics parameters; all are overridable via configuration (see
// the engine's Config type) but these are the values used when an operator
// supplies none.
const (
	DefaultInitialReward    = 100
	DefaultHalvingInterval  = 210_000
	DefaultMaxSupply        = 21_000_000
	maxHalvings             = 32
)

// Tokenomics holds the reward-schedule parameters for one running ledger.
type Tokenomics struct {
	InitialReward   Amount
	HalvingInterval uint64
	MaxSupply       Amount
}

// DefaultTokenomics returns the Bitcoin-style schedule used when no
// configuration overrides are supplied.
func DefaultTokenomics() Tokenomics {
	initial, _ := NewAmount("100")
	maxSupply, _ := NewAmount("21000000")
	return Tokenomics{
		InitialReward:   initial,
		HalvingInterval: DefaultHalvingInterval,
		MaxSupply:       maxSupply,
	}
}

// CalculateReward returns the block subsidy for the block at the given
// height, following calculateReward(height) = floor(initialReward /
// 2^floor(height/halvingInterval) * 1e8) / 1e8, zero after maxHalvings
// halvings. height is the index of the block being mined (chain length
// before the block is appended).
func (t Tokenomics) CalculateReward(height int64) Amount {
	if t.HalvingInterval == 0 {
		return 0
	}
	halvings := uint64(height) / t.HalvingInterval
	if halvings >= maxHalvings {
		return 0
	}
	reward := float64(t.InitialReward) / math.Pow(2, float64(halvings))
	return Amount(math.Floor(reward))
}

// ClampToRemainingSupply reduces reward so that totalMined+reward never
// exceeds MaxSupply, returning the clamped reward (which may be zero).
func (t Tokenomics) ClampToRemainingSupply(reward, totalMined Amount) Amount {
	remaining := t.MaxSupply - totalMined
	if remaining <= 0 {
		return 0
	}
	if reward > remaining {
		return remaining
	}
	return reward
}

// Era returns the halving era (height / halvingInterval) active at the given
// height, for annotating coinbase transactions.
func (t Tokenomics) Era(height int64) uint64 {
	if t.HalvingInterval == 0 {
		return 0
	}
	return uint64(height) / t.HalvingInterval
}
