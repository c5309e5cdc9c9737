package types

// Premine tags, carried in Transaction.Data.Recipient for TxPremine entries.
const (
	PremineFounder       = "founder"
	PremineTreasury      = "treasury"
	PremineLiquidityPool = "liquidity_pool"
)

// PremineAllocation is one of the three fixed genesis allocations: founder,
// treasury, liquidity pool. Address and Amount are configuration inputs;
// Tag is fixed.
type PremineAllocation struct {
	Tag     string
	Address string
	Amount  Amount
}

// DefaultPremineAllocations returns the three allocations in the canonical
// order (founder, treasury, liquidity pool) that the genesis block carries
// them in, built from the supplied addresses and amounts. Zero-value
// addresses are legal: an operator who does not configure a recipient gets
// an empty-address allocation, which the reconciler still tracks for
// idempotence.
func DefaultPremineAllocations(founderAddr string, founderAmt Amount, treasuryAddr string, treasuryAmt Amount, liquidityAddr string, liquidityAmt Amount) []PremineAllocation {
	return []PremineAllocation{
		{Tag: PremineFounder, Address: founderAddr, Amount: founderAmt},
		{Tag: PremineTreasury, Address: treasuryAddr, Amount: treasuryAmt},
		{Tag: PremineLiquidityPool, Address: liquidityAddr, Amount: liquidityAmt},
	}
}
