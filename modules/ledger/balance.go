package ledger

import (
	"strings"

	"ledgerd/types"
)

// GetBalance computes address's balance against the current snapshot, per
// the scan definition in spec §4.7: committed chain plus mempool, credits
// minus debits. The pipeline's sufficiency check and the miner's mempool
// revalidation both call scanBalance directly (state.go) against
// writer-owned state instead of going through this read path, so they can
// never disagree with what GetBalance reports for the same state.
func (e *Engine) GetBalance(address string) (types.Amount, error) {
	snap := e.currentSnapshot()
	return scanBalance(snap.chain, snap.mempool, address), nil
}

// equalAddress compares two address strings case-insensitively, matching
// the case-insensitivity spec §3 mandates for address comparisons.
func equalAddress(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
