package ledger

import (
	"strings"

	"ledgerd/types"
)

// engineState is the single writer-owned mutable state described by spec
// §4.3: the chain, mempool, mined-index set, and per-miner history. Every
// field here is touched exclusively by the serializer goroutine (see
// serializer.go) — no other goroutine ever reads or writes it directly,
// which is what lets the rest of the package treat it like ordinary
// single-threaded data.
type engineState struct {
	chain        []types.Block
	mempool      []types.Transaction
	minedIndices map[int64]bool
	minerHistory map[string]map[int64]bool
	totalMined   types.Amount
}

func newEngineState() *engineState {
	return &engineState{
		minedIndices: make(map[int64]bool),
		minerHistory: make(map[string]map[int64]bool),
	}
}

// hasMined reports whether miner has already mined blockIndex, per the
// uniqueness rule the storage layer also enforces via
// (minerAddress, blockIndex).
func (s *engineState) hasMined(miner string, blockIndex int64) bool {
	indices, ok := s.minerHistory[strings.ToLower(miner)]
	return ok && indices[blockIndex]
}

func (s *engineState) recordMined(miner string, blockIndex int64) {
	key := strings.ToLower(miner)
	if s.minerHistory[key] == nil {
		s.minerHistory[key] = make(map[int64]bool)
	}
	s.minerHistory[key][blockIndex] = true
	s.minedIndices[blockIndex] = true
}

// snapshot is the immutable, copy-on-publish view that concurrent
// read-only accessors consult without going through the serializer's
// command queue, per spec §5 ("read-only accessors MAY run concurrently
// provided they observe a consistent snapshot").
type snapshot struct {
	chain      []types.Block
	mempool    []types.Transaction
	totalMined types.Amount
}

// publish builds the snapshot a reader should see after a command has
// finished mutating s. Slices are copied rather than aliased so a later
// in-place mutation of s (there is none today, but the invariant should
// hold regardless of future changes) can never retroactively change a
// snapshot a reader already holds.
func (s *engineState) publish() *snapshot {
	chain := make([]types.Block, len(s.chain))
	copy(chain, s.chain)
	mempool := make([]types.Transaction, len(s.mempool))
	copy(mempool, s.mempool)
	return &snapshot{chain: chain, mempool: mempool, totalMined: s.totalMined}
}

// scanBalance computes address's balance by summing credits and debits
// across chain and mempool, per spec §4.7. It is the definition of
// correctness for balance computation; every caller (the public
// GetBalance, the pipeline's sufficiency check, the miner's mempool
// revalidation) goes through this one function so they can never disagree.
func scanBalance(chain []types.Block, mempool []types.Transaction, address string) types.Amount {
	address = strings.ToLower(address)
	var balance types.Amount
	apply := func(tx types.Transaction) {
		if strings.ToLower(tx.From) == address && address != "" {
			balance = balance.Sub(tx.Amount)
		}
		if strings.ToLower(tx.To) == address && address != "" {
			balance = balance.Add(tx.Amount)
		}
	}
	for _, block := range chain {
		for _, tx := range block.Transactions {
			apply(tx)
		}
	}
	for _, tx := range mempool {
		apply(tx)
	}
	return balance
}
