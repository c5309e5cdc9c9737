package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ledgerd/modules"
	"ledgerd/types"

	"github.com/NebulousLabs/fastrand"
)

// reconcile is the startup procedure of spec §4.6. It loads the chain from
// storage, rebuilds the writer's in-memory bookkeeping from it, and then
// either builds a fresh genesis block (empty chain) or reconciles an
// existing one without ever destroying user data. It runs as a single
// command so it gets the same writer exclusivity as Submit and Mine.
func (e *Engine) reconcile(ctx context.Context) error {
	_, err := e.exec(ctx, func(s *engineState) (interface{}, error) {
		blocks, err := e.store.GetAllBlocks()
		if err != nil {
			return nil, modules.WrapError(modules.KindStorageUnavailable, "could not load chain from storage", err)
		}
		pending, err := e.store.GetPendingTransactions()
		if err != nil {
			return nil, modules.WrapError(modules.KindStorageUnavailable, "could not load pending transactions from storage", err)
		}
		history, err := e.store.GetMinerBlockHistory()
		if err != nil {
			return nil, modules.WrapError(modules.KindStorageUnavailable, "could not load miner history from storage", err)
		}

		s.chain = blocks
		s.mempool = pending
		for _, entry := range history {
			s.recordMined(entry.MinerAddress, entry.BlockIndex)
		}
		for _, b := range blocks {
			s.minedIndices[b.Index] = true
			if cb, ok := b.Coinbase(); ok {
				s.totalMined = s.totalMined.Add(cb.Amount)
			}
		}

		if len(blocks) == 0 {
			return nil, e.bootstrapGenesis(ctx, s)
		}
		return nil, e.reconcileGenesis(ctx, s)
	})
	return err
}

// bootstrapGenesis builds a fresh genesis block carrying every configured
// premine allocation (spec §4.6 step 2).
func (e *Engine) bootstrapGenesis(ctx context.Context, s *engineState) error {
	genesis, err := buildPremineBlock(ctx, e.cfg.difficulty(), types.GenesisPreviousHash, 0, e.cfg.Premine)
	if err != nil {
		return err
	}
	if err := e.store.SaveBlock(genesis); err != nil {
		return modules.WrapError(modules.KindStorageUnavailable, "could not persist genesis block", err)
	}
	s.chain = []types.Block{genesis}
	s.minedIndices[0] = true
	e.log.Info("genesis block bootstrapped", zap.String("hash", genesis.Hash), zap.Int("premineEntries", len(genesis.Transactions)))
	return nil
}

// reconcileGenesis implements spec §4.6 step 3: classify every configured
// premine record against the existing genesis block, and either rebuild
// genesis (only legal when no user activity exists yet) or append a
// correction block.
func (e *Engine) reconcileGenesis(ctx context.Context, s *engineState) error {
	genesisBlock := s.chain[0]
	missing, wrongAddress := classifyPremine(genesisBlock, e.cfg.Premine)
	if len(missing) == 0 && len(wrongAddress) == 0 {
		e.log.Info("genesis reconciliation found all premine allocations present and correct")
		return nil
	}

	if !hasUserData(s.chain) {
		e.log.Warn("genesis premine mismatch detected with no user activity yet, rebuilding genesis block",
			zap.Int("missing", len(missing)), zap.Int("wrongAddress", len(wrongAddress)))
		if err := e.store.DeleteBlock(0); err != nil {
			return modules.WrapError(modules.KindStorageUnavailable, "could not delete stale genesis block", err)
		}
		genesis, err := buildPremineBlock(ctx, e.cfg.difficulty(), types.GenesisPreviousHash, 0, e.cfg.Premine)
		if err != nil {
			return err
		}
		if err := e.store.SaveBlock(genesis); err != nil {
			return modules.WrapError(modules.KindStorageUnavailable, "could not persist rebuilt genesis block", err)
		}
		s.chain[0] = genesis
		return nil
	}

	e.log.Warn("genesis premine mismatch detected after user activity, appending a correction block instead of touching genesis",
		zap.Int("missing", len(missing)), zap.Int("wrongAddress", len(wrongAddress)))

	corrections := make([]types.Transaction, 0, len(missing)+len(wrongAddress))
	now := time.Now().UnixMilli()
	for _, alloc := range append(append([]types.PremineAllocation{}, missing...), wrongAddress...) {
		corrections = append(corrections, types.Transaction{
			To:        alloc.Address,
			Amount:    alloc.Amount,
			Timestamp: now,
			Data:      types.TxData{Type: types.TxPremine, Recipient: alloc.Tag},
		})
	}

	nextIndex := int64(len(s.chain))
	previousHash := s.chain[len(s.chain)-1].Hash
	block, err := mineTransactionSet(ctx, e.cfg.difficulty(), previousHash, nextIndex, corrections)
	if err != nil {
		return err
	}
	if err := e.store.SaveBlock(block); err != nil {
		return modules.WrapError(modules.KindStorageUnavailable, "could not persist premine correction block", err)
	}
	s.chain = append(s.chain, block)
	s.minedIndices[nextIndex] = true
	return nil
}

// classifyPremine compares genesis's recorded premine transactions against
// cfg, returning the allocations that are entirely missing and the ones
// present but recorded against a different address. Wrong-address premines
// are never revoked (spec §4.6): the correct allocation is merely added
// alongside them.
func classifyPremine(genesis types.Block, allocations []types.PremineAllocation) (missing, wrongAddress []types.PremineAllocation) {
	present := make(map[string]types.Transaction)
	for _, tx := range genesis.Transactions {
		if tx.Data.Type == types.TxPremine {
			present[tx.Data.Recipient] = tx
		}
	}
	for _, alloc := range allocations {
		tx, ok := present[alloc.Tag]
		switch {
		case !ok:
			missing = append(missing, alloc)
		case !equalAddress(tx.To, alloc.Address):
			wrongAddress = append(wrongAddress, alloc)
		}
	}
	return missing, wrongAddress
}

// hasUserData reports whether the chain carries anything beyond a single
// genesis block of pure premine transactions, per spec §4.6's definition:
// chain length > 1, or any transaction with a non-null from, or any
// transaction whose type is not premine.
func hasUserData(chain []types.Block) bool {
	if len(chain) > 1 {
		return true
	}
	for _, block := range chain {
		for _, tx := range block.Transactions {
			if tx.From != "" {
				return true
			}
			if tx.Data.Type != types.TxPremine {
				return true
			}
		}
	}
	return false
}

// buildPremineBlock constructs the full set of premine transactions for
// allocations and mines the resulting block at index/previousHash.
func buildPremineBlock(ctx context.Context, difficulty int, previousHash string, index int64, allocations []types.PremineAllocation) (types.Block, error) {
	now := time.Now().UnixMilli()
	txs := make([]types.Transaction, 0, len(allocations))
	for _, alloc := range allocations {
		txs = append(txs, types.Transaction{
			To:        alloc.Address,
			Amount:    alloc.Amount,
			Timestamp: now,
			Data:      types.TxData{Type: types.TxPremine, Recipient: alloc.Tag},
		})
	}
	return mineTransactionSet(ctx, difficulty, previousHash, index, txs)
}

// mineTransactionSet assembles a block from a fixed transaction set (no
// coinbase) and runs the PoW search against it, sharing the same batched
// cancellation-aware loop the miner uses.
func mineTransactionSet(ctx context.Context, difficulty int, previousHash string, index int64, txs []types.Transaction) (types.Block, error) {
	block := types.Block{
		Index:        index,
		Timestamp:    time.Now().UnixMilli(),
		PreviousHash: previousHash,
		Transactions: txs,
		Difficulty:   difficulty,
		Nonce:        uint64(fastrand.Intn(1000)),
	}
	return mineNonce(ctx, block)
}
