package ledger

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ledgerd/build"
	"ledgerd/modules"
	"ledgerd/types"

	"github.com/NebulousLabs/fastrand"
)

// Mine runs the full proof-of-work algorithm described by spec §4.5,
// entirely inside the serializer's single command closure: idempotence
// checks, mempool revalidation, reward computation, block assembly, the PoW
// search itself, and the atomic commit all happen under the same writer
// turn, which is what guarantees two concurrent Mine calls can never both
// succeed. The PoW search is still cooperative: it checks ctx between
// batches of at most modules.NonceBatchSize hashes so a caller-cancelled
// mine returns promptly instead of blocking the engine for the whole
// search.
func (e *Engine) Mine(ctx context.Context, minerAddress string) (types.Block, error) {
	if strings.TrimSpace(minerAddress) == "" {
		return types.Block{}, modules.NewError(modules.KindBadRequest, "missing field: minerAddress")
	}

	result, err := e.exec(ctx, func(s *engineState) (interface{}, error) {
		nextIndex := int64(len(s.chain))

		if s.minedIndices[nextIndex] {
			return s.chain[nextIndex], nil
		}
		if s.hasMined(minerAddress, nextIndex) {
			return nil, modules.NewError(modules.KindAlreadyMined, "miner has already mined this block index")
		}
		if len(s.mempool) == 0 {
			return nil, modules.NewError(modules.KindNoPendingTransactions, "mempool is empty")
		}

		if err := revalidateMempool(s); err != nil {
			return nil, err
		}

		reward := e.cfg.Tokenomics.CalculateReward(nextIndex)
		reward = e.cfg.Tokenomics.ClampToRemainingSupply(reward, s.totalMined)
		if reward.IsZero() {
			return nil, modules.NewError(modules.KindMaxSupplyReached, "maximum supply reached, no reward remains to mine")
		}

		height := uint64(nextIndex)
		era := e.cfg.Tokenomics.Era(nextIndex)
		coinbase := types.Transaction{
			To:        minerAddress,
			Amount:    reward,
			Timestamp: time.Now().UnixMilli(),
			Data: types.TxData{
				Type:   types.TxMiningReward,
				Height: &height,
				Era:    &era,
			},
		}

		txs := make([]types.Transaction, len(s.mempool)+1)
		copy(txs, s.mempool)
		txs[len(s.mempool)] = coinbase

		var previousHash string
		if nextIndex == 0 {
			previousHash = types.GenesisPreviousHash
		} else {
			previousHash = s.chain[nextIndex-1].Hash
		}

		block := types.Block{
			Index:        nextIndex,
			Timestamp:    time.Now().UnixMilli(),
			PreviousHash: previousHash,
			Transactions: txs,
			Difficulty:   e.cfg.difficulty(),
			Nonce:        uint64(fastrand.Intn(1000)),
		}

		block, err := mineNonce(ctx, block)
		if err != nil {
			return nil, err
		}
		if block.Index != nextIndex {
			build.Critical("mined block index", block.Index, "does not match the writer's expected next index", nextIndex)
		}

		if err := e.store.SaveBlock(block); err != nil {
			return nil, modules.WrapError(modules.KindStorageUnavailable, "could not persist mined block", err)
		}
		entry := modules.MinerHistoryEntry{MinerAddress: minerAddress, BlockIndex: nextIndex, BlockHash: block.Hash}
		if err := e.store.SaveMinerBlockHistory(entry); err != nil {
			return nil, modules.WrapError(modules.KindStorageUnavailable, "could not persist miner history", err)
		}
		if err := e.store.ClearPendingTransactions(); err != nil {
			return nil, modules.WrapError(modules.KindStorageUnavailable, "could not clear pending transactions", err)
		}

		s.chain = append(s.chain, block)
		s.recordMined(minerAddress, nextIndex)
		s.mempool = nil
		s.totalMined = s.totalMined.Add(reward)

		e.log.Info("block mined",
			zap.Int64("index", block.Index), zap.String("hash", block.Hash),
			zap.String("miner", minerAddress), zap.String("reward", reward.String()))

		return block, nil
	})
	if err != nil {
		return types.Block{}, err
	}
	return result.(types.Block), nil
}

// revalidateMempool re-checks every pending transaction against the
// confirmed-chain balance (not the mempool-inclusive balance), in
// insertion order, per spec §4.5 step 4.
func revalidateMempool(s *engineState) error {
	running := make(map[string]types.Amount)
	for _, tx := range s.mempool {
		from := strings.ToLower(tx.From)
		if from == "" {
			continue // system transactions never debit a balance
		}
		if _, seen := running[from]; !seen {
			running[from] = scanBalance(s.chain, nil, from)
		}
		if running[from].LessThan(tx.Amount) {
			return modules.NewError(modules.KindInvalidMempoolTransaction,
				"pending transaction from "+tx.From+" exceeds its confirmed-chain balance")
		}
		running[from] = running[from].Sub(tx.Amount)
	}
	return nil
}

// mineNonce iterates the nonce in batches of modules.NonceBatchSize,
// checking ctx between batches, until the block's hash meets its
// configured difficulty or the context is cancelled.
func mineNonce(ctx context.Context, block types.Block) (types.Block, error) {
	for {
		select {
		case <-ctx.Done():
			return types.Block{}, modules.NewError(modules.KindCancelled, "mining cancelled")
		default:
		}

		for i := 0; i < modules.NonceBatchSize; i++ {
			hash, err := types.HashBlock(block)
			if err != nil {
				return types.Block{}, modules.WrapError(modules.KindBadRequest, "could not hash candidate block", err)
			}
			if types.MeetsDifficulty(hash.String(), block.Difficulty) {
				block.Hash = hash.String()
				return block, nil
			}
			block.Nonce++
		}
	}
}
