package ledger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"ledgerd/modules"
	"ledgerd/types"

	"github.com/NebulousLabs/threadgroup"
)

// Engine is the concrete modules.Ledger implementation. It owns a
// StorageBackend (selected ahead of time by modules/storage's selector) and
// serializes every mutating operation through a single writer goroutine.
type Engine struct {
	store modules.StorageBackend
	cfg   Config
	log   *zap.Logger

	tg       threadgroup.ThreadGroup
	commands chan commandRequest
	state    *engineState
	snap     atomic.Pointer[snapshot]

	ready   atomic.Bool
	initErr atomic.Pointer[string]
}

// New constructs an Engine against the given storage backend, runs genesis
// reconciliation synchronously, starts the serializer goroutine, and
// returns. The caller decides how to bound reconciliation's own duration
// (e.g. cmd/ledgerd's EngineReadyDeadline); New itself does not time out.
func New(ctx context.Context, store modules.StorageBackend, cfg Config, log *zap.Logger) (*Engine, error) {
	log = nopLogger(log)
	e := &Engine{
		store:    store,
		cfg:      cfg,
		log:      log,
		commands: make(chan commandRequest),
		state:    newEngineState(),
	}
	e.snap.Store(e.state.publish())

	if err := e.tg.Add(); err != nil {
		return e, err
	}
	go e.run()

	if err := e.reconcile(ctx); err != nil {
		e.markFailed(err)
		return e, err
	}
	e.ready.Store(true)
	return e, nil
}

func (e *Engine) markFailed(err error) {
	msg := err.Error()
	e.initErr.Store(&msg)
}

// Close stops the serializer goroutine, waiting for any in-flight command
// to finish, then closes the storage backend.
func (e *Engine) Close() error {
	if err := e.tg.Stop(); err != nil {
		e.log.Warn("error stopping engine thread group", zap.Error(err))
	}
	return e.store.Close()
}

// currentSnapshot returns the most recently published read-only view.
func (e *Engine) currentSnapshot() *snapshot {
	s := e.snap.Load()
	if s == nil {
		return &snapshot{}
	}
	return s
}

// GetChain returns the full in-memory chain, most recent commit included.
func (e *Engine) GetChain() ([]types.Block, error) {
	return e.currentSnapshot().chain, nil
}

// GetChainPage returns a limit/offset slice of block summaries (the caller
// decides whether to keep each block's transaction list).
func (e *Engine) GetChainPage(limit, offset int) ([]types.Block, error) {
	chain := e.currentSnapshot().chain
	if offset < 0 {
		offset = 0
	}
	if offset >= len(chain) {
		return nil, nil
	}
	end := len(chain)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]types.Block, end-offset)
	copy(out, chain[offset:end])
	return out, nil
}

// GetMempool returns the current pending-transaction snapshot.
func (e *Engine) GetMempool() ([]types.Transaction, error) {
	return e.currentSnapshot().mempool, nil
}

// GetTransactionHistory returns every transaction in which address appears
// as sender or recipient, chain order followed by pending order.
func (e *Engine) GetTransactionHistory(address string) ([]types.Transaction, error) {
	snap := e.currentSnapshot()
	var out []types.Transaction
	matches := func(tx types.Transaction) bool {
		return equalAddress(tx.From, address) || equalAddress(tx.To, address)
	}
	for _, block := range snap.chain {
		for _, tx := range block.Transactions {
			if matches(tx) {
				out = append(out, tx)
			}
		}
	}
	for _, tx := range snap.mempool {
		if matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Health reports engine readiness for the /api/health endpoint.
func (e *Engine) Health() modules.HealthStatus {
	snap := e.currentSnapshot()
	status := modules.HealthStatus{
		ChainLength:         len(snap.chain),
		PendingTransactions: len(snap.mempool),
	}
	if errMsg := e.initErr.Load(); errMsg != nil {
		status.Status = "error"
		status.Error = *errMsg
		status.Ready = false
		return status
	}
	if !e.ready.Load() {
		status.Status = "initializing"
		status.Ready = false
		return status
	}
	status.Status = "ok"
	status.Ready = true
	return status
}

// Supply reports tokenomics read-outs for the supply endpoints. Circulating
// supply is derived from totalMined plus committed premine and bridge-in
// amounts (spec §9 open question: prefer the derived value over a configuration
// constant).
func (e *Engine) Supply() modules.SupplyStatus {
	snap := e.currentSnapshot()
	circulating := snap.totalMined
	for _, block := range snap.chain {
		for _, tx := range block.Transactions {
			if tx.Data.Type == types.TxPremine || tx.Data.Type == types.TxBridgeIn {
				circulating = circulating.Add(tx.Amount)
			}
		}
	}
	return modules.SupplyStatus{
		TotalMined:        snap.totalMined,
		CirculatingSupply: circulating,
		MaxSupply:         e.cfg.Tokenomics.MaxSupply,
		InitialReward:     e.cfg.Tokenomics.InitialReward,
		HalvingInterval:   e.cfg.Tokenomics.HalvingInterval,
	}
}

