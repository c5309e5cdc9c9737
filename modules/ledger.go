package modules

import (
	"context"

	"ledgerd/types"
)

// SubmitRequest is the caller-supplied shape of a transaction submission,
// before shape validation. Timestamp, if zero, is filled in with the
// current time by the pipeline; wallets that pre-sign a transaction must
// supply their own Timestamp so the signature (which commits to it) still
// verifies.
type SubmitRequest struct {
	From      string
	To        string
	Amount    types.Amount
	Data      types.TxData
	Signature types.Signature
	Timestamp int64
}

// HealthStatus reports the engine's readiness for the health endpoint.
type HealthStatus struct {
	Status               string // "ok" | "initializing" | "error"
	Ready                bool
	ChainLength          int
	PendingTransactions  int
	Error                string
}

// SupplyStatus reports tokenomics read-outs for the supply endpoints.
type SupplyStatus struct {
	TotalMined        types.Amount
	CirculatingSupply types.Amount
	MaxSupply         types.Amount
	InitialReward     types.Amount
	HalvingInterval   uint64
}

// BridgeInRequest is a credentialed system-transaction request from the
// cross-chain helper collaborator (spec §6 "Cross-chain helper"). It is
// admitted through AdmitSystemTransaction, never through Submit, and is
// never reachable from the public HTTP surface without the operator's
// separate bridge credential.
type BridgeInRequest struct {
	To          string
	Amount      types.Amount
	Chain       string
	TokenSymbol string
}

// Ledger is the engine's external surface, as consumed by the HTTP adapter.
// Exactly one of {Submit, Mine, Reconcile} executes at a time; see the
// engine's serializer for how that's enforced.
type Ledger interface {
	Submit(ctx context.Context, req SubmitRequest) (types.Transaction, error)
	Mine(ctx context.Context, minerAddress string) (types.Block, error)

	// AdmitSystemTransaction issues a bridge-in system transaction
	// (from = nil, data.type = bridge_in) directly into the mempool,
	// bypassing signature/ownership checks since the caller authenticated
	// out-of-band with a bridge credential rather than an account key.
	AdmitSystemTransaction(ctx context.Context, req BridgeInRequest) (types.Transaction, error)

	GetBalance(address string) (types.Amount, error)
	GetChain() ([]types.Block, error)
	GetChainPage(limit, offset int) ([]types.Block, error)
	GetMempool() ([]types.Transaction, error)
	GetTransactionHistory(address string) ([]types.Transaction, error)
	GetHolders() ([]Holder, error)

	IsChainValid() error
	Health() HealthStatus
	Supply() SupplyStatus

	Close() error
}

// Holder is one address with a nonzero balance, as reported by /api/holders.
type Holder struct {
	Address string       `json:"address"`
	Balance types.Amount `json:"balance"`
}

// RiskAdvisor annotates a candidate transaction with an informational
// advisory; per the external-interfaces contract, an advisory can never
// veto a cryptographically valid, sufficiently funded transaction, so the
// interface has no way to reject the call's conclusion.
type RiskAdvisor interface {
	Advise(tx types.Transaction, history []types.Transaction) Advisory
}

// Advisory is the result of a risk-advisor consultation.
type Advisory struct {
	Score int
	Notes string
}

// NoOpAdvisor is the default RiskAdvisor: no network, no policy, always the
// same neutral score. Operators that want a live Guardian-style ML
// collaborator in §6 swap in their own implementation.
type NoOpAdvisor struct{}

func (NoOpAdvisor) Advise(types.Transaction, []types.Transaction) Advisory {
	return Advisory{Score: 0, Notes: "no advisor configured"}
}
