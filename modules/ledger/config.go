// Package ledger implements the core ledger engine: the transaction
// pipeline, miner, genesis/premine reconciler, balance computation, and
// chain validation described by the storage-independent modules.Ledger
// contract. It is constructed once in cmd/ledgerd and handed to the HTTP
// adapter by reference; there is no package-level singleton.
package ledger

import (
	"go.uber.org/zap"

	"ledgerd/modules"
	"ledgerd/types"
)

// Config holds every configuration input the engine needs, gathered from
// cmd/ledgerd's flag/viper layer. Unknown options upstream are ignored
// before they ever reach this struct.
type Config struct {
	Tokenomics types.Tokenomics
	Difficulty int
	Premine    []types.PremineAllocation

	// AutoMine, when true, schedules a best-effort Mine(recipient=to) after
	// every successful Submit. Failures are logged and never surfaced to
	// the submitting caller.
	AutoMine bool

	// Advisor annotates submitted transactions; it can never veto a valid
	// one. Defaults to modules.NoOpAdvisor if nil.
	Advisor modules.RiskAdvisor

	// BridgeKey is the operator's bridge-in credential. The engine does not
	// read it, and AdmitSystemTransaction performs no credential check; the
	// HTTP adapter is given the same key and checks it on the bridge-in
	// route, which it disables when the key is empty.
	BridgeKey string
}

// DefaultConfig returns the engine configuration used when an operator
// supplies no overrides: Bitcoin-style tokenomics, the recommended
// difficulty floor, zero premine, auto-mine off, and the no-op advisor.
func DefaultConfig() Config {
	return Config{
		Tokenomics: types.DefaultTokenomics(),
		Difficulty: modules.RecommendedDifficulty,
		Advisor:    modules.NoOpAdvisor{},
	}
}

func (c Config) advisor() modules.RiskAdvisor {
	if c.Advisor == nil {
		return modules.NoOpAdvisor{}
	}
	return c.Advisor
}

func (c Config) difficulty() int {
	if c.Difficulty < modules.MinDifficulty {
		return modules.MinDifficulty
	}
	return c.Difficulty
}

// nopLogger is returned by New when the caller supplies a nil logger, so
// every call site in this package can log unconditionally.
func nopLogger(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
