package modules

import "time"

const (
	// LedgerDir is the directory, relative to the node's persist dir, that
	// holds the embedded SQL store's database file and any backup archives.
	LedgerDir = "ledger"

	// StorageInitAttempts is the number of times the remote document store
	// is attempted before falling back to the embedded SQL store.
	StorageInitAttempts = 3

	// StorageInitBackoff is the minimum delay between remote document store
	// connection attempts.
	StorageInitBackoff = 3 * time.Second

	// StorageInitTimeout bounds a single storage-backend connection
	// attempt.
	StorageInitTimeout = 10 * time.Second

	// EngineReadyDeadline is the overall deadline for engine initialization
	// (storage selection + genesis reconciliation). NewServer uses it as the
	// deadline of the startup context; if engine construction fails within
	// it, NewServer returns the error and the daemon does not start. There
	// is no mode in which the daemon keeps serving while marked not ready.
	EngineReadyDeadline = 90 * time.Second

	// SQLFlushInterval is the maximum cadence at which the embedded SQL
	// store flushes to disk absent an explicit write.
	SQLFlushInterval = 30 * time.Second

	// MinDifficulty is the lowest proof-of-work difficulty (leading hex
	// zeros) the miner will accept configuration for.
	MinDifficulty = 2

	// RecommendedDifficulty is advertised to clients as the suggested
	// minimum for production use.
	RecommendedDifficulty = 4

	// NonceBatchSize bounds how many nonces the miner tries between
	// cancellation checks.
	NonceBatchSize = 10000

	// APIKeyHeader and BridgeKeyHeader are the credential headers the HTTP
	// adapter checks on every route except health (APIKeyHeader) and on the
	// bridge-in endpoint specifically (BridgeKeyHeader). The API key is also
	// accepted as an apiKey query parameter, for callers that can't set
	// headers; the bridge key is read from the header only.
	APIKeyHeader    = "x-api-key"
	BridgeKeyHeader = "x-bridge-key"

	// RateLimitWindow and RateLimitMaxRequests define the fixed-window
	// per-IP rate limit the HTTP adapter enforces.
	RateLimitWindow      = 15 * time.Minute
	RateLimitMaxRequests = 100
)
