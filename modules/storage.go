package modules

import "ledgerd/types"

// MinerHistoryEntry records that minerAddress mined blockIndex, producing
// blockHash. The (MinerAddress, BlockIndex) pair is unique at the storage
// layer, which is what lets the miner detect a replayed claim even if its
// in-memory minerHistory map were somehow lost.
type MinerHistoryEntry struct {
	MinerAddress string
	BlockIndex   int64
	BlockHash    string
}

// ContractBlob is an opaque, stored-but-never-executed contract payload
// (see modules/ledger/contracts.go for the heuristic scanner that reads
// these).
type ContractBlob struct {
	Address   string
	Code      string
	CreatedAt int64
}

// WalletRecord is an advisory public-key cache keyed by address. It is not
// authoritative for consensus: ownership is always re-derived from the
// transaction's own signature and public key.
type WalletRecord struct {
	Address   string
	PublicKey string
}

// StorageBackend is the durability contract every storage implementation
// (remote document store, embedded SQL store, in-memory store) satisfies.
// All operations are fail-fast: implementations return an error rather than
// retry internally; retry policy lives in the selector (selector.go).
type StorageBackend interface {
	// SaveBlock upserts a block by Index, persisting it and all of its
	// transactions with BlockIndex set accordingly.
	SaveBlock(block types.Block) error

	// DeleteBlock removes a block and its transactions. Used only by
	// genesis reconciliation when no user data exists yet.
	DeleteBlock(index int64) error

	GetBlock(index int64) (types.Block, bool, error)
	GetAllBlocks() ([]types.Block, error)
	GetLatestBlock() (types.Block, bool, error)

	// SaveTransaction assigns an ID if tx.ID is empty. blockIndex == nil
	// records the transaction as pending; otherwise it is confirmed at
	// that index.
	SaveTransaction(tx types.Transaction, blockIndex *int64) (types.Transaction, error)

	GetPendingTransactions() ([]types.Transaction, error)
	ClearPendingTransactions() error

	GetTransactionsByBlock(index int64) ([]types.Transaction, error)
	GetTransactionHistory(address string) ([]types.Transaction, error)

	SaveWallet(record WalletRecord) error
	GetWallet(address string) (WalletRecord, bool, error)

	SaveSmartContract(blob ContractBlob) error
	GetSmartContract(address string) (ContractBlob, bool, error)
	GetAllSmartContracts() ([]ContractBlob, error)

	SaveMinerBlockHistory(entry MinerHistoryEntry) error
	GetMinerBlockHistory() ([]MinerHistoryEntry, error)

	// Backup triggers an implementation-defined durability checkpoint
	// (e.g. a document-store export, a SQL file copy). It is best-effort;
	// callers log failures rather than treating them as fatal.
	Backup() error

	Close() error
}
