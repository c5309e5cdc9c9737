// Package memstore implements the in-memory StorageBackend: the last tier
// of the storage selection policy, used when neither the remote document
// store nor the embedded SQL store is reachable. It offers zero durability
// by design, so every constructor call logs loudly rather than silently
// accepting data loss risk. It is deliberately built on nothing but plain
// maps and a mutex: there is no third-party persistence library to reach
// for when the whole point of this tier is "no persistence."
package memstore

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"ledgerd/modules"
	"ledgerd/types"

	"github.com/NebulousLabs/fastrand"
)

// Store is a StorageBackend backed entirely by in-process maps.
type Store struct {
	mu sync.Mutex

	blocks       map[int64]types.Block
	transactions map[string]storedTx
	wallets      map[string]modules.WalletRecord
	contracts    map[string]modules.ContractBlob
	minerHistory []modules.MinerHistoryEntry

	log *zap.Logger
}

type storedTx struct {
	tx         types.Transaction
	blockIndex *int64
}

// New constructs an empty in-memory store, warning via log that it offers
// no durability across restarts.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	log.Warn("using in-memory storage backend: no data will survive a restart")
	return &Store{
		blocks:       make(map[int64]types.Block),
		transactions: make(map[string]storedTx),
		wallets:      make(map[string]modules.WalletRecord),
		contracts:    make(map[string]modules.ContractBlob),
		log:          log,
	}
}

func (s *Store) SaveBlock(block types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[block.Index] = block
	for _, tx := range block.Transactions {
		idx := block.Index
		id := tx.ID
		if id == "" {
			id = newID()
			tx.ID = id
		}
		s.transactions[id] = storedTx{tx: tx, blockIndex: &idx}
	}
	return nil
}

func (s *Store) DeleteBlock(index int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, index)
	for id, st := range s.transactions {
		if st.blockIndex != nil && *st.blockIndex == index {
			delete(s.transactions, id)
		}
	}
	return nil
}

func (s *Store) GetBlock(index int64) (types.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[index]
	return b, ok, nil
}

func (s *Store) GetAllBlocks() ([]types.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *Store) GetLatestBlock() (types.Block, bool, error) {
	blocks, _ := s.GetAllBlocks()
	if len(blocks) == 0 {
		return types.Block{}, false, nil
	}
	return blocks[len(blocks)-1], true, nil
}

func (s *Store) SaveTransaction(tx types.Transaction, blockIndex *int64) (types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = newID()
	}
	s.transactions[tx.ID] = storedTx{tx: tx, blockIndex: blockIndex}
	return tx, nil
}

func (s *Store) GetPendingTransactions() ([]types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Transaction
	for _, st := range s.transactions {
		if st.blockIndex == nil {
			out = append(out, st.tx)
		}
	}
	return out, nil
}

func (s *Store) ClearPendingTransactions() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range s.transactions {
		if st.blockIndex == nil {
			delete(s.transactions, id)
		}
	}
	return nil
}

func (s *Store) GetTransactionsByBlock(index int64) ([]types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Transaction
	for _, st := range s.transactions {
		if st.blockIndex != nil && *st.blockIndex == index {
			out = append(out, st.tx)
		}
	}
	return out, nil
}

func (s *Store) GetTransactionHistory(address string) ([]types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Transaction
	for _, st := range s.transactions {
		if st.tx.From == address || st.tx.To == address {
			out = append(out, st.tx)
		}
	}
	return out, nil
}

func (s *Store) SaveWallet(record modules.WalletRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[record.Address] = record
	return nil
}

func (s *Store) GetWallet(address string) (modules.WalletRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[address]
	return w, ok, nil
}

func (s *Store) SaveSmartContract(blob modules.ContractBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[blob.Address] = blob
	return nil
}

func (s *Store) GetSmartContract(address string) (modules.ContractBlob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[address]
	return c, ok, nil
}

func (s *Store) GetAllSmartContracts() ([]modules.ContractBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]modules.ContractBlob, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) SaveMinerBlockHistory(entry modules.MinerHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minerHistory = append(s.minerHistory, entry)
	return nil
}

func (s *Store) GetMinerBlockHistory() ([]modules.MinerHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]modules.MinerHistoryEntry, len(s.minerHistory))
	copy(out, s.minerHistory)
	return out, nil
}

// Backup is a no-op: there is nothing durable to checkpoint.
func (s *Store) Backup() error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func newID() string {
	return hexEncode(fastrand.Bytes(16))
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}
