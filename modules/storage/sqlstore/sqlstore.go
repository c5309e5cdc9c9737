// Package sqlstore implements the embedded SQL StorageBackend: a single
// on-disk file backend via modernc.org/sqlite (a pure-Go sqlite driver, no
// cgo toolchain required), used when the remote document store is
// unreachable at startup. It is the middle tier of the storage selection
// policy.
package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"ledgerd/modules"
	"ledgerd/types"

	"github.com/NebulousLabs/fastrand"
)

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	idx INTEGER PRIMARY KEY,
	hash TEXT NOT NULL,
	previousHash TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	nonce INTEGER NOT NULL,
	difficulty INTEGER NOT NULL,
	data TEXT NOT NULL,
	createdAt INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	fromAddress TEXT,
	toAddress TEXT NOT NULL,
	amount INTEGER NOT NULL,
	timestamp INTEGER NOT NULL,
	blockIndex INTEGER,
	signature TEXT,
	data TEXT,
	pending INTEGER NOT NULL,
	createdAt INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS smart_contracts (
	address TEXT PRIMARY KEY,
	code TEXT NOT NULL,
	createdAt INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS wallets (
	address TEXT PRIMARY KEY,
	publicKey TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS miner_block_history (
	minerAddress TEXT NOT NULL,
	blockIndex INTEGER NOT NULL,
	blockHash TEXT NOT NULL,
	UNIQUE(minerAddress, blockIndex)
);
`

// Store is a StorageBackend backed by a single sqlite file.
type Store struct {
	mu sync.Mutex
	db *sql.DB

	path        string
	flushTicker *time.Ticker
	stopFlush   chan struct{}
	log         *zap.Logger
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists. It starts a background goroutine that flushes
// to disk at modules.SQLFlushInterval; Close stops it and performs a final
// flush.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: schema: %w", err)
	}

	s := &Store{
		db:        db,
		path:      path,
		stopFlush: make(chan struct{}),
		log:       log,
	}
	s.flushTicker = time.NewTicker(30 * time.Second)
	go s.flushLoop()
	return s, nil
}

func (s *Store) flushLoop() {
	for {
		select {
		case <-s.flushTicker.C:
			if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				s.log.Warn("periodic sqlite flush failed", zap.Error(err))
			}
		case <-s.stopFlush:
			return
		}
	}
}

func (s *Store) SaveBlock(block types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	data, err := json.Marshal(block.Transactions)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO blocks (idx, hash, previousHash, timestamp, nonce, difficulty, data, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idx) DO UPDATE SET hash=excluded.hash, previousHash=excluded.previousHash,
			timestamp=excluded.timestamp, nonce=excluded.nonce, difficulty=excluded.difficulty, data=excluded.data`,
		block.Index, block.Hash, block.PreviousHash, block.Timestamp, block.Nonce, block.Difficulty, string(data), time.Now().UnixMilli())
	if err != nil {
		return err
	}

	for _, t := range block.Transactions {
		if err := saveTxTx(tx, t, &block.Index); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveTxTx(tx *sql.Tx, t types.Transaction, blockIndex *int64) error {
	id := t.ID
	if id == "" {
		id = newID()
	}
	sigJSON, err := json.Marshal(t.Signature)
	if err != nil {
		return err
	}
	dataJSON, err := json.Marshal(t.Data)
	if err != nil {
		return err
	}
	pending := 0
	if blockIndex == nil {
		pending = 1
	}
	_, err = tx.Exec(`INSERT INTO transactions (id, fromAddress, toAddress, amount, timestamp, blockIndex, signature, data, pending, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET blockIndex=excluded.blockIndex, pending=excluded.pending`,
		id, t.From, t.To, int64(t.Amount), t.Timestamp, nullableIndex(blockIndex), string(sigJSON), string(dataJSON), pending, time.Now().UnixMilli())
	return err
}

func nullableIndex(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func (s *Store) DeleteBlock(index int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM transactions WHERE blockIndex = ?", index); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM blocks WHERE idx = ?", index); err != nil {
		return err
	}
	return tx.Commit()
}

func scanBlock(row interface {
	Scan(dest ...interface{}) error
}) (types.Block, error) {
	var b types.Block
	var data string
	var createdAt int64
	if err := row.Scan(&b.Index, &b.Hash, &b.PreviousHash, &b.Timestamp, &b.Nonce, &b.Difficulty, &data, &createdAt); err != nil {
		return b, err
	}
	if err := json.Unmarshal([]byte(data), &b.Transactions); err != nil {
		return b, err
	}
	return b, nil
}

func (s *Store) GetBlock(index int64) (types.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow("SELECT idx, hash, previousHash, timestamp, nonce, difficulty, data, createdAt FROM blocks WHERE idx = ?", index)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return types.Block{}, false, nil
	}
	if err != nil {
		return types.Block{}, false, err
	}
	return b, true, nil
}

func (s *Store) GetAllBlocks() ([]types.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT idx, hash, previousHash, timestamp, nonce, difficulty, data, createdAt FROM blocks ORDER BY idx ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetLatestBlock() (types.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow("SELECT idx, hash, previousHash, timestamp, nonce, difficulty, data, createdAt FROM blocks ORDER BY idx DESC LIMIT 1")
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return types.Block{}, false, nil
	}
	if err != nil {
		return types.Block{}, false, err
	}
	return b, true, nil
}

func (s *Store) SaveTransaction(t types.Transaction, blockIndex *int64) (types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return t, err
	}
	defer tx.Rollback()
	if err := saveTxTx(tx, t, blockIndex); err != nil {
		return t, err
	}
	return t, tx.Commit()
}

func scanTx(row interface {
	Scan(dest ...interface{}) error
}) (types.Transaction, error) {
	var t types.Transaction
	var sigJSON, dataJSON string
	var blockIndex sql.NullInt64
	var amount int64
	var pending int
	var createdAt int64
	if err := row.Scan(&t.ID, &t.From, &t.To, &amount, &t.Timestamp, &blockIndex, &sigJSON, &dataJSON, &pending, &createdAt); err != nil {
		return t, err
	}
	t.Amount = types.Amount(amount)
	if blockIndex.Valid {
		idx := blockIndex.Int64
		t.BlockIndex = &idx
	}
	if sigJSON != "" && sigJSON != "null" {
		if err := json.Unmarshal([]byte(sigJSON), &t.Signature); err != nil {
			return t, err
		}
	}
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &t.Data); err != nil {
			return t, err
		}
	}
	return t, nil
}

const txSelect = "SELECT id, fromAddress, toAddress, amount, timestamp, blockIndex, signature, data, pending, createdAt FROM transactions"

func (s *Store) GetPendingTransactions() ([]types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(txSelect + " WHERE pending = 1")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ClearPendingTransactions() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM transactions WHERE pending = 1")
	return err
}

func (s *Store) GetTransactionsByBlock(index int64) ([]types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(txSelect+" WHERE blockIndex = ?", index)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTransactionHistory(address string) ([]types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(txSelect+" WHERE fromAddress = ? OR toAddress = ? ORDER BY timestamp ASC", address, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) SaveWallet(record modules.WalletRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO wallets (address, publicKey) VALUES (?, ?)
		ON CONFLICT(address) DO UPDATE SET publicKey=excluded.publicKey`, record.Address, record.PublicKey)
	return err
}

func (s *Store) GetWallet(address string) (modules.WalletRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var w modules.WalletRecord
	row := s.db.QueryRow("SELECT address, publicKey FROM wallets WHERE address = ?", address)
	err := row.Scan(&w.Address, &w.PublicKey)
	if err == sql.ErrNoRows {
		return w, false, nil
	}
	return w, err == nil, err
}

func (s *Store) SaveSmartContract(blob modules.ContractBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO smart_contracts (address, code, createdAt) VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET code=excluded.code`, blob.Address, blob.Code, blob.CreatedAt)
	return err
}

func (s *Store) GetSmartContract(address string) (modules.ContractBlob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c modules.ContractBlob
	row := s.db.QueryRow("SELECT address, code, createdAt FROM smart_contracts WHERE address = ?", address)
	err := row.Scan(&c.Address, &c.Code, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, false, nil
	}
	return c, err == nil, err
}

func (s *Store) GetAllSmartContracts() ([]modules.ContractBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT address, code, createdAt FROM smart_contracts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []modules.ContractBlob
	for rows.Next() {
		var c modules.ContractBlob
		if err := rows.Scan(&c.Address, &c.Code, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SaveMinerBlockHistory(entry modules.MinerHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO miner_block_history (minerAddress, blockIndex, blockHash) VALUES (?, ?, ?)
		ON CONFLICT(minerAddress, blockIndex) DO NOTHING`, entry.MinerAddress, entry.BlockIndex, entry.BlockHash)
	return err
}

func (s *Store) GetMinerBlockHistory() ([]modules.MinerHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT minerAddress, blockIndex, blockHash FROM miner_block_history")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []modules.MinerHistoryEntry
	for rows.Next() {
		var e modules.MinerHistoryEntry
		if err := rows.Scan(&e.MinerAddress, &e.BlockIndex, &e.BlockHash); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Backup copies the live database to path+".bak" using sqlite's VACUUM INTO,
// which produces a consistent snapshot without blocking writers for long.
func (s *Store) Backup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(fmt.Sprintf("VACUUM INTO '%s.bak'", s.path))
	return err
}

func (s *Store) Close() error {
	s.flushTicker.Stop()
	close(s.stopFlush)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.log.Warn("final sqlite flush failed", zap.Error(err))
	}
	return s.db.Close()
}

func newID() string {
	return fmt.Sprintf("%x", fastrand.Bytes(16))
}
