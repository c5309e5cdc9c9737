// Package docstore implements the remote document store StorageBackend on
// top of Google Cloud Firestore, the first tier of the storage selection
// policy. It supports an optional best-effort replica project: writes to
// blocks and transactions are mirrored to a secondary Firestore project,
// and mirror failures are logged, never propagated to the caller.
package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ledgerd/modules"
	"ledgerd/types"

	"github.com/NebulousLabs/fastrand"
)

const (
	collBlocks       = "blocks"
	collTransactions = "transactions"
	collWallets      = "wallets"
	collContracts    = "smart_contracts"
	collMinerHistory = "miner_block_history"
)

// Config selects the primary (and optional replica) Firestore projects and
// a key prefix applied to every collection name, so multiple ledgerd
// instances can share one Firestore project without colliding.
type Config struct {
	ProjectID          string
	CollectionPrefix    string
	BackupProjectID    string
	BackupKeyFilename  string
}

// Store is a StorageBackend backed by Firestore.
type Store struct {
	client  *firestore.Client
	replica *firestore.Client // nil if no replica configured
	prefix  string
	log     *zap.Logger
}

// Open connects to the primary Firestore project (and the replica project,
// if configured) with a bounded timeout, per the storage initialization
// deadline.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, modules.StorageInitTimeout)
	defer cancel()

	client, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, classifyErr(err)
	}

	s := &Store{client: client, prefix: cfg.CollectionPrefix, log: log}

	if cfg.BackupProjectID != "" {
		replicaCtx, replicaCancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
		defer replicaCancel()
		var replicaOpts []option.ClientOption
		if cfg.BackupKeyFilename != "" {
			replicaOpts = append(replicaOpts, option.WithCredentialsFile(cfg.BackupKeyFilename))
		}
		replica, err := firestore.NewClient(replicaCtx, cfg.BackupProjectID, replicaOpts...)
		if err != nil {
			log.Warn("replica Firestore project unreachable; continuing without replica", zap.Error(err))
		} else {
			s.replica = replica
		}
	}
	return s, nil
}

// classifyErr maps a Firestore/gRPC error to a modules.LedgerError carrying
// the right Kind, so the selector and the HTTP adapter can react without
// parsing strings.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return modules.WrapError(modules.KindStorageUnavailable, "document store error", err)
	}
	switch st.Code() {
	case codes.PermissionDenied, codes.Unauthenticated:
		return modules.WrapError(modules.KindStoragePermissionDenied, "document store rejected credentials", err)
	case codes.DeadlineExceeded:
		return modules.WrapError(modules.KindStorageTimeout, "document store timed out", err)
	default:
		return modules.WrapError(modules.KindStorageUnavailable, "document store unavailable", err)
	}
}

func (s *Store) coll(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "_" + name
}

func (s *Store) SaveBlock(block types.Block) error {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()

	batch := s.client.Batch()
	blockRef := s.client.Collection(s.coll(collBlocks)).Doc(fmt.Sprintf("%d", block.Index))
	batch.Set(blockRef, block)
	for _, t := range block.Transactions {
		idx := block.Index
		if t.ID == "" {
			t.ID = newID()
		}
		t.BlockIndex = &idx
		txRef := s.client.Collection(s.coll(collTransactions)).Doc(t.ID)
		batch.Set(txRef, t)
	}
	_, err := batch.Commit(ctx)
	if err != nil {
		return classifyErr(err)
	}
	s.mirror(func(c *firestore.Client) error {
		mctx, mcancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
		defer mcancel()
		mb := c.Batch()
		mb.Set(c.Collection(s.coll(collBlocks)).Doc(fmt.Sprintf("%d", block.Index)), block)
		_, err := mb.Commit(mctx)
		return err
	})
	return nil
}

// mirror runs fn against the replica client, if configured, logging and
// swallowing any failure.
func (s *Store) mirror(fn func(*firestore.Client) error) {
	if s.replica == nil {
		return
	}
	if err := fn(s.replica); err != nil {
		s.log.Warn("replica mirror write failed", zap.Error(err))
	}
}

func (s *Store) DeleteBlock(index int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()

	iter := s.client.Collection(s.coll(collTransactions)).Where("BlockIndex", "==", index).Documents(ctx)
	batch := s.client.Batch()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return classifyErr(err)
		}
		batch.Delete(doc.Ref)
	}
	batch.Delete(s.client.Collection(s.coll(collBlocks)).Doc(fmt.Sprintf("%d", index)))
	_, err := batch.Commit(ctx)
	return classifyErr(err)
}

func (s *Store) GetBlock(index int64) (types.Block, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	doc, err := s.client.Collection(s.coll(collBlocks)).Doc(fmt.Sprintf("%d", index)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return types.Block{}, false, nil
	}
	if err != nil {
		return types.Block{}, false, classifyErr(err)
	}
	var b types.Block
	if err := doc.DataTo(&b); err != nil {
		return types.Block{}, false, err
	}
	return b, true, nil
}

func (s *Store) GetAllBlocks() ([]types.Block, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	iter := s.client.Collection(s.coll(collBlocks)).OrderBy("Index", firestore.Asc).Documents(ctx)
	var out []types.Block
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyErr(err)
		}
		var b types.Block
		if err := doc.DataTo(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) GetLatestBlock() (types.Block, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	iter := s.client.Collection(s.coll(collBlocks)).OrderBy("Index", firestore.Desc).Limit(1).Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return types.Block{}, false, nil
	}
	if err != nil {
		return types.Block{}, false, classifyErr(err)
	}
	var b types.Block
	if err := doc.DataTo(&b); err != nil {
		return types.Block{}, false, err
	}
	return b, true, nil
}

func (s *Store) SaveTransaction(t types.Transaction, blockIndex *int64) (types.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	if t.ID == "" {
		t.ID = newID()
	}
	t.BlockIndex = blockIndex
	_, err := s.client.Collection(s.coll(collTransactions)).Doc(t.ID).Set(ctx, t)
	if err != nil {
		return t, classifyErr(err)
	}
	s.mirror(func(c *firestore.Client) error {
		mctx, mcancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
		defer mcancel()
		_, err := c.Collection(s.coll(collTransactions)).Doc(t.ID).Set(mctx, t)
		return err
	})
	return t, nil
}

func (s *Store) queryTransactions(ctx context.Context, field string, op string, value interface{}) ([]types.Transaction, error) {
	iter := s.client.Collection(s.coll(collTransactions)).Where(field, op, value).Documents(ctx)
	var out []types.Transaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyErr(err)
		}
		var t types.Transaction
		if err := doc.DataTo(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) GetPendingTransactions() ([]types.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	return s.queryTransactions(ctx, "BlockIndex", "==", nil)
}

func (s *Store) ClearPendingTransactions() error {
	pending, err := s.GetPendingTransactions()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	batch := s.client.Batch()
	for _, t := range pending {
		batch.Delete(s.client.Collection(s.coll(collTransactions)).Doc(t.ID))
	}
	if len(pending) == 0 {
		return nil
	}
	_, err = batch.Commit(ctx)
	return classifyErr(err)
}

func (s *Store) GetTransactionsByBlock(index int64) ([]types.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	return s.queryTransactions(ctx, "BlockIndex", "==", index)
}

func (s *Store) GetTransactionHistory(address string) ([]types.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	from, err := s.queryTransactions(ctx, "From", "==", address)
	if err != nil {
		return nil, err
	}
	to, err := s.queryTransactions(ctx, "To", "==", address)
	if err != nil {
		return nil, err
	}
	return append(from, to...), nil
}

func (s *Store) SaveWallet(record modules.WalletRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	_, err := s.client.Collection(s.coll(collWallets)).Doc(record.Address).Set(ctx, record)
	return classifyErr(err)
}

func (s *Store) GetWallet(address string) (modules.WalletRecord, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	doc, err := s.client.Collection(s.coll(collWallets)).Doc(address).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return modules.WalletRecord{}, false, nil
	}
	if err != nil {
		return modules.WalletRecord{}, false, classifyErr(err)
	}
	var w modules.WalletRecord
	if err := doc.DataTo(&w); err != nil {
		return w, false, err
	}
	return w, true, nil
}

func (s *Store) SaveSmartContract(blob modules.ContractBlob) error {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	_, err := s.client.Collection(s.coll(collContracts)).Doc(blob.Address).Set(ctx, blob)
	return classifyErr(err)
}

func (s *Store) GetSmartContract(address string) (modules.ContractBlob, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	doc, err := s.client.Collection(s.coll(collContracts)).Doc(address).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return modules.ContractBlob{}, false, nil
	}
	if err != nil {
		return modules.ContractBlob{}, false, classifyErr(err)
	}
	var c modules.ContractBlob
	if err := doc.DataTo(&c); err != nil {
		return c, false, err
	}
	return c, true, nil
}

func (s *Store) GetAllSmartContracts() ([]modules.ContractBlob, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	iter := s.client.Collection(s.coll(collContracts)).Documents(ctx)
	var out []modules.ContractBlob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyErr(err)
		}
		var c modules.ContractBlob
		if err := doc.DataTo(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) SaveMinerBlockHistory(entry modules.MinerHistoryEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	docID := fmt.Sprintf("%s_%d", entry.MinerAddress, entry.BlockIndex)
	_, err := s.client.Collection(s.coll(collMinerHistory)).Doc(docID).Set(ctx, entry)
	return classifyErr(err)
}

func (s *Store) GetMinerBlockHistory() ([]modules.MinerHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), modules.StorageInitTimeout)
	defer cancel()
	iter := s.client.Collection(s.coll(collMinerHistory)).Documents(ctx)
	var out []modules.MinerHistoryEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyErr(err)
		}
		var e modules.MinerHistoryEntry
		if err := doc.DataTo(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Backup is a no-op for the document store: Firestore's own export tooling
// is the operator-facing backup mechanism, outside this process's control.
func (s *Store) Backup() error { return nil }

func (s *Store) Close() error {
	if s.replica != nil {
		s.replica.Close()
	}
	return s.client.Close()
}

func newID() string {
	return fmt.Sprintf("%x", fastrand.Bytes(16))
}
