package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"ledgerd/crypto"
)

// GenesisPreviousHash is the sentinel previousHash value carried by the
// genesis block.
const GenesisPreviousHash = "0"

// Block is a single committed unit of the chain: an ordered set of
// transactions sealed behind a proof-of-work nonce.
type Block struct {
	Index        int64         `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	PreviousHash string        `json:"previousHash"`
	Transactions []Transaction `json:"transactions"`
	Nonce        uint64        `json:"nonce"`
	Difficulty   int           `json:"difficulty"`
	Hash         string        `json:"hash"`
}

// digest builds the byte string that is hashed to produce Block.Hash:
// index || previousHash || timestamp || JSON(transactions) || nonce.
// Transactions are marshaled with encoding/json, which emits Transaction's
// struct fields in declaration order; every block producer in this module
// uses this same function, so the ordering is self-consistent across
// storage backends.
func (b Block) digest() ([]byte, error) {
	txJSON, err := json.Marshal(b.Transactions)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d", b.Index)
	buf.WriteString(b.PreviousHash)
	fmt.Fprintf(&buf, "%d", b.Timestamp)
	buf.Write(txJSON)
	fmt.Fprintf(&buf, "%d", b.Nonce)
	return buf.Bytes(), nil
}

// HashBlock computes the SHA-256 digest of a block's canonical byte
// representation, independent of its current Hash field.
func HashBlock(b Block) (crypto.Hash, error) {
	d, err := b.digest()
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.HashBytes(d), nil
}

// MeetsDifficulty reports whether hexHash has at least difficulty leading
// hex zero characters.
func MeetsDifficulty(hexHash string, difficulty int) bool {
	if len(hexHash) < difficulty {
		return false
	}
	return strings.Count(hexHash[:difficulty], "0") == difficulty
}

// VerifyHash recomputes this block's hash and checks it against the stored
// Hash field and the block's claimed Difficulty.
func (b Block) VerifyHash() error {
	h, err := HashBlock(b)
	if err != nil {
		return err
	}
	if h.String() != b.Hash {
		return fmt.Errorf("block %d: hash mismatch: computed %s, stored %s", b.Index, h.String(), b.Hash)
	}
	if !MeetsDifficulty(b.Hash, b.Difficulty) {
		return fmt.Errorf("block %d: hash %s does not meet difficulty %d", b.Index, b.Hash, b.Difficulty)
	}
	return nil
}

// Coinbase returns the block's reward transaction, if any. By convention the
// coinbase (if present) is the last transaction in the block.
func (b Block) Coinbase() (Transaction, bool) {
	if len(b.Transactions) == 0 {
		return Transaction{}, false
	}
	last := b.Transactions[len(b.Transactions)-1]
	if last.Data.Type == TxMiningReward {
		return last, true
	}
	return Transaction{}, false
}
