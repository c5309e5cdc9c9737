package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"ledgerd/crypto"
)

// TxKind identifies the reserved data.type values recognized by the ledger.
// An empty TxKind denotes an ordinary signed transfer.
type TxKind string

const (
	TxTransfer           TxKind = ""
	TxMiningReward       TxKind = "mining_reward"
	TxPremine            TxKind = "premine"
	TxBridgeIn           TxKind = "bridge_in"
	TxContractExecution  TxKind = "contract_execution"
)

// TxData is the tagged payload carried in a transaction's "data" field. Only
// the fields relevant to Type are meaningful; the others are zero. This
// replaces an untyped key/value bag with a sum type discriminated by Type.
type TxData struct {
	Type TxKind `json:"type,omitempty"`

	// Recipient carries the premine tag ("founder", "treasury",
	// "liquidity_pool") for TxPremine.
	Recipient string `json:"recipient,omitempty"`

	// Height and Era annotate TxMiningReward with the block height mined
	// and the halving era (height / halvingInterval) active at mint time.
	Height *uint64 `json:"height,omitempty"`
	Era    *uint64 `json:"era,omitempty"`

	// Chain and TokenSymbol annotate TxBridgeIn with the origin chain and
	// the bridged asset's symbol.
	Chain       string `json:"chain,omitempty"`
	TokenSymbol string `json:"tokenSymbol,omitempty"`

	// ContractAddress and Payload annotate TxContractExecution. Payload is
	// an opaque blob; the ledger never executes it (see contracts.go).
	ContractAddress string `json:"contractAddress,omitempty"`
	Payload         string `json:"payload,omitempty"`
}

// IsSystem reports whether this data tags a system-originated transaction
// (coinbase, premine, or bridge-in), i.e. one that is legitimately signature-
// free (from == nil).
func (d TxData) IsSystem() bool {
	switch d.Type {
	case TxMiningReward, TxPremine, TxBridgeIn:
		return true
	default:
		return false
	}
}

// Signature carries the ECDSA components of a transaction signature. R and S
// are the raw scalar components in the canonical form produced by the
// wallet; PublicKey is the compressed secp256k1 public key. RecoveryParam is
// accepted for wallet compatibility but is not required for verification
// because PublicKey is carried explicitly.
type Signature struct {
	R             string `json:"r"`
	S             string `json:"s"`
	PublicKey     string `json:"publicKey"`
	RecoveryParam *int   `json:"recoveryParam,omitempty"`
}

// DER returns the signature re-encoded as a DER byte string, as expected by
// crypto.VerifyHash.
func (s Signature) DER() (crypto.Signature, error) {
	return crypto.SignatureFromRS(s.R, s.S)
}

// Transaction is a single value transfer or system-issued ledger entry.
//
// "From is empty", "Signature is nil" and "Data.IsSystem()" hold together or
// not at all: coinbase, premine, and bridge-in entries have no From and no
// Signature; every other transaction is signed by From's key.
type Transaction struct {
	ID        string     `json:"id,omitempty"`
	From      string     `json:"from,omitempty"`
	To        string     `json:"to"`
	Amount    Amount     `json:"amount"`
	Timestamp int64      `json:"timestamp"`
	Data      TxData     `json:"data,omitempty"`
	Signature *Signature `json:"signature,omitempty"`
	BlockIndex *int64    `json:"blockIndex,omitempty"`
}

// IsSystem reports whether this transaction is a coinbase, premine, or
// bridge-in entry rather than a user-signed transfer.
func (t Transaction) IsSystem() bool {
	return t.From == "" && t.Signature == nil
}

// signingPayload builds the canonical JSON object that is hashed and signed,
// with keys in the fixed order [amount, data, from, timestamp, to]. Using a
// hand-assembled byte buffer (rather than json.Marshal on a struct) pins the
// key order regardless of Go's map/struct marshal behavior, matching what
// wallets sign.
func signingPayload(from, to string, amount Amount, timestamp int64, data TxData) ([]byte, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	// canonicalize the data object's own key order too: encoding/json emits
	// struct fields in declaration order, which for TxData is not
	// alphabetical, so re-sort the keys.
	dataJSON, err = canonicalizeJSONObject(dataJSON)
	if err != nil {
		return nil, err
	}

	amountJSON, err := json.Marshal(amount.Float64())
	if err != nil {
		return nil, err
	}
	fromJSON, err := json.Marshal(from)
	if err != nil {
		return nil, err
	}
	toJSON, err := json.Marshal(to)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	fmt.Fprintf(&buf, `"amount":%s,`, amountJSON)
	fmt.Fprintf(&buf, `"data":%s,`, dataJSON)
	fmt.Fprintf(&buf, `"from":%s,`, fromJSON)
	fmt.Fprintf(&buf, `"timestamp":%d,`, timestamp)
	fmt.Fprintf(&buf, `"to":%s`, toJSON)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// canonicalizeJSONObject re-marshals a flat JSON object with its keys sorted
// lexicographically, so nested "data" payloads hash deterministically
// regardless of struct field declaration order.
func canonicalizeJSONObject(raw []byte) ([]byte, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kJSON, _ := json.Marshal(k)
		buf.Write(kJSON)
		buf.WriteByte(':')
		buf.Write(m[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// HashForSigning computes the SHA-256 digest of the transaction's canonical
// signing payload. The caller supplies the timestamp to reuse (the client-
// signed value for verification, or time.Now() when building a new system
// transaction) rather than the transaction's own field, so callers cannot
// accidentally re-stamp and break a signature.
func HashForSigning(from, to string, amount Amount, timestamp int64, data TxData) (crypto.Hash, error) {
	payload, err := signingPayload(from, to, amount, timestamp, data)
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.HashBytes(payload), nil
}

// Hash is a convenience wrapper around HashForSigning using the
// transaction's own fields.
func (t Transaction) Hash() (crypto.Hash, error) {
	return HashForSigning(t.From, t.To, t.Amount, t.Timestamp, t.Data)
}
