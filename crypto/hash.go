package crypto

// hash.go supplies a few general hashing functions, using the hashing
// algorithm SHA-256. Blocks and transactions are both committed to and
// referenced by SHA-256 digests; changing the hashing algorithm for ledgerd
// has much stronger implications than changing any of the other algorithms,
// so SHA-256 is the only supported algorithm.

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"hash"
)

const (
	HashSize = 32
)

type (
	Hash [HashSize]byte

	// HashSlice is used for sorting
	HashSlice []Hash
)

var (
	ErrHashWrongLen = errors.New("encoded value has the wrong length to be a hash")
)

// NewHash returns a sha256 hasher.
func NewHash() hash.Hash {
	return sha256.New()
}

// HashBytes takes a byte slice and returns its SHA-256 digest.
func HashBytes(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// HashAll concatenates the byte representation of every argument and hashes
// the result. Arguments must already be byte slices; callers that need
// canonical structured hashing (transactions,
// blocks) build their own deterministic byte representation first and pass
// it to HashBytes.
func HashAll(objs ...[]byte) Hash {
	var b []byte
	for _, obj := range objs {
		b = append(b, obj...)
	}
	return HashBytes(b)
}

// These functions implement sort.Interface, allowing hashes to be sorted.
func (hs HashSlice) Len() int           { return len(hs) }
func (hs HashSlice) Less(i, j int) bool { return bytes.Compare(hs[i][:], hs[j][:]) < 0 }
func (hs HashSlice) Swap(i, j int)      { hs[i], hs[j] = hs[j], hs[i] }

// MarshalJSON marshals a hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// String prints the hash in hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// marshalHexBytes is a shared helper for types that marshal as hex strings
// (signatures, public keys).
func marshalHexBytes(b []byte) ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

// UnmarshalJSON decodes the json hex string of the hash.
func (h *Hash) UnmarshalJSON(b []byte) error {
	// *2 because there are 2 hex characters per byte.
	// +2 because the encoded JSON string has a `"` added at the beginning and end.
	if len(b) != HashSize*2+2 {
		return ErrHashWrongLen
	}

	// b[1 : len(b)-1] cuts off the leading and trailing `"` in the JSON string.
	hBytes, err := hex.DecodeString(string(b[1 : len(b)-1]))
	if err != nil {
		return errors.New("could not unmarshal crypto.Hash: " + err.Error())
	}
	copy(h[:], hBytes)
	return nil
}
