package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressScheme identifies which derivation rule produced an Address.
type AddressScheme int

const (
	// SchemeStandard derives an Ethereum-style address: Keccak-256 of the
	// uncompressed public key's X||Y coordinates, taking the last 20 bytes,
	// rendered as a 0x-prefixed hex string.
	SchemeStandard AddressScheme = iota

	// SchemeLegacy derives an address by SHA-256 hashing the hex-encoded
	// compressed public key string, taking the first 20 bytes. Ownership
	// checks try it for every address, after SchemeStandard and before
	// SchemeWallet.
	SchemeLegacy

	// SchemeWallet derives an address by SHA-256 hashing the UTF-8 bytes of
	// the public key's 0x-prefixed hex string, taking the first 20 bytes.
	SchemeWallet
)

// AddressSize is the length, in bytes, of the raw (non-hex) address.
const AddressSize = 20

// Address is a 20-byte account identifier, rendered as a 0x-prefixed lowercase
// hex string in its external representation.
type Address [AddressSize]byte

// LegacyAllowlist is a compile-time fixed set of addresses whose ownership
// check skips address derivation altogether: for an address in this set,
// any public key whose signature verifies is accepted as its owner. Every
// other address must match one of the derivation schemes. The set is empty
// by default; operators that need to onboard specific legacy accounts fork
// this map at build time.
var LegacyAllowlist = map[Address]bool{}

// String renders the address as a 0x-prefixed lowercase hex string.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalJSON marshals an address as its 0x-prefixed hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// uncompressedPubKeyCoords returns the 64-byte X||Y coordinate pair for a
// compressed secp256k1 public key, as required by SchemeStandard.
func uncompressedPubKeyCoords(pk PublicKey) ([]byte, error) {
	pub, err := parsePubKey(pk)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// DeriveAddress computes the address for a public key under the given
// scheme. Every scheme derives solely from pk; none consult any other
// caller-supplied input.
func DeriveAddress(pk PublicKey, scheme AddressScheme) (Address, error) {
	var addr Address
	switch scheme {
	case SchemeStandard:
		coords, err := uncompressedPubKeyCoords(pk)
		if err != nil {
			return addr, err
		}
		digest := sha3.NewLegacyKeccak256()
		digest.Write(coords)
		sum := digest.Sum(nil)
		copy(addr[:], sum[len(sum)-AddressSize:])
		return addr, nil
	case SchemeLegacy:
		hexStr := hex.EncodeToString(pk[:])
		sum := sha256.Sum256([]byte(hexStr))
		copy(addr[:], sum[:AddressSize])
		return addr, nil
	case SchemeWallet:
		pkStr := "0x" + hex.EncodeToString(pk[:])
		sum := sha256.Sum256([]byte(pkStr))
		copy(addr[:], sum[:AddressSize])
		return addr, nil
	default:
		return addr, ErrInvalidPublicKey
	}
}

// AddressFromHex parses a 0x-prefixed or bare hex string into an Address.
func AddressFromHex(s string) (Address, error) {
	var addr Address
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != AddressSize {
		return addr, ErrInvalidPublicKey
	}
	copy(addr[:], b)
	return addr, nil
}
