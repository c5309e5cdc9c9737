package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	// PublicKeySize is the length, in bytes, of a compressed secp256k1 public
	// key as produced by PublicKey().
	PublicKeySize = 33

	// SecretKeySize is the length, in bytes, of a secp256k1 scalar private key.
	SecretKeySize = 32
)

type (
	// PublicKey is a compressed secp256k1 public key.
	PublicKey [PublicKeySize]byte

	// SecretKey is a secp256k1 private scalar.
	SecretKey [SecretKeySize]byte

	// Signature is a DER-encoded ECDSA signature. Unlike ed25519 signatures,
	// ECDSA signatures are not fixed-length, so Signature is a byte slice
	// rather than an array.
	Signature []byte
)

var (
	ErrNilInput         = errors.New("cannot use nil input")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidSecretKey = errors.New("invalid secret key")
)

// GenerateKeyPair creates a secp256k1 public-secret keypair that can be used
// to sign and verify transactions.
func GenerateKeyPair() (sk SecretKey, pk PublicKey, err error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return sk, pk, err
	}
	copy(sk[:], priv.Serialize())
	copy(pk[:], priv.PubKey().SerializeCompressed())
	return sk, pk, nil
}

// SignHash signs a digest using a secret key. The signing process includes
// its own entropy source (RFC 6979 deterministic nonces), so no external
// randomness is required, but crypto/rand is probed first so tests can swap
// in a deterministic reader if needed.
func SignHash(data Hash, sk SecretKey) (sig Signature, err error) {
	priv := secp256k1.PrivKeyFromBytes(sk[:])
	if priv == nil {
		return nil, ErrInvalidSecretKey
	}
	// touch rand.Reader so a broken entropy source still fails loudly, even
	// though ecdsa.Sign itself is deterministic.
	var probe [1]byte
	if _, err = rand.Read(probe[:]); err != nil {
		return nil, err
	}
	s := ecdsa.Sign(priv, data[:])
	return Signature(s.Serialize()), nil
}

// VerifyHash uses a public key and input data to verify a signature.
func VerifyHash(data Hash, pk PublicKey, sig Signature) error {
	pub, err := secp256k1.ParsePubKey(pk[:])
	if err != nil {
		return ErrInvalidPublicKey
	}
	s, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if !s.Verify(data[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}

// PublicKey returns the compressed public key that corresponds to a secret
// key.
func (sk SecretKey) PublicKey() (pk PublicKey, err error) {
	priv := secp256k1.PrivKeyFromBytes(sk[:])
	if priv == nil {
		return pk, ErrInvalidSecretKey
	}
	copy(pk[:], priv.PubKey().SerializeCompressed())
	return pk, nil
}

// parsePubKey decodes a compressed public key and returns its uncompressed
// X||Y coordinate pair (64 bytes, no 0x04 prefix).
func parsePubKey(pk PublicKey) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(pk[:])
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	uncompressed := pub.SerializeUncompressed()
	return uncompressed[1:], nil
}

// SignatureFromRS builds a DER-encoded Signature from the hex-encoded raw r
// and s scalar components a wallet submits. This is the wire shape wallets
// use (separate r/s fields) rather than a single DER blob.
func SignatureFromRS(rHex, sHex string) (Signature, error) {
	rBytes, err := hex.DecodeString(trimHexPrefix(rHex))
	if err != nil {
		return nil, ErrInvalidSignature
	}
	sBytes, err := hex.DecodeString(trimHexPrefix(sHex))
	if err != nil {
		return nil, ErrInvalidSignature
	}
	var r, s secp256k1.ModNScalar
	r.SetByteSlice(rBytes)
	s.SetByteSlice(sBytes)
	sig := ecdsa.NewSignature(&r, &s)
	return Signature(sig.Serialize()), nil
}

// SplitDER decodes a DER-encoded ECDSA signature back into its raw r and s
// scalar components, hex-encoded without a leading zero pad byte. This is
// the inverse of SignatureFromRS: wallets and tests that only have a DER
// signature (e.g. produced by SignHash) but need the r/s wire format use
// this to convert. DER encodes a SEQUENCE of two INTEGERs; ECDSA signature
// components here are always small enough for short-form length bytes.
func (s Signature) SplitDER() (rHex, sHex string, err error) {
	if len(s) < 8 || s[0] != 0x30 {
		return "", "", ErrInvalidSignature
	}
	body := s[2:]
	r, rest, err := readDERInteger(body)
	if err != nil {
		return "", "", err
	}
	sVal, _, err := readDERInteger(rest)
	if err != nil {
		return "", "", err
	}
	return hex.EncodeToString(r), hex.EncodeToString(sVal), nil
}

// readDERInteger reads one DER INTEGER (tag 0x02, short-form length) from
// the front of b, stripping a single leading zero pad byte, and returns its
// value along with the remaining bytes.
func readDERInteger(b []byte) (value, rest []byte, err error) {
	if len(b) < 2 || b[0] != 0x02 {
		return nil, nil, ErrInvalidSignature
	}
	n := int(b[1])
	if len(b) < 2+n {
		return nil, nil, ErrInvalidSignature
	}
	value = b[2 : 2+n]
	if len(value) > 1 && value[0] == 0x00 {
		value = value[1:]
	}
	return value, b[2+n:], nil
}

// PublicKeyFromHex parses a hex-encoded secp256k1 public key, accepting
// either the compressed (33-byte) or uncompressed (65-byte) wire form, and
// returns it in compressed form.
func PublicKeyFromHex(s string) (pk PublicKey, err error) {
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return pk, ErrInvalidPublicKey
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return pk, ErrInvalidPublicKey
	}
	copy(pk[:], pub.SerializeCompressed())
	return pk, nil
}

// trimHexPrefix strips a leading 0x/0X, if present.
func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// MarshalJSON marshals a signature as a hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return marshalHexBytes(s)
}

// MarshalJSON marshals a public key as a hex string.
func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return marshalHexBytes(pk[:])
}
