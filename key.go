package hedera

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

var (
	ed25519PrivateKeyPrefix = mustDecodeHex("302e020100300506032b657004220420")
	ed25519PublicKeyPrefix  = mustDecodeHex("302a300506032b6570032100")
	ecdsaPrivateKeyPrefix   = mustDecodeHex("3030020100300706052b8104000a04220420")
	ecdsaPublicKeyPrefix    = mustDecodeHex("302d300706052b8104000a032200")
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// PublicKey is implemented by Ed25519PublicKey and ECDSAPublicKey. Both are
// comparable values so they can key the per-node signature maps.
type PublicKey interface {
	Bytes() []byte
	BytesDER() []byte
	String() string
	Verify(message, signature []byte) bool
	isPublicKey()
}

// PrivateKey signs message bytes locally.
type PrivateKey interface {
	PublicKey() PublicKey
	Sign(message []byte) []byte
	Bytes() []byte
	String() string
}

// Ed25519PublicKey is a 32 byte ed25519 point.
type Ed25519PublicKey [ed25519.PublicKeySize]byte

func Ed25519PublicKeyFromBytes(b []byte) (key Ed25519PublicKey, err error) {
	if bytes.HasPrefix(b, ed25519PublicKeyPrefix) {
		b = b[len(ed25519PublicKeyPrefix):]
	}
	if len(b) != ed25519.PublicKeySize {
		err = errors.Wrapf(ErrInvalidKey, "ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
		return
	}
	if _, err = new(edwards25519.Point).SetBytes(b); err != nil {
		err = errors.Wrap(ErrInvalidKey, "ed25519 public key is not a curve point")
		return
	}
	copy(key[:], b)
	return
}

func (k Ed25519PublicKey) Bytes() []byte {
	return append([]byte{}, k[:]...)
}

func (k Ed25519PublicKey) BytesDER() []byte {
	return append(append([]byte{}, ed25519PublicKeyPrefix...), k[:]...)
}

func (k Ed25519PublicKey) String() string {
	return hex.EncodeToString(k.BytesDER())
}

func (k Ed25519PublicKey) Verify(message, signature []byte) bool {
	return ed25519.Verify(k[:], message, signature)
}

func (Ed25519PublicKey) isPublicKey() {}

// Ed25519PrivateKey wraps a standard library ed25519 key.
type Ed25519PrivateKey struct {
	key ed25519.PrivateKey
}

func GenerateEd25519PrivateKey() (key Ed25519PrivateKey, err error) {
	if _, key.key, err = ed25519.GenerateKey(rand.Reader); err != nil {
		err = errors.WithStack(err)
	}
	return
}

// Ed25519PrivateKeyFromBytes accepts a 32 byte seed, a 64 byte
// seed||public key pair or the DER encoded seed.
func Ed25519PrivateKeyFromBytes(b []byte) (key Ed25519PrivateKey, err error) {
	if bytes.HasPrefix(b, ed25519PrivateKeyPrefix) {
		b = b[len(ed25519PrivateKeyPrefix):]
	}
	switch len(b) {
	case ed25519.SeedSize:
		key.key = ed25519.NewKeyFromSeed(b)
	case ed25519.PrivateKeySize:
		key.key = ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
		if !bytes.Equal(key.key[ed25519.SeedSize:], b[ed25519.SeedSize:]) {
			err = errors.Wrap(ErrInvalidKey, "ed25519 private key does not match its public half")
		}
	default:
		err = errors.Wrapf(ErrInvalidKey, "ed25519 private key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(b))
	}
	return
}

func (k Ed25519PrivateKey) PublicKey() PublicKey {
	var pub Ed25519PublicKey
	copy(pub[:], k.key.Public().(ed25519.PublicKey))
	return pub
}

func (k Ed25519PrivateKey) Sign(message []byte) []byte {
	return ed25519.Sign(k.key, message)
}

func (k Ed25519PrivateKey) Bytes() []byte {
	return append([]byte{}, k.key.Seed()...)
}

func (k Ed25519PrivateKey) String() string {
	return hex.EncodeToString(append(append([]byte{}, ed25519PrivateKeyPrefix...), k.key.Seed()...))
}

// ECDSAPublicKey is a compressed secp256k1 point.
type ECDSAPublicKey [33]byte

func ECDSAPublicKeyFromBytes(b []byte) (key ECDSAPublicKey, err error) {
	if bytes.HasPrefix(b, ecdsaPublicKeyPrefix) {
		b = b[len(ecdsaPublicKeyPrefix):]
	}
	var pub *btcec.PublicKey
	if pub, err = btcec.ParsePubKey(b); err != nil {
		err = errors.Wrapf(ErrInvalidKey, "secp256k1 public key: %v", err)
		return
	}
	copy(key[:], pub.SerializeCompressed())
	return
}

func (k ECDSAPublicKey) Bytes() []byte {
	return append([]byte{}, k[:]...)
}

func (k ECDSAPublicKey) BytesDER() []byte {
	return append(append([]byte{}, ecdsaPublicKeyPrefix...), k[:]...)
}

func (k ECDSAPublicKey) String() string {
	return hex.EncodeToString(k.BytesDER())
}

// Verify checks a 64 byte r||s signature over the keccak256 digest of
// message.
func (k ECDSAPublicKey) Verify(message, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	pub, err := btcec.ParsePubKey(k[:])
	if err != nil {
		return false
	}
	var r, s btcec.ModNScalar
	if r.SetByteSlice(signature[:32]) || s.SetByteSlice(signature[32:]) {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(keccak256(message), pub)
}

func (ECDSAPublicKey) isPublicKey() {}

// ECDSAPrivateKey is a secp256k1 key.
type ECDSAPrivateKey struct {
	key *btcec.PrivateKey
}

func GenerateECDSAPrivateKey() (key ECDSAPrivateKey, err error) {
	if key.key, err = btcec.NewPrivateKey(); err != nil {
		err = errors.WithStack(err)
	}
	return
}

func ECDSAPrivateKeyFromBytes(b []byte) (key ECDSAPrivateKey, err error) {
	if bytes.HasPrefix(b, ecdsaPrivateKeyPrefix) {
		b = b[len(ecdsaPrivateKeyPrefix):]
	}
	if len(b) != 32 {
		err = errors.Wrapf(ErrInvalidKey, "secp256k1 private key must be 32 bytes, got %d", len(b))
		return
	}
	key.key, _ = btcec.PrivKeyFromBytes(b)
	return
}

func (k ECDSAPrivateKey) PublicKey() PublicKey {
	var pub ECDSAPublicKey
	copy(pub[:], k.key.PubKey().SerializeCompressed())
	return pub
}

// Sign returns r||s over the keccak256 digest of message.
func (k ECDSAPrivateKey) Sign(message []byte) []byte {
	// compact signatures lead with a recovery byte
	sig, _ := ecdsa.SignCompact(k.key, keccak256(message), true)
	return sig[1:]
}

func (k ECDSAPrivateKey) Bytes() []byte {
	return k.key.Serialize()
}

func (k ECDSAPrivateKey) String() string {
	return hex.EncodeToString(append(append([]byte{}, ecdsaPrivateKeyPrefix...), k.key.Serialize()...))
}

func keccak256(message []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(message)
	return h.Sum(nil)
}

// PrivateKeyFromString parses a hex key. DER prefixes select the algorithm;
// raw 32 and 64 byte keys are treated as ed25519.
func PrivateKeyFromString(s string) (key PrivateKey, err error) {
	var b []byte
	if b, err = hex.DecodeString(strings.TrimPrefix(s, "0x")); err != nil {
		err = errors.Wrap(ErrInvalidKey, "private key is not hex")
		return
	}
	if bytes.HasPrefix(b, ecdsaPrivateKeyPrefix) {
		return ECDSAPrivateKeyFromBytes(b)
	}
	return Ed25519PrivateKeyFromBytes(b)
}

// PublicKeyFromString parses a hex key. 33 byte keys and the secp256k1 DER
// prefix select ECDSA.
func PublicKeyFromString(s string) (key PublicKey, err error) {
	var b []byte
	if b, err = hex.DecodeString(strings.TrimPrefix(s, "0x")); err != nil {
		err = errors.Wrap(ErrInvalidKey, "public key is not hex")
		return
	}
	return PublicKeyFromBytes(b)
}

func PublicKeyFromBytes(b []byte) (key PublicKey, err error) {
	if bytes.HasPrefix(b, ecdsaPublicKeyPrefix) || len(b) == 33 {
		return ECDSAPublicKeyFromBytes(b)
	}
	return Ed25519PublicKeyFromBytes(b)
}
