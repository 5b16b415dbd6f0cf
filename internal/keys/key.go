// Package keys implements the wallet key abstraction: a closed set of key
// material variants sharing one signing and persistence contract. Secret
// bytes held by a variant are wiped on every exit path rather than left for
// the collector.
package keys

import (
	"crypto/sha256"
	"errors"

	"github.com/mr-tron/base58/base58"

	"flow-wallet/go-core/internal/curves"
	"flow-wallet/go-core/pkg/models"
)

var (
	ErrInvalidSecret  = errors.New("invalid key secret")
	ErrEmptySignKey   = errors.New("no signing key material available")
	ErrUnknownKeyType = errors.New("unknown key type")

	// ErrUnsupportedAlgorithm mirrors the curve layer error so callers can
	// match either boundary.
	ErrUnsupportedAlgorithm = curves.ErrUnsupportedAlgorithm
)

// Key is the contract shared by all key material variants. Public and private
// key accessors return nil, not an error, when the variant does not hold
// material for the requested curve; hardware-backed keys never return a
// private key.
type Key interface {
	Type() models.KeyType
	HardwareBacked() bool
	PublicKey(algo models.SignatureAlgorithm) []byte
	PrivateKey(algo models.SignatureAlgorithm) []byte
	Sign(data []byte, signAlgo models.SignatureAlgorithm, hashAlgo models.HashAlgorithm) ([]byte, error)
	IsValidSignature(signature, message []byte, signAlgo models.SignatureAlgorithm, hashAlgo models.HashAlgorithm) bool
	Store(id, password string) error
	Remove(id string) error
	AllKeys() ([]string, error)
}

// KeyID builds the default storage id for a public key: a base58 fingerprint
// of its SHA-256 digest.
func KeyID(publicKey []byte) string {
	h := sha256.Sum256(publicKey)
	return "key1" + base58.Encode(h[:])
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
