package hdwallet

import (
	"encoding/hex"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"flow-wallet/go-core/internal/curves"
	"flow-wallet/go-core/pkg/models"
)

var (
	ErrInvalidMessageLength = errors.New("message digest must be 32 bytes")
	ErrInvalidRecoveryID    = errors.New("unexpected signature recovery id")
)

// EthereumPrivateKey derives the secp256k1 scalar for the Ethereum-compatible
// sub-path, base.Index replaced by the account index.
func EthereumPrivateKey(seed []byte, base DerivationPath, index uint32) ([]byte, error) {
	return PrivateKeyFromSeed(seed, base.WithIndex(index), models.ECDSASecp256k1)
}

// EthereumPublicKey derives the raw 64-byte uncompressed public key for the
// Ethereum sub-path.
func EthereumPublicKey(seed []byte, base DerivationPath, index uint32) ([]byte, error) {
	priv, err := EthereumPrivateKey(seed, base, index)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(priv)
	return curves.PublicKey(priv, models.ECDSASecp256k1)
}

// EthereumAddress derives the EIP-55 checksummed address for the Ethereum
// sub-path at the given account index.
func EthereumAddress(seed []byte, base DerivationPath, index uint32) (string, error) {
	pub, err := EthereumPublicKey(seed, base, index)
	if err != nil {
		return "", err
	}
	return AddressFromPublicKey(pub), nil
}

// AddressFromPublicKey maps a raw 64-byte secp256k1 public key to its EIP-55
// checksummed account address: the last 20 bytes of Keccak-256 over X||Y.
func AddressFromPublicKey(pub []byte) string {
	digest := curves.Keccak256(pub)
	return checksumAddress(digest[len(digest)-20:])
}

// EthSign signs a 32-byte digest and normalizes the recovery id to the
// Ethereum 27/28 convention, returning exactly 65 bytes r||s||v.
func EthSign(priv, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidMessageLength
	}
	if err := curves.ValidatePrivateKey(priv, models.ECDSASecp256k1); err != nil {
		return nil, err
	}
	key := secp256k1.PrivKeyFromBytes(priv)
	defer key.Zero()

	// Compact form carries the recovery byte first: v || r || s.
	compact := secpecdsa.SignCompact(key, digest, false)
	if len(compact) != 65 {
		return nil, curves.ErrInvalidSignature
	}
	v := compact[0]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return nil, ErrInvalidRecoveryID
	}

	sig := make([]byte, 65)
	copy(sig[:64], compact[1:])
	sig[64] = v
	return sig, nil
}

// checksumAddress applies EIP-55: hex digits whose keccak nibble is >= 8 are
// uppercased.
func checksumAddress(addr []byte) string {
	lower := hex.EncodeToString(addr)
	digest := curves.Keccak256([]byte(lower))

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0F >= 8 {
				c -= 'a' - 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out)
}
