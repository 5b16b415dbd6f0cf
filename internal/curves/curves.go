package curves

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"
	"math/big"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"flow-wallet/go-core/pkg/models"
)

var (
	ErrInvalidPrivateKey    = errors.New("invalid private key scalar")
	ErrInvalidPublicKey     = errors.New("invalid public key point")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrInvalidSignature     = errors.New("invalid signature encoding")
)

const (
	// PrivateKeySize is the scalar size for both supported curves.
	PrivateKeySize = 32
	// PublicKeySize is the raw X||Y representation without point prefix.
	PublicKeySize = 64
	// SignatureSize is the raw r||s representation.
	SignatureSize = 64
)

// Runtime holds the process-wide curve parameters. Both curves are safe for
// concurrent use once initialized.
type Runtime struct {
	P256      elliptic.Curve
	Secp256k1 *secp256k1.KoblitzCurve
}

var (
	runtimeOnce sync.Once
	runtime     *Runtime
)

// Initialize returns the shared curve runtime, constructing it exactly once.
// Concurrent first callers observe the same handle.
func Initialize() *Runtime {
	runtimeOnce.Do(func() {
		runtime = &Runtime{
			P256:      elliptic.P256(),
			Secp256k1: secp256k1.S256(),
		}
	})
	return runtime
}

// NewHasher returns a fresh hash state for the requested algorithm.
func NewHasher(algo models.HashAlgorithm) (hash.Hash, error) {
	switch algo {
	case models.SHA2256:
		return sha256.New(), nil
	case models.SHA2384:
		return sha512.New384(), nil
	case models.SHA3256:
		return sha3.New256(), nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// HashData digests data with the requested algorithm.
func HashData(data []byte, algo models.HashAlgorithm) ([]byte, error) {
	h, err := NewHasher(algo)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// Keccak256 computes the legacy Keccak-256 digest used by the Ethereum
// address and signing path.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// GeneratePrivateKey draws a fresh random scalar valid for the curve.
func GeneratePrivateKey(algo models.SignatureAlgorithm) ([]byte, error) {
	rt := Initialize()
	switch algo {
	case models.ECDSAP256:
		key, err := ecdsa.GenerateKey(rt.P256, rand.Reader)
		if err != nil {
			return nil, err
		}
		return leftPad(key.D.Bytes(), PrivateKeySize), nil
	case models.ECDSASecp256k1:
		key, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		return key.Serialize(), nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// ValidatePrivateKey reports whether raw is a usable scalar for the curve.
func ValidatePrivateKey(raw []byte, algo models.SignatureAlgorithm) error {
	if len(raw) != PrivateKeySize {
		return ErrInvalidPrivateKey
	}
	rt := Initialize()
	var order *big.Int
	switch algo {
	case models.ECDSAP256:
		order = rt.P256.Params().N
	case models.ECDSASecp256k1:
		order = rt.Secp256k1.Params().N
	default:
		return ErrUnsupportedAlgorithm
	}
	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 || d.Cmp(order) >= 0 {
		return ErrInvalidPrivateKey
	}
	return nil
}

// PublicKey derives the raw 64-byte X||Y public key for a private scalar.
func PublicKey(priv []byte, algo models.SignatureAlgorithm) ([]byte, error) {
	if err := ValidatePrivateKey(priv, algo); err != nil {
		return nil, err
	}
	rt := Initialize()
	var curve elliptic.Curve
	switch algo {
	case models.ECDSAP256:
		curve = rt.P256
	case models.ECDSASecp256k1:
		curve = rt.Secp256k1
	default:
		return nil, ErrUnsupportedAlgorithm
	}
	x, y := curve.ScalarBaseMult(priv)
	return rawPoint(x, y), nil
}

// Sign produces a raw r||s signature over an already-hashed digest.
func Sign(priv, digest []byte, algo models.SignatureAlgorithm) ([]byte, error) {
	if err := ValidatePrivateKey(priv, algo); err != nil {
		return nil, err
	}
	rt := Initialize()
	switch algo {
	case models.ECDSAP256:
		key := p256PrivateKey(rt, priv)
		defer key.D.SetInt64(0)
		r, s, err := ecdsa.Sign(rand.Reader, key, digest)
		if err != nil {
			return nil, err
		}
		sig := make([]byte, 0, SignatureSize)
		sig = append(sig, leftPad(r.Bytes(), 32)...)
		sig = append(sig, leftPad(s.Bytes(), 32)...)
		return sig, nil
	case models.ECDSASecp256k1:
		key := secp256k1.PrivKeyFromBytes(priv)
		defer key.Zero()
		sig := secpecdsa.Sign(key, digest)
		r := sig.R()
		s := sig.S()
		rb := r.Bytes()
		sb := s.Bytes()
		out := make([]byte, 0, SignatureSize)
		out = append(out, rb[:]...)
		out = append(out, sb[:]...)
		return out, nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// Verify checks a raw r||s signature against a raw 64-byte public key and an
// already-hashed digest. It reports false rather than returning an error for
// malformed inputs.
func Verify(pub, digest, sig []byte, algo models.SignatureAlgorithm) bool {
	if len(pub) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	rt := Initialize()
	switch algo {
	case models.ECDSAP256:
		x := new(big.Int).SetBytes(pub[:32])
		y := new(big.Int).SetBytes(pub[32:])
		if !rt.P256.IsOnCurve(x, y) {
			return false
		}
		key := &ecdsa.PublicKey{Curve: rt.P256, X: x, Y: y}
		r := new(big.Int).SetBytes(sig[:32])
		s := new(big.Int).SetBytes(sig[32:])
		return ecdsa.Verify(key, digest, r, s)
	case models.ECDSASecp256k1:
		uncompressed := make([]byte, 0, PublicKeySize+1)
		uncompressed = append(uncompressed, 0x04)
		uncompressed = append(uncompressed, pub...)
		key, err := secp256k1.ParsePubKey(uncompressed)
		if err != nil {
			return false
		}
		var r, s secp256k1.ModNScalar
		if overflow := r.SetByteSlice(sig[:32]); overflow {
			return false
		}
		if overflow := s.SetByteSlice(sig[32:]); overflow {
			return false
		}
		return secpecdsa.NewSignature(&r, &s).Verify(digest, key)
	default:
		return false
	}
}

func p256PrivateKey(rt *Runtime, raw []byte) *ecdsa.PrivateKey {
	key := new(ecdsa.PrivateKey)
	key.Curve = rt.P256
	key.D = new(big.Int).SetBytes(raw)
	key.X, key.Y = rt.P256.ScalarBaseMult(raw)
	return key
}

func rawPoint(x, y *big.Int) []byte {
	out := make([]byte, 0, PublicKeySize)
	out = append(out, leftPad(x.Bytes(), 32)...)
	out = append(out, leftPad(y.Bytes(), 32)...)
	return out
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
