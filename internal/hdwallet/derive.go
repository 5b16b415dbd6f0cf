package hdwallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"flow-wallet/go-core/internal/curves"
	"flow-wallet/go-core/pkg/models"
)

// slip10P256Key is the HMAC key seeding the SLIP-10 tree for NIST P-256.
const slip10P256Key = "Nist256p1 seed"

var ErrSeedLength = errors.New("seed must be 64 bytes")

// PrivateKeyFromSeed derives the curve-specific private key for path. The
// same (seed, path, algo) input always yields the same scalar.
func PrivateKeyFromSeed(seed []byte, path DerivationPath, algo models.SignatureAlgorithm) ([]byte, error) {
	if len(seed) != 64 {
		return nil, ErrSeedLength
	}
	switch algo {
	case models.ECDSAP256:
		return deriveP256(seed, path.Elements())
	case models.ECDSASecp256k1:
		return deriveSecp256k1(seed, path.Elements())
	default:
		return nil, curves.ErrUnsupportedAlgorithm
	}
}

// PublicKeyFromSeed derives the raw 64-byte public key for path. When algo is
// unknown the engine falls back in a fixed order, P-256 first then secp256k1,
// and reports an unsupported-algorithm error only if neither curve validates.
func PublicKeyFromSeed(seed []byte, path DerivationPath, algo models.SignatureAlgorithm) ([]byte, error) {
	candidates := []models.SignatureAlgorithm{algo}
	if algo == models.UnknownSignatureAlgorithm {
		candidates = []models.SignatureAlgorithm{models.ECDSAP256, models.ECDSASecp256k1}
	}
	var lastErr error = curves.ErrUnsupportedAlgorithm
	for _, candidate := range candidates {
		priv, err := PrivateKeyFromSeed(seed, path, candidate)
		if err != nil {
			lastErr = err
			continue
		}
		pub, err := curves.PublicKey(priv, candidate)
		zeroBytes(priv)
		if err != nil {
			lastErr = err
			continue
		}
		return pub, nil
	}
	return nil, lastErr
}

// deriveSecp256k1 walks a BIP-32 tree. The network params only influence the
// extended key serialization, never the derived scalar.
func deriveSecp256k1(seed []byte, elements []uint32) ([]byte, error) {
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	for _, element := range elements {
		child, err := key.Derive(element)
		if err != nil {
			return nil, err
		}
		key.Zero()
		key = child
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	return priv.Serialize(), nil
}

// deriveP256 implements SLIP-10 private key derivation over NIST P-256,
// including the re-hash retry when an intermediate scalar falls outside the
// group order.
func deriveP256(seed []byte, elements []uint32) ([]byte, error) {
	rt := curves.Initialize()
	order := rt.P256.Params().N

	// Master key generation.
	digest := hmacSHA512([]byte(slip10P256Key), seed)
	for {
		il := new(big.Int).SetBytes(digest[:32])
		if il.Sign() != 0 && il.Cmp(order) < 0 {
			break
		}
		digest = hmacSHA512([]byte(slip10P256Key), digest)
	}
	key := new(big.Int).SetBytes(digest[:32])
	chainCode := append([]byte(nil), digest[32:]...)
	zeroBytes(digest)

	for _, element := range elements {
		childKey, childChain, err := deriveP256Child(key, chainCode, element, order)
		key.SetInt64(0)
		zeroBytes(chainCode)
		if err != nil {
			return nil, err
		}
		key = childKey
		chainCode = childChain
	}
	defer key.SetInt64(0)
	defer zeroBytes(chainCode)

	out := make([]byte, 32)
	key.FillBytes(out)
	return out, nil
}

func deriveP256Child(key *big.Int, chainCode []byte, element uint32, order *big.Int) (*big.Int, []byte, error) {
	rt := curves.Initialize()

	var data []byte
	if element >= hardenedOffset {
		data = make([]byte, 0, 37)
		data = append(data, 0x00)
		scalar := make([]byte, 32)
		key.FillBytes(scalar)
		data = append(data, scalar...)
	} else {
		scalar := make([]byte, 32)
		key.FillBytes(scalar)
		x, y := rt.P256.ScalarBaseMult(scalar)
		zeroBytes(scalar)
		data = marshalCompressed(x, y)
	}
	data = binary.BigEndian.AppendUint32(data, element)

	for {
		digest := hmacSHA512(chainCode, data)
		il := new(big.Int).SetBytes(digest[:32])
		child := new(big.Int).Add(il, key)
		child.Mod(child, order)
		if il.Cmp(order) < 0 && child.Sign() != 0 {
			childChain := append([]byte(nil), digest[32:]...)
			zeroBytes(digest)
			zeroBytes(data)
			il.SetInt64(0)
			return child, childChain, nil
		}
		// SLIP-10 retry: 0x01 || IR || ser32(i).
		retry := make([]byte, 0, 37)
		retry = append(retry, 0x01)
		retry = append(retry, digest[32:]...)
		retry = binary.BigEndian.AppendUint32(retry, element)
		zeroBytes(digest)
		zeroBytes(data)
		data = retry
	}
}

func marshalCompressed(x, y *big.Int) []byte {
	out := make([]byte, 33)
	if y.Bit(0) == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	x.FillBytes(out[1:])
	return out
}

func hmacSHA512(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
