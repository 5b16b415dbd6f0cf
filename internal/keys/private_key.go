package keys

import (
	"fmt"

	"flow-wallet/go-core/internal/curves"
	"flow-wallet/go-core/internal/securevault"
	"flow-wallet/go-core/internal/storage"
	"flow-wallet/go-core/pkg/models"
)

// RawPrivateKey holds a single scalar bound to one curve.
type RawPrivateKey struct {
	store     storage.Storage
	algo      models.SignatureAlgorithm
	priv      []byte
	pub       []byte
	vaultOpts *securevault.Options
}

// GeneratePrivateKey draws fresh curve-appropriate random key material.
func GeneratePrivateKey(algo models.SignatureAlgorithm, st storage.Storage) (*RawPrivateKey, error) {
	priv, err := curves.GeneratePrivateKey(algo)
	if err != nil {
		return nil, err
	}
	return newRawPrivateKey(priv, algo, st)
}

// RestorePrivateKey reconstructs a key from previously exported scalar bytes.
func RestorePrivateKey(secret []byte, algo models.SignatureAlgorithm, st storage.Storage) (*RawPrivateKey, error) {
	if err := curves.ValidatePrivateKey(secret, algo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return newRawPrivateKey(append([]byte(nil), secret...), algo, st)
}

func newRawPrivateKey(priv []byte, algo models.SignatureAlgorithm, st storage.Storage) (*RawPrivateKey, error) {
	pub, err := curves.PublicKey(priv, algo)
	if err != nil {
		zeroBytes(priv)
		return nil, err
	}
	return &RawPrivateKey{store: st, algo: algo, priv: priv, pub: pub}, nil
}

func (k *RawPrivateKey) Type() models.KeyType                 { return models.KeyTypePrivateKey }
func (k *RawPrivateKey) HardwareBacked() bool                 { return false }
func (k *RawPrivateKey) Algorithm() models.SignatureAlgorithm { return k.algo }

// ID is the base58 fingerprint of the public key, used as the default
// storage id.
func (k *RawPrivateKey) ID() string { return KeyID(k.pub) }

func (k *RawPrivateKey) PublicKey(algo models.SignatureAlgorithm) []byte {
	if algo != k.algo && algo != models.UnknownSignatureAlgorithm {
		return nil
	}
	return append([]byte(nil), k.pub...)
}

func (k *RawPrivateKey) PrivateKey(algo models.SignatureAlgorithm) []byte {
	if algo != k.algo && algo != models.UnknownSignatureAlgorithm {
		return nil
	}
	if len(k.priv) == 0 {
		return nil
	}
	return append([]byte(nil), k.priv...)
}

func (k *RawPrivateKey) Sign(data []byte, signAlgo models.SignatureAlgorithm, hashAlgo models.HashAlgorithm) ([]byte, error) {
	if signAlgo != k.algo {
		return nil, fmt.Errorf("%w: key is bound to %s", ErrUnsupportedAlgorithm, k.algo)
	}
	if len(k.priv) == 0 {
		return nil, ErrEmptySignKey
	}
	digest, err := curves.HashData(data, hashAlgo)
	if err != nil {
		return nil, err
	}
	return curves.Sign(k.priv, digest, signAlgo)
}

func (k *RawPrivateKey) IsValidSignature(signature, message []byte, signAlgo models.SignatureAlgorithm, hashAlgo models.HashAlgorithm) bool {
	pub := k.PublicKey(signAlgo)
	if pub == nil {
		return false
	}
	digest, err := curves.HashData(message, hashAlgo)
	if err != nil {
		return false
	}
	return curves.Verify(pub, digest, signature, signAlgo)
}

// SetVaultOptions overrides the encryption parameters used by Store. Nil
// restores the vault defaults.
func (k *RawPrivateKey) SetVaultOptions(opts *securevault.Options) { k.vaultOpts = opts }

func (k *RawPrivateKey) Store(id, password string) error {
	if len(k.priv) == 0 {
		return ErrEmptySignKey
	}
	return storeRecord(k.store, id, password, k.Type(), k.priv, privateKeyAdvance{SignAlgo: k.algo.String()}, k.vaultOpts)
}

func (k *RawPrivateKey) Remove(id string) error { return k.store.Remove(id) }

func (k *RawPrivateKey) AllKeys() ([]string, error) { return k.store.AllKeys() }

// Wipe overwrites the held scalar. The key is unusable for signing afterward.
func (k *RawPrivateKey) Wipe() {
	zeroBytes(k.priv)
	k.priv = nil
}
