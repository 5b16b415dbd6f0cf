package keys

import (
	"fmt"

	"flow-wallet/go-core/internal/curves"
	"flow-wallet/go-core/internal/securevault"
	"flow-wallet/go-core/internal/storage"
	"flow-wallet/go-core/pkg/models"
)

// SecureElement abstracts a hardware keystore holding P-256 keys. Private key
// material never crosses this boundary; the element signs digests in place.
type SecureElement interface {
	Generate() (keyID string, publicKey []byte, err error)
	PublicKey(keyID string) ([]byte, error)
	Sign(keyID string, digest []byte) ([]byte, error)
	Remove(keyID string) error
}

// SecureElementKey delegates all private key operations to a hardware store.
// PrivateKey always returns nil by contract.
type SecureElementKey struct {
	store     storage.Storage
	element   SecureElement
	keyID     string
	pub       []byte
	vaultOpts *securevault.Options
}

// CreateSecureElementKey asks the hardware store for a fresh key pair.
func CreateSecureElementKey(element SecureElement, st storage.Storage) (*SecureElementKey, error) {
	keyID, pub, err := element.Generate()
	if err != nil {
		return nil, err
	}
	return &SecureElementKey{store: st, element: element, keyID: keyID, pub: pub}, nil
}

// RestoreSecureElementKey rebinds to an existing hardware key by its id.
func RestoreSecureElementKey(element SecureElement, keyID string, st storage.Storage) (*SecureElementKey, error) {
	pub, err := element.PublicKey(keyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return &SecureElementKey{store: st, element: element, keyID: keyID, pub: pub}, nil
}

func (k *SecureElementKey) Type() models.KeyType { return models.KeyTypeSecureElement }
func (k *SecureElementKey) HardwareBacked() bool { return true }

// KeyID is the hardware store's identifier for this key.
func (k *SecureElementKey) KeyID() string { return k.keyID }

// ID is the base58 fingerprint of the public key.
func (k *SecureElementKey) ID() string { return KeyID(k.pub) }

func (k *SecureElementKey) PublicKey(algo models.SignatureAlgorithm) []byte {
	if algo != models.ECDSAP256 && algo != models.UnknownSignatureAlgorithm {
		return nil
	}
	return append([]byte(nil), k.pub...)
}

// PrivateKey returns nil for every curve: the secret never leaves the
// hardware store.
func (k *SecureElementKey) PrivateKey(models.SignatureAlgorithm) []byte { return nil }

func (k *SecureElementKey) Sign(data []byte, signAlgo models.SignatureAlgorithm, hashAlgo models.HashAlgorithm) ([]byte, error) {
	if signAlgo != models.ECDSAP256 {
		return nil, fmt.Errorf("%w: secure element keys are P-256 only", ErrUnsupportedAlgorithm)
	}
	if k.element == nil || k.keyID == "" {
		return nil, ErrEmptySignKey
	}
	digest, err := curves.HashData(data, hashAlgo)
	if err != nil {
		return nil, err
	}
	return k.element.Sign(k.keyID, digest)
}

func (k *SecureElementKey) IsValidSignature(signature, message []byte, signAlgo models.SignatureAlgorithm, hashAlgo models.HashAlgorithm) bool {
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
func (k *SecureElementKey) SetVaultOptions(opts *securevault.Options) { k.vaultOpts = opts }

// Store persists the hardware key id inside the vault so the record format
// stays uniform across variants.
func (k *SecureElementKey) Store(id, password string) error {
	if k.keyID == "" {
		return ErrEmptySignKey
	}
	return storeRecord(k.store, id, password, k.Type(), []byte(k.keyID), nil, k.vaultOpts)
}

func (k *SecureElementKey) Remove(id string) error { return k.store.Remove(id) }

func (k *SecureElementKey) AllKeys() ([]string, error) { return k.store.AllKeys() }
