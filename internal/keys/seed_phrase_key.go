package keys

import (
	"encoding/json"
	"fmt"

	"flow-wallet/go-core/internal/curves"
	"flow-wallet/go-core/internal/hdwallet"
	"flow-wallet/go-core/internal/securevault"
	"flow-wallet/go-core/internal/storage"
	"flow-wallet/go-core/pkg/models"
)

// DefaultSeedPhraseStrength is 128 bits of entropy, a 12 word phrase.
const DefaultSeedPhraseStrength = 128

// SeedPhraseOptions tunes generation and restoration of HD keys. Nil paths
// fall back to the Flow and Ethereum defaults.
type SeedPhraseOptions struct {
	Strength     int
	Passphrase   string
	Path         *hdwallet.DerivationPath
	EthereumPath *hdwallet.DerivationPath
}

// SeedPhraseKey derives per-curve keys from a BIP-39 mnemonic on demand; the
// mnemonic is the only secret held between operations and derived scalars are
// wiped before every return.
type SeedPhraseKey struct {
	store      storage.Storage
	mnemonic   []byte
	passphrase string
	path       hdwallet.DerivationPath
	ethPath    hdwallet.DerivationPath
	vaultOpts  *securevault.Options
}

// GenerateSeedPhraseKey builds an HD key from fresh entropy of the requested
// strength (128-256 bits, 12-24 words).
func GenerateSeedPhraseKey(opts SeedPhraseOptions, st storage.Storage) (*SeedPhraseKey, error) {
	strength := opts.Strength
	if strength == 0 {
		strength = DefaultSeedPhraseStrength
	}
	mnemonic, err := hdwallet.GenerateMnemonic(strength)
	if err != nil {
		return nil, err
	}
	return RestoreSeedPhraseKey(mnemonic, opts, st)
}

// RestoreSeedPhraseKey reconstructs an HD key from a previously exported
// mnemonic, rejecting phrases that fail the BIP-39 checksum.
func RestoreSeedPhraseKey(mnemonic string, opts SeedPhraseOptions, st storage.Storage) (*SeedPhraseKey, error) {
	if !hdwallet.ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("%w: mnemonic checksum", ErrInvalidSecret)
	}
	path := hdwallet.DefaultFlowPath()
	if opts.Path != nil {
		path = *opts.Path
	}
	ethPath := hdwallet.DefaultEthereumPath()
	if opts.EthereumPath != nil {
		ethPath = *opts.EthereumPath
	}
	return &SeedPhraseKey{
		store:      st,
		mnemonic:   []byte(mnemonic),
		passphrase: opts.Passphrase,
		path:       path,
		ethPath:    ethPath,
	}, nil
}

func (k *SeedPhraseKey) Type() models.KeyType { return models.KeyTypeSeedPhrase }
func (k *SeedPhraseKey) HardwareBacked() bool { return false }

// Mnemonic exports the seed phrase for backup.
func (k *SeedPhraseKey) Mnemonic() string { return string(k.mnemonic) }

// DerivationPath is the primary path keys derive from.
func (k *SeedPhraseKey) DerivationPath() hdwallet.DerivationPath { return k.path }

// ID is the base58 fingerprint of the default public key.
func (k *SeedPhraseKey) ID() string {
	return KeyID(k.PublicKey(models.UnknownSignatureAlgorithm))
}

func (k *SeedPhraseKey) seed() ([]byte, error) {
	if len(k.mnemonic) == 0 {
		return nil, ErrEmptySignKey
	}
	return hdwallet.SeedFromMnemonic(string(k.mnemonic), k.passphrase)
}

func (k *SeedPhraseKey) PublicKey(algo models.SignatureAlgorithm) []byte {
	seed, err := k.seed()
	if err != nil {
		return nil
	}
	defer zeroBytes(seed)
	pub, err := hdwallet.PublicKeyFromSeed(seed, k.path, algo)
	if err != nil {
		return nil
	}
	return pub
}

func (k *SeedPhraseKey) PrivateKey(algo models.SignatureAlgorithm) []byte {
	if algo == models.UnknownSignatureAlgorithm {
		algo = models.ECDSAP256
	}
	seed, err := k.seed()
	if err != nil {
		return nil
	}
	defer zeroBytes(seed)
	priv, err := hdwallet.PrivateKeyFromSeed(seed, k.path, algo)
	if err != nil {
		return nil
	}
	return priv
}

func (k *SeedPhraseKey) Sign(data []byte, signAlgo models.SignatureAlgorithm, hashAlgo models.HashAlgorithm) ([]byte, error) {
	seed, err := k.seed()
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)
	priv, err := hdwallet.PrivateKeyFromSeed(seed, k.path, signAlgo)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(priv)
	digest, err := curves.HashData(data, hashAlgo)
	if err != nil {
		return nil, err
	}
	return curves.Sign(priv, digest, signAlgo)
}

func (k *SeedPhraseKey) IsValidSignature(signature, message []byte, signAlgo models.SignatureAlgorithm, hashAlgo models.HashAlgorithm) bool {
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

// EthereumAddress derives the EIP-55 checksummed address for the configured
// Ethereum base path at index.
func (k *SeedPhraseKey) EthereumAddress(index uint32) (string, error) {
	seed, err := k.seed()
	if err != nil {
		return "", err
	}
	defer zeroBytes(seed)
	return hdwallet.EthereumAddress(seed, k.ethPath, index)
}

// EthereumPublicKey derives the raw uncompressed public key at index.
func (k *SeedPhraseKey) EthereumPublicKey(index uint32) ([]byte, error) {
	seed, err := k.seed()
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)
	return hdwallet.EthereumPublicKey(seed, k.ethPath, index)
}

// EthereumPrivateKey derives the raw secp256k1 scalar at index.
func (k *SeedPhraseKey) EthereumPrivateKey(index uint32) ([]byte, error) {
	seed, err := k.seed()
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)
	return hdwallet.EthereumPrivateKey(seed, k.ethPath, index)
}

// EthSign signs a 32-byte digest with the Ethereum key at index, returning
// the 65-byte r||s||v form.
func (k *SeedPhraseKey) EthSign(digest []byte, index uint32) ([]byte, error) {
	priv, err := k.EthereumPrivateKey(index)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(priv)
	return hdwallet.EthSign(priv, digest)
}

// SetVaultOptions overrides the encryption parameters used by Store. Nil
// restores the vault defaults.
func (k *SeedPhraseKey) SetVaultOptions(opts *securevault.Options) { k.vaultOpts = opts }

func (k *SeedPhraseKey) Store(id, password string) error {
	if len(k.mnemonic) == 0 {
		return ErrEmptySignKey
	}
	secret, err := json.Marshal(seedPhraseSecret{
		Mnemonic:   string(k.mnemonic),
		Passphrase: k.passphrase,
	})
	if err != nil {
		return err
	}
	defer zeroBytes(secret)
	advance := seedPhraseAdvance{
		DerivationPath: k.path.String(),
		EthereumPath:   k.ethPath.String(),
	}
	return storeRecord(k.store, id, password, k.Type(), secret, advance, k.vaultOpts)
}

func (k *SeedPhraseKey) Remove(id string) error { return k.store.Remove(id) }

func (k *SeedPhraseKey) AllKeys() ([]string, error) { return k.store.AllKeys() }

// Wipe overwrites the mnemonic. The key is unusable afterward.
func (k *SeedPhraseKey) Wipe() {
	zeroBytes(k.mnemonic)
	k.mnemonic = nil
	k.passphrase = ""
}
