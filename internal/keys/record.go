package keys

import (
	"encoding/json"
	"fmt"
	"time"

	"flow-wallet/go-core/internal/hdwallet"
	"flow-wallet/go-core/internal/securevault"
	"flow-wallet/go-core/internal/storage"
	"flow-wallet/go-core/pkg/models"
)

// recordMetadata travels in cleartext next to the encrypted vault; it must
// never carry secret material.
type recordMetadata struct {
	KeyType   models.KeyType  `json:"keyType"`
	Timestamp time.Time       `json:"timestamp"`
	Advance   json.RawMessage `json:"advance,omitempty"`
}

type vaultRecord struct {
	Metadata       recordMetadata     `json:"metadata"`
	EncryptedVault *securevault.Vault `json:"encryptedVault"`
}

type privateKeyAdvance struct {
	SignAlgo string `json:"signAlgo"`
}

type seedPhraseAdvance struct {
	DerivationPath string `json:"derivationPath"`
	EthereumPath   string `json:"ethereumPath,omitempty"`
}

type seedPhraseSecret struct {
	Mnemonic   string `json:"mnemonic"`
	Passphrase string `json:"passphrase,omitempty"`
}

func storeRecord(st storage.Storage, id, password string, keyType models.KeyType, secret []byte, advance any, opts *securevault.Options) error {
	vault, err := securevault.Encrypt(password, secret, opts)
	if err != nil {
		return err
	}
	meta := recordMetadata{KeyType: keyType, Timestamp: time.Now().UTC()}
	if advance != nil {
		raw, err := json.Marshal(advance)
		if err != nil {
			return err
		}
		meta.Advance = raw
	}
	raw, err := json.Marshal(vaultRecord{Metadata: meta, EncryptedVault: vault})
	if err != nil {
		return err
	}
	return st.Set(id, raw)
}

func loadRecord(st storage.Storage, id string) (*vaultRecord, error) {
	raw, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	var rec vaultRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("malformed key record %q: %w", id, err)
	}
	if rec.EncryptedVault == nil {
		return nil, fmt.Errorf("key record %q has no vault", id)
	}
	return &rec, nil
}

// LoadKey decrypts the record stored under id and reconstructs its variant.
// The dispatch over KeyType is exhaustive; an unrecognized tag is an error,
// never a silently substituted default. element may be nil unless the record
// is hardware-backed.
func LoadKey(st storage.Storage, element SecureElement, id, password string) (Key, error) {
	rec, err := loadRecord(st, id)
	if err != nil {
		return nil, err
	}
	secret, err := securevault.Decrypt(password, rec.EncryptedVault)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(secret)

	switch rec.Metadata.KeyType {
	case models.KeyTypePrivateKey:
		var adv privateKeyAdvance
		if len(rec.Metadata.Advance) > 0 {
			if err := json.Unmarshal(rec.Metadata.Advance, &adv); err != nil {
				return nil, fmt.Errorf("malformed key record %q: %w", id, err)
			}
		}
		algo := models.SignatureAlgorithmFromName(adv.SignAlgo)
		if algo == models.UnknownSignatureAlgorithm {
			algo = models.ECDSAP256
		}
		return RestorePrivateKey(secret, algo, st)

	case models.KeyTypeSeedPhrase:
		var sec seedPhraseSecret
		if err := json.Unmarshal(secret, &sec); err != nil {
			return nil, fmt.Errorf("%w: seed phrase payload", ErrInvalidSecret)
		}
		opts := SeedPhraseOptions{Passphrase: sec.Passphrase}
		if len(rec.Metadata.Advance) > 0 {
			var adv seedPhraseAdvance
			if err := json.Unmarshal(rec.Metadata.Advance, &adv); err != nil {
				return nil, fmt.Errorf("malformed key record %q: %w", id, err)
			}
			if adv.DerivationPath != "" {
				path, err := hdwallet.ParseDerivationPath(adv.DerivationPath)
				if err != nil {
					return nil, err
				}
				opts.Path = &path
			}
			if adv.EthereumPath != "" {
				path, err := hdwallet.ParseDerivationPath(adv.EthereumPath)
				if err != nil {
					return nil, err
				}
				opts.EthereumPath = &path
			}
		}
		return RestoreSeedPhraseKey(sec.Mnemonic, opts, st)

	case models.KeyTypeSecureElement:
		if element == nil {
			return nil, fmt.Errorf("secure element required to load key %q", id)
		}
		return RestoreSecureElementKey(element, string(secret), st)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyType, rec.Metadata.KeyType)
	}
}
