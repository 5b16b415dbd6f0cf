package keys

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"flow-wallet/go-core/internal/curves"
	"flow-wallet/go-core/internal/securevault"
	"flow-wallet/go-core/internal/storage"
	"flow-wallet/go-core/pkg/models"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// fakeSecureElement simulates a hardware keystore: P-256 keys that never
// leave the element.
type fakeSecureElement struct {
	keys map[string][]byte
}

func newFakeSecureElement() *fakeSecureElement {
	return &fakeSecureElement{keys: make(map[string][]byte)}
}

func (f *fakeSecureElement) Generate() (string, []byte, error) {
	priv, err := curves.GeneratePrivateKey(models.ECDSAP256)
	if err != nil {
		return "", nil, err
	}
	keyID := fmt.Sprintf("se-%d", len(f.keys)+1)
	f.keys[keyID] = priv
	pub, err := curves.PublicKey(priv, models.ECDSAP256)
	if err != nil {
		return "", nil, err
	}
	return keyID, pub, nil
}

func (f *fakeSecureElement) PublicKey(keyID string) ([]byte, error) {
	priv, ok := f.keys[keyID]
	if !ok {
		return nil, errors.New("no such hardware key")
	}
	return curves.PublicKey(priv, models.ECDSAP256)
}

func (f *fakeSecureElement) Sign(keyID string, digest []byte) ([]byte, error) {
	priv, ok := f.keys[keyID]
	if !ok {
		return nil, errors.New("no such hardware key")
	}
	return curves.Sign(priv, digest, models.ECDSAP256)
}

func (f *fakeSecureElement) Remove(keyID string) error {
	delete(f.keys, keyID)
	return nil
}

func TestRawPrivateKeySignVerify(t *testing.T) {
	st := storage.NewInMemory()
	for _, algo := range []models.SignatureAlgorithm{models.ECDSAP256, models.ECDSASecp256k1} {
		key, err := GeneratePrivateKey(algo, st)
		if err != nil {
			t.Fatalf("%s: generate failed: %v", algo, err)
		}
		msg := []byte("authorize transfer")
		sig, err := key.Sign(msg, algo, models.SHA3256)
		if err != nil {
			t.Fatalf("%s: sign failed: %v", algo, err)
		}
		if !key.IsValidSignature(sig, msg, algo, models.SHA3256) {
			t.Fatalf("%s: signature did not verify", algo)
		}
		if key.IsValidSignature(sig, []byte("different"), algo, models.SHA3256) {
			t.Fatalf("%s: signature verified against wrong message", algo)
		}
	}
}

func TestRawPrivateKeyAbsentAccessors(t *testing.T) {
	st := storage.NewInMemory()
	key, err := GeneratePrivateKey(models.ECDSAP256, st)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if key.PublicKey(models.ECDSASecp256k1) != nil {
		t.Fatalf("expected absent public key for unbound curve")
	}
	if key.PrivateKey(models.ECDSASecp256k1) != nil {
		t.Fatalf("expected absent private key for unbound curve")
	}
	if key.PublicKey(models.ECDSAP256) == nil || key.PrivateKey(models.ECDSAP256) == nil {
		t.Fatalf("expected material for bound curve")
	}
	if _, err := key.Sign([]byte("x"), models.ECDSASecp256k1, models.SHA2256); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestRestorePrivateKeyRejectsBadSecret(t *testing.T) {
	st := storage.NewInMemory()
	if _, err := RestorePrivateKey(make([]byte, 32), models.ECDSAP256, st); !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret for zero scalar, got %v", err)
	}
	if _, err := RestorePrivateKey([]byte{1, 2, 3}, models.ECDSASecp256k1, st); !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret for short scalar, got %v", err)
	}
}

func TestRawPrivateKeyRestoreDeterminism(t *testing.T) {
	st := storage.NewInMemory()
	key, err := GeneratePrivateKey(models.ECDSASecp256k1, st)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	secret := key.PrivateKey(models.ECDSASecp256k1)
	restored, err := RestorePrivateKey(secret, models.ECDSASecp256k1, st)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !bytes.Equal(restored.PublicKey(models.ECDSASecp256k1), key.PublicKey(models.ECDSASecp256k1)) {
		t.Fatalf("restored key disagrees with original")
	}
}

func TestWipedKeyFailsClosed(t *testing.T) {
	st := storage.NewInMemory()
	key, err := GeneratePrivateKey(models.ECDSAP256, st)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	key.Wipe()
	if key.PrivateKey(models.ECDSAP256) != nil {
		t.Fatalf("expected no private key after wipe")
	}
	if _, err := key.Sign([]byte("x"), models.ECDSAP256, models.SHA2256); !errors.Is(err, ErrEmptySignKey) {
		t.Fatalf("expected ErrEmptySignKey, got %v", err)
	}
}

func TestSeedPhraseKeyGenerateDefaults(t *testing.T) {
	st := storage.NewInMemory()
	key, err := GenerateSeedPhraseKey(SeedPhraseOptions{}, st)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if key.DerivationPath().String() != "m/44'/539'/0'/0/0" {
		t.Fatalf("unexpected default path %s", key.DerivationPath())
	}
	if key.HardwareBacked() {
		t.Fatalf("seed phrase keys are software keys")
	}
}

func TestSeedPhraseKeyRestoreRejectsBadMnemonic(t *testing.T) {
	st := storage.NewInMemory()
	_, err := RestoreSeedPhraseKey("abandon abandon abandon", SeedPhraseOptions{}, st)
	if !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret, got %v", err)
	}
}

func TestSeedPhraseKeyDeterminism(t *testing.T) {
	st := storage.NewInMemory()
	a, err := RestoreSeedPhraseKey(testMnemonic, SeedPhraseOptions{}, st)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	b, err := RestoreSeedPhraseKey(testMnemonic, SeedPhraseOptions{}, st)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	for _, algo := range []models.SignatureAlgorithm{models.ECDSAP256, models.ECDSASecp256k1} {
		if !bytes.Equal(a.PrivateKey(algo), b.PrivateKey(algo)) {
			t.Fatalf("%s: derivation is not deterministic", algo)
		}
	}
}

func TestSeedPhraseKeySignBothCurves(t *testing.T) {
	st := storage.NewInMemory()
	key, err := RestoreSeedPhraseKey(testMnemonic, SeedPhraseOptions{}, st)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	msg := []byte("flow transaction envelope")
	for _, algo := range []models.SignatureAlgorithm{models.ECDSAP256, models.ECDSASecp256k1} {
		for _, hash := range []models.HashAlgorithm{models.SHA2256, models.SHA3256} {
			sig, err := key.Sign(msg, algo, hash)
			if err != nil {
				t.Fatalf("%s/%s: sign failed: %v", algo, hash, err)
			}
			if !key.IsValidSignature(sig, msg, algo, hash) {
				t.Fatalf("%s/%s: signature did not verify", algo, hash)
			}
		}
	}
}

func TestSeedPhraseKeyEthereum(t *testing.T) {
	st := storage.NewInMemory()
	key, err := RestoreSeedPhraseKey(testMnemonic, SeedPhraseOptions{}, st)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	addr, err := key.EthereumAddress(0)
	if err != nil {
		t.Fatalf("address failed: %v", err)
	}
	if addr != "0x9858EfFD232B4033E47d90003D41EC34EcaEda94" {
		t.Fatalf("unexpected address %s", addr)
	}
	digest := curves.Keccak256([]byte("payload"))
	sig, err := key.EthSign(digest, 0)
	if err != nil {
		t.Fatalf("eth sign failed: %v", err)
	}
	if len(sig) != 65 || (sig[64] != 27 && sig[64] != 28) {
		t.Fatalf("unexpected signature shape: len=%d v=%d", len(sig), sig[64])
	}
}

func TestStoreAndLoadRoundtrip(t *testing.T) {
	st := storage.NewInMemory()
	original, err := RestoreSeedPhraseKey(testMnemonic, SeedPhraseOptions{Passphrase: "extra"}, st)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if err := original.Store("wallet-main", "vault-pass"); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	loaded, err := LoadKey(st, nil, "wallet-main", "vault-pass")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	seedKey, ok := loaded.(*SeedPhraseKey)
	if !ok {
		t.Fatalf("expected seed phrase variant, got %T", loaded)
	}
	if seedKey.Mnemonic() != testMnemonic {
		t.Fatalf("mnemonic lost in roundtrip")
	}
	if !bytes.Equal(loaded.PublicKey(models.ECDSAP256), original.PublicKey(models.ECDSAP256)) {
		t.Fatalf("loaded key disagrees with original")
	}
}

func TestLoadKeyWrongPassword(t *testing.T) {
	st := storage.NewInMemory()
	key, err := GeneratePrivateKey(models.ECDSAP256, st)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := key.Store("id", "right"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if _, err := LoadKey(st, nil, "id", "wrong"); !errors.Is(err, securevault.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestStoreRecordShape(t *testing.T) {
	st := storage.NewInMemory()
	key, err := GeneratePrivateKey(models.ECDSASecp256k1, st)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := key.Store(key.ID(), "pass"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	raw, err := st.Get(key.ID())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	var rec struct {
		Metadata struct {
			KeyType   string          `json:"keyType"`
			Timestamp time.Time       `json:"timestamp"`
			Advance   json.RawMessage `json:"advance"`
		} `json:"metadata"`
		EncryptedVault struct {
			Version   int    `json:"version"`
			Algorithm string `json:"algorithm"`
		} `json:"encryptedVault"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if rec.Metadata.KeyType != string(models.KeyTypePrivateKey) {
		t.Fatalf("unexpected keyType %q", rec.Metadata.KeyType)
	}
	if rec.Metadata.Timestamp.IsZero() {
		t.Fatalf("timestamp missing")
	}
	if rec.EncryptedVault.Version != securevault.VaultVersion {
		t.Fatalf("unexpected vault version %d", rec.EncryptedVault.Version)
	}
}

func TestStoreUsesConfiguredVaultOptions(t *testing.T) {
	st := storage.NewInMemory()
	key, err := RestoreSeedPhraseKey(testMnemonic, SeedPhraseOptions{}, st)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	key.SetVaultOptions(&securevault.Options{
		Algorithm:  securevault.AESGCM,
		Iterations: 2048,
	})
	if err := key.Store("tuned", "pass"); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	rec, err := loadRecord(st, "tuned")
	if err != nil {
		t.Fatalf("load record failed: %v", err)
	}
	if rec.EncryptedVault.Algorithm != securevault.AESGCM {
		t.Fatalf("stored algorithm = %q, want %q", rec.EncryptedVault.Algorithm, securevault.AESGCM)
	}
	if rec.EncryptedVault.Iterations != 2048 {
		t.Fatalf("stored iterations = %d, want 2048", rec.EncryptedVault.Iterations)
	}

	loaded, err := LoadKey(st, nil, "tuned", "pass")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.(*SeedPhraseKey).Mnemonic() != testMnemonic {
		t.Fatalf("mnemonic lost under tuned vault options")
	}
}

func TestRemoveAndAllKeys(t *testing.T) {
	st := storage.NewInMemory()
	key, err := GeneratePrivateKey(models.ECDSAP256, st)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := key.Store("a", "p"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := key.Store("b", "p"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	ids, err := key.AllKeys()
	if err != nil || len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v / %v", ids, err)
	}
	if err := key.Remove("a"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	ids, err = key.AllKeys()
	if err != nil || len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("expected [b], got %v / %v", ids, err)
	}
}

func TestSecureElementKey(t *testing.T) {
	st := storage.NewInMemory()
	element := newFakeSecureElement()
	key, err := CreateSecureElementKey(element, st)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !key.HardwareBacked() {
		t.Fatalf("expected hardware-backed key")
	}
	if key.PrivateKey(models.ECDSAP256) != nil {
		t.Fatalf("secure element key must never expose a private key")
	}
	msg := []byte("hardware signed payload")
	sig, err := key.Sign(msg, models.ECDSAP256, models.SHA2256)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if !key.IsValidSignature(sig, msg, models.ECDSAP256, models.SHA2256) {
		t.Fatalf("signature did not verify")
	}
	if _, err := key.Sign(msg, models.ECDSASecp256k1, models.SHA2256); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestSecureElementKeyStoreLoad(t *testing.T) {
	st := storage.NewInMemory()
	element := newFakeSecureElement()
	key, err := CreateSecureElementKey(element, st)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := key.Store("hw", "pass"); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	if _, err := LoadKey(st, nil, "hw", "pass"); err == nil {
		t.Fatalf("expected error when loading hardware key without element")
	}

	loaded, err := LoadKey(st, element, "hw", "pass")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !bytes.Equal(loaded.PublicKey(models.ECDSAP256), key.PublicKey(models.ECDSAP256)) {
		t.Fatalf("loaded hardware key disagrees with original")
	}
}

func TestLoadKeyUnknownType(t *testing.T) {
	st := storage.NewInMemory()
	vault, err := securevault.Encrypt("pass", []byte("whatever"), nil)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	rec := vaultRecord{
		Metadata:       recordMetadata{KeyType: "proxyKey", Timestamp: time.Now().UTC()},
		EncryptedVault: vault,
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := st.Set("odd", raw); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := LoadKey(st, nil, "odd", "pass"); !errors.Is(err, ErrUnknownKeyType) {
		t.Fatalf("expected ErrUnknownKeyType, got %v", err)
	}
}

func TestKeyIDFingerprint(t *testing.T) {
	st := storage.NewInMemory()
	key, err := GeneratePrivateKey(models.ECDSAP256, st)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	id := key.ID()
	if len(id) < 10 || id[:4] != "key1" {
		t.Fatalf("unexpected fingerprint %q", id)
	}
	if id != KeyID(key.PublicKey(models.ECDSAP256)) {
		t.Fatalf("fingerprint is not stable")
	}
}
