package securevault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// VaultVersion is stamped on every vault this implementation produces.
	// Decryption refuses any other version rather than guessing.
	VaultVersion = 1

	DefaultSaltLength = 32
	DefaultIterations = 100_000

	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

var (
	ErrAuthenticationFailed   = errors.New("vault authentication failed")
	ErrUnsupportedVersion     = errors.New("unsupported vault version")
	ErrInvalidVault           = errors.New("vault record is invalid")
	ErrUnsupportedVaultCipher = errors.New("unsupported vault cipher")
)

// Algorithm selects the AEAD cipher sealing the vault payload. Either
// algorithm can decrypt a vault produced by the other implementation as long
// as the stored tag matches.
type Algorithm string

const (
	AESGCM           Algorithm = "AES-GCM"
	ChaCha20Poly1305 Algorithm = "CHACHA20-POLY1305"
)

// Vault is the versioned, password-authenticated container persisting secret
// key material at rest. Data carries nonce || ciphertext || tag as one opaque
// blob; it is only meaningful together with Algorithm, Salt and Iterations.
type Vault struct {
	Version    int       `json:"version"`
	Algorithm  Algorithm `json:"algorithm"`
	Salt       []byte    `json:"salt"`
	Iterations int       `json:"iterations"`
	Data       []byte    `json:"data"`
}

// Options tunes Encrypt. Zero values fall back to the defaults.
type Options struct {
	Algorithm  Algorithm
	Iterations int
	SaltLength int
}

func (o *Options) withDefaults() Options {
	out := Options{
		Algorithm:  ChaCha20Poly1305,
		Iterations: DefaultIterations,
		SaltLength: DefaultSaltLength,
	}
	if o == nil {
		return out
	}
	if o.Algorithm != "" {
		out.Algorithm = o.Algorithm
	}
	if o.Iterations > 0 {
		out.Iterations = o.Iterations
	}
	if o.SaltLength > 0 {
		out.SaltLength = o.SaltLength
	}
	return out
}

// Encrypt derives a symmetric key from password via PBKDF2-SHA256 and seals
// plaintext under a fresh random salt and nonce. Repeated calls with the same
// inputs never produce the same Data.
func Encrypt(password string, plaintext []byte, opts *Options) (*Vault, error) {
	cfg := opts.withDefaults()

	salt := make([]byte, cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := pbkdf2.Key([]byte(password), salt, cfg.Iterations, keySize, sha256.New)
	defer zeroBytes(key)

	aead, err := newAEAD(cfg.Algorithm, key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	data := make([]byte, 0, len(nonce)+len(sealed))
	data = append(data, nonce...)
	data = append(data, sealed...)

	return &Vault{
		Version:    VaultVersion,
		Algorithm:  cfg.Algorithm,
		Salt:       salt,
		Iterations: cfg.Iterations,
		Data:       data,
	}, nil
}

// Decrypt recovers the plaintext sealed in v. A wrong password and a tampered
// payload are indistinguishable: both surface as ErrAuthenticationFailed.
func Decrypt(password string, v *Vault) ([]byte, error) {
	if v == nil {
		return nil, ErrInvalidVault
	}
	if v.Version != VaultVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v.Version)
	}
	if len(v.Salt) == 0 || v.Iterations <= 0 || len(v.Data) < nonceSize+tagSize {
		return nil, ErrInvalidVault
	}

	key := pbkdf2.Key([]byte(password), v.Salt, v.Iterations, keySize, sha256.New)
	defer zeroBytes(key)

	aead, err := newAEAD(v.Algorithm, key)
	if err != nil {
		return nil, err
	}
	nonce := v.Data[:nonceSize]
	sealed := v.Data[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// ReEncrypt decrypts with oldPassword and seals the recovered plaintext under
// newPassword, optionally with new cipher parameters. It always returns a new
// vault; the input vault is never mutated.
func ReEncrypt(oldPassword, newPassword string, v *Vault, opts *Options) (*Vault, error) {
	plaintext, err := Decrypt(oldPassword, v)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(plaintext)
	return Encrypt(newPassword, plaintext, opts)
}

// VerifyPassword reports whether password opens v. Authentication failure maps
// to false; structural problems such as an unsupported version still surface
// as errors.
func VerifyPassword(password string, v *Vault) (bool, error) {
	plaintext, err := Decrypt(password, v)
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			return false, nil
		}
		return false, err
	}
	zeroBytes(plaintext)
	return true, nil
}

func newAEAD(algo Algorithm, key []byte) (cipher.AEAD, error) {
	switch algo {
	case AESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case ChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVaultCipher, algo)
	}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
