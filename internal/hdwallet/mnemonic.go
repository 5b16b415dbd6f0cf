package hdwallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidStrength = errors.New("invalid entropy strength")
)

// strengthWords maps entropy bits to the BIP-39 word count they produce.
var strengthWords = map[int]int{
	128: 12,
	160: 15,
	192: 18,
	224: 21,
	256: 24,
}

// GenerateMnemonic draws fresh entropy of the requested strength in bits and
// encodes it as a BIP-39 phrase.
func GenerateMnemonic(strength int) (string, error) {
	if _, ok := strengthWords[strength]; !ok {
		return "", fmt.Errorf("%w: %d bits", ErrInvalidStrength, strength)
	}
	entropy, err := bip39.NewEntropy(strength)
	if err != nil {
		return "", err
	}
	defer zeroBytes(entropy)
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks word list membership and the BIP-39 checksum.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(mnemonic))
}

// SeedFromMnemonic derives the 64-byte BIP-39 seed. The mnemonic checksum is
// validated first so a mistyped phrase fails instead of deriving a stray seed.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return seed, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
