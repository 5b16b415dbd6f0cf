package hdwallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// hardenedOffset marks a hardened path element per BIP-32.
const hardenedOffset = uint32(0x80000000)

const (
	// FlowCoinType is the SLIP-44 registered coin type for Flow.
	FlowCoinType = 539
	// EthereumCoinType is the SLIP-44 registered coin type for Ethereum.
	EthereumCoinType = 60
)

var ErrInvalidDerivationPath = errors.New("invalid derivation path")

// DerivationPath is a BIP-44 path m/purpose'/coinType'/account'/change/index.
// The first three elements are hardened per the standard.
type DerivationPath struct {
	Purpose  uint32
	CoinType uint32
	Account  uint32
	Change   uint32
	Index    uint32
}

// DefaultFlowPath is the primary derivation path m/44'/539'/0'/0/0.
func DefaultFlowPath() DerivationPath {
	return DerivationPath{Purpose: 44, CoinType: FlowCoinType}
}

// DefaultEthereumPath is the Ethereum-compatible base path m/44'/60'/0'/0/0.
func DefaultEthereumPath() DerivationPath {
	return DerivationPath{Purpose: 44, CoinType: EthereumCoinType}
}

// WithIndex returns a copy of the path with the address index replaced.
func (p DerivationPath) WithIndex(index uint32) DerivationPath {
	p.Index = index
	return p
}

// Elements returns the five path elements with the hardened bit applied.
func (p DerivationPath) Elements() []uint32 {
	return []uint32{
		p.Purpose | hardenedOffset,
		p.CoinType | hardenedOffset,
		p.Account | hardenedOffset,
		p.Change,
		p.Index,
	}
}

func (p DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", p.Purpose, p.CoinType, p.Account, p.Change, p.Index)
}

// ParseDerivationPath parses the textual m/a'/b'/c'/d/e form. Hardening must
// follow the BIP-44 convention: the first three elements hardened, the last
// two not.
func ParseDerivationPath(s string) (DerivationPath, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 6 || parts[0] != "m" {
		return DerivationPath{}, fmt.Errorf("%w: %q", ErrInvalidDerivationPath, s)
	}
	values := make([]uint32, 5)
	for i, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		if (i < 3) != hardened {
			return DerivationPath{}, fmt.Errorf("%w: element %d hardening", ErrInvalidDerivationPath, i)
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil || uint32(n) >= hardenedOffset {
			return DerivationPath{}, fmt.Errorf("%w: element %q", ErrInvalidDerivationPath, part)
		}
		values[i] = uint32(n)
	}
	return DerivationPath{
		Purpose:  values[0],
		CoinType: values[1],
		Account:  values[2],
		Change:   values[3],
		Index:    values[4],
	}, nil
}
