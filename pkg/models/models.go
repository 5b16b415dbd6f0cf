package models

import "encoding/json"

// FullWeightThreshold is the cumulative key weight required to authorize an
// on-chain transaction with a single key.
const FullWeightThreshold = 1000

// SignatureAlgorithm identifies an elliptic curve signing scheme.
type SignatureAlgorithm int

const (
	UnknownSignatureAlgorithm SignatureAlgorithm = iota
	ECDSAP256
	ECDSASecp256k1
)

func (s SignatureAlgorithm) String() string {
	switch s {
	case ECDSAP256:
		return "ECDSA_P256"
	case ECDSASecp256k1:
		return "ECDSA_secp256k1"
	default:
		return "UNKNOWN"
	}
}

// SignatureAlgorithmFromName maps the wire name used by the key indexer and
// the persisted key records. Unknown names map to UnknownSignatureAlgorithm.
func SignatureAlgorithmFromName(name string) SignatureAlgorithm {
	switch name {
	case "ECDSA_P256":
		return ECDSAP256
	case "ECDSA_secp256k1", "ECDSA_SECP256K1":
		return ECDSASecp256k1
	default:
		return UnknownSignatureAlgorithm
	}
}

// MarshalJSON writes the wire name so serialized keys stay readable.
func (s SignatureAlgorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SignatureAlgorithm) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = SignatureAlgorithmFromName(name)
	return nil
}

// SignatureAlgorithmFromCode maps the numeric code used by the key indexer.
func SignatureAlgorithmFromCode(code int) SignatureAlgorithm {
	switch code {
	case 1:
		return ECDSAP256
	case 2:
		return ECDSASecp256k1
	default:
		return UnknownSignatureAlgorithm
	}
}

// HashAlgorithm identifies the hash applied to a message before signing.
type HashAlgorithm int

const (
	UnknownHashAlgorithm HashAlgorithm = iota
	SHA2256
	SHA2384
	SHA3256
)

func (h HashAlgorithm) String() string {
	switch h {
	case SHA2256:
		return "SHA2_256"
	case SHA2384:
		return "SHA2_384"
	case SHA3256:
		return "SHA3_256"
	default:
		return "UNKNOWN"
	}
}

func HashAlgorithmFromName(name string) HashAlgorithm {
	switch name {
	case "SHA2_256":
		return SHA2256
	case "SHA2_384":
		return SHA2384
	case "SHA3_256":
		return SHA3256
	default:
		return UnknownHashAlgorithm
	}
}

func (h HashAlgorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HashAlgorithm) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*h = HashAlgorithmFromName(name)
	return nil
}

func HashAlgorithmFromCode(code int) HashAlgorithm {
	switch code {
	case 1:
		return SHA2256
	case 2:
		return SHA2384
	case 3:
		return SHA3256
	default:
		return UnknownHashAlgorithm
	}
}

// KeyType tags the closed set of key material variants.
type KeyType string

const (
	KeyTypePrivateKey    KeyType = "privateKey"
	KeyTypeSeedPhrase    KeyType = "seedPhrase"
	KeyTypeSecureElement KeyType = "secureElement"
)

// AccountKey is one key slot reported by the key indexer for one address.
type AccountKey struct {
	Address  string             `json:"address"`
	KeyIndex int                `json:"keyId"`
	Weight   int                `json:"weight"`
	SigAlgo  SignatureAlgorithm `json:"signing"`
	HashAlgo HashAlgorithm      `json:"hashing"`
	Revoked  bool               `json:"isRevoked"`
}

// IsFullAuthority reports whether this key slot alone can authorize a
// transaction: not revoked and carrying full weight.
func (k AccountKey) IsFullAuthority() bool {
	return !k.Revoked && k.Weight >= FullWeightThreshold
}

// Account is one on-chain account together with every key slot that matched
// the queried public key.
type Account struct {
	Address string       `json:"address"`
	Keys    []AccountKey `json:"keys"`
}

// HasFullAuthorityKey reports whether any key slot alone satisfies the weight
// threshold.
func (a Account) HasFullAuthorityKey() bool {
	for _, k := range a.Keys {
		if k.IsFullAuthority() {
			return true
		}
	}
	return false
}
