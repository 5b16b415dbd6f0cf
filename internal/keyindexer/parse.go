package keyindexer

import (
	"bytes"
	"encoding/json"

	"flow-wallet/go-core/pkg/models"
)

// Tolerant-parse defaults applied when a field is missing or malformed. An
// indexer entry exists because the queried key matched, so the conservative
// reading is an active, full-weight P-256/SHA2-256 slot; revocation is never
// assumed.
const (
	defaultWeight   = 1000
	defaultSigAlgo  = models.ECDSAP256
	defaultHashAlgo = models.SHA2256
)

// Response is the decoded key indexer payload.
type Response struct {
	PublicKey string
	Accounts  []models.AccountKey
}

type wireEntry struct {
	Address   string `json:"address"`
	KeyID     int    `json:"keyId"`
	Weight    int    `json:"weight"`
	SigAlgo   int    `json:"sigAlgo"`
	HashAlgo  int    `json:"hashAlgo"`
	Signing   string `json:"signing"`
	Hashing   string `json:"hashing"`
	IsRevoked bool   `json:"isRevoked"`
}

type wireResponse struct {
	PublicKey string      `json:"publicKey"`
	Accounts  []wireEntry `json:"accounts"`
}

// parseResponse decodes an indexer body: a strict schema parse first, then a
// tolerant field-by-field parse that defaults what it cannot read. If both
// stages fail the result is an empty account list, not an error, so "nothing
// discoverable" stays a uniform outcome for callers.
func parseResponse(body []byte) Response {
	if resp, err := parseStrict(body); err == nil {
		return resp
	}
	if resp, err := parseTolerant(body); err == nil {
		return resp
	}
	return Response{}
}

func parseStrict(body []byte) (Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var wire wireResponse
	if err := dec.Decode(&wire); err != nil {
		return Response{}, err
	}
	out := Response{PublicKey: wire.PublicKey}
	for _, e := range wire.Accounts {
		out.Accounts = append(out.Accounts, entryFromWire(e))
	}
	return out, nil
}

func entryFromWire(e wireEntry) models.AccountKey {
	sigAlgo := models.SignatureAlgorithmFromName(e.Signing)
	if sigAlgo == models.UnknownSignatureAlgorithm {
		sigAlgo = models.SignatureAlgorithmFromCode(e.SigAlgo)
	}
	if sigAlgo == models.UnknownSignatureAlgorithm {
		sigAlgo = defaultSigAlgo
	}
	hashAlgo := models.HashAlgorithmFromName(e.Hashing)
	if hashAlgo == models.UnknownHashAlgorithm {
		hashAlgo = models.HashAlgorithmFromCode(e.HashAlgo)
	}
	if hashAlgo == models.UnknownHashAlgorithm {
		hashAlgo = defaultHashAlgo
	}
	return models.AccountKey{
		Address:  e.Address,
		KeyIndex: e.KeyID,
		Weight:   e.Weight,
		SigAlgo:  sigAlgo,
		HashAlgo: hashAlgo,
		Revoked:  e.IsRevoked,
	}
}

// parseTolerant reads the payload as loose JSON and recovers every field it
// can, substituting defaults for the rest.
func parseTolerant(body []byte) (Response, error) {
	var loose struct {
		PublicKey any   `json:"publicKey"`
		Accounts  []any `json:"accounts"`
	}
	if err := json.Unmarshal(body, &loose); err != nil {
		return Response{}, err
	}
	out := Response{PublicKey: looseString(loose.PublicKey, "")}
	for _, raw := range loose.Accounts {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		entry := models.AccountKey{
			Address:  looseString(fields["address"], ""),
			KeyIndex: looseInt(fields["keyId"], 0),
			Weight:   looseInt(fields["weight"], defaultWeight),
			Revoked:  looseBool(fields["isRevoked"], false),
		}
		entry.SigAlgo = models.SignatureAlgorithmFromName(looseString(fields["signing"], ""))
		if entry.SigAlgo == models.UnknownSignatureAlgorithm {
			entry.SigAlgo = models.SignatureAlgorithmFromCode(looseInt(fields["sigAlgo"], 0))
		}
		if entry.SigAlgo == models.UnknownSignatureAlgorithm {
			entry.SigAlgo = defaultSigAlgo
		}
		entry.HashAlgo = models.HashAlgorithmFromName(looseString(fields["hashing"], ""))
		if entry.HashAlgo == models.UnknownHashAlgorithm {
			entry.HashAlgo = models.HashAlgorithmFromCode(looseInt(fields["hashAlgo"], 0))
		}
		if entry.HashAlgo == models.UnknownHashAlgorithm {
			entry.HashAlgo = defaultHashAlgo
		}
		out.Accounts = append(out.Accounts, entry)
	}
	return out, nil
}

func looseString(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func looseInt(v any, fallback int) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return fallback
}

func looseBool(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}
