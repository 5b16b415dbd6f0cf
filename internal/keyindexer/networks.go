package keyindexer

import (
	"errors"
	"fmt"
)

var ErrNetworkNotSupported = errors.New("network not supported")

// ChainID identifies a Flow network with a key indexer deployment.
type ChainID string

const (
	Mainnet ChainID = "mainnet"
	Testnet ChainID = "testnet"
)

// defaultEndpoints maps each supported network to its indexer base URL.
// Endpoint selection is a pure function of the network id; an unknown network
// is an error, never a silent fallback to production.
var defaultEndpoints = map[ChainID]string{
	Mainnet: "https://production.key-indexer.flow.com",
	Testnet: "https://staging.key-indexer.flow.com",
}

// EndpointURL resolves the indexer base URL for a network.
func EndpointURL(network ChainID) (string, error) {
	base, ok := defaultEndpoints[network]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNetworkNotSupported, network)
	}
	return base, nil
}
