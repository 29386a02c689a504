package ledger

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultRPCURL  = "https://rpc.sepolia.mantle.xyz"
	MantleTestnet  = uint64(5003)
	MantleMainnet  = uint64(5000)
	DefaultChainID = MantleTestnet

	EnvRPCURL          = "MANTLE_RPC_URL"
	EnvChainID         = "MANTLE_CHAIN_ID"
	EnvRegistryAddress = "MERKLE_BATCH_REGISTRY_ADDRESS"

	testnetExplorer = "https://explorer.testnet.mantle.xyz"
	mainnetExplorer = "https://explorer.mantle.xyz"
)

// NetworkConfig identifies the chain and the registry contract batches are
// anchored to.
type NetworkConfig struct {
	RPCURL          string `json:"rpc_url"`
	ChainID         uint64 `json:"chain_id"`
	RegistryAddress string `json:"registry_address"`
}

// NetworkConfigFromEnv reads the configuration from the environment. The rpc
// url and chain id have defaults; an unparsable chain id falls back to the
// default. The registry address is required.
func NetworkConfigFromEnv() (NetworkConfig, error) {
	cfg := NetworkConfig{
		RPCURL:  DefaultRPCURL,
		ChainID: DefaultChainID,
	}
	if v, ok := os.LookupEnv(EnvRPCURL); ok && v != "" {
		cfg.RPCURL = v
	}
	if v, ok := os.LookupEnv(EnvChainID); ok {
		if id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.ChainID = id
		}
	}
	v, ok := os.LookupEnv(EnvRegistryAddress)
	if !ok || v == "" {
		return NetworkConfig{}, ErrMissingRegistryAddress
	}
	cfg.RegistryAddress = v
	return cfg, nil
}

// NewNetworkConfig builds a config explicitly. Empty rpc url and zero chain id
// take the defaults.
func NewNetworkConfig(rpcURL string, chainID uint64, registryAddress string) (NetworkConfig, error) {
	if registryAddress == "" {
		return NetworkConfig{}, ErrMissingRegistryAddress
	}
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	if chainID == 0 {
		chainID = DefaultChainID
	}
	return NetworkConfig{RPCURL: rpcURL, ChainID: chainID, RegistryAddress: registryAddress}, nil
}

func (c NetworkConfig) IsTestnet() bool { return c.ChainID == MantleTestnet }
func (c NetworkConfig) IsMainnet() bool { return c.ChainID == MantleMainnet }

func (c NetworkConfig) ExplorerURL() string {
	if c.IsTestnet() {
		return testnetExplorer
	}
	return mainnetExplorer
}

func (c NetworkConfig) TxURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", c.ExplorerURL(), txHash)
}

func (c NetworkConfig) ContractURL() string {
	return fmt.Sprintf("%s/address/%s", c.ExplorerURL(), c.RegistryAddress)
}
