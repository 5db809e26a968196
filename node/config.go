// Package node wires the registry, the FHE engine, persistence, the
// decryption gateway and the RPC surface into one runnable process.
package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core/types"
)

// Config holds all configuration for a sigstream node.
type Config struct {
	// DataDir is the root directory for all data storage. Empty selects
	// a purely in-memory node.
	DataDir string `json:"dataDir"`

	// Name is a human-readable node identifier (used in logs).
	Name string `json:"name"`

	// RegistryAddress is the hex address the registry binds input proofs
	// to. Client-side encryption must target the same address.
	RegistryAddress string `json:"registryAddress"`

	// RPCPort is the HTTP port for the JSON-RPC server.
	RPCPort int `json:"rpcPort"`

	// MetadataGateway is the base URL for resolving info pointers.
	// Empty disables metadata resolution.
	MetadataGateway string `json:"metadataGateway"`

	// FHEMode selects the engine backend (sim, paillier).
	FHEMode string `json:"fheMode"`

	// PaillierBits is the modulus size for the paillier backend.
	PaillierBits int `json:"paillierBits"`

	// Committee holds the decryption committee's public keys, hex
	// encoded. Empty disables the gateway.
	Committee []string `json:"committee"`

	// Threshold is the number of committee shares needed per release.
	Threshold int `json:"threshold"`

	// GenesisBalances funds accounts at startup, hex address to hex
	// amount. Without it no account can pay a subscription.
	GenesisBalances map[string]string `json:"genesisBalances"`

	// LogLevel controls log verbosity (debug, info, warn, error).
	LogLevel string `json:"logLevel"`

	// LogFormat selects the log encoding (text, json).
	LogFormat string `json:"logFormat"`
}

// DefaultConfig returns a Config with sensible defaults: an in-memory
// development node with the simulated engine and no committee.
func DefaultConfig() Config {
	return Config{
		Name:            "sigstream",
		RegistryAddress: "0x5347000000000000000000000000000000000001",
		RPCPort:         8670,
		FHEMode:         "sim",
		PaillierBits:    2048,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("config: name must not be empty")
	}
	if types.HexToAddress(c.RegistryAddress).IsZero() {
		return fmt.Errorf("config: bad registry address %q", c.RegistryAddress)
	}
	if c.RPCPort < 0 || c.RPCPort > 65535 {
		return fmt.Errorf("config: invalid rpc port: %d", c.RPCPort)
	}
	switch c.FHEMode {
	case "sim":
	case "paillier":
		if c.PaillierBits < 512 {
			return fmt.Errorf("config: paillier modulus too small: %d", c.PaillierBits)
		}
	default:
		return fmt.Errorf("config: unknown fhe mode %q", c.FHEMode)
	}
	if len(c.Committee) > 0 && (c.Threshold < 1 || c.Threshold > len(c.Committee)) {
		return fmt.Errorf("config: threshold %d out of range for committee of %d", c.Threshold, len(c.Committee))
	}
	for addr, amount := range c.GenesisBalances {
		if types.HexToAddress(addr).IsZero() {
			return fmt.Errorf("config: bad genesis address %q", addr)
		}
		if _, err := uint256.FromHex(amount); err != nil {
			return fmt.Errorf("config: bad genesis amount %q for %s: %w", amount, addr, err)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}

// ResolvePath resolves a path relative to the data directory.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) || c.DataDir == "" {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// RPCAddr returns the RPC listen address string.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.RPCPort)
}

// LoadConfig reads a JSON config file over the defaults, so a file only
// needs to name the fields it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
