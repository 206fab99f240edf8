// Package config loads a node's configuration from a YAML file with an
// environment-variable overlay, following the same layered approach
// blinklabs-io-shai's internal/config package uses for its Cardano node:
// defaults built by defaults(), a YAML file merged over them, then
// envconfig-driven environment variables merged over that.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is a node's full configuration surface, matching the config
// surface table enumerated for operators.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Network NetworkConfig `yaml:"network"`
	Minting MintingConfig `yaml:"minting"`
	Wallet  WalletConfig  `yaml:"wallet"`
}

// LoggingConfig controls pkg/logctx's root logger.
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOGGING_LEVEL"`
	JSON  bool   `yaml:"json"  envconfig:"LOGGING_JSON"`
}

// StorageConfig points at the BadgerDB directory backing the ledger.
type StorageConfig struct {
	Directory string `yaml:"dir" envconfig:"STORAGE_DIR"`
}

// NetworkConfig covers gossip/RPC listen ports, peer bootstrapping, and the
// node's quorum set.
type NetworkConfig struct {
	GossipPort     uint     `yaml:"gossip_port"     envconfig:"NETWORK_GOSSIP_PORT"`
	RPCPort        uint     `yaml:"rpc_port"        envconfig:"NETWORK_RPC_PORT"`
	BootstrapPeers []string `yaml:"bootstrap_peers" envconfig:"NETWORK_BOOTSTRAP_PEERS"`
	CORSOrigins    []string `yaml:"cors_origins"    envconfig:"NETWORK_CORS_ORIGINS"`
	Quorum         QuorumConfig `yaml:"quorum"`
}

// QuorumMode selects how a node's quorum set is constructed.
type QuorumMode string

const (
	// QuorumModeRecommended names the recommended quorum mode. No validator
	// list ships with the node; cmd/botho-node builds the quorum set from
	// Threshold and Members in this mode just as it does in explicit mode.
	QuorumModeRecommended QuorumMode = "recommended"
	// QuorumModeExplicit uses exactly the threshold/members the operator
	// configured, with no built-in defaults.
	QuorumModeExplicit QuorumMode = "explicit"
)

// QuorumConfig describes a node's federated quorum slice.
type QuorumConfig struct {
	Mode      QuorumMode `yaml:"mode"       envconfig:"NETWORK_QUORUM_MODE"`
	Threshold int        `yaml:"threshold"  envconfig:"NETWORK_QUORUM_THRESHOLD"`
	Members   []string   `yaml:"members"    envconfig:"NETWORK_QUORUM_MEMBERS"`
	MinPeers  int        `yaml:"min_peers"  envconfig:"NETWORK_QUORUM_MIN_PEERS"`
}

// MintingConfig controls whether and how hard this node mines/mints blocks.
type MintingConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"MINTING_ENABLED"`
	Threads int  `yaml:"threads" envconfig:"MINTING_THREADS"`
}

// WalletConfig carries the mnemonic a minting node spends block rewards
// with. Never logged; see pkg/secretbox for the in-memory handling once
// loaded.
type WalletConfig struct {
	Mnemonic string `yaml:"mnemonic" envconfig:"WALLET_MNEMONIC"`
}

// defaults mirrors blinklabs-io-shai's globalConfig literal: every field a
// fresh node needs to do something reasonable without a config file at all.
func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", JSON: true},
		Storage: StorageConfig{Directory: "./.botho"},
		Network: NetworkConfig{
			GossipPort: 7770,
			RPCPort:    7771,
			Quorum: QuorumConfig{
				Mode:      QuorumModeRecommended,
				MinPeers:  4,
				Threshold: 1,
			},
		},
		Minting: MintingConfig{
			Enabled: false,
			Threads: runtime.NumCPU(),
		},
	}
}

// Load reads configFile (if non-empty) as YAML over the built-in defaults,
// then overlays environment variables, and validates the result.
func Load(configFile string) (*Config, error) {
	cfg := defaults()

	if configFile != "" {
		if err := checkOwnerOnlyPermissions(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process("botho", cfg); err != nil {
		return nil, fmt.Errorf("config: processing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.Network.Quorum.Mode {
	case QuorumModeRecommended, QuorumModeExplicit:
	default:
		return fmt.Errorf("config: unknown quorum mode %q", cfg.Network.Quorum.Mode)
	}
	if cfg.Network.Quorum.Mode == QuorumModeExplicit && len(cfg.Network.Quorum.Members) == 0 {
		return fmt.Errorf("config: network.quorum.mode=explicit requires network.quorum.members")
	}
	if cfg.Minting.Enabled && cfg.Wallet.Mnemonic == "" {
		return fmt.Errorf("config: minting.enabled requires wallet.mnemonic")
	}
	return nil
}

// checkOwnerOnlyPermissions warns (never fails) when the config file's
// permission bits grant access beyond its owner, since it may contain
// wallet.mnemonic.
func checkOwnerOnlyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.Mode().Perm()&0o077 != 0 {
		return fmt.Errorf("config file %s is readable by group/other (mode %s); it may contain wallet.mnemonic", path, info.Mode().Perm())
	}
	return nil
}
