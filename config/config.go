// Package config holds the settings of the stateless verifier tools: the
// chain, where sync committee state is stored, logging, metrics and the
// crypto backends. Configuration files are TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/crypto/bls"
	"github.com/eth2030/stateless/crypto/bn254"
	"github.com/eth2030/stateless/crypto/kzg"
	"github.com/eth2030/stateless/log"
	"github.com/eth2030/stateless/precompiles"
	"github.com/eth2030/stateless/storage"
)

// Config is the verifier configuration.
type Config struct {
	// ChainID selects the built-in chain spec (1 mainnet, 11155111 sepolia).
	ChainID uint64 `toml:"chain_id"`

	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
	Crypto  CryptoConfig  `toml:"crypto"`

	// TrustedCheckpoint is a beacon block root to bootstrap sync committee
	// keys from when the store is empty.
	TrustedCheckpoint string `toml:"trusted_checkpoint"`
}

// StorageConfig selects the storage plugin backend.
type StorageConfig struct {
	// Backend is memory, file, pebble or leveldb.
	Backend string `toml:"backend"`
	// Path is the directory of the file, pebble and leveldb backends.
	// Relative paths are resolved against the config file's directory.
	Path          string `toml:"path"`
	MaxSyncStates int    `toml:"max_sync_states"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	// Enabled prints the metrics in Prometheus text format after each
	// command.
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace"`
}

// CryptoConfig selects the crypto backends.
type CryptoConfig struct {
	// BN254 is the engine of the BN254 precompiles: native or gnark.
	BN254 string `toml:"bn254"`
	// BLS is the sync committee signature backend: gnark, or blst when
	// built with the blst tag.
	BLS string `toml:"bls"`
	// KZGSetupG2 is the hex encoded compressed [s]G2 of a trusted setup.
	// When set, point evaluation pairs against it instead of the embedded
	// mainnet setup.
	KZGSetupG2 string `toml:"kzg_setup_g2"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ChainID: beacon.Mainnet.ChainID,
		Storage: StorageConfig{
			Backend:       "memory",
			MaxSyncStates: storage.DefaultMaxSyncStates,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{Namespace: "stateless"},
		Crypto: CryptoConfig{
			BN254: "native",
			BLS:   "gnark",
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: load %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %q: %s", path, strings.Join(keys, ", "))
	}
	if p := cfg.Storage.Path; p != "" && !filepath.IsAbs(p) {
		cfg.Storage.Path = filepath.Join(filepath.Dir(path), p)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %q: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("config: write %q: %w", path, err)
	}
	return f.Close()
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if _, err := beacon.SpecByChainID(c.ChainID); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch c.Storage.Backend {
	case "", "memory":
	case "file", "pebble", "leveldb":
		if c.Storage.Path == "" {
			return fmt.Errorf("config: storage backend %q needs a path", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.MaxSyncStates < 0 {
		return fmt.Errorf("config: invalid max_sync_states: %d", c.Storage.MaxSyncStates)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}

	if _, err := bn254.NewEngine(c.Crypto.BN254); err != nil {
		return fmt.Errorf("config: bn254 engine %q: %w", c.Crypto.BN254, err)
	}
	if c.Crypto.BLS != "" && !slices.Contains(bls.Backends(), c.Crypto.BLS) {
		return fmt.Errorf("config: unknown bls backend %q (have %s)", c.Crypto.BLS, strings.Join(bls.Backends(), ", "))
	}
	if c.Crypto.KZGSetupG2 != "" {
		if _, err := c.kzgVerifier(); err != nil {
			return err
		}
	}
	if _, _, err := c.Checkpoint(); err != nil {
		return err
	}
	return nil
}

// Spec returns the chain spec of ChainID.
func (c *Config) Spec() (*beacon.ChainSpec, error) {
	return beacon.SpecByChainID(c.ChainID)
}

// Checkpoint parses TrustedCheckpoint. ok is false when none is set.
func (c *Config) Checkpoint() (root common.Hash, ok bool, err error) {
	if c.TrustedCheckpoint == "" {
		return common.Hash{}, false, nil
	}
	b, err := hexutil.Decode(c.TrustedCheckpoint)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, false, fmt.Errorf("config: trusted_checkpoint must be a 32-byte hex root: %q", c.TrustedCheckpoint)
	}
	return common.BytesToHash(b), true, nil
}

// OpenStorage opens the configured storage backend. The caller releases it
// with storage.Close.
func (c *Config) OpenStorage() (storage.Storage, error) {
	if c.Storage.Backend != "" && c.Storage.Backend != "memory" {
		if err := os.MkdirAll(c.Storage.Path, 0o700); err != nil {
			return nil, fmt.Errorf("config: storage dir: %w", err)
		}
	}
	return storage.Open(c.Storage.Backend, c.Storage.Path, c.Storage.MaxSyncStates)
}

// Logger builds the configured logger on stderr.
func (c *Config) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return log.NewWriter(os.Stderr, level, c.Log.Format)
}

// BLS returns the configured signature backend.
func (c *Config) BLS() (bls.Verifier, error) {
	if c.Crypto.BLS == "" {
		return bls.NewGnarkVerifier(bls.DefaultCacheSize), nil
	}
	return bls.NewVerifier(c.Crypto.BLS)
}

func (c *Config) kzgVerifier() (kzg.Verifier, error) {
	if c.Crypto.KZGSetupG2 == "" {
		return kzg.New("go-eth-kzg", nil)
	}
	g2, err := hexutil.Decode(c.Crypto.KZGSetupG2)
	if err != nil {
		return nil, fmt.Errorf("config: kzg_setup_g2: %w", err)
	}
	v, err := kzg.New("gnark", g2)
	if err != nil {
		return nil, fmt.Errorf("config: kzg_setup_g2: %w", err)
	}
	return v, nil
}

// Precompiles returns the precompile set over the configured BN254 engine
// and KZG setup.
func (c *Config) Precompiles() (*precompiles.Set, error) {
	engine, err := bn254.NewEngine(c.Crypto.BN254)
	if err != nil {
		return nil, err
	}
	v, err := c.kzgVerifier()
	if err != nil {
		return nil, err
	}
	return precompiles.New(engine, v), nil
}
