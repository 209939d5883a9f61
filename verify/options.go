package verify

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/crypto/bls"
	"github.com/eth2030/stateless/log"
	"github.com/eth2030/stateless/metrics"
	"github.com/eth2030/stateless/storage"
)

// Option configures a Context.
type Option func(*options)

type options struct {
	chainID    uint64
	spec       *beacon.ChainSpec
	db         storage.Storage
	bls        bls.Verifier
	log        *log.Logger
	metrics    *metrics.Verify
	compact    bool
	checkpoint *common.Hash
}

func defaultOptions() options {
	return options{
		chainID: beacon.Mainnet.ChainID,
		log:     log.Default().Module("verify"),
		metrics: metrics.DefaultVerify,
	}
}

// WithChainID selects the built-in chain spec for an execution chain id.
func WithChainID(id uint64) Option {
	return func(o *options) { o.chainID = id }
}

// WithSpec sets the chain spec directly, overriding WithChainID.
func WithSpec(spec *beacon.ChainSpec) Option {
	return func(o *options) { o.spec = spec }
}

// WithStorage sets the store for sync committee keys and checkpoints. The
// default is a fresh in-memory store per context.
func WithStorage(db storage.Storage) Option {
	return func(o *options) { o.db = db }
}

// WithBLS selects the BLS backend.
func WithBLS(v bls.Verifier) Option {
	return func(o *options) { o.bls = v }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records into the given registry instead of the default one.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.metrics = metrics.NewVerify(r) }
}

// WithCompactErrors reduces every error message to "E".
func WithCompactErrors() Option {
	return func(o *options) { o.compact = true }
}

// WithCheckpoint sets the trusted block root to bootstrap sync committee
// keys from when the store holds none.
func WithCheckpoint(root common.Hash) Option {
	return func(o *options) { o.checkpoint = &root }
}
