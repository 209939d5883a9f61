package main

import (
	"github.com/urfave/cli/v2"

	"github.com/eth2030/stateless/config"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	chainIDFlag = &cli.Uint64Flag{
		Name:  "chain-id",
		Usage: "execution chain id (1 mainnet, 11155111 sepolia)",
	}
	storageFlag = &cli.StringFlag{
		Name:  "storage",
		Usage: "sync committee storage backend: memory, file, pebble or leveldb",
	}
	datadirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "directory of the file, pebble and leveldb backends",
	}
	checkpointFlag = &cli.StringFlag{
		Name:  "checkpoint",
		Usage: "trusted beacon block root to bootstrap from",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "log level: debug, info, warn, error",
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log.format",
		Usage: "log format: text or json",
	}
	metricsFlag = &cli.BoolFlag{
		Name:  "metrics",
		Usage: "print metrics in Prometheus text format to stderr",
	}
	bn254Flag = &cli.StringFlag{
		Name:  "crypto.bn254",
		Usage: "BN254 engine: native or gnark",
	}
	blsFlag = &cli.StringFlag{
		Name:  "crypto.bls",
		Usage: "BLS backend: gnark, or blst when built with the blst tag",
	}

	globalFlags = []cli.Flag{
		configFlag, chainIDFlag, storageFlag, datadirFlag, checkpointFlag,
		logLevelFlag, logFormatFlag, metricsFlag, bn254Flag, blsFlag,
	}
)

// Command flags.
var (
	proofFlag = &cli.StringFlag{
		Name:     "proof",
		Usage:    "proof file, binary or 0x-prefixed hex",
		Required: true,
	}
	methodFlag = &cli.StringFlag{
		Name:     "method",
		Usage:    "JSON-RPC method",
		Required: true,
	}
	argsFlag = &cli.StringFlag{
		Name:  "args",
		Usage: "JSON-RPC params array",
		Value: "[]",
	}
	responseFlag = &cli.StringSliceFlag{
		Name:  "response",
		Usage: "file answering the next pending data request (repeatable)",
	}
	compactFlag = &cli.BoolFlag{
		Name:  "compact",
		Usage: `reduce error messages to "E"`,
	}
	fileFlag = &cli.StringFlag{
		Name:     "file",
		Usage:    "beacon API response body in SSZ encoding",
		Required: true,
	}
	rootFlag = &cli.StringFlag{
		Name:  "root",
		Usage: "trusted block root of the bootstrap (defaults to --checkpoint)",
	}
	addressFlag = &cli.StringFlag{
		Name:     "address",
		Usage:    "precompile address, e.g. 0x0a",
		Required: true,
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "0x-prefixed hex input",
	}
)

// loadConfig reads --config, or the defaults, and applies the global
// flags on top.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(chainIDFlag.Name) {
		cfg.ChainID = ctx.Uint64(chainIDFlag.Name)
	}
	if ctx.IsSet(storageFlag.Name) {
		cfg.Storage.Backend = ctx.String(storageFlag.Name)
	}
	if ctx.IsSet(datadirFlag.Name) {
		cfg.Storage.Path = ctx.String(datadirFlag.Name)
	}
	if ctx.IsSet(checkpointFlag.Name) {
		cfg.TrustedCheckpoint = ctx.String(checkpointFlag.Name)
	}
	if ctx.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = ctx.String(logLevelFlag.Name)
	}
	if ctx.IsSet(logFormatFlag.Name) {
		cfg.Log.Format = ctx.String(logFormatFlag.Name)
	}
	if ctx.IsSet(metricsFlag.Name) {
		cfg.Metrics.Enabled = ctx.Bool(metricsFlag.Name)
	}
	if ctx.IsSet(bn254Flag.Name) {
		cfg.Crypto.BN254 = ctx.String(bn254Flag.Name)
	}
	if ctx.IsSet(blsFlag.Name) {
		cfg.Crypto.BLS = ctx.String(blsFlag.Name)
	}
	// A datadir without an explicit backend means file storage.
	if ctx.IsSet(datadirFlag.Name) && !ctx.IsSet(storageFlag.Name) && cfg.Storage.Backend == "memory" {
		cfg.Storage.Backend = "file"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
