// Command stateless-verify checks Ethereum JSON-RPC results against
// stateless proofs.
//
// Usage:
//
//	stateless-verify [global flags] verify --proof FILE --method NAME [--args JSON] [--response FILE...]
//	stateless-verify [global flags] bootstrap --file FILE [--root HASH]
//	stateless-verify [global flags] updates --file FILE
//	stateless-verify [global flags] precompile --address ADDR [--input HEX]
//	stateless-verify methods
//
// verify exits 0 when the result is proven, 1 on error and 2 when the
// proof needs sync committee data that was not supplied. The pending data
// requests are printed with the outcome; their bodies are passed back with
// --response in request order.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/config"
	"github.com/eth2030/stateless/crypto/bls"
	"github.com/eth2030/stateless/log"
	"github.com/eth2030/stateless/metrics"
	"github.com/eth2030/stateless/precompiles"
	"github.com/eth2030/stateless/storage"
	"github.com/eth2030/stateless/synccommittee"
	"github.com/eth2030/stateless/verify"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

// Exit codes of the verify command.
const (
	exitSuccess = 0
	exitError   = 1
	exitPending = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.Run(append([]string{app.Name}, args...))
	if err == nil {
		return exitSuccess
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return ec.ExitCode()
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "stateless-verify",
		Usage:     "verify Ethereum RPC results against stateless proofs",
		Version:   version + "-" + commit,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags,
		Commands: []*cli.Command{
			{
				Name:   "verify",
				Usage:  "verify a proof for an RPC method result",
				Flags:  []cli.Flag{proofFlag, methodFlag, argsFlag, responseFlag, compactFlag},
				Action: verifyCmd,
			},
			{
				Name:   "bootstrap",
				Usage:  "store the sync committee of a light client bootstrap",
				Flags:  []cli.Flag{fileFlag, rootFlag},
				Action: bootstrapCmd,
			},
			{
				Name:   "updates",
				Usage:  "apply light client updates to the sync committee store",
				Flags:  []cli.Flag{fileFlag},
				Action: updatesCmd,
			},
			{
				Name:   "precompile",
				Usage:  "run a precompiled contract",
				Flags:  []cli.Flag{addressFlag, inputFlag},
				Action: precompileCmd,
			},
			{
				Name:   "methods",
				Usage:  "list the verifiable RPC methods",
				Action: methodsCmd,
			},
		},
		// Exit codes are returned from run, never through os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// session holds what every command shares: the resolved configuration,
// the opened store and the crypto and observability backends.
type session struct {
	cfg     *config.Config
	spec    *beacon.ChainSpec
	db      storage.Storage
	log     *log.Logger
	bls     bls.Verifier
	metrics *metrics.Registry
	stats   *metrics.Verify
}

func openSession(ctx *cli.Context) (*session, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger, err := log.NewWriter(ctx.App.ErrWriter, level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	spec, err := cfg.Spec()
	if err != nil {
		return nil, err
	}
	blsV, err := cfg.BLS()
	if err != nil {
		return nil, err
	}
	db, err := cfg.OpenStorage()
	if err != nil {
		return nil, err
	}
	logger.Debug("stateless-verify starting",
		"version", version, "commit", commit,
		"chain", spec.Name, "storage", cfg.Storage.Backend, "bls", cfg.Crypto.BLS)
	reg := metrics.NewRegistry()
	return &session{
		cfg:     cfg,
		spec:    spec,
		db:      db,
		log:     logger,
		bls:     blsV,
		metrics: reg,
		stats:   metrics.NewVerify(reg),
	}, nil
}

// close releases the store and prints the metrics when enabled.
func (s *session) close(ctx *cli.Context) {
	if err := storage.Close(s.db); err != nil {
		s.log.Warn("Failed to close storage", "err", err)
	}
	if s.cfg.Metrics.Enabled {
		if err := metrics.WriteText(ctx.App.ErrWriter, s.metrics, s.cfg.Metrics.Namespace); err != nil {
			s.log.Warn("Failed to write metrics", "err", err)
		}
	}
}

func (s *session) syncVerifier() *synccommittee.Verifier {
	return synccommittee.NewVerifier(synccommittee.NewStore(s.db), s.spec, s.bls)
}

func verifyCmd(ctx *cli.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	proof, err := readInput(ctx.String(proofFlag.Name))
	if err != nil {
		return err
	}
	opts := []verify.Option{
		verify.WithChainID(s.cfg.ChainID),
		verify.WithStorage(s.db),
		verify.WithBLS(s.bls),
		verify.WithLogger(s.log),
		verify.WithMetrics(s.metrics),
	}
	if root, ok, _ := s.cfg.Checkpoint(); ok {
		opts = append(opts, verify.WithCheckpoint(root))
	}
	if ctx.Bool(compactFlag.Name) {
		opts = append(opts, verify.WithCompactErrors())
	}

	c := verify.New(proof, ctx.String(methodFlag.Name), json.RawMessage(ctx.String(argsFlag.Name)), opts...)
	defer c.Close()

	status := c.Verify()
	responses := ctx.StringSlice(responseFlag.Name)
	for status == verify.StatusPending && len(responses) > 0 && len(c.Requests()) > 0 {
		for _, r := range c.Requests() {
			if len(responses) == 0 {
				break
			}
			data, err := os.ReadFile(responses[0])
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Response = data
			}
			responses = responses[1:]
		}
		status = c.Verify()
	}

	if err := writeJSON(ctx.App.Writer, c.Envelope()); err != nil {
		return err
	}
	switch status {
	case verify.StatusSuccess:
		return nil
	case verify.StatusPending:
		return cli.Exit("", exitPending)
	default:
		return cli.Exit("", exitError)
	}
}

func bootstrapCmd(ctx *cli.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	root, ok, err := s.cfg.Checkpoint()
	if err != nil {
		return err
	}
	if ctx.IsSet(rootFlag.Name) {
		b, err := hexutil.Decode(ctx.String(rootFlag.Name))
		if err != nil || len(b) != common.HashLength {
			return fmt.Errorf("invalid --root %q", ctx.String(rootFlag.Name))
		}
		root, ok = common.BytesToHash(b), true
	}
	if !ok {
		return errors.New("bootstrap needs --root or a trusted checkpoint")
	}
	data, err := readInput(ctx.String(fileFlag.Name))
	if err != nil {
		return err
	}
	b, err := synccommittee.ParseBootstrap(s.spec, data)
	if err != nil {
		return err
	}
	v := s.syncVerifier()
	if err := v.Bootstrap(b, root); err != nil {
		return err
	}
	s.stats.Bootstraps.Inc()
	s.log.Info("Bootstrapped sync committee", "root", root)
	return s.writePeriods(ctx, v.Store(), map[string]any{"checkpoint": root})
}

func updatesCmd(ctx *cli.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	data, err := readInput(ctx.String(fileFlag.Name))
	if err != nil {
		return err
	}
	updates, err := synccommittee.ParseUpdates(s.spec, data)
	if err != nil {
		return err
	}
	v := s.syncVerifier()
	n, err := v.ApplyUpdates(updates)
	s.stats.Updates.Add(int64(n))
	if err != nil {
		return fmt.Errorf("applied %d of %d updates: %w", n, len(updates), err)
	}
	s.log.Info("Applied light client updates", "count", n)
	return s.writePeriods(ctx, v.Store(), map[string]any{"applied": n})
}

func precompileCmd(ctx *cli.Context) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	raw, err := hexutil.Decode(ctx.String(addressFlag.Name))
	if err != nil || len(raw) == 0 || len(raw) > common.AddressLength {
		return fmt.Errorf("invalid --address %q", ctx.String(addressFlag.Name))
	}
	var addr [common.AddressLength]byte
	copy(addr[common.AddressLength-len(raw):], raw)

	var input []byte
	if in := ctx.String(inputFlag.Name); in != "" {
		if input, err = hexutil.Decode(in); err != nil {
			return fmt.Errorf("invalid --input: %w", err)
		}
	}
	set, err := s.cfg.Precompiles()
	if err != nil {
		return err
	}
	out, gas, status := set.Run(addr, input)
	s.stats.Precompile(hexutil.Encode(raw)).Inc()

	res := struct {
		Status string         `json:"status"`
		Gas    hexutil.Uint64 `json:"gas"`
		Output hexutil.Bytes  `json:"output"`
	}{status.String(), hexutil.Uint64(gas), out}
	if err := writeJSON(ctx.App.Writer, res); err != nil {
		return err
	}
	if status != precompiles.StatusSuccess {
		return cli.Exit("", exitError)
	}
	return nil
}

func methodsCmd(ctx *cli.Context) error {
	methods := verify.Methods()
	slices.Sort(methods)
	for _, m := range methods {
		fmt.Fprintln(ctx.App.Writer, m)
	}
	return nil
}

// writePeriods prints fields together with the stored committee periods.
func (s *session) writePeriods(ctx *cli.Context, store *synccommittee.Store, fields map[string]any) error {
	periods, err := store.Periods()
	if err != nil {
		return err
	}
	s.stats.Periods.Set(int64(len(periods)))
	fields["periods"] = periods
	return writeJSON(ctx.App.Writer, fields)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

// readInput reads a binary file, or one holding 0x-prefixed hex.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(data); bytes.HasPrefix(trimmed, []byte("0x")) {
		dec, err := hexutil.Decode(string(trimmed))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return dec, nil
	}
	return data, nil
}
