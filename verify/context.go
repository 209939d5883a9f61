// Package verify checks proofs for Ethereum JSON-RPC results. A Context is
// seeded with a serialized proof, the RPC method and its JSON arguments;
// Verify walks the proof, anchors every value in a beacon block header
// signed by the sync committee and compares it with the result the proof
// carries.
//
// Verification may suspend: when the committee keys of a period are not
// stored, Verify returns StatusPending and lists the data it needs as
// DataRequests. The caller fetches them, fills in the responses and calls
// Verify again. No I/O happens inside the package.
package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/log"
	"github.com/eth2030/stateless/metrics"
	"github.com/eth2030/stateless/ssz"
	"github.com/eth2030/stateless/storage"
	"github.com/eth2030/stateless/synccommittee"
)

// Status is the state of a verification.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Beacon API paths used by data requests.
const (
	updatesPath   = "eth/v1/beacon/light_client/updates?start_period=%d&count=%d"
	bootstrapPath = "eth/v1/beacon/light_client/bootstrap/%s"

	// maxUpdatesPerRequest is MAX_REQUEST_LIGHT_CLIENT_UPDATES.
	maxUpdatesPerRequest = 128
)

// RequestType says where a DataRequest must be sent.
type RequestType string

const TypeBeaconAPI RequestType = "beacon_api"

type requestKind int

const (
	requestUpdates requestKind = iota
	requestBootstrap
)

// DataRequest is one fetch the caller must perform. The caller sets
// Response to the raw response body, or Error when the fetch failed.
type DataRequest struct {
	Type     RequestType `json:"type"`
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Encoding string      `json:"encoding"`
	Payload  []byte      `json:"payload,omitempty"`

	Response []byte `json:"-"`
	Error    string `json:"-"`

	kind      requestKind
	bootstrap common.Hash
}

// Context is one verification. It is not safe for concurrent use.
type Context struct {
	proof  []byte
	method string
	args   json.RawMessage
	opts   options

	spec     *beacon.ChainSpec
	verifier *synccommittee.Verifier
	log      *log.Logger

	status   Status
	result   json.RawMessage
	err      error
	requests []*DataRequest

	syncApplied bool
	closed      bool
}

// New returns a context for verifying the result of method called with
// args. The proof is copied.
func New(proof []byte, method string, args json.RawMessage, opts ...Option) *Context {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{
		proof:  append([]byte(nil), proof...),
		method: method,
		args:   append(json.RawMessage(nil), args...),
		opts:   o,
		log:    o.log.With("method", method),
	}
	c.spec = o.spec
	if c.spec == nil {
		spec, err := beacon.SpecByChainID(o.chainID)
		if err != nil {
			c.fail(policy(ErrUnsupportedChain, "chain id %d", o.chainID))
			return c
		}
		c.spec = spec
	}
	db := o.db
	if db == nil {
		db = storage.NewMemory(storage.DefaultMaxSyncStates)
		c.opts.db = db
	}
	c.verifier = synccommittee.NewVerifier(synccommittee.NewStore(db), c.spec, o.bls)
	return c
}

// Verify advances the verification. Responses filled into pending data
// requests are applied first. Once the context reaches StatusSuccess or
// StatusError further calls return the same status until Reset.
func (c *Context) Verify() Status {
	if c.closed {
		return c.fail(policy(ErrTerminal, "context closed"))
	}
	if c.status != StatusPending {
		return c.status
	}
	timer := metrics.NewTimer(c.opts.metrics.Duration)
	defer timer.Stop()
	c.opts.metrics.Method(c.method).Inc()

	var missing *synccommittee.MissingPeriodError
	waiting, err := c.consumeResponses()
	switch {
	case errors.As(err, &missing):
		// The response chained from a committee that is still unknown.
		return c.suspend(missing)
	case err != nil:
		return c.fail(err)
	case waiting:
		return StatusPending
	}

	result, err := c.run()
	switch {
	case errors.As(err, &missing):
		return c.suspend(missing)
	case err != nil:
		return c.fail(err)
	}
	enc, err := json.Marshal(result)
	if err != nil {
		return c.fail(structural(err, "encode result"))
	}
	c.status, c.result, c.err = StatusSuccess, enc, nil
	c.opts.metrics.Success.Inc()
	c.log.Debug("verified", "chain", c.spec.Name)
	return c.status
}

// Status returns the current status without advancing.
func (c *Context) Status() Status { return c.status }

// Requests returns the data requests that still wait for a response.
func (c *Context) Requests() []*DataRequest { return c.requests }

// Result returns the verified JSON result after StatusSuccess.
func (c *Context) Result() json.RawMessage { return c.result }

// Err returns the *Error of a failed verification or the *PendingError of
// a suspended one.
func (c *Context) Err() error { return c.err }

// Reset returns the context to its initial pending state, keeping the
// proof, method, arguments and store.
func (c *Context) Reset() {
	if c.closed {
		return
	}
	c.status, c.result, c.err = StatusPending, nil, nil
	c.requests, c.syncApplied = nil, false
	if c.verifier == nil {
		*c = *New(c.proof, c.method, c.args, c.optionList()...)
	}
}

// Close releases the proof and pending requests. The store is left open:
// it belongs to the caller.
func (c *Context) Close() {
	c.proof, c.args, c.result, c.requests = nil, nil, nil, nil
	c.closed = true
}

// Envelope is the {status, result|error} object bindings hand to callers.
type Envelope struct {
	Status   Status          `json:"status"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Requests []*DataRequest  `json:"requests,omitempty"`
}

// Envelope returns the current outcome as an Envelope.
func (c *Context) Envelope() Envelope {
	env := Envelope{Status: c.status, Result: c.result, Requests: c.requests}
	if c.status == StatusError && c.err != nil {
		env.Error = c.err.Error()
	}
	return env
}

// Result is the outcome of VerifyFromBytes.
type Result struct {
	Status   Status
	Data     json.RawMessage
	Requests []*DataRequest
}

// VerifyFromBytes runs a single Verify call. The error is nil on success,
// a *PendingError when data is missing and an *Error otherwise.
func VerifyFromBytes(proof []byte, method string, args json.RawMessage, opts ...Option) (*Result, error) {
	c := New(proof, method, args, opts...)
	defer c.Close()
	status := c.Verify()
	return &Result{Status: status, Data: c.result, Requests: c.requests}, c.err
}

func (c *Context) optionList() []Option {
	o := c.opts
	return []Option{func(dst *options) { *dst = o }}
}

func (c *Context) fail(err error) Status {
	var e *Error
	if !errors.As(err, &e) {
		e = structural(err, "verify")
	}
	if c.opts.compact {
		e = &Error{Kind: e.Kind, Msg: "E"}
	}
	c.status, c.err, c.result, c.requests = StatusError, e, nil, nil
	if c.opts.metrics != nil {
		c.opts.metrics.Error.Inc()
	}
	if c.log != nil {
		c.log.Debug("verification failed", "kind", e.Kind, "err", err)
	}
	return c.status
}

// suspend records a missing period and asks for the data that resolves
// it: a bootstrap from the trusted checkpoint when no committee is known,
// light-client updates otherwise. The update attested in period P carries
// committee P+1, so the updates for First..Last start at First-1.
func (c *Context) suspend(missing *synccommittee.MissingPeriodError) Status {
	store := c.verifier.Store()
	_, known, err := store.LastPeriod()
	if err != nil {
		return c.fail(structural(err, "sync committee store"))
	}
	var req *DataRequest
	if root, ok := c.checkpoint(); !known && ok {
		req = &DataRequest{
			URL:       fmt.Sprintf(bootstrapPath, root.Hex()),
			kind:      requestBootstrap,
			bootstrap: root,
		}
	} else {
		count := min(missing.Last-missing.First+1, maxUpdatesPerRequest)
		req = &DataRequest{
			URL:  fmt.Sprintf(updatesPath, updatesStart(missing.First), count),
			kind: requestUpdates,
		}
	}
	req.Type, req.Method, req.Encoding = TypeBeaconAPI, "GET", "ssz"
	if !slices.ContainsFunc(c.requests, func(r *DataRequest) bool { return r.URL == req.URL }) {
		c.requests = append(c.requests, req)
		c.opts.metrics.Requests.Inc()
	}
	c.err = &PendingError{FirstMissingPeriod: missing.First, LastMissingPeriod: missing.Last}
	c.opts.metrics.Pending.Inc()
	c.log.Debug("waiting for sync committee", "first", missing.First, "last", missing.Last, "url", req.URL)
	return StatusPending
}

// updatesStart is the start_period of the updates that prove the
// committee of period first.
func updatesStart(first uint64) uint64 {
	if first == 0 {
		return 0
	}
	return first - 1
}

func (c *Context) checkpoint() (common.Hash, bool) {
	if c.opts.checkpoint != nil {
		return *c.opts.checkpoint, true
	}
	root, ok, err := c.verifier.Store().Checkpoint()
	if err != nil {
		return common.Hash{}, false
	}
	return root, ok
}

// consumeResponses applies the responses of answered requests and drops
// them. It reports whether requests remain unanswered. When applying a
// response fails, the requests not yet answered are kept.
func (c *Context) consumeResponses() (bool, error) {
	requests := c.requests
	c.requests = nil
	for i, r := range requests {
		var err error
		switch {
		case r.Error != "":
			return false, policy(nil, "data request %s failed: %s", r.URL, r.Error)
		case r.Response == nil:
			c.requests = append(c.requests, r)
			continue
		case r.kind == requestBootstrap:
			err = c.applyBootstrap(r.Response, r.bootstrap)
		default:
			err = c.applyUpdates(r.Response)
		}
		if err != nil {
			for _, rest := range requests[i+1:] {
				if rest.Response == nil && rest.Error == "" {
					c.requests = append(c.requests, rest)
				}
			}
			return false, err
		}
	}
	return len(c.requests) > 0, nil
}

func (c *Context) applyUpdates(data []byte) error {
	updates, err := synccommittee.ParseUpdates(c.spec, data)
	if err != nil {
		return structural(err, "light client updates")
	}
	if len(updates) == 0 {
		return structural(nil, "light client updates: empty response")
	}
	n, err := c.verifier.ApplyUpdates(updates)
	c.opts.metrics.Updates.Add(int64(n))
	c.recordPeriods()
	if err != nil {
		return classifySync(err)
	}
	return nil
}

func (c *Context) applyBootstrap(data []byte, root common.Hash) error {
	b, err := synccommittee.ParseBootstrap(c.spec, data)
	if err != nil {
		return structural(err, "light client bootstrap")
	}
	if err := c.verifier.Bootstrap(b, root); err != nil {
		return classifySync(err)
	}
	c.opts.metrics.Bootstraps.Inc()
	c.recordPeriods()
	return nil
}

func (c *Context) recordPeriods() {
	if periods, err := c.verifier.Store().Periods(); err == nil {
		c.opts.metrics.Periods.Set(int64(len(periods)))
	}
}

// call is the state of one verification pass.
type call struct {
	ctx    *Context
	spec   *beacon.ChainSpec
	method string
	args   json.RawMessage
	data   ssz.Ob
	proof  ssz.Ob
}

// run decodes the request, applies bundled sync data and dispatches to
// the verifier of the method.
func (c *Context) run() (any, error) {
	req, err := ssz.New(Request, c.proof)
	if err != nil {
		return nil, structural(err, "decode request")
	}
	version := req.Get("version").Bytes
	switch version[0] {
	case ChainTypeETH:
	case ChainTypeOP:
		return nil, policy(ErrUnsupportedChain, "op-stack proofs are not supported")
	default:
		return nil, policy(ErrUnsupportedChain, "chain type %d", version[0])
	}
	if [3]byte(version[1:]) != FormatVersion {
		return nil, policy(nil, "unsupported request format %x", version[1:])
	}

	handler, ok := handlers[c.method]
	if !ok {
		return nil, policy(ErrUnsupportedMethod, "%s", c.method)
	}

	if sync := req.Get("sync_data"); !c.syncApplied && sync.Selector() > 0 {
		if err := c.applyUpdates(sync.Value().Bytes); err != nil {
			return nil, err
		}
		c.syncApplied = true
	}

	return handler(&call{
		ctx:    c,
		spec:   c.spec,
		method: c.method,
		args:   c.args,
		data:   req.Get("data"),
		proof:  req.Get("proof"),
	})
}

type handler func(*call) (any, error)

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"eth_getBalance":                          verifyAccount,
		"eth_getTransactionCount":                 verifyAccount,
		"eth_getCode":                             verifyAccount,
		"eth_getStorageAt":                        verifyAccount,
		"eth_getProof":                            verifyAccount,
		"eth_getTransactionByHash":                verifyTransaction,
		"eth_getTransactionByBlockHashAndIndex":   verifyTransaction,
		"eth_getTransactionByBlockNumberAndIndex": verifyTransaction,
		"eth_getTransactionReceipt":               verifyReceipt,
		"eth_getLogs":                             verifyLogs,
		"eth_blockNumber":                         verifyHeader,
		"colibri_blockHash":                       verifyHeader,
	}
}

// Methods lists the supported RPC methods.
func Methods() []string {
	out := make([]string, 0, len(handlers))
	for m := range handlers {
		out = append(out, m)
	}
	return out
}

// proofOf returns the proof variant name or a policy error naming the
// method.
func (c *call) proofOf(name string) (ssz.Ob, error) {
	p := c.proof.Get(name)
	if !p.IsValid() {
		return ssz.Ob{}, policy(ErrProofType, "%s needs a %s proof", c.method, name)
	}
	return p, nil
}

// dataOf returns the result data variant, or an invalid Ob when the
// request carries none. Any other variant is a policy error.
func (c *call) dataOf(name string) (ssz.Ob, error) {
	if c.data.Selector() == 0 {
		return ssz.Ob{}, nil
	}
	d := c.data.Get(name)
	if !d.IsValid() {
		return ssz.Ob{}, policy(ErrDataType, "%s result must be %s", c.method, name)
	}
	return d, nil
}
