package metrics

// Verify groups the verifier's metrics inside one registry. Counters are
// created on first use, so a Verify over a fresh registry reports only
// what actually happened.
type Verify struct {
	reg *Registry

	// Success, Error and Pending count Verify calls by outcome.
	Success *Counter
	Error   *Counter
	Pending *Counter
	// Duration records the time of one Verify call in milliseconds.
	Duration *Histogram
	// Updates counts light-client updates applied to the committee store.
	Updates *Counter
	// Bootstraps counts committee bootstraps from a trusted checkpoint.
	Bootstraps *Counter
	// Periods is the number of committee periods held in storage.
	Periods *Gauge
	// Requests counts data requests handed out to the caller.
	Requests *Counter
}

// NewVerify returns the verifier metrics of r.
func NewVerify(r *Registry) *Verify {
	return &Verify{
		reg:        r,
		Success:    r.Counter("verify.success"),
		Error:      r.Counter("verify.error"),
		Pending:    r.Counter("verify.pending"),
		Duration:   r.Histogram("verify.duration_ms"),
		Updates:    r.Counter("synccommittee.updates"),
		Bootstraps: r.Counter("synccommittee.bootstraps"),
		Periods:    r.Gauge("synccommittee.periods"),
		Requests:   r.Counter("verify.data_requests"),
	}
}

// Method returns the per-method call counter.
func (v *Verify) Method(name string) *Counter {
	return v.reg.Counter("verify.method." + name)
}

// Precompile returns the per-address call counter.
func (v *Verify) Precompile(addr string) *Counter {
	return v.reg.Counter("precompile.calls." + addr)
}

// DefaultVerify is the verifier metric set of DefaultRegistry.
var DefaultVerify = NewVerify(DefaultRegistry)
