package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCounter(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("verify.success")
	c.Inc()
	c.Add(4)
	c.Add(-3)
	c.Add(0)
	if c.Value() != 5 {
		t.Fatalf("value = %d, want 5", c.Value())
	}
	if r.Counter("verify.success") != c {
		t.Fatal("second lookup returned a new counter")
	}
}

func TestCounter_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				r.Counter("verify.method.eth_getBalance").Inc()
			}
		}()
	}
	wg.Wait()
	if v := r.Counter("verify.method.eth_getBalance").Value(); v != 8000 {
		t.Fatalf("value = %d, want 8000", v)
	}
}

func TestGauge(t *testing.T) {
	g := NewRegistry().Gauge("synccommittee.periods")
	g.Set(3)
	g.Set(2)
	if g.Value() != 2 || g.Name() != "synccommittee.periods" {
		t.Fatalf("gauge %s = %d", g.Name(), g.Value())
	}
}

func TestHistogram(t *testing.T) {
	h := NewRegistry().Histogram("verify.duration_ms")
	for _, v := range []float64{0.5, 1, 3, 3, 40, 5000} {
		h.Observe(v)
	}
	if h.Count() != 6 {
		t.Fatalf("count = %d, want 6", h.Count())
	}
	if h.Sum() != 5047.5 {
		t.Fatalf("sum = %v, want 5047.5", h.Sum())
	}
	// Bounds are inclusive and cumulative; 5000 only lands in +Inf.
	want := map[float64]uint64{0.5: 1, 1: 2, 2: 2, 5: 4, 10: 4, 25: 4, 50: 5, 100: 5, 250: 5, 1000: 5}
	if diff := cmp.Diff(want, h.Buckets()); diff != "" {
		t.Fatalf("buckets (-want +got):\n%s", diff)
	}
}

func TestTimer(t *testing.T) {
	h := NewRegistry().Histogram("verify.duration_ms")
	timer := NewTimer(h)
	time.Sleep(2 * time.Millisecond)
	d := timer.Stop()
	if d < 2*time.Millisecond || h.Count() != 1 || h.Sum() < 2 {
		t.Fatalf("elapsed %v, count %d, sum %v", d, h.Count(), h.Sum())
	}
	// A timer without a histogram only measures.
	if NewTimer(nil).Stop() < 0 {
		t.Fatal("negative duration")
	}
}

func TestSnapshot(t *testing.T) {
	r := NewRegistry()
	v := NewVerify(r)
	v.Success.Inc()
	v.Periods.Set(2)
	v.Duration.Observe(1)

	snap := r.Snapshot()
	if snap["verify.success"] != int64(1) || snap["synccommittee.periods"] != int64(2) {
		t.Fatalf("snapshot = %v", snap)
	}
	hist, ok := snap["verify.duration_ms"].(map[string]any)
	if !ok || hist["count"] != uint64(1) || hist["sum"] != 1.0 {
		t.Fatalf("histogram snapshot = %v", snap["verify.duration_ms"])
	}
	// The snapshot does not follow later writes.
	v.Success.Inc()
	if snap["verify.success"] != int64(1) {
		t.Fatal("snapshot changed")
	}
}

func TestVerifyNames(t *testing.T) {
	r := NewRegistry()
	v := NewVerify(r)
	v.Method("eth_getLogs").Inc()
	v.Precompile("0x0a").Inc()
	for _, name := range []string{"verify.method.eth_getLogs", "precompile.calls.0x0a"} {
		if r.Counter(name).Value() != 1 {
			t.Errorf("%s not counted", name)
		}
	}
	if NewVerify(r).Method("eth_getLogs") != v.Method("eth_getLogs") {
		t.Fatal("metric sets over one registry do not share counters")
	}
}
