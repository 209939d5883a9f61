package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	r := NewRegistry()
	r.Counter("verify.success").Add(3)
	r.Gauge("sync.periods").Set(2)
	r.Histogram("verify.duration_ms").Observe(4)

	c := NewCollector(r, "stateless")
	if n := testutil.CollectAndCount(c); n != 3 {
		t.Fatalf("collected %d metrics, want 3", n)
	}
	want := `
# HELP stateless_verify_success verify.success
# TYPE stateless_verify_success counter
stateless_verify_success 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want), "stateless_verify_success"); err != nil {
		t.Fatal(err)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	NewVerify(r).Pending.Inc()

	rec := httptest.NewRecorder()
	Handler(r, "stateless").ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "stateless_verify_pending 1") {
		t.Fatalf("pending counter missing from exposition:\n%s", body)
	}
}

func TestWriteText(t *testing.T) {
	r := NewRegistry()
	NewVerify(r).Method("eth_getBalance").Inc()

	var sb strings.Builder
	if err := WriteText(&sb, r, "stateless"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "stateless_verify_method_eth_getBalance 1") {
		t.Fatalf("method counter missing:\n%s", sb.String())
	}
}
