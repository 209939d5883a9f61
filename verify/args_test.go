package verify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
)

func TestBlockNumberUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want BlockNumber
		err  bool
	}{
		{`"latest"`, LatestBlockNumber, false},
		{`"pending"`, PendingBlockNumber, false},
		{`"safe"`, SafeBlockNumber, false},
		{`"finalized"`, FinalizedBlockNumber, false},
		{`"earliest"`, 0, false},
		{`"0x14d0303"`, 0x14d0303, false},
		{`12`, 12, false},
		{`-1`, 0, true},
		{`"0x"`, 0, true},
		{`"0x01"`, 0, true},
		{`"head"`, 0, true},
		{`"0xffffffffffffffff"`, 0, true},
	}
	for _, tt := range tests {
		var bn BlockNumber
		err := json.Unmarshal([]byte(tt.in), &bn)
		if (err != nil) != tt.err {
			t.Fatalf("%s: err = %v, want error %v", tt.in, err, tt.err)
		}
		if err == nil && bn != tt.want {
			t.Fatalf("%s: got %d, want %d", tt.in, bn, tt.want)
		}
	}
	if s := LatestBlockNumber.String(); s != "latest" {
		t.Fatalf("String = %q", s)
	}
	if s := BlockNumber(255).String(); s != "0xff" {
		t.Fatalf("String = %q", s)
	}
}

func TestBlockRef(t *testing.T) {
	hash := common.HexToHash("0xabcdef")
	number := uint64(100)

	tests := []struct {
		in    string
		match bool
		err   bool
	}{
		{`"0x64"`, true, false},
		{`"0x65"`, false, false},
		{`"latest"`, true, false},
		{`"` + hash.Hex() + `"`, true, false},
		{`"` + common.HexToHash("0x01").Hex() + `"`, false, false},
		{`{"blockNumber":"0x64"}`, true, false},
		{`{"blockHash":"` + hash.Hex() + `"}`, true, false},
		{`{"blockNumber":"0x64","blockHash":"` + hash.Hex() + `"}`, false, true},
		{`{}`, false, true},
		{`"0xzz"`, false, true},
	}
	for _, tt := range tests {
		var r BlockRef
		err := json.Unmarshal([]byte(tt.in), &r)
		if (err != nil) != tt.err {
			t.Fatalf("%s: err = %v, want error %v", tt.in, err, tt.err)
		}
		if err != nil {
			continue
		}
		err = r.check(number, hash)
		if (err == nil) != tt.match {
			t.Fatalf("%s: check err = %v, want match %v", tt.in, err, tt.match)
		}
		if err != nil && !errors.Is(err, ErrArgMismatch) {
			t.Fatalf("%s: err = %v, want ErrArgMismatch", tt.in, err)
		}
	}
}

func TestStorageKey(t *testing.T) {
	tests := []struct {
		in   string
		want common.Hash
		err  bool
	}{
		{`"0x0"`, common.Hash{}, false},
		{`"0x1"`, common.HexToHash("0x01"), false},
		{`"0x0100"`, common.HexToHash("0x0100"), false},
		{`"0x` + common.HexToHash("0xff").Hex()[2:] + `"`, common.HexToHash("0xff"), false},
		{`"0x"`, common.Hash{}, true},
		{`"1"`, common.Hash{}, true},
		{`"0xgg"`, common.Hash{}, true},
		{`"0x` + common.HexToHash("0xff").Hex()[2:] + `00"`, common.Hash{}, true},
		{`1`, common.Hash{}, true},
	}
	for _, tt := range tests {
		var k StorageKey
		err := json.Unmarshal([]byte(tt.in), &k)
		if (err != nil) != tt.err {
			t.Fatalf("%s: err = %v, want error %v", tt.in, err, tt.err)
		}
		if err == nil && common.Hash(k) != tt.want {
			t.Fatalf("%s: got %x, want %x", tt.in, k, tt.want)
		}
	}
}

func TestParseArgs(t *testing.T) {
	var (
		addr  common.Address
		block BlockRef
	)
	raw := json.RawMessage(`["0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5","0x10"]`)
	if err := parseArgs(raw, 1, &addr, &block); err != nil {
		t.Fatal(err)
	}
	if addr != common.HexToAddress("0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5") || block.Number == nil || *block.Number != 16 {
		t.Fatalf("addr %s block %+v", addr, block)
	}

	for _, bad := range []string{`{}`, `[]`, `["0x00","0x1","0x2"]`, `[1]`} {
		err := parseArgs(json.RawMessage(bad), 1, &addr, &block)
		var e *Error
		if !errors.As(err, &e) || e.Kind != KindPolicy || !errors.Is(err, ErrInvalidArgs) {
			t.Fatalf("%s: err = %v", bad, err)
		}
	}
	// No params at all is an empty array.
	if err := parseArgs(nil, 0); err != nil {
		t.Fatal(err)
	}
}

func TestFilterQuery(t *testing.T) {
	var (
		blockHash = common.HexToHash("0xb1")
		contract  = common.HexToAddress("0xc0")
		transfer  = common.HexToHash("0xddf252ad")
		from      = common.HexToHash("0x01")
		to        = common.HexToHash("0x02")
		topics    = []common.Hash{transfer, from, to}
	)
	tests := []struct {
		name   string
		filter string
		want   bool
	}{
		{"empty", `{}`, true},
		{"single address", `{"address":"` + contract.Hex() + `"}`, true},
		{"address list", `{"address":["0x0000000000000000000000000000000000000001","` + contract.Hex() + `"]}`, true},
		{"other address", `{"address":"0x0000000000000000000000000000000000000001"}`, false},
		{"topic0", `{"topics":["` + transfer.Hex() + `"]}`, true},
		{"wildcard then to", `{"topics":[null,null,"` + to.Hex() + `"]}`, true},
		{"alternatives", `{"topics":[null,["` + to.Hex() + `","` + from.Hex() + `"]]}`, true},
		{"wrong topic", `{"topics":[null,"` + to.Hex() + `"]}`, false},
		{"more topics than log", `{"topics":[null,null,null,null]}`, false},
		{"range", `{"fromBlock":"0x5","toBlock":"0x5"}`, true},
		{"before range", `{"fromBlock":"0x6"}`, false},
		{"after range", `{"toBlock":"0x4"}`, false},
		{"tags", `{"fromBlock":"earliest","toBlock":"latest"}`, true},
		{"block hash", `{"blockHash":"` + blockHash.Hex() + `"}`, true},
		{"other block hash", `{"blockHash":"` + from.Hex() + `"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q FilterQuery
			if err := json.Unmarshal([]byte(tt.filter), &q); err != nil {
				t.Fatal(err)
			}
			if got := q.matches(5, blockHash, contract, topics); got != tt.want {
				t.Fatalf("matches = %v, want %v", got, tt.want)
			}
		})
	}

	var q FilterQuery
	if err := json.Unmarshal([]byte(`{"address":"`+contract.Hex()+`","topics":[["`+transfer.Hex()+`"]]}`), &q); err != nil {
		t.Fatal(err)
	}
	want := FilterQuery{Addresses: AddressList{contract}, Topics: []TopicSelector{{transfer}}}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Fatalf("decoded filter (-want +got):\n%s", diff)
	}
}

func TestStatusText(t *testing.T) {
	out, err := json.Marshal(map[string]Status{"a": StatusPending, "b": StatusError})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":"pending","b":"error"}` {
		t.Fatalf("got %s", out)
	}
}
