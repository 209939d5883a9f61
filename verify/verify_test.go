package verify_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/go-cmp/cmp"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/crypto/bls"
	"github.com/eth2030/stateless/internal/fixture"
	"github.com/eth2030/stateless/metrics"
	"github.com/eth2030/stateless/ssz"
	"github.com/eth2030/stateless/storage"
	"github.com/eth2030/stateless/synccommittee"
	"github.com/eth2030/stateless/u256"
	"github.com/eth2030/stateless/verify"
)

// One verifier for all tests keeps decoded committee keys cached.
var blsVerifier = bls.NewGnarkVerifier(bls.DefaultCacheSize)

var env = fixture.NewEnv()

func balanceArgs() json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`["%s","0x%x"]`, fixture.BalanceAddress.Hex(), fixture.BalanceBlock))
}

func run(t *testing.T, proof []byte, method, args string, opts ...verify.Option) *verify.Context {
	t.Helper()
	opts = append([]verify.Option{verify.WithStorage(env.Storage()), verify.WithBLS(blsVerifier)}, opts...)
	c := verify.New(proof, method, json.RawMessage(args), opts...)
	c.Verify()
	return c
}

func mustSucceed(t *testing.T, c *verify.Context) json.RawMessage {
	t.Helper()
	if c.Status() != verify.StatusSuccess {
		t.Fatalf("status = %v, err = %v", c.Status(), c.Err())
	}
	return c.Result()
}

func errKind(t *testing.T, c *verify.Context) verify.Kind {
	t.Helper()
	if c.Status() != verify.StatusError {
		t.Fatalf("status = %v, want error (err %v)", c.Status(), c.Err())
	}
	var e *verify.Error
	if !errors.As(c.Err(), &e) {
		t.Fatalf("err = %T %v, want *verify.Error", c.Err(), c.Err())
	}
	return e.Kind
}

// --- eth_getBalance ---

func TestVerify_Balance(t *testing.T) {
	c := run(t, env.BalanceRequest(), "eth_getBalance", string(balanceArgs()))
	got := mustSucceed(t, c)
	want := fmt.Sprintf("%q", hexutil.EncodeBig(fixture.BalanceValue.ToBig()))
	if string(got) != want {
		t.Fatalf("result = %s, want %s", got, want)
	}
	if c.Err() != nil {
		t.Fatalf("err = %v", c.Err())
	}
	e := c.Envelope()
	if e.Status != verify.StatusSuccess || e.Error != "" || string(e.Result) != want {
		t.Fatalf("envelope = %+v", e)
	}
	enc, _ := json.Marshal(e)
	if !strings.HasPrefix(string(enc), `{"status":"success","result":`) {
		t.Fatalf("envelope json = %s", enc)
	}
}

func TestVerify_BalanceCorruption(t *testing.T) {
	good := env.BalanceRequest()
	db := env.Storage()
	for i := range good {
		bad := append([]byte(nil), good...)
		bad[i] ^= 0x01
		c := verify.New(bad, "eth_getBalance", balanceArgs(), verify.WithStorage(db), verify.WithBLS(blsVerifier))
		if status := c.Verify(); status != verify.StatusError {
			t.Fatalf("byte %d flipped: status = %v, err = %v", i, status, c.Err())
		}
	}
}

func TestVerify_BalanceWithoutData(t *testing.T) {
	req := env.AccountRequest(fixture.BalanceAddress, nil, "", nil)
	got := mustSucceed(t, run(t, req, "eth_getBalance", string(balanceArgs())))
	if want := fmt.Sprintf("%q", hexutil.EncodeBig(fixture.BalanceValue.ToBig())); string(got) != want {
		t.Fatalf("result = %s, want %s", got, want)
	}
}

func TestVerify_BalanceWrongData(t *testing.T) {
	wrong := fixture.BalanceValue.Clone()
	wrong.AddUint64(wrong, 1)
	req := env.AccountRequest(fixture.BalanceAddress, nil, verify.DataValue, u256.ToLE(wrong, 32))
	c := run(t, req, "eth_getBalance", string(balanceArgs()))
	if kind := errKind(t, c); kind != verify.KindStructural || !errors.Is(c.Err(), verify.ErrMismatch) {
		t.Fatalf("kind = %v, err = %v", kind, c.Err())
	}
}

func TestVerify_BalanceArgs(t *testing.T) {
	req := env.BalanceRequest()
	tests := []struct {
		name string
		args string
		ok   bool
	}{
		{"latest", fmt.Sprintf(`["%s","latest"]`, fixture.BalanceAddress.Hex()), true},
		{"no block", fmt.Sprintf(`["%s"]`, fixture.BalanceAddress.Hex()), true},
		{"block hash", fmt.Sprintf(`["%s","%s"]`, fixture.BalanceAddress.Hex(), env.Block.BlockHash.Hex()), true},
		{"object", fmt.Sprintf(`["%s",{"blockNumber":"0x%x"}]`, fixture.BalanceAddress.Hex(), fixture.BalanceBlock), true},
		{"other address", fmt.Sprintf(`["%s","latest"]`, fixture.ContractAddress.Hex()), false},
		{"other block", fmt.Sprintf(`["%s","0x%x"]`, fixture.BalanceAddress.Hex(), fixture.BalanceBlock+1), false},
		{"other hash", fmt.Sprintf(`["%s","0x%064x"]`, fixture.BalanceAddress.Hex(), 1), false},
		{"not an array", `{}`, false},
		{"too many", fmt.Sprintf(`["%s","latest",1]`, fixture.BalanceAddress.Hex()), false},
		{"missing", `[]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := run(t, req, "eth_getBalance", tt.args)
			if tt.ok {
				mustSucceed(t, c)
				return
			}
			if kind := errKind(t, c); kind != verify.KindPolicy {
				t.Fatalf("kind = %v, want policy (err %v)", kind, c.Err())
			}
		})
	}
}

// --- other account methods ---

func TestVerify_TransactionCount(t *testing.T) {
	req := env.AccountRequest(fixture.BalanceAddress, nil, verify.DataValue, ssz.MarshalUint(7, 32))
	got := mustSucceed(t, run(t, req, "eth_getTransactionCount", string(balanceArgs())))
	if string(got) != `"0x7"` {
		t.Fatalf("result = %s", got)
	}
}

func TestVerify_Code(t *testing.T) {
	args := fmt.Sprintf(`["%s","latest"]`, fixture.ContractAddress.Hex())
	req := env.AccountRequest(fixture.ContractAddress, nil, verify.DataBytes, fixture.ContractCode)
	got := mustSucceed(t, run(t, req, "eth_getCode", args))
	if want := fmt.Sprintf("%q", hexutil.Encode(fixture.ContractCode)); string(got) != want {
		t.Fatalf("result = %s, want %s", got, want)
	}

	// Code that does not hash to the proven code hash.
	req = env.AccountRequest(fixture.ContractAddress, nil, verify.DataBytes, []byte{0x00})
	if kind := errKind(t, run(t, req, "eth_getCode", args)); kind != verify.KindStructural {
		t.Fatalf("kind = %v", kind)
	}
	// The code itself is required.
	req = env.AccountRequest(fixture.ContractAddress, nil, "", nil)
	if kind := errKind(t, run(t, req, "eth_getCode", args)); kind != verify.KindPolicy {
		t.Fatalf("kind = %v", kind)
	}
}

func TestVerify_StorageAt(t *testing.T) {
	key := common.HexToHash("0x01")
	value := env.State.Accounts[fixture.ContractAddress].Storage[key]
	req := env.AccountRequest(fixture.ContractAddress, []common.Hash{key}, verify.DataHash, value[:])
	got := mustSucceed(t, run(t, req, "eth_getStorageAt", fmt.Sprintf(`["%s","0x1","latest"]`, fixture.ContractAddress.Hex())))
	if want := fmt.Sprintf("%q", value.Hex()); string(got) != want {
		t.Fatalf("result = %s, want %s", got, want)
	}

	// An unset slot is proven zero.
	empty := common.HexToHash("0x05")
	req = env.AccountRequest(fixture.ContractAddress, []common.Hash{empty}, "", nil)
	got = mustSucceed(t, run(t, req, "eth_getStorageAt", fmt.Sprintf(`["%s","0x05"]`, fixture.ContractAddress.Hex())))
	if want := fmt.Sprintf("%q", common.Hash{}.Hex()); string(got) != want {
		t.Fatalf("result = %s, want %s", got, want)
	}

	// The proof must be for the requested slot.
	c := run(t, req, "eth_getStorageAt", fmt.Sprintf(`["%s","0x1"]`, fixture.ContractAddress.Hex()))
	if kind := errKind(t, c); kind != verify.KindPolicy || !errors.Is(c.Err(), verify.ErrArgMismatch) {
		t.Fatalf("kind = %v, err = %v", kind, c.Err())
	}
}

func TestVerify_GetProof(t *testing.T) {
	keys := []common.Hash{common.HexToHash("0x00"), common.HexToHash("0x01")}
	req := env.AccountRequest(fixture.ContractAddress, keys, "", nil)
	args := fmt.Sprintf(`["%s",["0x0","0x1"],"latest"]`, fixture.ContractAddress.Hex())
	got := mustSucceed(t, run(t, req, "eth_getProof", args))

	var res verify.AccountResult
	if err := json.Unmarshal(got, &res); err != nil {
		t.Fatal(err)
	}
	acc := env.State.Accounts[fixture.ContractAddress]
	if res.Address != fixture.ContractAddress || uint64(res.Nonce) != acc.Nonce {
		t.Fatalf("account = %+v", res)
	}
	if res.CodeHash != gethcrypto.Keccak256Hash(fixture.ContractCode) {
		t.Fatalf("code hash = %s", res.CodeHash)
	}
	if len(res.StorageProof) != 2 || res.StorageProof[0].Value.ToInt().Uint64() != 0x2a {
		t.Fatalf("storage = %+v", res.StorageProof)
	}

	// Requested keys in a different order.
	c := run(t, req, "eth_getProof", fmt.Sprintf(`["%s",["0x1","0x0"]]`, fixture.ContractAddress.Hex()))
	if kind := errKind(t, c); kind != verify.KindPolicy {
		t.Fatalf("kind = %v", kind)
	}
}

func TestVerify_MissingAccount(t *testing.T) {
	addr := common.HexToAddress("0x000000000000000000000000000000000000dead")
	req := env.AccountRequest(addr, nil, verify.DataValue, make([]byte, 32))
	got := mustSucceed(t, run(t, req, "eth_getBalance", fmt.Sprintf(`["%s"]`, addr.Hex())))
	if string(got) != `"0x0"` {
		t.Fatalf("result = %s", got)
	}
}

// --- transactions, receipts, logs, headers ---

func TestVerify_Transaction(t *testing.T) {
	sender := gethcrypto.PubkeyToAddress(env.Sender.PublicKey)
	for i, tx := range env.Txs {
		data, err := verify.EncodeTxData(env.Spec.ChainID, env.Block.Transactions[i], uint64(i), env.Block.Number, env.Block.BlockHash, env.Block.BaseFee)
		if err != nil {
			t.Fatalf("tx %d: EncodeTxData: %v", i, err)
		}
		req := env.TransactionRequest(i, verify.DataTx, data)

		got := mustSucceed(t, run(t, req, "eth_getTransactionByHash", fmt.Sprintf(`["%s"]`, tx.Hash().Hex())))
		var res verify.RPCTransaction
		if err := json.Unmarshal(got, &res); err != nil {
			t.Fatal(err)
		}
		if res.Hash != tx.Hash() || res.From != sender || uint64(res.TransactionIndex) != uint64(i) || uint64(res.Type) != uint64(tx.Type()) {
			t.Fatalf("tx %d: result = %+v", i, res)
		}

		args := fmt.Sprintf(`["%s","0x%x"]`, env.Block.BlockHash.Hex(), i)
		mustSucceed(t, run(t, req, "eth_getTransactionByBlockHashAndIndex", args))
		args = fmt.Sprintf(`["0x%x","0x%x"]`, env.Block.Number, i)
		mustSucceed(t, run(t, req, "eth_getTransactionByBlockNumberAndIndex", args))

		args = fmt.Sprintf(`["0x%x","0x%x"]`, env.Block.Number, i+1)
		if kind := errKind(t, run(t, req, "eth_getTransactionByBlockNumberAndIndex", args)); kind != verify.KindPolicy {
			t.Fatalf("tx %d: wrong index kind = %v", i, kind)
		}
	}
}

func TestVerify_TransactionDataMismatch(t *testing.T) {
	tx := env.Txs[2]
	data, err := verify.EncodeTxData(env.Spec.ChainID, env.Block.Transactions[2], 2, env.Block.Number, env.Block.BlockHash, env.Block.BaseFee)
	if err != nil {
		t.Fatal(err)
	}
	// The effective gas price depends on the base fee; claim another one.
	wrong, err := verify.EncodeTxData(env.Spec.ChainID, env.Block.Transactions[2], 2, env.Block.Number, env.Block.BlockHash, env.Block.BaseFee.Clone().Lsh(env.Block.BaseFee, 1))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == string(wrong) {
		t.Fatal("gas price did not change the data")
	}
	req := env.TransactionRequest(2, verify.DataTx, wrong)
	c := run(t, req, "eth_getTransactionByHash", fmt.Sprintf(`["%s"]`, tx.Hash().Hex()))
	if kind := errKind(t, c); kind != verify.KindStructural || !strings.Contains(c.Err().Error(), "gas_price") {
		t.Fatalf("kind = %v, err = %v", kind, c.Err())
	}
}

func TestVerify_Receipt(t *testing.T) {
	sender := gethcrypto.PubkeyToAddress(env.Sender.PublicKey)
	for i, tx := range env.Txs {
		got := mustSucceed(t, run(t, env.ReceiptRequest(i), "eth_getTransactionReceipt", fmt.Sprintf(`["%s"]`, tx.Hash().Hex())))
		var res verify.RPCReceipt
		if err := json.Unmarshal(got, &res); err != nil {
			t.Fatal(err)
		}
		want := env.Receipts[i]
		if uint64(res.Status) != want.Status || uint64(res.CumulativeGasUsed) != want.CumulativeGasUsed || len(res.Logs) != len(want.Logs) {
			t.Fatalf("receipt %d = %+v", i, res)
		}
		if res.TransactionHash != tx.Hash() || res.From != sender {
			t.Fatalf("receipt %d: hash %s from %s", i, res.TransactionHash, res.From)
		}
		if tx.To() == nil {
			if want := gethcrypto.CreateAddress(sender, tx.Nonce()); res.ContractAddress == nil || *res.ContractAddress != want {
				t.Fatalf("receipt %d: contract address = %v, want %s", i, res.ContractAddress, want)
			}
		} else if res.ContractAddress != nil {
			t.Fatalf("receipt %d: unexpected contract address", i)
		}
	}

	// The receipt proof of one transaction under another's hash.
	c := run(t, env.ReceiptRequest(0), "eth_getTransactionReceipt", fmt.Sprintf(`["%s"]`, env.Txs[1].Hash().Hex()))
	if kind := errKind(t, c); kind != verify.KindPolicy {
		t.Fatalf("kind = %v", kind)
	}
}

func TestVerify_Logs(t *testing.T) {
	req := env.LogsRequest(0, 1, 2)
	tests := []struct {
		name   string
		filter string
		want   int
	}{
		{"all", `{}`, 3},
		{"address", fmt.Sprintf(`{"address":"%s"}`, fixture.ContractAddress.Hex()), 3},
		{"other address", `{"address":"0x0000000000000000000000000000000000000001"}`, 0},
		{"topic", fmt.Sprintf(`{"topics":["%s"]}`, fixture.TransferTopic.Hex()), 3},
		{"topic alternatives", fmt.Sprintf(`{"topics":[null,["%s","%s"]]}`, common.Hash{}.Hex(), common.BytesToHash(gethcrypto.PubkeyToAddress(env.Sender.PublicKey).Bytes()).Hex()), 3},
		{"block range", fmt.Sprintf(`{"fromBlock":"0x%x","toBlock":"0x%x"}`, env.Block.Number+1, env.Block.Number+5), 0},
		{"block hash", fmt.Sprintf(`{"blockHash":"%s"}`, env.Block.BlockHash.Hex()), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustSucceed(t, run(t, req, "eth_getLogs", "["+tt.filter+"]"))
			var logs []verify.RPCLog
			if err := json.Unmarshal(got, &logs); err != nil {
				t.Fatal(err)
			}
			if len(logs) != tt.want {
				t.Fatalf("%d logs, want %d", len(logs), tt.want)
			}
			for _, l := range logs {
				if l.BlockHash != env.Block.BlockHash || uint64(l.BlockNumber) != env.Block.Number {
					t.Fatalf("log = %+v", l)
				}
			}
		})
	}
}

func TestVerify_Header(t *testing.T) {
	req := env.HeaderRequest(verify.DataBlockNumber, ssz.MarshalUint(env.Block.Number, 8))
	got := mustSucceed(t, run(t, req, "eth_blockNumber", `[]`))
	if want := fmt.Sprintf(`"0x%x"`, env.Block.Number); string(got) != want {
		t.Fatalf("result = %s, want %s", got, want)
	}

	req = env.HeaderRequest(verify.DataHash, env.Block.BlockHash[:])
	got = mustSucceed(t, run(t, req, "colibri_blockHash", fmt.Sprintf(`["0x%x"]`, env.Block.Number)))
	if want := fmt.Sprintf("%q", env.Block.BlockHash.Hex()); string(got) != want {
		t.Fatalf("result = %s, want %s", got, want)
	}

	req = env.HeaderRequest(verify.DataBlockNumber, ssz.MarshalUint(env.Block.Number-1, 8))
	if kind := errKind(t, run(t, req, "eth_blockNumber", `[]`)); kind != verify.KindStructural {
		t.Fatalf("kind = %v", kind)
	}
}

func TestVerify_ProofTypeMismatch(t *testing.T) {
	c := run(t, env.HeaderRequest("", nil), "eth_getBalance", string(balanceArgs()))
	if kind := errKind(t, c); kind != verify.KindPolicy || !errors.Is(c.Err(), verify.ErrProofType) {
		t.Fatalf("kind = %v, err = %v", kind, c.Err())
	}
	req := env.AccountRequest(fixture.BalanceAddress, nil, verify.DataHash, make([]byte, 32))
	c = run(t, req, "eth_getBalance", string(balanceArgs()))
	if kind := errKind(t, c); kind != verify.KindPolicy || !errors.Is(c.Err(), verify.ErrDataType) {
		t.Fatalf("kind = %v, err = %v", kind, c.Err())
	}
}

// --- state machine ---

func TestVerify_PendingUpdates(t *testing.T) {
	prev := fixture.NewCommittee("mainnet/1324")
	db := storage.NewMemory(0)
	if err := synccommittee.NewStore(db).Put(env.Period()-1, prev.Pubkeys); err != nil {
		t.Fatal(err)
	}
	c := verify.New(env.BalanceRequest(), "eth_getBalance", balanceArgs(), verify.WithStorage(db), verify.WithBLS(blsVerifier))
	if status := c.Verify(); status != verify.StatusPending {
		t.Fatalf("status = %v, err = %v", status, c.Err())
	}
	var pending *verify.PendingError
	if !errors.As(c.Err(), &pending) || pending.FirstMissingPeriod != env.Period() || pending.LastMissingPeriod != env.Period() {
		t.Fatalf("err = %v", c.Err())
	}
	reqs := c.Requests()
	if len(reqs) != 1 {
		t.Fatalf("%d requests", len(reqs))
	}
	// The committee of Period() is carried by the update attested one
	// period earlier.
	want := fmt.Sprintf("eth/v1/beacon/light_client/updates?start_period=%d&count=1", env.Period()-1)
	if reqs[0].URL != want || reqs[0].Type != verify.TypeBeaconAPI || reqs[0].Encoding != "ssz" {
		t.Fatalf("request = %+v", reqs[0])
	}

	// Without a response the context keeps waiting.
	if status := c.Verify(); status != verify.StatusPending {
		t.Fatalf("status = %v", status)
	}

	attested := (env.Period()-1)*beacon.SlotsPerPeriod + 100
	update, err := fixture.Update(env.Spec, prev, env.Committee, attested, attested+1, 400)
	if err != nil {
		t.Fatal(err)
	}
	reqs[0].Response = synccommittee.EncodeUpdates(env.Spec, []ssz.Ob{update})
	if status := c.Verify(); status != verify.StatusSuccess {
		t.Fatalf("status = %v, err = %v", status, c.Err())
	}
	if len(c.Requests()) != 0 {
		t.Fatalf("requests left: %v", c.Requests())
	}
	if _, ok, _ := synccommittee.NewStore(db).Keys(env.Period()); !ok {
		t.Fatal("period not stored")
	}
}

func TestVerify_PendingUpdatesAhead(t *testing.T) {
	prev := fixture.NewCommittee("mainnet/1324")
	db := storage.NewMemory(0)
	if err := synccommittee.NewStore(db).Put(env.Period()-1, prev.Pubkeys); err != nil {
		t.Fatal(err)
	}
	reg := metrics.NewRegistry()
	c := verify.New(env.BalanceRequest(), "eth_getBalance", balanceArgs(),
		verify.WithStorage(db), verify.WithBLS(blsVerifier), verify.WithMetrics(reg))
	if status := c.Verify(); status != verify.StatusPending {
		t.Fatalf("status = %v, err = %v", status, c.Err())
	}
	url := c.Requests()[0].URL

	// An update attested in Period() is signed by the committee that is
	// still missing. The context keeps waiting and asks again.
	attested := env.Period()*beacon.SlotsPerPeriod + 100
	ahead, err := fixture.Update(env.Spec, env.Committee, fixture.NewCommittee("mainnet/1326"), attested, attested+1, 400)
	if err != nil {
		t.Fatal(err)
	}
	c.Requests()[0].Response = synccommittee.EncodeUpdates(env.Spec, []ssz.Ob{ahead})
	if status := c.Verify(); status != verify.StatusPending {
		t.Fatalf("status = %v, err = %v", status, c.Err())
	}
	var pending *verify.PendingError
	if !errors.As(c.Err(), &pending) || pending.FirstMissingPeriod != env.Period() {
		t.Fatalf("err = %v", c.Err())
	}
	reqs := c.Requests()
	if len(reqs) != 1 || reqs[0].URL != url || reqs[0].Response != nil {
		t.Fatalf("requests = %+v", reqs)
	}
	if got := reg.Counter("verify.data_requests").Value(); got != 2 {
		t.Fatalf("requests issued = %d, want 2", got)
	}

	attested = (env.Period()-1)*beacon.SlotsPerPeriod + 100
	update, err := fixture.Update(env.Spec, prev, env.Committee, attested, attested+1, 400)
	if err != nil {
		t.Fatal(err)
	}
	reqs[0].Response = synccommittee.EncodeUpdates(env.Spec, []ssz.Ob{update})
	c.Verify()
	mustSucceed(t, c)
}

func TestVerify_PendingBootstrap(t *testing.T) {
	slot := env.Period()*beacon.SlotsPerPeriod + 1
	b, root, err := fixture.Bootstrap(env.Spec, env.Committee, slot)
	if err != nil {
		t.Fatal(err)
	}
	db := storage.NewMemory(0)
	c := verify.New(env.BalanceRequest(), "eth_getBalance", balanceArgs(),
		verify.WithStorage(db), verify.WithBLS(blsVerifier), verify.WithCheckpoint(root))
	if status := c.Verify(); status != verify.StatusPending {
		t.Fatalf("status = %v, err = %v", status, c.Err())
	}
	reqs := c.Requests()
	if len(reqs) != 1 || reqs[0].URL != "eth/v1/beacon/light_client/bootstrap/"+root.Hex() {
		t.Fatalf("requests = %+v", reqs)
	}
	reqs[0].Response = b.Bytes
	if status := c.Verify(); status != verify.StatusSuccess {
		t.Fatalf("status = %v, err = %v", status, c.Err())
	}
	if got, ok, _ := synccommittee.NewStore(db).Checkpoint(); !ok || got != root {
		t.Fatalf("checkpoint = %s, %v", got, ok)
	}
}

func TestVerify_RequestFailed(t *testing.T) {
	c := verify.New(env.BalanceRequest(), "eth_getBalance", balanceArgs(),
		verify.WithStorage(storage.NewMemory(0)), verify.WithBLS(blsVerifier))
	if status := c.Verify(); status != verify.StatusPending {
		t.Fatalf("status = %v", status)
	}
	c.Requests()[0].Error = "503 service unavailable"
	c.Verify()
	if kind := errKind(t, c); kind != verify.KindPolicy {
		t.Fatalf("kind = %v", kind)
	}
}

func TestVerify_SyncData(t *testing.T) {
	prev := fixture.NewCommittee("mainnet/1324")
	db := storage.NewMemory(0)
	if err := synccommittee.NewStore(db).Put(env.Period()-1, prev.Pubkeys); err != nil {
		t.Fatal(err)
	}
	attested := (env.Period()-1)*beacon.SlotsPerPeriod + 100
	update, err := fixture.Update(env.Spec, prev, env.Committee, attested, attested+1, 400)
	if err != nil {
		t.Fatal(err)
	}
	p, err := env.State.AccountProof(fixture.BalanceAddress, env.BlockProof(verify.AccountFields))
	if err != nil {
		t.Fatal(err)
	}
	req := fixture.Request(verify.ProofAccount, p, "", nil, synccommittee.EncodeUpdates(env.Spec, []ssz.Ob{update}))
	c := verify.New(req, "eth_getBalance", balanceArgs(), verify.WithStorage(db), verify.WithBLS(blsVerifier))
	if status := c.Verify(); status != verify.StatusSuccess {
		t.Fatalf("status = %v, err = %v", status, c.Err())
	}

	// Present but empty sync data is malformed.
	req = fixture.Request(verify.ProofAccount, p, "", nil, []byte{})
	c = verify.New(req, "eth_getBalance", balanceArgs(), verify.WithStorage(db), verify.WithBLS(blsVerifier))
	c.Verify()
	if kind := errKind(t, c); kind != verify.KindStructural {
		t.Fatalf("kind = %v", kind)
	}
}

func TestVerify_TerminalStates(t *testing.T) {
	c := run(t, env.BalanceRequest(), "eth_getBalance", string(balanceArgs()))
	first := mustSucceed(t, c)
	if status := c.Verify(); status != verify.StatusSuccess || string(c.Result()) != string(first) {
		t.Fatalf("second Verify: %v %s", status, c.Result())
	}

	c.Reset()
	if c.Status() != verify.StatusPending || c.Result() != nil {
		t.Fatalf("after Reset: %v %s", c.Status(), c.Result())
	}
	if status := c.Verify(); status != verify.StatusSuccess {
		t.Fatalf("after Reset: status = %v, err = %v", status, c.Err())
	}

	c.Close()
	if status := c.Verify(); status != verify.StatusError || !errors.Is(c.Err(), verify.ErrTerminal) {
		t.Fatalf("after Close: %v %v", status, c.Err())
	}
}

func TestVerify_Unsupported(t *testing.T) {
	if kind := errKind(t, run(t, env.BalanceRequest(), "eth_getBalance", string(balanceArgs()), verify.WithChainID(5))); kind != verify.KindPolicy {
		t.Fatalf("chain kind = %v", kind)
	}
	c := run(t, env.BalanceRequest(), "eth_call", string(balanceArgs()))
	if kind := errKind(t, c); kind != verify.KindPolicy || !errors.Is(c.Err(), verify.ErrUnsupportedMethod) {
		t.Fatalf("method kind = %v, err = %v", kind, c.Err())
	}

	op := env.BalanceRequest()
	op[0] = verify.ChainTypeOP
	if kind := errKind(t, run(t, op, "eth_getBalance", string(balanceArgs()))); kind != verify.KindPolicy {
		t.Fatalf("op stack kind = %v", kind)
	}
	if kind := errKind(t, run(t, []byte{1, 2, 3}, "eth_getBalance", string(balanceArgs()))); kind != verify.KindStructural {
		t.Fatalf("garbage kind = %v", kind)
	}
}

func TestVerify_CompactErrors(t *testing.T) {
	c := run(t, env.BalanceRequest(), "eth_call", `[]`, verify.WithCompactErrors())
	if c.Status() != verify.StatusError || c.Err().Error() != "E" {
		t.Fatalf("err = %q", c.Err())
	}
	if got := c.Envelope(); got.Error != "E" || got.Result != nil {
		t.Fatalf("envelope = %+v", got)
	}
}

func TestVerifyFromBytes(t *testing.T) {
	res, err := verify.VerifyFromBytes(env.BalanceRequest(), "eth_getBalance", balanceArgs(),
		verify.WithStorage(env.Storage()), verify.WithBLS(blsVerifier))
	if err != nil || res.Status != verify.StatusSuccess {
		t.Fatalf("status = %v, err = %v", res.Status, err)
	}

	res, err = verify.VerifyFromBytes(env.BalanceRequest(), "eth_getBalance", balanceArgs(),
		verify.WithStorage(storage.NewMemory(0)), verify.WithBLS(blsVerifier))
	var pending *verify.PendingError
	if res.Status != verify.StatusPending || !errors.As(err, &pending) || len(res.Requests) != 1 {
		t.Fatalf("status = %v, err = %v, requests = %d", res.Status, err, len(res.Requests))
	}
}

func TestVerify_Metrics(t *testing.T) {
	reg := metrics.NewRegistry()
	run(t, env.BalanceRequest(), "eth_getBalance", string(balanceArgs()), verify.WithMetrics(reg))
	run(t, env.BalanceRequest(), "eth_call", `[]`, verify.WithMetrics(reg))

	got := map[string]int64{
		"success": reg.Counter("verify.success").Value(),
		"error":   reg.Counter("verify.error").Value(),
		"balance": reg.Counter("verify.method.eth_getBalance").Value(),
	}
	want := map[string]int64{"success": 1, "error": 1, "balance": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("metrics (-want +got):\n%s", diff)
	}
	if reg.Histogram("verify.duration_ms").Count() != 2 {
		t.Fatalf("duration count = %d", reg.Histogram("verify.duration_ms").Count())
	}
}
