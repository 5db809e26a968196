package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/fhe"
)

var (
	registryAddr = types.HexToAddress("0x5150")
	ownerHex     = "0x0000000000000000000000000000000000000001"
	userHex      = "0x00000000000000000000000000000000000000aa"
)

const t0 = uint64(1_700_000_000)

func newTestAPI(t *testing.T) (*SigAPI, *fhe.SimEngine) {
	t.Helper()
	engine := fhe.NewSimEngine()
	ledger := core.NewLedger()
	for _, h := range []string{ownerHex, userHex} {
		ledger.Deposit(types.HexToAddress(h), uint256.NewInt(1_000_000))
	}
	reg := core.NewRegistry(registryAddr, engine, ledger)
	api := NewSigAPI(reg, nil, nil)
	api.nowFunc = func() uint64 { return t0 }
	return api, engine
}

// call dispatches one request with a single object parameter.
func call(t *testing.T, api *SigAPI, method string, params any) *Response {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	req := &Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  []json.RawMessage{raw},
		ID:      json.RawMessage(`1`),
	}
	return api.HandleRequest(req)
}

func mustOK(t *testing.T, resp *Response) any {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result
}

func createChannelParams() map[string]any {
	return map[string]any{
		"tx":          TxParams{Caller: ownerHex, Time: t0},
		"infoPointer": "cid-chan",
		"tiers":       []TierParam{{Class: 1, Price: "0x64"}},
	}
}

func TestCreateAndGetChannel(t *testing.T) {
	api, _ := newTestAPI(t)

	id := mustOK(t, call(t, api, "sig_createChannel", createChannelParams()))
	if id != uint64(1) {
		t.Fatalf("channel id %v, want 1", id)
	}

	got := mustOK(t, call(t, api, "sig_getChannel", map[string]any{"channelId": 1})).(RPCChannel)
	if got.Owner != ownerHex || len(got.Tiers) != 1 || got.Tiers[0].Price != "0x64" {
		t.Fatalf("channel: %+v", got)
	}
	if got.Tiers[0].ClassName != "month" {
		t.Fatalf("tier class name %q", got.Tiers[0].ClassName)
	}

	if n := mustOK(t, call(t, api, "sig_channelCount", map[string]any{})); n != uint64(1) {
		t.Fatalf("count %v, want 1", n)
	}
}

func TestErrorMapping(t *testing.T) {
	api, _ := newTestAPI(t)

	tests := []struct {
		name     string
		method   string
		params   any
		wantCode int
	}{
		{"unknown channel", "sig_getChannel", map[string]any{"channelId": 9}, ErrCodeNotFound},
		{"unknown method", "sig_bogus", map[string]any{}, ErrCodeMethodNotFound},
		{"missing caller", "sig_createChannel", map[string]any{"tiers": []TierParam{}}, ErrCodeInvalidParams},
		{"gateway unavailable", "sig_decryptionResult", map[string]any{"requestId": "0x01"}, ErrCodeUnavailable},
		{"metadata unavailable", "sig_resolveMetadata", map[string]any{"pointer": "cid"}, ErrCodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, api, tt.method, tt.params)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("response %+v, want code %d", resp, tt.wantCode)
			}
		})
	}
}

func TestSignalFlow(t *testing.T) {
	api, _ := newTestAPI(t)

	mustOK(t, call(t, api, "sig_createChannel", createChannelParams()))
	topicID := mustOK(t, call(t, api, "sig_createTopic", map[string]any{
		"tx":           TxParams{Caller: ownerHex, Time: t0},
		"channelId":    1,
		"infoPointer":  "cid-topic",
		"endDate":      t0 + 86400,
		"minValue":     10,
		"maxValue":     90,
		"defaultValue": 50,
	}))
	if topicID != uint64(1) {
		t.Fatalf("topic id %v", topicID)
	}

	mustOK(t, call(t, api, "sig_batchAddToAllowlist", map[string]any{
		"tx":        TxParams{Caller: ownerHex, Time: t0},
		"channelId": 1,
		"users":     []string{userHex},
		"weights":   []uint64{100},
	}))

	var salt [24]byte
	user := types.HexToAddress(userHex)
	in := fhe.SimEncrypt(75, salt, registryAddr, user)
	sigID := mustOK(t, call(t, api, "sig_submitSignal", map[string]any{
		"tx":         TxParams{Caller: userHex, Time: t0 + 10},
		"topicId":    1,
		"ciphertext": "0x" + hex.EncodeToString(in.Ciphertext),
		"proof":      "0x" + hex.EncodeToString(in.Proof),
	}))
	if sigID != uint64(1) {
		t.Fatalf("signal id %v", sigID)
	}

	top := mustOK(t, call(t, api, "sig_getTopic", map[string]any{"topicId": 1})).(RPCTopic)
	if top.SubmissionCount != 1 || top.TotalWeight != 100 {
		t.Fatalf("topic: %+v", top)
	}

	// Duplicate submission maps to the state-conflict band.
	resp := call(t, api, "sig_submitSignal", map[string]any{
		"tx":         TxParams{Caller: userHex, Time: t0 + 11},
		"topicId":    1,
		"ciphertext": "0x" + hex.EncodeToString(in.Ciphertext),
		"proof":      "0x" + hex.EncodeToString(in.Proof),
	})
	if resp.Error == nil || resp.Error.Code != ErrCodeStateConflict {
		t.Fatalf("duplicate submit: %+v", resp)
	}
}

func TestSubscribeOverHTTP(t *testing.T) {
	api, _ := newTestAPI(t)
	mustOK(t, call(t, api, "sig_createChannel", createChannelParams()))

	srv := &Server{api: api, mux: http.NewServeMux()}
	srv.mux.HandleFunc("/", srv.handleRPC)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := `{"jsonrpc":"2.0","id":7,"method":"sig_subscribe","params":[{"tx":{"caller":"` +
		userHex + `","value":"0x64","time":1700000000},"channelId":1,"class":1}]}`
	resp, err := http.Post(ts.URL, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Error != nil {
		t.Fatalf("rpc error: %+v", out.Error)
	}
	if out.Result != float64(1) {
		t.Fatalf("token id %v, want 1", out.Result)
	}

	// Wrong payment surfaces in the payment band.
	bad := `{"jsonrpc":"2.0","id":8,"method":"sig_subscribe","params":[{"tx":{"caller":"` +
		userHex + `","value":"0x63","time":1700000000},"channelId":1,"class":1}]}`
	resp2, err := http.Post(ts.URL, "application/json", bytes.NewBufferString(bad))
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var out2 Response
	if err := json.NewDecoder(resp2.Body).Decode(&out2); err != nil {
		t.Fatal(err)
	}
	if out2.Error == nil || out2.Error.Code != ErrCodePayment {
		t.Fatalf("wrong payment: %+v", out2)
	}
}

func TestBatchRequests(t *testing.T) {
	api, _ := newTestAPI(t)
	mustOK(t, call(t, api, "sig_createChannel", createChannelParams()))

	srv := &Server{api: api, mux: http.NewServeMux()}
	srv.mux.HandleFunc("/", srv.handleRPC)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := `[
		{"jsonrpc":"2.0","id":1,"method":"sig_channelCount","params":[{}]},
		{"jsonrpc":"2.0","id":2,"method":"sig_getChannel","params":[{"channelId":9}]}
	]`
	resp, err := http.Post(ts.URL, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out []Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("batch responses %d, want 2", len(out))
	}
	if out[0].Error != nil || out[0].Result != float64(1) {
		t.Fatalf("first response: %+v", out[0])
	}
	if out[1].Error == nil || out[1].Error.Code != ErrCodeNotFound {
		t.Fatalf("second response: %+v", out[1])
	}
}

func TestMetricsSnapshot(t *testing.T) {
	api, _ := newTestAPI(t)
	mustOK(t, call(t, api, "sig_createChannel", createChannelParams()))

	resp := call(t, api, "sig_metrics", map[string]any{})
	snap, ok := mustOK(t, resp).(map[string]interface{})
	if !ok {
		t.Fatalf("snapshot has type %T", resp.Result)
	}
	reqs, ok := snap["rpc.requests"].(int64)
	if !ok || reqs < 2 {
		t.Errorf("rpc.requests = %v, want at least 2", snap["rpc.requests"])
	}
	if _, ok := snap["registry.channels_created"].(int64); !ok {
		t.Errorf("registry.channels_created missing: %v", snap["registry.channels_created"])
	}
}
