package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/gateway"
	"github.com/sigstream/sigstream/metadata"
	"github.com/sigstream/sigstream/metrics"
)

// SigAPI implements the sig_ namespace JSON-RPC methods.
type SigAPI struct {
	registry *core.Registry
	gateway  *gateway.Gateway // nil when no committee is configured
	meta     *metadata.Client // nil when metadata resolution is disabled

	nowFunc func() uint64 // injectable clock for testing
}

// NewSigAPI creates the API service. gateway and meta may be nil; their
// methods then answer with ErrCodeUnavailable.
func NewSigAPI(registry *core.Registry, gw *gateway.Gateway, meta *metadata.Client) *SigAPI {
	return &SigAPI{
		registry: registry,
		gateway:  gw,
		meta:     meta,
		nowFunc:  func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// HandleRequest dispatches a JSON-RPC request to the appropriate method.
func (api *SigAPI) HandleRequest(req *Request) *Response {
	metrics.RPCRequests.Inc()
	timer := metrics.NewTimer(metrics.RPCLatency)
	resp := api.dispatch(req)
	timer.Stop()
	if resp != nil && resp.Error != nil {
		metrics.RPCErrors.Inc()
	}
	return resp
}

func (api *SigAPI) dispatch(req *Request) *Response {
	switch req.Method {
	case "sig_createChannel":
		return api.createChannel(req)
	case "sig_getChannel":
		return api.getChannel(req)
	case "sig_channelCount":
		return api.channelCount(req)
	case "sig_tierPrice":
		return api.tierPrice(req)
	case "sig_batchAddToAllowlist":
		return api.batchAddToAllowlist(req)
	case "sig_batchRemoveFromAllowlist":
		return api.batchRemoveFromAllowlist(req)
	case "sig_isInAllowlist":
		return api.isInAllowlist(req)
	case "sig_allowlistWeight":
		return api.allowlistWeight(req)
	case "sig_getAllowlist":
		return api.getAllowlist(req)
	case "sig_getAllowlistPaginated":
		return api.getAllowlistPaginated(req)
	case "sig_getAllowlistCount":
		return api.getAllowlistCount(req)
	case "sig_createTopic":
		return api.createTopic(req)
	case "sig_getTopic":
		return api.getTopic(req)
	case "sig_getChannelTopics":
		return api.getChannelTopics(req)
	case "sig_getTopicsByIds":
		return api.getTopicsByIDs(req)
	case "sig_submitSignal":
		return api.submitSignal(req)
	case "sig_getSignal":
		return api.getSignal(req)
	case "sig_getTopicSignals":
		return api.getTopicSignals(req)
	case "sig_getTopicSignalCount":
		return api.getTopicSignalCount(req)
	case "sig_hasSubmitted":
		return api.hasSubmitted(req)
	case "sig_subscribe":
		return api.subscribe(req)
	case "sig_isSubscriptionValid":
		return api.isSubscriptionValid(req)
	case "sig_getSubscription":
		return api.getSubscription(req)
	case "sig_getUserValidSubscriptions":
		return api.getUserValidSubscriptions(req)
	case "sig_accessTopicResult":
		return api.accessTopicResult(req)
	case "sig_resetTopicAccess":
		return api.resetTopicAccess(req)
	case "sig_hasAccessedTopic":
		return api.hasAccessedTopic(req)
	case "sig_requestDecryption":
		return api.requestDecryption(req)
	case "sig_submitShare":
		return api.submitShare(req)
	case "sig_decryptionResult":
		return api.decryptionResult(req)
	case "sig_resolveMetadata":
		return api.resolveMetadata(req)
	case "sig_metrics":
		return okResponse(req, metrics.DefaultRegistry.Snapshot())
	default:
		return errorResponse(req, ErrCodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

// --- Request plumbing ---

// TxParams identifies the caller of a state-changing method. Time zero
// means "server time"; Value is a hex amount of attached payment.
type TxParams struct {
	Caller string `json:"caller"`
	Value  string `json:"value,omitempty"`
	Time   uint64 `json:"time,omitempty"`
}

func (api *SigAPI) txContext(p TxParams) (core.TxContext, error) {
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return core.TxContext{}, err
	}
	tx := core.TxContext{Caller: caller, Time: p.Time}
	if tx.Time == 0 {
		tx.Time = api.nowFunc()
	}
	if p.Value != "" {
		v, err := uint256.FromHex(p.Value)
		if err != nil {
			return core.TxContext{}, fmt.Errorf("bad value %q", p.Value)
		}
		tx.Value = v
	}
	return tx, nil
}

func parseAddress(s string) (types.Address, error) {
	a := types.HexToAddress(s)
	if a.IsZero() && s != "" && !isZeroHex(s) {
		return types.Address{}, fmt.Errorf("bad address %q", s)
	}
	if s == "" {
		return types.Address{}, fmt.Errorf("missing address")
	}
	return a, nil
}

func isZeroHex(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	for _, c := range s {
		if c != '0' {
			return false
		}
	}
	return len(s) > 0
}

func parseBytes(s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("bad hex %q", s)
	}
	return raw, nil
}

// unmarshalParams decodes the single object parameter of a request.
func unmarshalParams(req *Request, v any) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected 1 parameter object, got %d", len(req.Params))
	}
	return json.Unmarshal(req.Params[0], v)
}

func okResponse(req *Request, result any) *Response {
	return &Response{JSONRPC: "2.0", Result: result, ID: req.ID}
}

func errorResponse(req *Request, code int, message string) *Response {
	return &Response{JSONRPC: "2.0", Error: &RPCError{Code: code, Message: message}, ID: req.ID}
}

// failure wraps a named error into its response with the mapped code.
func failure(req *Request, err error) *Response {
	return errorResponse(req, errCode(err), err.Error())
}

func invalidParams(req *Request, err error) *Response {
	return errorResponse(req, ErrCodeInvalidParams, err.Error())
}
