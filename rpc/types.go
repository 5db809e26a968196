// Package rpc provides JSON-RPC 2.0 types and the sig_ namespace API for
// the sigstream registry node.
package rpc

import (
	"encoding/json"
	"errors"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/fhe"
	"github.com/sigstream/sigstream/gateway"
	"github.com/sigstream/sigstream/metadata"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Protocol error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Application error codes. Registry and gateway failures map onto these
// bands so clients can branch without string matching.
const (
	ErrCodeNotFound      = -32001 // channel, topic, signal, tier, token
	ErrCodeUnauthorized  = -32002 // ownership and capability failures
	ErrCodeInvalidInput  = -32003 // validation and proof failures
	ErrCodeStateConflict = -32004 // duplicate submissions, replays, expiry
	ErrCodePayment       = -32005 // payment and balance failures
	ErrCodeUnavailable   = -32010 // subsystem not configured
)

// errCode maps a named error to its application error code.
func errCode(err error) int {
	switch {
	case errors.Is(err, core.ErrChannelNotFound),
		errors.Is(err, core.ErrTopicNotFound),
		errors.Is(err, core.ErrSignalNotFound),
		errors.Is(err, core.ErrTierNotFound),
		errors.Is(err, gateway.ErrUnknownRequest),
		errors.Is(err, metadata.ErrNotFound):
		return ErrCodeNotFound

	case errors.Is(err, core.ErrNotChannelOwner),
		errors.Is(err, core.ErrNotInAllowlist),
		errors.Is(err, core.ErrNotSubscriptionOwner),
		errors.Is(err, gateway.ErrNotEntitled),
		errors.Is(err, fhe.ErrGrantExpired),
		errors.Is(err, fhe.ErrGrantNotYetValid),
		errors.Is(err, fhe.ErrGrantSignature):
		return ErrCodeUnauthorized

	case errors.Is(err, core.ErrInvalidEndDate),
		errors.Is(err, core.ErrArrayLengthMismatch),
		errors.Is(err, core.ErrEmptyArray),
		errors.Is(err, core.ErrArrayTooLarge),
		errors.Is(err, core.ErrZeroWeight),
		errors.Is(err, core.ErrInvalidValueRange),
		errors.Is(err, core.ErrInvalidTier),
		errors.Is(err, core.ErrTopicChannelMismatch),
		errors.Is(err, fhe.ErrInvalidProof),
		errors.Is(err, fhe.ErrMalformedInput),
		errors.Is(err, gateway.ErrHandleMismatch),
		errors.Is(err, gateway.ErrShareRejected),
		errors.Is(err, gateway.ErrInvalidShareData),
		errors.Is(err, gateway.ErrUnknownMember):
		return ErrCodeInvalidInput

	case errors.Is(err, core.ErrTopicExpired),
		errors.Is(err, core.ErrAlreadySubmitted),
		errors.Is(err, core.ErrAlreadyAccessed),
		errors.Is(err, gateway.ErrShareAlreadyAdded),
		errors.Is(err, gateway.ErrThresholdNotMet):
		return ErrCodeStateConflict

	case errors.Is(err, core.ErrIncorrectPayment),
		errors.Is(err, core.ErrInsufficientFunds):
		return ErrCodePayment

	default:
		return ErrCodeInternal
	}
}
