package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/fhe"
	"github.com/sigstream/sigstream/gateway"
)

var (
	errNoGateway  = errors.New("rpc: decryption gateway not configured")
	errNoMetadata = errors.New("rpc: metadata resolution not configured")
)

// GrantParams is the wire form of a decryption grant.
type GrantParams struct {
	Grantee   string   `json:"grantee"`
	Handles   []string `json:"handles"`
	IssuedAt  uint64   `json:"issuedAt"`
	ExpiresAt uint64   `json:"expiresAt"`
	Signature string   `json:"signature"`
}

func parseGrant(p GrantParams) (fhe.DecryptionGrant, error) {
	grantee, err := parseAddress(p.Grantee)
	if err != nil {
		return fhe.DecryptionGrant{}, err
	}
	sig, err := parseBytes(p.Signature)
	if err != nil {
		return fhe.DecryptionGrant{}, err
	}
	handles := make([]types.Hash, 0, len(p.Handles))
	for _, h := range p.Handles {
		handles = append(handles, types.HexToHash(h))
	}
	return fhe.DecryptionGrant{
		Grantee:   grantee,
		Handles:   handles,
		IssuedAt:  p.IssuedAt,
		ExpiresAt: p.ExpiresAt,
		Signature: sig,
	}, nil
}

func (api *SigAPI) requestDecryption(req *Request) *Response {
	if api.gateway == nil {
		return errorResponse(req, ErrCodeUnavailable, errNoGateway.Error())
	}
	var p struct {
		TopicID uint64      `json:"topicId"`
		Grant   GrantParams `json:"grant"`
		Now     uint64      `json:"now,omitempty"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	grant, err := parseGrant(p.Grant)
	if err != nil {
		return invalidParams(req, err)
	}
	now := p.Now
	if now == 0 {
		now = api.nowFunc()
	}
	id, err := api.gateway.RequestDecryption(now, p.TopicID, grant)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, id.Hex())
}

func (api *SigAPI) submitShare(req *Request) *Response {
	if api.gateway == nil {
		return errorResponse(req, ErrCodeUnavailable, errNoGateway.Error())
	}
	var p struct {
		RequestID   string `json:"requestId"`
		MemberIndex int    `json:"memberIndex"`
		Share       string `json:"share"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	share, err := parseBytes(p.Share)
	if err != nil {
		return invalidParams(req, err)
	}
	ready, err := api.gateway.SubmitShare(types.HexToHash(p.RequestID), gateway.Share{
		MemberIndex: p.MemberIndex,
		ShareBytes:  share,
	})
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, map[string]bool{"ready": ready})
}

func (api *SigAPI) decryptionResult(req *Request) *Response {
	if api.gateway == nil {
		return errorResponse(req, ErrCodeUnavailable, errNoGateway.Error())
	}
	var p struct {
		RequestID string `json:"requestId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	value, err := api.gateway.Result(types.HexToHash(p.RequestID))
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, value)
}

func (api *SigAPI) resolveMetadata(req *Request) *Response {
	if api.meta == nil {
		return errorResponse(req, ErrCodeUnavailable, errNoMetadata.Error())
	}
	var p struct {
		Pointer string `json:"pointer"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	doc, err := api.meta.Fetch(ctx, p.Pointer)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, doc)
}
