package rpc

import (
	"github.com/sigstream/sigstream/core/types"
)

// RPCSubscription is the JSON representation of a credential token.
type RPCSubscription struct {
	TokenID    uint64 `json:"tokenId"`
	ChannelID  uint64 `json:"channelId"`
	Subscriber string `json:"subscriber"`
	Tier       uint8  `json:"tier"`
	TierName   string `json:"tierName"`
	MintedAt   uint64 `json:"mintedAt"`
	ExpiresAt  uint64 `json:"expiresAt"`
}

func formatSubscription(s types.Subscription) RPCSubscription {
	return RPCSubscription{
		TokenID:    s.TokenID,
		ChannelID:  s.ChannelID,
		Subscriber: s.Subscriber.Hex(),
		Tier:       uint8(s.Tier),
		TierName:   s.Tier.String(),
		MintedAt:   s.MintedAt,
		ExpiresAt:  s.ExpiresAt,
	}
}

func (api *SigAPI) subscribe(req *Request) *Response {
	var p struct {
		Tx        TxParams `json:"tx"`
		ChannelID uint64   `json:"channelId"`
		Class     uint8    `json:"class"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	tx, err := api.txContext(p.Tx)
	if err != nil {
		return invalidParams(req, err)
	}
	tokenID, err := api.registry.Subscribe(tx, p.ChannelID, types.DurationClass(p.Class))
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, tokenID)
}

func (api *SigAPI) isSubscriptionValid(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
		TokenID   uint64 `json:"tokenId"`
		Now       uint64 `json:"now,omitempty"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	now := p.Now
	if now == 0 {
		now = api.nowFunc()
	}
	ok, err := api.registry.IsSubscriptionValid(p.ChannelID, p.TokenID, now)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, ok)
}

func (api *SigAPI) getSubscription(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
		TokenID   uint64 `json:"tokenId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	sub, err := api.registry.GetSubscription(p.ChannelID, p.TokenID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, formatSubscription(sub))
}

func (api *SigAPI) getUserValidSubscriptions(req *Request) *Response {
	var p struct {
		User string `json:"user"`
		Now  uint64 `json:"now,omitempty"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	user, err := parseAddress(p.User)
	if err != nil {
		return invalidParams(req, err)
	}
	now := p.Now
	if now == 0 {
		now = api.nowFunc()
	}
	subs := api.registry.GetUserValidSubscriptions(user, now)
	out := make([]map[string]uint64, 0, len(subs))
	for _, s := range subs {
		out = append(out, map[string]uint64{"channelId": s.ChannelID, "tokenId": s.TokenID})
	}
	return okResponse(req, out)
}

func (api *SigAPI) accessTopicResult(req *Request) *Response {
	var p struct {
		Tx        TxParams `json:"tx"`
		ChannelID uint64   `json:"channelId"`
		TopicID   uint64   `json:"topicId"`
		TokenID   uint64   `json:"tokenId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	tx, err := api.txContext(p.Tx)
	if err != nil {
		return invalidParams(req, err)
	}
	if err := api.registry.AccessTopicResult(tx, p.ChannelID, p.TopicID, p.TokenID); err != nil {
		return failure(req, err)
	}
	return okResponse(req, true)
}

func (api *SigAPI) resetTopicAccess(req *Request) *Response {
	var p struct {
		Tx      TxParams `json:"tx"`
		TopicID uint64   `json:"topicId"`
		User    string   `json:"user"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	tx, err := api.txContext(p.Tx)
	if err != nil {
		return invalidParams(req, err)
	}
	user, err := parseAddress(p.User)
	if err != nil {
		return invalidParams(req, err)
	}
	if err := api.registry.ResetTopicAccess(tx, p.TopicID, user); err != nil {
		return failure(req, err)
	}
	return okResponse(req, true)
}

func (api *SigAPI) hasAccessedTopic(req *Request) *Response {
	var p struct {
		TopicID uint64 `json:"topicId"`
		User    string `json:"user"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	user, err := parseAddress(p.User)
	if err != nil {
		return invalidParams(req, err)
	}
	ok, err := api.registry.HasAccessedTopic(p.TopicID, user)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, ok)
}
