package rpc

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/core/types"
)

// TierParam is one tier offering in a createChannel call.
type TierParam struct {
	Class uint8  `json:"class"`
	Price string `json:"price"`
}

// RPCTier is the JSON representation of a channel tier.
type RPCTier struct {
	Class       uint8  `json:"class"`
	ClassName   string `json:"className"`
	Price       string `json:"price"`
	Subscribers uint64 `json:"subscribers"`
}

// RPCChannel is the JSON representation of a channel.
type RPCChannel struct {
	ID            uint64    `json:"id"`
	InfoPointer   string    `json:"infoPointer"`
	Owner         string    `json:"owner"`
	Credential    string    `json:"credential"`
	Tiers         []RPCTier `json:"tiers"`
	CreatedAt     uint64    `json:"createdAt"`
	LastPublished uint64    `json:"lastPublished"`
	TopicIDs      []uint64  `json:"topicIds"`
}

func formatChannel(ch types.Channel) RPCChannel {
	tiers := make([]RPCTier, 0, len(ch.Tiers))
	for _, t := range ch.Tiers {
		tiers = append(tiers, RPCTier{
			Class:       uint8(t.Class),
			ClassName:   t.Class.String(),
			Price:       t.Price.Hex(),
			Subscribers: t.Subscribers,
		})
	}
	return RPCChannel{
		ID:            ch.ID,
		InfoPointer:   ch.InfoPointer,
		Owner:         ch.Owner.Hex(),
		Credential:    ch.Credential.Hex(),
		Tiers:         tiers,
		CreatedAt:     ch.CreatedAt,
		LastPublished: ch.LastPublished,
		TopicIDs:      ch.TopicIDs,
	}
}

func (api *SigAPI) createChannel(req *Request) *Response {
	var p struct {
		Tx          TxParams    `json:"tx"`
		InfoPointer string      `json:"infoPointer"`
		Tiers       []TierParam `json:"tiers"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	tx, err := api.txContext(p.Tx)
	if err != nil {
		return invalidParams(req, err)
	}
	specs := make([]core.TierSpec, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		price, err := uint256.FromHex(t.Price)
		if err != nil {
			return invalidParams(req, fmt.Errorf("bad tier price %q", t.Price))
		}
		specs = append(specs, core.TierSpec{Class: types.DurationClass(t.Class), Price: price})
	}

	id, err := api.registry.CreateChannel(tx, p.InfoPointer, specs)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, id)
}

func (api *SigAPI) getChannel(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	ch, err := api.registry.GetChannel(p.ChannelID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, formatChannel(ch))
}

func (api *SigAPI) channelCount(req *Request) *Response {
	return okResponse(req, api.registry.ChannelCount())
}

func (api *SigAPI) tierPrice(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
		Class     uint8  `json:"class"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	price, err := api.registry.TierPrice(p.ChannelID, types.DurationClass(p.Class))
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, price.Hex())
}

// --- Allowlist ---

// RPCAllowlistEntry is the JSON representation of a live allowlist entry.
type RPCAllowlistEntry struct {
	User   string `json:"user"`
	Weight uint64 `json:"weight"`
}

func formatAllowlist(entries []types.AllowlistEntry) []RPCAllowlistEntry {
	out := make([]RPCAllowlistEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, RPCAllowlistEntry{User: e.User.Hex(), Weight: e.Weight})
	}
	return out
}

func parseUsers(hexAddrs []string) ([]types.Address, error) {
	users := make([]types.Address, 0, len(hexAddrs))
	for _, h := range hexAddrs {
		a, err := parseAddress(h)
		if err != nil {
			return nil, err
		}
		users = append(users, a)
	}
	return users, nil
}

func (api *SigAPI) batchAddToAllowlist(req *Request) *Response {
	var p struct {
		Tx        TxParams `json:"tx"`
		ChannelID uint64   `json:"channelId"`
		Users     []string `json:"users"`
		Weights   []uint64 `json:"weights"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	tx, err := api.txContext(p.Tx)
	if err != nil {
		return invalidParams(req, err)
	}
	users, err := parseUsers(p.Users)
	if err != nil {
		return invalidParams(req, err)
	}
	if err := api.registry.BatchAddToAllowlist(tx, p.ChannelID, users, p.Weights); err != nil {
		return failure(req, err)
	}
	return okResponse(req, true)
}

func (api *SigAPI) batchRemoveFromAllowlist(req *Request) *Response {
	var p struct {
		Tx        TxParams `json:"tx"`
		ChannelID uint64   `json:"channelId"`
		Users     []string `json:"users"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	tx, err := api.txContext(p.Tx)
	if err != nil {
		return invalidParams(req, err)
	}
	users, err := parseUsers(p.Users)
	if err != nil {
		return invalidParams(req, err)
	}
	if err := api.registry.BatchRemoveFromAllowlist(tx, p.ChannelID, users); err != nil {
		return failure(req, err)
	}
	return okResponse(req, true)
}

func (api *SigAPI) isInAllowlist(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
		User      string `json:"user"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	user, err := parseAddress(p.User)
	if err != nil {
		return invalidParams(req, err)
	}
	ok, err := api.registry.IsInAllowlist(p.ChannelID, user)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, ok)
}

func (api *SigAPI) allowlistWeight(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
		User      string `json:"user"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	user, err := parseAddress(p.User)
	if err != nil {
		return invalidParams(req, err)
	}
	w, err := api.registry.AllowlistWeight(p.ChannelID, user)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, w)
}

func (api *SigAPI) getAllowlist(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	entries, err := api.registry.GetAllowlist(p.ChannelID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, formatAllowlist(entries))
}

func (api *SigAPI) getAllowlistPaginated(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
		Offset    uint64 `json:"offset"`
		Limit     uint64 `json:"limit"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	entries, total, err := api.registry.GetAllowlistPaginated(p.ChannelID, p.Offset, p.Limit)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, map[string]any{
		"entries": formatAllowlist(entries),
		"total":   total,
	})
}

func (api *SigAPI) getAllowlistCount(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	n, err := api.registry.GetAllowlistCount(p.ChannelID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, n)
}
