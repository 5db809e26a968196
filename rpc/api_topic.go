package rpc

import (
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/fhe"
)

// RPCTopic is the JSON representation of a topic. Encrypted aggregates
// surface as opaque handles.
type RPCTopic struct {
	ID              uint64   `json:"id"`
	ChannelID       uint64   `json:"channelId"`
	InfoPointer     string   `json:"infoPointer"`
	Creator         string   `json:"creator"`
	CreatedAt       uint64   `json:"createdAt"`
	EndDate         uint64   `json:"endDate"`
	MinValue        uint8    `json:"minValue"`
	MaxValue        uint8    `json:"maxValue"`
	DefaultValue    uint8    `json:"defaultValue"`
	EncSum          string   `json:"encSum"`
	EncAverage      string   `json:"encAverage"`
	TotalWeight     uint64   `json:"totalWeight"`
	SubmissionCount uint64   `json:"submissionCount"`
	SignalIDs       []uint64 `json:"signalIds"`
}

func formatTopic(t types.Topic) RPCTopic {
	return RPCTopic{
		ID:              t.ID,
		ChannelID:       t.ChannelID,
		InfoPointer:     t.InfoPointer,
		Creator:         t.Creator.Hex(),
		CreatedAt:       t.CreatedAt,
		EndDate:         t.EndDate,
		MinValue:        t.MinValue,
		MaxValue:        t.MaxValue,
		DefaultValue:    t.DefaultValue,
		EncSum:          t.EncSum.Hex(),
		EncAverage:      t.EncAverage.Hex(),
		TotalWeight:     t.TotalWeight,
		SubmissionCount: t.SubmissionCount,
		SignalIDs:       t.SignalIDs,
	}
}

// RPCSignal is the JSON representation of a signal record.
type RPCSignal struct {
	ID          uint64 `json:"id"`
	ChannelID   uint64 `json:"channelId"`
	TopicID     uint64 `json:"topicId"`
	Submitter   string `json:"submitter"`
	Value       string `json:"value"` // opaque ciphertext handle
	SubmittedAt uint64 `json:"submittedAt"`
}

func formatSignal(s types.Signal) RPCSignal {
	return RPCSignal{
		ID:          s.ID,
		ChannelID:   s.ChannelID,
		TopicID:     s.TopicID,
		Submitter:   s.Submitter.Hex(),
		Value:       s.Value.Hex(),
		SubmittedAt: s.SubmittedAt,
	}
}

func (api *SigAPI) createTopic(req *Request) *Response {
	var p struct {
		Tx           TxParams `json:"tx"`
		ChannelID    uint64   `json:"channelId"`
		InfoPointer  string   `json:"infoPointer"`
		EndDate      uint64   `json:"endDate"`
		MinValue     uint8    `json:"minValue"`
		MaxValue     uint8    `json:"maxValue"`
		DefaultValue uint8    `json:"defaultValue"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	tx, err := api.txContext(p.Tx)
	if err != nil {
		return invalidParams(req, err)
	}
	id, err := api.registry.CreateTopic(tx, p.ChannelID, p.InfoPointer, p.EndDate, p.MinValue, p.MaxValue, p.DefaultValue)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, id)
}

func (api *SigAPI) getTopic(req *Request) *Response {
	var p struct {
		TopicID uint64 `json:"topicId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	top, err := api.registry.GetTopic(p.TopicID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, formatTopic(top))
}

func (api *SigAPI) getChannelTopics(req *Request) *Response {
	var p struct {
		ChannelID uint64 `json:"channelId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	ids, err := api.registry.GetChannelTopics(p.ChannelID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, ids)
}

func (api *SigAPI) getTopicsByIDs(req *Request) *Response {
	var p struct {
		IDs []uint64 `json:"ids"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	topics, err := api.registry.GetTopicsByIDs(p.IDs)
	if err != nil {
		return failure(req, err)
	}
	out := make([]RPCTopic, 0, len(topics))
	for _, t := range topics {
		out = append(out, formatTopic(t))
	}
	return okResponse(req, out)
}

func (api *SigAPI) submitSignal(req *Request) *Response {
	var p struct {
		Tx         TxParams `json:"tx"`
		TopicID    uint64   `json:"topicId"`
		Ciphertext string   `json:"ciphertext"`
		Proof      string   `json:"proof"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	tx, err := api.txContext(p.Tx)
	if err != nil {
		return invalidParams(req, err)
	}
	ct, err := parseBytes(p.Ciphertext)
	if err != nil {
		return invalidParams(req, err)
	}
	proof, err := parseBytes(p.Proof)
	if err != nil {
		return invalidParams(req, err)
	}

	id, err := api.registry.SubmitSignal(tx, p.TopicID, fhe.EncryptedInput{Ciphertext: ct, Proof: proof})
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, id)
}

func (api *SigAPI) getSignal(req *Request) *Response {
	var p struct {
		SignalID uint64 `json:"signalId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	sig, err := api.registry.GetSignal(p.SignalID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, formatSignal(sig))
}

func (api *SigAPI) getTopicSignals(req *Request) *Response {
	var p struct {
		TopicID uint64 `json:"topicId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	ids, err := api.registry.GetTopicSignals(p.TopicID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, ids)
}

func (api *SigAPI) getTopicSignalCount(req *Request) *Response {
	var p struct {
		TopicID uint64 `json:"topicId"`
	}
	if err := unmarshalParams(req, &p); err != nil {
		return invalidParams(req, err)
	}
	n, err := api.registry.GetTopicSignalCount(p.TopicID)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, n)
}

func (api *SigAPI) hasSubmitted(req *Request) *Response {
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
	ok, err := api.registry.HasSubmitted(p.TopicID, user)
	if err != nil {
		return failure(req, err)
	}
	return okResponse(req, ok)
}
