package metrics

// Pre-defined metrics for the sigstream node. All metrics live in
// DefaultRegistry so they are globally accessible without threading a
// registry through every constructor.

var (
	// ---- Registry metrics ----

	// ChannelsCreated counts channels created.
	ChannelsCreated = DefaultRegistry.Counter("registry.channels_created")
	// TopicsCreated counts topics created.
	TopicsCreated = DefaultRegistry.Counter("registry.topics_created")
	// SignalsSubmitted counts accepted signal submissions.
	SignalsSubmitted = DefaultRegistry.Counter("registry.signals_submitted")
	// SubscriptionsMinted counts subscription credentials minted.
	SubscriptionsMinted = DefaultRegistry.Counter("registry.subscriptions_minted")

	// ---- RPC metrics ----

	// RPCRequests counts incoming JSON-RPC requests.
	RPCRequests = DefaultRegistry.Counter("rpc.requests")
	// RPCErrors counts JSON-RPC requests that returned an error.
	RPCErrors = DefaultRegistry.Counter("rpc.errors")
	// RPCLatency records JSON-RPC request latency in milliseconds.
	RPCLatency = DefaultRegistry.Histogram("rpc.latency_ms")

	// ---- Gateway metrics ----

	// DecryptRequests counts accepted decryption requests.
	DecryptRequests = DefaultRegistry.Counter("gateway.decrypt_requests")
	// SharesSubmitted counts accepted committee shares.
	SharesSubmitted = DefaultRegistry.Counter("gateway.shares_submitted")
	// ResultsReleased counts plaintext results released.
	ResultsReleased = DefaultRegistry.Counter("gateway.results_released")
	// PendingRequests tracks decryption requests awaiting shares.
	PendingRequests = DefaultRegistry.Gauge("gateway.pending_requests")
)
