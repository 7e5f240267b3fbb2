package pubsub

// Topics used to route traffic between the WebSocket bridge, the message
// router and the fanout engine.
const (
	// TopicIngress carries raw client frames from the bridge to the router.
	TopicIngress = "ws.ingress"

	// TopicEgress carries encoded events from the fanout engine to the
	// bridge. A single topic keeps all egress on one FIFO stream, so every
	// recipient sees the events produced by one handler call in the order
	// they were generated. The MetaScope metadata key selects the addressing
	// mode: direct delivery to the connection named by MetaConnectionID, or
	// a broadcast to every connection minus the one named by MetaExcludeID.
	TopicEgress = "ws.egress"

	// TopicClientConnected is published by the bridge when a new connection
	// has been accepted and its pumps are running.
	TopicClientConnected = "ws.client.connected"

	// TopicClientDisconnected is published by the bridge when a connection
	// goes away, for whatever reason.
	TopicClientDisconnected = "ws.client.disconnected"
)

// Metadata keys and values used on egress messages.
const (
	MetaScope        = "scope"
	MetaConnectionID = "connection_id"
	MetaExcludeID    = "exclude_id"

	ScopeDirect    = "direct"
	ScopeBroadcast = "broadcast"
)
