package client

import "encoding/json"

// JSON-RPC pubsub wire types. Only the fields the watcher reads are mapped.

type subscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type subscribeOptions struct {
	Encoding   string `json:"encoding"`
	Commitment string `json:"commitment"`
}

// wsMessage is the envelope for both call responses (ID set) and
// notifications (Method set).
type wsMessage struct {
	ID     *uint64         `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
	Params *notification   `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type notification struct {
	Subscription uint64             `json:"subscription"`
	Result       notificationResult `json:"result"`
}

type notificationResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value json.RawMessage `json:"value"`
}

const (
	methodAccountSubscribe    = "accountSubscribe"
	methodAccountNotification = "accountNotification"
)
