package protocol

import "encoding/json"

// JSONRPCVersion is the JSON-RPC protocol version carried in every frame.
const JSONRPCVersion = "2.0"

// Request is one inbound JSON-RPC 2.0 frame. The ID is kept raw because
// the wire allows string or numeric ids and the adapter echoes them back
// untouched; Params stay raw until the dispatch layer knows which shape
// to decode.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the frame carries no ID. Notifications
// never receive a response, success or error.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is one outbound JSON-RPC 2.0 frame. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse creates a successful response echoing the request's id.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response. Pass a nil id for errors
// detected before a request id could be read, such as parse errors.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   err,
	}
}
