package model

import "encoding/json"

// Envelope is the uniform wrapper every JSON endpoint returns. The HTTP
// status code is duplicated in the body for clients that only inspect the
// payload.
type Envelope struct {
	OK      bool   `json:"ok"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Base64  string `json:"base64,omitempty"`
}

// NullData forces an explicit "data": null in a serialized envelope. A nil
// interface would be dropped by omitempty, but the "no track currently
// playing" response must carry the data key.
var NullData = json.RawMessage("null")
