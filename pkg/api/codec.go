package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Codec encodes messages as JSON. It is registered under the name "json" so
// it replaces Connect's protobuf-JSON codec for these plain Go messages.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, message)
}
