package service

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec is a connect.Codec over plain structs and encoding/json.
//
// The RPC surface has no generated schema code; request and response types
// are the hand-written structs in messages.go, so the default protobuf
// codecs cannot serve them. Registering this codec under the "json" name
// replaces connect's protojson codec: clients talk Connect-protocol JSON
// (Content-Type application/json) exactly as before.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, message)
}
