// Package rpc registers the JSON wire codec used to call the LLM backend
// over a plain gRPC transport without generated protobuf stubs.
//
// The teacher (pkg/agent/llm_grpc.go) calls its Python LLM sidecar through
// a protoc-generated client built from a .proto contract. No .proto for
// this spec's RPC surface survived retrieval and this exercise cannot run
// protoc, so the same grpc.ClientConn transport is kept but messages are
// carried as JSON via a hand-registered encoding.Codec, selected per-call
// with grpc.CallContentSubtype(rpc.CodecName).
package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype gRPC negotiates for this codec
// (lowercase per grpc's encoding.Codec contract).
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshaling %T: %w", v, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpc: unmarshaling into %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
