package engine

import "encoding/json"

// jsonCodecName is registered with the gRPC encoding package and forced
// per-call on the engine client, since the media engine has no shared
// .proto contract checked into this module. gRPC is used purely for
// its transport (HTTP/2 framing, deadlines, interceptors); payloads are
// plain JSON.
const jsonCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}
