package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufCodec implements Protocol Buffers encoding/decoding. Values that are
// not proto messages travel as a google.protobuf.Value built from their JSON
// form.
type ProtobufCodec struct{}

func (c *ProtobufCodec) Encode(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return proto.Marshal(msg)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protobuf: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("protobuf: %w", err)
	}
	val, err := structpb.NewValue(generic)
	if err != nil {
		return nil, fmt.Errorf("protobuf: %w", err)
	}
	return proto.Marshal(val)
}

func (c *ProtobufCodec) Decode(data []byte, v any) error {
	if msg, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, msg)
	}

	val := &structpb.Value{}
	if err := proto.Unmarshal(data, val); err != nil {
		return fmt.Errorf("protobuf: %w", err)
	}
	raw, err := json.Marshal(val.AsInterface())
	if err != nil {
		return fmt.Errorf("protobuf: %w", err)
	}
	return json.Unmarshal(raw, v)
}

func (c *ProtobufCodec) Name() string {
	return "protobuf"
}

func (c *ProtobufCodec) ContentType() string {
	return MIMEProtobuf
}
