package codec

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrUnsupportedCodec = errors.New("unsupported codec")
)

// Codec encodes response values and decodes request bodies
type Codec interface {
	// Encode encodes a value to bytes
	Encode(v any) ([]byte, error)

	// Decode decodes bytes into v
	Decode(data []byte, v any) error

	// Name returns the codec name
	Name() string

	// ContentType returns the media type written in Content-Type
	ContentType() string
}

// Media types
const (
	MIMEJSON     = "application/json"
	MIMEProtobuf = "application/x-protobuf"
)

var (
	jsonCodec     = &JSONCodec{}
	protobufCodec = &ProtobufCodec{}
)

// JSON returns the JSON codec
func JSON() Codec { return jsonCodec }

// Protobuf returns the Protocol Buffers codec
func Protobuf() Codec { return protobufCodec }

// ForContentType returns the codec registered for a Content-Type value.
func ForContentType(contentType string) (Codec, error) {
	switch mediaType(contentType) {
	case MIMEJSON, "":
		return jsonCodec, nil
	case MIMEProtobuf, "application/protobuf":
		return protobufCodec, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

// Negotiate picks a codec from an Accept header. The first listed media range
// we can produce wins; JSON is the fallback.
func Negotiate(accept string) Codec {
	for _, part := range strings.Split(accept, ",") {
		if zeroQuality(part) {
			continue
		}
		switch mediaType(part) {
		case MIMEJSON, "application/*", "*/*":
			return jsonCodec
		case MIMEProtobuf, "application/protobuf":
			return protobufCodec
		}
	}
	return jsonCodec
}

func mediaType(v string) string {
	t, _, _ := strings.Cut(v, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

func zeroQuality(part string) bool {
	_, params, ok := strings.Cut(part, ";")
	if !ok {
		return false
	}
	for _, p := range strings.Split(params, ";") {
		k, v, _ := strings.Cut(strings.TrimSpace(p), "=")
		if strings.EqualFold(k, "q") {
			v = strings.TrimSpace(v)
			return v == "0" || strings.Trim(v, "0.") == ""
		}
	}
	return false
}

// JSONCodec implements JSON encoding/decoding
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Name() string {
	return "json"
}

func (c *JSONCodec) ContentType() string {
	return MIMEJSON
}
