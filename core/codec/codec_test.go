package codec

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type user struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func TestJSONCodec(t *testing.T) {
	codec := JSON()

	original := &user{ID: 1, Name: "Alice", Email: "alice@mail.com"}

	data, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if string(data) != `{"id":1,"name":"Alice","email":"alice@mail.com"}` {
		t.Errorf("Unexpected encoding %s", data)
	}

	decoded := &user{}
	if err := codec.Decode(data, decoded); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if *decoded != *original {
		t.Errorf("Mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestProtobufCodecMessage(t *testing.T) {
	codec := Protobuf()

	original := wrapperspb.Int32(42)

	data, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	decoded := &wrapperspb.Int32Value{}
	if err := codec.Decode(data, decoded); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if decoded.Value != original.Value {
		t.Errorf("Mismatch: got %d, want %d", decoded.Value, original.Value)
	}
}

// TestProtobufCodecStruct tests plain Go values carried as google.protobuf.Value
func TestProtobufCodecStruct(t *testing.T) {
	codec := Protobuf()

	original := user{ID: 7, Name: "Remera", Email: "x@mail.com"}
	data, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	val := &structpb.Value{}
	if err := proto.Unmarshal(data, val); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	fields := val.GetStructValue().GetFields()
	if fields["name"].GetStringValue() != "Remera" || fields["id"].GetNumberValue() != 7 {
		t.Errorf("Unexpected fields %v", fields)
	}

	var decoded user
	if err := codec.Decode(data, &decoded); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if decoded != original {
		t.Errorf("Mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestProtobufCodecInvalidData(t *testing.T) {
	var decoded user
	if err := Protobuf().Decode([]byte{0xff, 0xff, 0xff}, &decoded); err == nil {
		t.Error("Expected error for invalid protobuf data")
	}
}

func TestForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		err         error
	}{
		{"", "json", nil},
		{"application/json", "json", nil},
		{"Application/JSON; charset=utf-8", "json", nil},
		{"application/x-protobuf", "protobuf", nil},
		{"application/protobuf", "protobuf", nil},
		{"text/csv", "", ErrUnsupportedCodec},
	}

	for _, tt := range tests {
		c, err := ForContentType(tt.contentType)
		if !errors.Is(err, tt.err) {
			t.Errorf("ForContentType(%q): expected error %v, got %v", tt.contentType, tt.err, err)
			continue
		}
		if err == nil && c.Name() != tt.want {
			t.Errorf("ForContentType(%q): expected %s, got %s", tt.contentType, tt.want, c.Name())
		}
	}
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"", "json"},
		{"*/*", "json"},
		{"text/html, application/json", "json"},
		{"application/x-protobuf", "protobuf"},
		{"application/x-protobuf;q=0, application/json", "json"},
		{"application/x-protobuf;q=0.0", "json"},
		{"text/html, application/protobuf;q=0.9", "protobuf"},
		{"application/*", "json"},
	}

	for _, tt := range tests {
		if got := Negotiate(tt.accept).Name(); got != tt.want {
			t.Errorf("Negotiate(%q): expected %s, got %s", tt.accept, tt.want, got)
		}
	}
}

func BenchmarkJSONEncode(b *testing.B) {
	codec := JSON()
	u := &user{ID: 1, Name: "Alice", Email: "alice@mail.com"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = codec.Encode(u)
	}
}

func BenchmarkProtobufEncode(b *testing.B) {
	codec := Protobuf()
	u := &user{ID: 1, Name: "Alice", Email: "alice@mail.com"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = codec.Encode(u)
	}
}
