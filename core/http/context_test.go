package http

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func newTestContext(raw string) *Context {
	req, err := ParseRequest([]byte(raw))
	if err != nil {
		panic(err)
	}
	return NewContext(req, zerolog.Nop())
}

// TestContextBasic tests request accessors
func TestContextBasic(t *testing.T) {
	ctx := newTestContext("GET /users/123?page=2 HTTP/1.1\r\nUser-Agent: TestAgent/1.0\r\n\r\n")
	ctx.Request().Params = Params{{Key: "id", Value: "123"}}

	if ctx.Method() != "GET" {
		t.Errorf("Expected method GET, got %s", ctx.Method())
	}
	if ctx.Path() != "/users/123" {
		t.Errorf("Expected path /users/123, got %s", ctx.Path())
	}
	if ctx.Param("id") != "123" {
		t.Errorf("Expected id=123, got %s", ctx.Param("id"))
	}
	if ctx.Param("notexist") != "" {
		t.Error("Expected empty string for non-existent param")
	}
	if ctx.Query("page") != "2" {
		t.Errorf("Expected page=2, got %s", ctx.Query("page"))
	}
	if ctx.Header("user-agent") != "TestAgent/1.0" {
		t.Errorf("Expected User-Agent=TestAgent/1.0, got %s", ctx.Header("user-agent"))
	}
	if ctx.Response().Status != StatusOK {
		t.Errorf("Expected default status 200, got %d", ctx.Response().Status)
	}
}

// TestContextBind tests JSON body decoding
func TestContextBind(t *testing.T) {
	ctx := newTestContext("POST /users HTTP/1.1\r\nContent-Type: application/json\r\nContent-Length: 36\r\n\r\n" +
		`{"name":"Dana","email":"d@mail.com"}`)

	var in struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := ctx.Bind(&in); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if in.Name != "Dana" || in.Email != "d@mail.com" {
		t.Errorf("Unexpected bind result %+v", in)
	}

	ctx = newTestContext("POST /users HTTP/1.1\r\nContent-Type: text/csv\r\nContent-Length: 3\r\n\r\na,b")
	if err := ctx.Bind(&in); err == nil {
		t.Error("Expected error for unsupported content type")
	}
}

// TestContextJSON tests JSON responses
func TestContextJSON(t *testing.T) {
	ctx := newTestContext("GET / HTTP/1.1\r\n\r\n")

	if err := ctx.JSON(201, map[string]any{"message": "hello", "count": 123}); err != nil {
		t.Fatalf("JSON error: %v", err)
	}
	res := ctx.Response()
	if res.Status != 201 || res.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Unexpected response %d %q", res.Status, res.Header.Get("Content-Type"))
	}
	var out map[string]any
	if err := json.Unmarshal(res.Body, &out); err != nil || out["message"] != "hello" {
		t.Errorf("Unexpected body %s (%v)", res.Body, err)
	}

	if err := ctx.JSON(200, math.Inf(1)); !errors.Is(err, ErrHandlerFault) {
		t.Errorf("Expected ErrHandlerFault for unencodable value, got %v", err)
	}
}

// TestContextRender tests Accept negotiation
func TestContextRender(t *testing.T) {
	ctx := newTestContext("GET / HTTP/1.1\r\nAccept: */*\r\n\r\n")
	ctx.Render(200, map[string]string{"id": "1"})
	if got := ctx.Response().Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected JSON for */*, got %s", got)
	}

	ctx = newTestContext("GET / HTTP/1.1\r\nAccept: application/x-protobuf\r\n\r\n")
	if err := ctx.Render(200, map[string]string{"id": "1"}); err != nil {
		t.Fatalf("Render error: %v", err)
	}
	res := ctx.Response()
	if got := res.Header.Get("Content-Type"); got != "application/x-protobuf" {
		t.Fatalf("Expected protobuf content type, got %s", got)
	}
	val := &structpb.Value{}
	if err := proto.Unmarshal(res.Body, val); err != nil {
		t.Fatalf("proto.Unmarshal error: %v", err)
	}
	if got := val.GetStructValue().GetFields()["id"].GetStringValue(); got != "1" {
		t.Errorf("Expected id=1 in protobuf body, got %q", got)
	}
}

// TestContextResponders tests String, Error, NoContent, Redirect and Close
func TestContextResponders(t *testing.T) {
	ctx := newTestContext("GET / HTTP/1.1\r\n\r\n")

	ctx.String(200, "Hello World!")
	if string(ctx.Response().Body) != "Hello World!" || ctx.Response().Header.Get("Content-Type") != "text/plain" {
		t.Errorf("Unexpected String response %q", ctx.Response().Body)
	}

	ctx.Error(404, "User not found")
	if string(ctx.Response().Body) != `{"error":"User not found"}` || ctx.Response().Status != 404 {
		t.Errorf("Unexpected Error response %d %s", ctx.Response().Status, ctx.Response().Body)
	}

	ctx.NoContent(204)
	if ctx.Response().Status != 204 || ctx.Response().Body != nil {
		t.Errorf("Unexpected NoContent response %d %q", ctx.Response().Status, ctx.Response().Body)
	}

	ctx.Redirect(301, "/new")
	if ctx.Response().Status != 301 || ctx.Response().Header.Get("Location") != "/new" {
		t.Errorf("Unexpected redirect %d %q", ctx.Response().Status, ctx.Response().Header.Get("Location"))
	}
	ctx.Redirect(200, "/elsewhere")
	if ctx.Response().Status != 302 {
		t.Errorf("Expected non-3xx redirect code to fall back to 302, got %d", ctx.Response().Status)
	}

	ctx.Close()
	if !ctx.Response().Close {
		t.Error("Expected Close to mark the response")
	}
}

func BenchmarkContextJSON(b *testing.B) {
	req := &Request{Method: "GET", Path: "/"}
	data := map[string]any{
		"message": "hello",
		"count":   123,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx := NewContext(req, zerolog.Nop())
		ctx.JSON(200, data)
	}
}
