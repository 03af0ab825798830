package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    FrameKind
		wantErr bool
	}{
		{"request", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, FrameRequest, false},
		{"notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, FrameNotification, false},
		{"notification with null id", `{"jsonrpc":"2.0","id":null,"method":"notifications/initialized"}`, FrameNotification, false},
		{"result response", `{"jsonrpc":"2.0","id":1,"result":{}}`, FrameResponse, false},
		{"error response", `{"jsonrpc":"2.0","id":1,"error":{"code":-32600,"message":"bad"}}`, FrameResponse, false},
		{"garbage", `{"jsonrpc":"2.0"}`, FrameUnknown, true},
		{"invalid json", `not json`, FrameUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := Classify([]byte(tt.frame))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Classify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && kind != tt.want {
				t.Errorf("Classify() = %v, want %v", kind, tt.want)
			}
		})
	}
}

func TestDecodeRequestRoundTrip(t *testing.T) {
	req := &Request{
		JSONRPC: "2.0",
		ID:      "abc",
		Method:  "tools/call",
		Params:  map[string]interface{}{"name": "add"},
	}

	data, err := Encode(req)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, kind, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest() error = %v", err)
	}
	if kind != FrameRequest {
		t.Fatalf("DecodeRequest() kind = %v, want FrameRequest", kind)
	}
	if diff := cmp.Diff(req.Method, decoded.Method); diff != "" {
		t.Errorf("method mismatch (-want +got):\n%s", diff)
	}
	if decoded.ID != req.ID {
		t.Errorf("ID = %v, want %v", decoded.ID, req.ID)
	}
}

func TestDecodeNotification(t *testing.T) {
	decoded, kind, err := DecodeRequest([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	if err != nil {
		t.Fatalf("DecodeRequest() error = %v", err)
	}
	if kind != FrameNotification {
		t.Fatalf("kind = %v, want FrameNotification", kind)
	}
	if !decoded.IsNotification() {
		t.Error("IsNotification() = false, want true")
	}
}

func TestDecodeRequestRejectsWrongVersion(t *testing.T) {
	_, _, err := DecodeRequest([]byte(`{"jsonrpc":"1.0","id":1,"method":"tools/list"}`))
	if err == nil {
		t.Fatal("expected error for wrong jsonrpc version")
	}
	de, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("error type = %T, want *DecodeError", err)
	}
	if de.Code != InvalidRequest {
		t.Errorf("Code = %d, want %d", de.Code, InvalidRequest)
	}
}

func TestDecodeResponseVariants(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`))
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if resp.IsError() {
		t.Error("IsError() = true, want false")
	}

	resp, err = DecodeResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"nope"}}`))
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if !resp.IsError() {
		t.Error("IsError() = false, want true")
	}

	if _, err := DecodeResponse([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)); err == nil {
		t.Error("expected error decoding a request as a response")
	}
}

func TestTryParseLine(t *testing.T) {
	buf := []byte("{\"a\":1}\n{\"b\":2}\nincomplete")

	line, n, ok, err := TryParseLine(buf)
	if err != nil || !ok {
		t.Fatalf("TryParseLine() = %q, %v, %v, err=%v", line, n, ok, err)
	}
	if string(line) != `{"a":1}` {
		t.Errorf("line = %q", line)
	}

	buf = buf[n:]
	line, n, ok, err = TryParseLine(buf)
	if err != nil || !ok {
		t.Fatalf("TryParseLine() second call failed: %v %v %v", n, ok, err)
	}
	if string(line) != `{"b":2}` {
		t.Errorf("line = %q", line)
	}

	buf = buf[n:]
	_, _, ok, err = TryParseLine(buf)
	if ok || err != nil {
		t.Errorf("expected no complete line yet, got ok=%v err=%v", ok, err)
	}
}

func TestTryParseLineRejectsOversized(t *testing.T) {
	huge := strings.Repeat("a", MaxLineSize+10) + "\n"
	_, _, ok, err := TryParseLine([]byte(huge))
	if !ok || err == nil {
		t.Fatalf("expected oversized-line error, got ok=%v err=%v", ok, err)
	}
}

func TestTryParseLineSkipsBlank(t *testing.T) {
	line, n, ok, err := TryParseLine([]byte("\n{\"a\":1}\n"))
	if err != nil || !ok {
		t.Fatalf("TryParseLine() blank line failed: %v %v", ok, err)
	}
	if line != nil {
		t.Errorf("expected nil line for blank, got %q", line)
	}
	if n != 1 {
		t.Errorf("consumed = %d, want 1", n)
	}
}

// TestEncodeDecodeRoundTrip is the property test called out by the
// universal invariants: decode(encode(frame)) == frame for all well-formed
// request frames.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("request round-trips through Encode/DecodeRequest", prop.ForAll(
		func(method string, id string, a, b int) bool {
			req := &Request{
				JSONRPC: "2.0",
				ID:      id,
				Method:  method,
				Params:  map[string]interface{}{"a": float64(a), "b": float64(b)},
			}

			data, err := Encode(req)
			if err != nil {
				return false
			}

			decoded, kind, err := DecodeRequest(data)
			if err != nil || kind != FrameRequest {
				return false
			}

			reEncoded, err := json.Marshal(decoded.Params)
			if err != nil {
				return false
			}
			origEncoded, err := json.Marshal(req.Params)
			if err != nil {
				return false
			}

			return decoded.Method == req.Method &&
				decoded.ID == req.ID &&
				string(reEncoded) == string(origEncoded)
		},
		gen.RegexMatch(`[a-z]+/[a-z]+`),
		gen.RegexMatch(`[a-zA-Z0-9_-]{1,20}`),
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}
