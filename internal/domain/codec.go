package domain

import (
	"encoding/json"
	"fmt"
)

// MaxLineSize bounds a single stdio frame line. Lines larger than this are
// rejected rather than read into memory unbounded.
const MaxLineSize = 16 * 1024 * 1024 // 16 MiB

// rawFrame is used to sniff which of the four JSON-RPC variants a decoded
// JSON object represents, by which fields are present.
type rawFrame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  *string         `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// FrameKind identifies which JSON-RPC variant a decoded frame is.
type FrameKind int

const (
	// FrameUnknown is returned alongside a decode error.
	FrameUnknown FrameKind = iota
	FrameRequest
	FrameNotification
	FrameResponse
)

// DecodeError wraps a frame parsing failure with the JSON-RPC error code it
// maps to (ParseError for malformed JSON, InvalidRequest for a well-formed
// JSON value that isn't a valid request/notification/response shape).
type DecodeError struct {
	Code    int
	Message string
	ID      interface{} // best-effort id extracted before the parse failed, or nil
}

func (e *DecodeError) Error() string {
	return e.Message
}

// Encode serializes a Request to its canonical wire form: no trailing
// newline, no indentation. Transports append their own framing.
func Encode(req *Request) ([]byte, error) {
	if req.JSONRPC == "" {
		req.JSONRPC = "2.0"
	}
	return json.Marshal(req)
}

// EncodeResponse serializes a Response to its canonical wire form.
func EncodeResponse(resp *Response) ([]byte, error) {
	if resp.JSONRPC == "" {
		resp.JSONRPC = "2.0"
	}
	return json.Marshal(resp)
}

// DecodeRequest parses bytes into a Request or Notification, classifying the
// frame kind by presence of "method" and "id" per spec: method && id ->
// request; method && !id -> notification. Anything else is an error frame
// (not a request-shaped message at all).
func DecodeRequest(data []byte) (*Request, FrameKind, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, FrameUnknown, &DecodeError{Code: ParseError, Message: fmt.Sprintf("parse error: %v", err)}
	}

	if raw.Method == nil {
		return nil, FrameUnknown, &DecodeError{Code: InvalidRequest, Message: "missing method"}
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, FrameUnknown, &DecodeError{Code: InvalidRequest, Message: fmt.Sprintf("malformed request: %v", err)}
	}

	if req.JSONRPC != "2.0" {
		return nil, FrameUnknown, &DecodeError{Code: InvalidRequest, Message: "invalid jsonrpc version", ID: req.ID}
	}

	if len(raw.ID) == 0 {
		req.ID = nil
		return &req, FrameNotification, nil
	}

	return &req, FrameRequest, nil
}

// DecodeResponse parses bytes into a Response. A frame qualifies as a
// response when it carries an "id" plus either "result" or "error".
func DecodeResponse(data []byte) (*Response, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Code: ParseError, Message: fmt.Sprintf("parse error: %v", err)}
	}

	if len(raw.ID) == 0 || (len(raw.Result) == 0 && len(raw.Error) == 0) {
		return nil, &DecodeError{Code: InvalidRequest, Message: "not a response frame"}
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &DecodeError{Code: InvalidRequest, Message: fmt.Sprintf("malformed response: %v", err)}
	}

	return &resp, nil
}

// Classify sniffs an arbitrary frame's kind from its raw JSON without fully
// decoding it, per the detection rule in the frame codec spec:
// method && id -> request; method && !id -> notification;
// id && (result || error) -> response; anything else -> parse/invalid error.
func Classify(data []byte) (FrameKind, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return FrameUnknown, &DecodeError{Code: ParseError, Message: fmt.Sprintf("parse error: %v", err)}
	}

	hasID := len(raw.ID) > 0 && string(raw.ID) != "null"

	switch {
	case raw.Method != nil && hasID:
		return FrameRequest, nil
	case raw.Method != nil && !hasID:
		return FrameNotification, nil
	case hasID && (len(raw.Result) > 0 || len(raw.Error) > 0):
		return FrameResponse, nil
	default:
		return FrameUnknown, &DecodeError{Code: InvalidRequest, Message: "frame matches no known JSON-RPC shape"}
	}
}

// TryParseLine extracts the next complete line from buf (split on '\n'),
// returning the line's content (without the newline) and the number of bytes
// consumed from buf. Blank lines are skipped and reported as consumed with a
// nil line. When no newline is present yet, ok is false and nothing is
// consumed. Lines exceeding MaxLineSize are rejected via err.
func TryParseLine(buf []byte) (line []byte, consumed int, ok bool, err error) {
	idx := indexByte(buf, '\n')
	if idx == -1 {
		if len(buf) > MaxLineSize {
			return nil, len(buf), true, fmt.Errorf("line exceeds maximum size of %d bytes", MaxLineSize)
		}
		return nil, 0, false, nil
	}

	raw := buf[:idx]
	if len(raw) > MaxLineSize {
		return nil, idx + 1, true, fmt.Errorf("line exceeds maximum size of %d bytes", MaxLineSize)
	}

	raw = trimCR(raw)
	if len(raw) == 0 {
		return nil, idx + 1, true, nil
	}
	return raw, idx + 1, true, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}
