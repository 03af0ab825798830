package domain

// ToolDefinition describes an MCP tool as returned by tools/list. Tools are
// immutable after registration: once published, Name/Description/InputSchema
// never change for the life of the process.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// ToolCallRequest is the params shape for tools/call.
type ToolCallRequest struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// ToolCallResult is the result shape for tools/call. A business-logic
// failure is reported with IsError true and a text ContentBlock describing
// it; this is still a successful JSON-RPC response. Only a protocol-level
// failure (unknown tool, bad params) becomes a JSON-RPC error instead.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// NewTextResult wraps a plain string as a successful tool result.
func NewTextResult(text string) *ToolCallResult {
	return &ToolCallResult{Content: []ContentBlock{TextBlock(text)}}
}

// NewErrorResult wraps a failure message as a tool-level (not protocol-level)
// error result.
func NewErrorResult(message string) *ToolCallResult {
	return &ToolCallResult{
		Content: []ContentBlock{TextBlock(message)},
		IsError: true,
	}
}

// ContentBlock is a tagged union: text, image, or an embedded resource
// reference. Only the fields matching Type are populated on the wire.
type ContentBlock struct {
	Type     string    `json:"type"` // "text", "image", or "resource"
	Text     string    `json:"text,omitempty"`
	Data     string    `json:"data,omitempty"`     // base64, when Type == "image"
	MimeType string    `json:"mimeType,omitempty"` // when Type == "image" or "resource"
	Resource *Resource `json:"resource,omitempty"` // when Type == "resource"
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// ImageBlock builds a base64-encoded image content block.
func ImageBlock(base64Data, mimeType string) ContentBlock {
	return ContentBlock{Type: "image", Data: base64Data, MimeType: mimeType}
}

// ResourceBlock builds an embedded-resource content block.
func ResourceBlock(resource Resource) ContentBlock {
	return ContentBlock{Type: "resource", Resource: &resource}
}

// Resource identifies a reference to MCP-exposed content by URI.
type Resource struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ResourceDescriptor is an entry returned by resources/list.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceReadRequest is the params shape for resources/read.
type ResourceReadRequest struct {
	URI string `json:"uri"`
}

// ResourceContent is one entry in a resources/read result. Exactly one of
// Text/Blob is populated depending on whether the resource is text or
// binary.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// PromptDescriptor is an entry returned by prompts/list.
type PromptDescriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes one named input a prompt template accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptGetRequest is the params shape for prompts/get.
type PromptGetRequest struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// PromptMessage is one message in a prompts/get result, fed to an LLM
// conversation.
type PromptMessage struct {
	Role    string       `json:"role"` // "user" or "assistant"
	Content ContentBlock `json:"content"`
}

// JSONSchema is a (deliberately partial) JSON Schema draft-07 fragment,
// sufficient to describe a tool's input object.
type JSONSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// ClientInfo identifies the connecting MCP host, supplied in initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo identifies this server, returned in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities advertises which capability groups a peer supports. A non-nil
// pointer (even to an empty struct) signals support; nil signals none.
// Servers only populate the groups for which they have at least one
// registered handler.
type Capabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Prompts   *PromptsCapability   `json:"prompts,omitempty"`
}

// ToolsCapability is presently an empty marker object.
type ToolsCapability struct{}

// ResourcesCapability is presently an empty marker object.
type ResourcesCapability struct{}

// PromptsCapability is presently an empty marker object.
type PromptsCapability struct{}

// InitializeParams is the params shape for the initialize request.
type InitializeParams struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ClientInfo      ClientInfo   `json:"clientInfo"`
}

// InitializeResult is the result shape for the initialize request.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Instructions    string       `json:"instructions,omitempty"`
}
