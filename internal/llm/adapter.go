package llm

// WireRequest is a provider request ready for the transport. Path is
// relative to the transport's base URL.
type WireRequest struct {
	Method string
	Path   string
	Body   []byte
}

// Adapter translates between the neutral pipeline types and one provider's
// wire format.
type Adapter interface {
	// Name returns the provider name (e.g., "bedrock", "mistral").
	Name() string

	// FormatRequest builds the provider request. A nil req.Tools must
	// omit the tool clause entirely.
	FormatRequest(req Request) (*WireRequest, error)

	// ParseResponse decodes a raw provider response.
	ParseResponse(body []byte) (*Response, error)
}
