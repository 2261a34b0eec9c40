package core

// ResponseType marks the outer envelope returned to callers.
type ResponseType string

const (
	ResponseOK  ResponseType = "response"
	ResponseErr ResponseType = "error"
)

// Response is the transport envelope for one processed command.
type Response struct {
	Type     ResponseType   `json:"type"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewResponse builds a success envelope.
func NewResponse(data any) Response {
	return Response{Type: ResponseOK, Data: data, Metadata: make(map[string]any)}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(data any) Response {
	return Response{Type: ResponseErr, Data: data, Metadata: make(map[string]any)}
}

// WithMeta sets a metadata entry and returns the response for chaining.
func (r Response) WithMeta(key string, value any) Response {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
	return r
}
