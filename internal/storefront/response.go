package storefront

import (
	"encoding/json"
	"fmt"
)

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is the decoded body of a storefront GraphQL call. GraphQL-level
// errors are carried here rather than returned as Go errors.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// HasErrors reports whether the server returned any GraphQL errors.
func (r *Response) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// FirstError returns the first error message, or a generic one when the
// server left it blank.
func (r *Response) FirstError() string {
	if !r.HasErrors() {
		return ""
	}
	if msg := r.Errors[0].Message; msg != "" {
		return msg
	}
	return "GraphQL error"
}

// Decode unmarshals the data member into v. An absent data member leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
