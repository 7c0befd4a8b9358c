// Package tools defines the tool model served over MCP: a JSON-schema
// described operation backed by an execute function, and a thread-safe
// registry the transport dispatches through.
package tools

import (
	"context"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Maximum     *int     `json:"maximum,omitempty"`

	// Properties describes nested object properties for type="object".
	Properties map[string]Property `json:"properties,omitempty"`

	// Items describes array element schema (required for type="array").
	Items *ItemSchema `json:"items,omitempty"`

	// AdditionalProperties describes map value schema for type="object".
	AdditionalProperties *ItemSchema `json:"additionalProperties,omitempty"`
}

// ItemSchema describes the schema of array elements or map values. Object
// items may carry their own nested properties and required list.
type ItemSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
	Items      *ItemSchema         `json:"items,omitempty"`
}

// Schema is the JSON schema for a tool's arguments, serialized verbatim into
// the tools/list response.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ExecuteFunc runs a tool. The result must be JSON-marshalable; the transport
// serializes it and applies the response-level size budget.
type ExecuteFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool is one callable operation exposed to the agent.
type Tool struct {
	// Name is the unique wire identifier, e.g. "databricks_read_notebook".
	Name string

	// Description tells the agent what the tool does and how to chain it.
	Description string

	// Schema declares the accepted arguments.
	Schema Schema

	// Execute performs the operation.
	Execute ExecuteFunc
}

// Validate checks that the tool definition is complete.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Descriptor is the wire form of a tool in the tools/list response.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Descriptor returns the tool's wire description.
func (t *Tool) Descriptor() Descriptor {
	s := t.Schema
	if s.Type == "" {
		s.Type = "object"
	}
	if s.Properties == nil {
		s.Properties = map[string]Property{}
	}
	return Descriptor{Name: t.Name, Description: t.Description, InputSchema: s}
}
