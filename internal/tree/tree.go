// Package tree walks a lazily-fetched parent/child hierarchy. Eager mode
// materializes a whole subtree depth-first in one logical call; paginated
// mode returns exactly one level's window and leaves further descent to the
// caller.
package tree

import (
	"context"
	"fmt"
)

// Node is one fetched child: its formatted payload plus the traversal
// metadata the walker needs.
type Node struct {
	// ID addresses the node for recursive child fetches.
	ID string
	// HasChildren marks nodes the eager walk must descend into.
	HasChildren bool
	// Payload is the caller-formatted record accumulated into results.
	// Eager traversal attaches nested children under its "children" key.
	Payload map[string]any
}

// Page is one upstream page of a node's direct children.
type Page struct {
	Nodes      []Node
	HasMore    bool
	NextCursor string
}

// ChildFetcher returns one page of parentID's direct children. An empty
// cursor requests the first page. Each call owns only its own response.
type ChildFetcher func(ctx context.Context, parentID, cursor string, pageSize int) (Page, error)

// Flatten eagerly materializes the subtree under rootID: each level's cursor
// is drained, and every child flagged with HasChildren is recursed into
// before its next sibling. Any fetch failure aborts the whole traversal; no
// partial tree is returned.
func Flatten(ctx context.Context, fetch ChildFetcher, rootID string, pageSize int) ([]map[string]any, error) {
	out := []map[string]any{}
	cursor := ""
	for {
		page, err := fetch(ctx, rootID, cursor, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetching children of %s: %w", rootID, err)
		}

		for _, node := range page.Nodes {
			payload := node.Payload
			if node.HasChildren {
				children, err := Flatten(ctx, fetch, node.ID, pageSize)
				if err != nil {
					return nil, err
				}
				payload["children"] = children
			}
			out = append(out, payload)
		}

		if !page.HasMore {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

// Level is a single-level paginated view of a node's children.
type Level struct {
	Nodes      []map[string]any `json:"blocks"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// PageLevel fetches exactly one page of parentID's direct children without
// recursing. Only this page can fail; siblings already returned to the
// caller are unaffected.
func PageLevel(ctx context.Context, fetch ChildFetcher, parentID, cursor string, pageSize int) (Level, error) {
	page, err := fetch(ctx, parentID, cursor, pageSize)
	if err != nil {
		return Level{}, fmt.Errorf("fetching children of %s: %w", parentID, err)
	}

	nodes := make([]map[string]any, 0, len(page.Nodes))
	for _, n := range page.Nodes {
		nodes = append(nodes, n.Payload)
	}
	return Level{Nodes: nodes, HasMore: page.HasMore, NextCursor: page.NextCursor}, nil
}
