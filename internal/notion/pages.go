package notion

import (
	"context"

	"workbridge/internal/tools"
	"workbridge/internal/tree"
)

// GetPageTool retrieves a page's properties.
func (s *Service) GetPageTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_get_page",
		Description: "Retrieve a page's properties by id.",
		Execute:     s.executeGetPage,
		Schema: tools.Schema{
			Required: []string{"page_id"},
			Properties: map[string]tools.Property{
				"page_id": {Type: "string", Description: "Page id (UUID)."},
			},
		},
	}
}

func (s *Service) executeGetPage(ctx context.Context, args map[string]any) (any, error) {
	pageID, err := tools.StringArg(args, "page_id")
	if err != nil {
		return nil, err
	}

	data, err := s.client.getPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"id":               data["id"],
		"url":              data["url"],
		"created_time":     data["created_time"],
		"last_edited_time": data["last_edited_time"],
		"parent":           data["parent"],
		"archived":         data["archived"],
		"properties":       formatPageProperties(asMap(data["properties"])),
	}
	if createdBy := asMap(data["created_by"]); createdBy != nil {
		result["created_by"] = createdBy["id"]
	}
	if editedBy := asMap(data["last_edited_by"]); editedBy != nil {
		result["last_edited_by"] = editedBy["id"]
	}
	return result, nil
}

// GetPageContentTool reads a page's block tree, eagerly or one level at a
// time.
func (s *Service) GetPageContentTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_get_page_content",
		Description: "Get the content blocks of a page. By default the whole tree is fetched, including nested blocks; set fetch_all=false for cursor-driven access to one level.",
		Execute:     s.executeGetPageContent,
		Schema: tools.Schema{
			Required: []string{"page_id"},
			Properties: map[string]tools.Property{
				"page_id":      {Type: "string", Description: "Page id whose blocks to read."},
				"fetch_all":    {Type: "boolean", Description: "Fetch all content including nested blocks.", Default: true},
				"start_cursor": {Type: "string", Description: "Pagination cursor (only when fetch_all is false)."},
				"page_size":    {Type: "integer", Description: "Blocks per request (max 100).", Default: 100},
			},
		},
	}
}

func (s *Service) executeGetPageContent(ctx context.Context, args map[string]any) (any, error) {
	pageID, err := tools.StringArg(args, "page_id")
	if err != nil {
		return nil, err
	}
	fetchAll, err := tools.OptBoolArg(args, "fetch_all", true)
	if err != nil {
		return nil, err
	}
	startCursor, err := tools.OptStringArg(args, "start_cursor", "")
	if err != nil {
		return nil, err
	}
	pageSize, err := tools.OptIntArg(args, "page_size", 0)
	if err != nil {
		return nil, err
	}
	pageSize = s.clampPageSize(pageSize)

	fetch := s.blockFetcher()
	if fetchAll {
		blocks, err := tree.Flatten(ctx, fetch, pageID, pageSize)
		if err != nil {
			return nil, err
		}
		return map[string]any{"blocks": blocks}, nil
	}

	level, err := tree.PageLevel(ctx, fetch, pageID, startCursor, pageSize)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"blocks":      level.Nodes,
		"has_more":    level.HasMore,
		"next_cursor": cursorOrNil(level.NextCursor),
	}, nil
}

// blockFetcher adapts the block children endpoint to the tree walker.
func (s *Service) blockFetcher() tree.ChildFetcher {
	return func(ctx context.Context, parentID, cursor string, pageSize int) (tree.Page, error) {
		data, err := s.client.blockChildren(ctx, parentID, cursor, pageSize)
		if err != nil {
			return tree.Page{}, err
		}

		page := tree.Page{HasMore: data.HasMore, NextCursor: data.NextCursor}
		for _, block := range data.Results {
			id, _ := block["id"].(string)
			hasChildren, _ := block["has_children"].(bool)
			page.Nodes = append(page.Nodes, tree.Node{
				ID:          id,
				HasChildren: hasChildren,
				Payload:     formatBlock(block),
			})
		}
		return page, nil
	}
}

// CreatePageTool creates a page in a database, data source, or under a page.
func (s *Service) CreatePageTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_create_page",
		Description: "Create a page in a database or as a child of another page. Parent is {\"data_source_id\": ...} for multi-data-source databases, {\"database_id\": ...} for single-source ones, or {\"page_id\": ...} for nested pages.",
		Execute:     s.executeCreatePage,
		Schema: tools.Schema{
			Required: []string{"parent", "properties"},
			Properties: map[string]tools.Property{
				"parent":     {Type: "object", Description: "Parent location."},
				"properties": {Type: "object", Description: "Page properties keyed by property name from the schema."},
				"children": {
					Type:        "array",
					Description: "Optional content blocks for the new page.",
					Items:       &tools.ItemSchema{Type: "object"},
				},
			},
		},
	}
}

func (s *Service) executeCreatePage(ctx context.Context, args map[string]any) (any, error) {
	parent, err := tools.OptMapArg(args, "parent")
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, tools.NewValidationError("parent", "required argument missing")
	}
	properties, err := tools.OptMapArg(args, "properties")
	if err != nil {
		return nil, err
	}
	if properties == nil {
		return nil, tools.NewValidationError("properties", "required argument missing")
	}
	children, err := tools.OptSliceArg(args, "children")
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"parent":     parent,
		"properties": properties,
	}
	if children != nil {
		body["children"] = children
	}

	data, err := s.client.createPage(ctx, body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":           data["id"],
		"url":          data["url"],
		"created_time": data["created_time"],
		"properties":   formatPageProperties(asMap(data["properties"])),
	}, nil
}

// UpdatePageTool updates a page's properties or archives it.
func (s *Service) UpdatePageTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_update_page",
		Description: "Update a page's properties, or archive it with archived=true.",
		Execute:     s.executeUpdatePage,
		Schema: tools.Schema{
			Required: []string{"page_id"},
			Properties: map[string]tools.Property{
				"page_id":    {Type: "string", Description: "Page id to update."},
				"properties": {Type: "object", Description: "Properties to update."},
				"archived":   {Type: "boolean", Description: "Set true to archive the page."},
			},
		},
	}
}

func (s *Service) executeUpdatePage(ctx context.Context, args map[string]any) (any, error) {
	pageID, err := tools.StringArg(args, "page_id")
	if err != nil {
		return nil, err
	}
	properties, err := tools.OptMapArg(args, "properties")
	if err != nil {
		return nil, err
	}

	body := map[string]any{}
	if properties != nil {
		body["properties"] = properties
	}
	if archived, ok := args["archived"]; ok {
		b, ok := archived.(bool)
		if !ok {
			return nil, tools.NewValidationError("archived", "must be a boolean, got %T", archived)
		}
		body["archived"] = b
	}
	if len(body) == 0 {
		return nil, tools.NewValidationError("properties", "nothing to update: provide properties or archived")
	}

	data, err := s.client.updatePage(ctx, pageID, body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":               data["id"],
		"url":              data["url"],
		"last_edited_time": data["last_edited_time"],
		"properties":       formatPageProperties(asMap(data["properties"])),
	}, nil
}
