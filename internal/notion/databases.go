package notion

import (
	"context"

	"workbridge/internal/tools"
)

// QueryDataSourceTool queries a data source with Notion's filter syntax.
func (s *Service) QueryDataSourceTool() *tools.Tool {
	maxItems := 100
	return &tools.Tool{
		Name: "notion_query_data_source",
		Description: "Query a Notion data source with filters, sorts, and cursor pagination. " +
			"Use notion_get_database first to find the data_source_id. " +
			"Filter operators depend on property type: text supports equals/contains/starts_with, " +
			"numbers support comparisons, dates support before/after and relative ranges, " +
			"select and relation types support equals/contains and emptiness checks.",
		Execute: s.executeQueryDataSource,
		Schema: tools.Schema{
			Required: []string{"data_source_id"},
			Properties: map[string]tools.Property{
				"data_source_id": {Type: "string", Description: "Data source id to query (UUID)."},
				"filter":         {Type: "object", Description: "Filter object in Notion's filter syntax."},
				"sorts": {
					Type:        "array",
					Description: "Sort directives applied in order.",
					Items: &tools.ItemSchema{
						Type: "object",
						Properties: map[string]tools.Property{
							"property":  {Type: "string"},
							"direction": {Type: "string", Enum: []string{"ascending", "descending"}},
						},
					},
				},
				"page_size":    {Type: "integer", Description: "Results per page (max 100).", Default: 100, Maximum: &maxItems},
				"start_cursor": {Type: "string", Description: "Cursor from a previous query."},
			},
		},
	}
}

func (s *Service) executeQueryDataSource(ctx context.Context, args map[string]any) (any, error) {
	dataSourceID, err := tools.StringArg(args, "data_source_id")
	if err != nil {
		return nil, err
	}
	filter, err := tools.OptMapArg(args, "filter")
	if err != nil {
		return nil, err
	}
	sorts, err := tools.OptSliceArg(args, "sorts")
	if err != nil {
		return nil, err
	}
	pageSize, err := tools.OptIntArg(args, "page_size", 0)
	if err != nil {
		return nil, err
	}
	startCursor, err := tools.OptStringArg(args, "start_cursor", "")
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"page_size": s.clampPageSize(pageSize),
	}
	if filter != nil {
		body["filter"] = filter
	}
	if sorts != nil {
		body["sorts"] = sorts
	}
	if startCursor != "" {
		body["start_cursor"] = startCursor
	}

	data, err := s.client.queryDataSource(ctx, dataSourceID, body)
	if err != nil {
		return nil, err
	}

	maxItems := s.limits().MaxListItems
	results := make([]map[string]any, 0, len(data.Results))
	for _, page := range data.Results {
		if len(results) >= maxItems {
			break
		}
		results = append(results, map[string]any{
			"id":               page["id"],
			"url":              page["url"],
			"created_time":     page["created_time"],
			"last_edited_time": page["last_edited_time"],
			"properties":       formatPageProperties(asMap(page["properties"])),
		})
	}

	return map[string]any{
		"results":      results,
		"has_more":     data.HasMore,
		"next_cursor":  cursorOrNil(data.NextCursor),
		"result_count": len(results),
	}, nil
}

// GetDatabaseTool fetches database metadata and its property schema.
func (s *Service) GetDatabaseTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_get_database",
		Description: "Get database metadata: title, description, property schema, and data source ids. Use before querying to understand the structure.",
		Execute:     s.executeGetDatabase,
		Schema: tools.Schema{
			Required: []string{"database_id"},
			Properties: map[string]tools.Property{
				"database_id": {Type: "string", Description: "Database id (UUID)."},
			},
		},
	}
}

func (s *Service) executeGetDatabase(ctx context.Context, args map[string]any) (any, error) {
	databaseID, err := tools.StringArg(args, "database_id")
	if err != nil {
		return nil, err
	}

	data, err := s.client.getDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	var dataSources []map[string]any
	for _, raw := range asSlice(data["data_sources"]) {
		if ds := asMap(raw); ds != nil {
			dataSources = append(dataSources, map[string]any{
				"id":   ds["id"],
				"name": ds["name"],
			})
		}
	}

	schema := map[string]any{}
	for name, raw := range asMap(data["properties"]) {
		prop := asMap(raw)
		if prop == nil {
			continue
		}
		propType, _ := prop["type"].(string)
		info := map[string]any{"type": propType, "id": prop["id"]}

		switch propType {
		case "select", "multi_select", "status":
			typeData := asMap(prop[propType])
			var options []any
			for _, rawOpt := range asSlice(typeData["options"]) {
				if opt := asMap(rawOpt); opt != nil {
					options = append(options, opt["name"])
				}
			}
			info["options"] = options
			if propType == "status" {
				var groups []any
				for _, rawGroup := range asSlice(typeData["groups"]) {
					if g := asMap(rawGroup); g != nil {
						groups = append(groups, g["name"])
					}
				}
				info["groups"] = groups
			}
		case "relation":
			if rel := asMap(prop["relation"]); rel != nil {
				info["database_id"] = rel["database_id"]
			}
		}
		schema[name] = info
	}

	result := map[string]any{
		"id":               data["id"],
		"title":            extractPlainText(data["title"]),
		"description":      extractPlainText(data["description"]),
		"url":              data["url"],
		"created_time":     data["created_time"],
		"last_edited_time": data["last_edited_time"],
		"properties":       schema,
	}
	if len(dataSources) > 0 {
		result["data_sources"] = dataSources
		result["note"] = "This database has multiple data sources. Use notion_query_data_source with a data_source_id to query."
	}
	return result, nil
}

// SearchTool searches pages and databases across the workspace.
func (s *Service) SearchTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_search",
		Description: "Search across all pages and databases in the workspace. Returns titles and basic metadata.",
		Execute:     s.executeSearch,
		Schema: tools.Schema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query": {Type: "string", Description: "Search query string."},
				"filter": {
					Type:        "object",
					Description: "Restrict to one object type.",
					Properties: map[string]tools.Property{
						"property": {Type: "string", Enum: []string{"object"}},
						"value":    {Type: "string", Enum: []string{"page", "database"}},
					},
				},
				"sort": {
					Type:        "object",
					Description: "Sort results by last edited time.",
					Properties: map[string]tools.Property{
						"direction": {Type: "string", Enum: []string{"ascending", "descending"}},
						"timestamp": {Type: "string", Enum: []string{"last_edited_time"}},
					},
				},
				"page_size":    {Type: "integer", Description: "Number of results (max 100).", Default: 100},
				"start_cursor": {Type: "string", Description: "Pagination cursor."},
			},
		},
	}
}

func (s *Service) executeSearch(ctx context.Context, args map[string]any) (any, error) {
	query, ok := args["query"].(string)
	if !ok {
		return nil, tools.NewValidationError("query", "must be a string")
	}
	filter, err := tools.OptMapArg(args, "filter")
	if err != nil {
		return nil, err
	}
	sortArg, err := tools.OptMapArg(args, "sort")
	if err != nil {
		return nil, err
	}
	pageSize, err := tools.OptIntArg(args, "page_size", 0)
	if err != nil {
		return nil, err
	}
	startCursor, err := tools.OptStringArg(args, "start_cursor", "")
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"query":     query,
		"page_size": s.clampPageSize(pageSize),
	}
	if filter != nil {
		body["filter"] = filter
	}
	if sortArg != nil {
		body["sort"] = sortArg
	}
	if startCursor != "" {
		body["start_cursor"] = startCursor
	}

	data, err := s.client.search(ctx, body)
	if err != nil {
		return nil, err
	}

	maxItems := s.limits().MaxListItems
	results := make([]map[string]any, 0, len(data.Results))
	for _, item := range data.Results {
		if len(results) >= maxItems {
			break
		}
		objType, _ := item["object"].(string)
		formatted := map[string]any{
			"id":               item["id"],
			"type":             objType,
			"url":              item["url"],
			"created_time":     item["created_time"],
			"last_edited_time": item["last_edited_time"],
		}
		switch objType {
		case "page":
			formatted["properties"] = formatPageProperties(asMap(item["properties"]))
		case "database":
			formatted["title"] = extractPlainText(item["title"])
		}
		results = append(results, formatted)
	}

	return map[string]any{
		"results":      results,
		"has_more":     data.HasMore,
		"next_cursor":  cursorOrNil(data.NextCursor),
		"result_count": len(results),
	}, nil
}

func cursorOrNil(cursor string) any {
	if cursor == "" {
		return nil
	}
	return cursor
}
