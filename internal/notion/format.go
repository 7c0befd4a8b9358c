package notion

// Formatters collapse Notion's verbose tagged-union payloads into the
// compact shapes the tools return. Unknown variants pass through raw rather
// than being dropped.

// extractPlainText concatenates the plain_text of a rich text array.
func extractPlainText(richText any) string {
	items, ok := richText.([]any)
	if !ok {
		return ""
	}
	var out string
	for _, raw := range items {
		if item, ok := raw.(map[string]any); ok {
			if s, ok := item["plain_text"].(string); ok {
				out += s
			}
		}
	}
	return out
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// formatPropertyValue collapses one property value to its display form,
// dispatching on the value's type tag.
func formatPropertyValue(prop map[string]any) any {
	propType, _ := prop["type"].(string)

	switch propType {
	case "number", "checkbox", "url", "email", "phone_number", "created_time", "last_edited_time":
		return prop[propType]

	case "title", "rich_text":
		return extractPlainText(prop[propType])

	case "select", "status":
		if value := asMap(prop[propType]); value != nil {
			return value["name"]
		}
		return nil

	case "multi_select":
		var names []any
		for _, raw := range asSlice(prop["multi_select"]) {
			if item := asMap(raw); item != nil {
				names = append(names, item["name"])
			}
		}
		return names

	case "people":
		var people []any
		for _, raw := range asSlice(prop["people"]) {
			if p := asMap(raw); p != nil {
				if name, ok := p["name"]; ok && name != nil {
					people = append(people, name)
				} else {
					people = append(people, p["id"])
				}
			}
		}
		return people

	case "relation":
		var ids []any
		for _, raw := range asSlice(prop["relation"]) {
			if r := asMap(raw); r != nil {
				ids = append(ids, r["id"])
			}
		}
		return ids

	case "date":
		date := asMap(prop["date"])
		if date == nil {
			return nil
		}
		start, _ := date["start"].(string)
		if end, ok := date["end"].(string); ok && end != "" {
			return start + " - " + end
		}
		return start

	case "formula", "rollup":
		computed := asMap(prop[propType])
		if computed == nil {
			return nil
		}
		if valueType, ok := computed["type"].(string); ok {
			return computed[valueType]
		}
		return nil

	case "created_by", "last_edited_by":
		user := asMap(prop[propType])
		if user == nil {
			return nil
		}
		if name, ok := user["name"]; ok && name != nil {
			return name
		}
		return user["id"]
	}

	return prop
}

// formatPageProperties collapses every property of a page.
func formatPageProperties(properties map[string]any) map[string]any {
	out := make(map[string]any, len(properties))
	for name, raw := range properties {
		if prop := asMap(raw); prop != nil {
			out[name] = formatPropertyValue(prop)
		}
	}
	return out
}

// formatUser collapses a user record. Email is only exposed for person users.
func formatUser(user map[string]any) map[string]any {
	out := map[string]any{
		"id":         user["id"],
		"type":       user["type"],
		"name":       user["name"],
		"avatar_url": user["avatar_url"],
		"email":      nil,
	}
	if userType, _ := user["type"].(string); userType == "person" {
		if person := asMap(user["person"]); person != nil {
			out["email"] = person["email"]
		}
	}
	return out
}

// formatBlock collapses one block to id, type, and the type-specific content
// that matters for reading. has_children is only present when true.
func formatBlock(block map[string]any) map[string]any {
	blockType, _ := block["type"].(string)
	if blockType == "" {
		blockType = "unknown"
	}
	formatted := map[string]any{
		"id":   block["id"],
		"type": blockType,
	}
	data := asMap(block[blockType])

	switch blockType {
	case "paragraph", "heading_1", "heading_2", "heading_3",
		"bulleted_list_item", "numbered_list_item", "quote", "callout":
		formatted["content"] = extractPlainText(data["rich_text"])
		if blockType == "callout" {
			if icon := asMap(data["icon"]); icon != nil {
				if iconType, _ := icon["type"].(string); iconType == "emoji" {
					formatted["icon"] = icon["emoji"]
				}
			}
		}

	case "to_do":
		formatted["content"] = extractPlainText(data["rich_text"])
		checked, _ := data["checked"].(bool)
		formatted["checked"] = checked

	case "toggle":
		formatted["content"] = extractPlainText(data["rich_text"])

	case "code":
		formatted["content"] = extractPlainText(data["rich_text"])
		language, _ := data["language"].(string)
		if language == "" {
			language = "plain text"
		}
		formatted["language"] = language

	case "bookmark", "embed", "link_preview":
		formatted["url"] = data["url"]

	case "image", "file", "video", "pdf":
		fileType, _ := data["type"].(string)
		if fileData := asMap(data[fileType]); fileData != nil && fileData["url"] != nil {
			formatted["url"] = fileData["url"]
		} else if external := asMap(data["external"]); external != nil {
			formatted["url"] = external["url"]
		}
		if caption := asSlice(data["caption"]); len(caption) > 0 {
			formatted["caption"] = extractPlainText(data["caption"])
		}

	case "table":
		formatted["table_width"] = data["table_width"]
		formatted["has_column_header"] = data["has_column_header"]
		formatted["has_row_header"] = data["has_row_header"]

	case "table_row":
		var cells []any
		for _, cell := range asSlice(data["cells"]) {
			cells = append(cells, extractPlainText(cell))
		}
		formatted["cells"] = cells

	case "divider", "table_of_contents", "breadcrumb":
		// The type alone is enough.

	case "child_page", "child_database":
		formatted["title"] = data["title"]

	case "synced_block":
		if syncedFrom := asMap(data["synced_from"]); syncedFrom != nil {
			formatted["synced_from"] = syncedFrom["block_id"]
		}

	case "equation":
		formatted["expression"] = data["expression"]
	}

	if hasChildren, _ := block["has_children"].(bool); hasChildren {
		formatted["has_children"] = true
	}
	return formatted
}
