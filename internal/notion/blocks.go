package notion

import (
	"context"

	"workbridge/internal/tools"
)

// AppendBlocksTool appends content blocks to a page or block.
func (s *Service) AppendBlocksTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_append_blocks",
		Description: "Append content blocks to a page or block.",
		Execute:     s.executeAppendBlocks,
		Schema: tools.Schema{
			Required: []string{"block_id", "children"},
			Properties: map[string]tools.Property{
				"block_id": {Type: "string", Description: "Page or block id to append to."},
				"children": {
					Type:        "array",
					Description: "Block objects to append.",
					Items:       &tools.ItemSchema{Type: "object"},
				},
			},
		},
	}
}

func (s *Service) executeAppendBlocks(ctx context.Context, args map[string]any) (any, error) {
	blockID, err := tools.StringArg(args, "block_id")
	if err != nil {
		return nil, err
	}
	children, err := tools.OptSliceArg(args, "children")
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, tools.NewValidationError("children", "must contain at least one block")
	}

	data, err := s.client.appendBlockChildren(ctx, blockID, children)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"results":     data.Results,
		"block_count": len(data.Results),
	}, nil
}

// UpdateBlockTool updates a block's content or archives it.
func (s *Service) UpdateBlockTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_update_block",
		Description: "Update a block's content, or archive it with archived=true. block_content carries the block type and new content, e.g. {\"paragraph\": {\"rich_text\": [{\"text\": {\"content\": \"Updated\"}}]}}.",
		Execute:     s.executeUpdateBlock,
		Schema: tools.Schema{
			Required: []string{"block_id"},
			Properties: map[string]tools.Property{
				"block_id":      {Type: "string", Description: "Block id to update."},
				"block_content": {Type: "object", Description: "Block type and content to set."},
				"archived":      {Type: "boolean", Description: "Set true to archive the block."},
			},
		},
	}
}

func (s *Service) executeUpdateBlock(ctx context.Context, args map[string]any) (any, error) {
	blockID, err := tools.StringArg(args, "block_id")
	if err != nil {
		return nil, err
	}
	content, err := tools.OptMapArg(args, "block_content")
	if err != nil {
		return nil, err
	}

	body := map[string]any{}
	for k, v := range content {
		body[k] = v
	}
	if archived, ok := args["archived"]; ok {
		b, ok := archived.(bool)
		if !ok {
			return nil, tools.NewValidationError("archived", "must be a boolean, got %T", archived)
		}
		body["archived"] = b
	}
	if len(body) == 0 {
		return nil, tools.NewValidationError("block_content", "nothing to update: provide block_content or archived")
	}

	data, err := s.client.updateBlock(ctx, blockID, body)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":               data["id"],
		"type":             data["type"],
		"last_edited_time": data["last_edited_time"],
	}, nil
}
