package notion

import (
	"context"

	"workbridge/internal/tools"
)

// ListUsersTool lists workspace users with cursor pagination.
func (s *Service) ListUsersTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_list_users",
		Description: "List all users in the workspace.",
		Execute:     s.executeListUsers,
		Schema: tools.Schema{
			Properties: map[string]tools.Property{
				"start_cursor": {Type: "string", Description: "Pagination cursor."},
				"page_size":    {Type: "integer", Description: "Users to return (max 100).", Default: 100},
			},
		},
	}
}

func (s *Service) executeListUsers(ctx context.Context, args map[string]any) (any, error) {
	startCursor, err := tools.OptStringArg(args, "start_cursor", "")
	if err != nil {
		return nil, err
	}
	pageSize, err := tools.OptIntArg(args, "page_size", 0)
	if err != nil {
		return nil, err
	}

	data, err := s.client.listUsers(ctx, startCursor, s.clampPageSize(pageSize))
	if err != nil {
		return nil, err
	}

	maxItems := s.limits().MaxListItems
	users := make([]map[string]any, 0, len(data.Results))
	for _, user := range data.Results {
		if len(users) >= maxItems {
			break
		}
		users = append(users, formatUser(user))
	}

	return map[string]any{
		"users":       users,
		"has_more":    data.HasMore,
		"next_cursor": cursorOrNil(data.NextCursor),
	}, nil
}

// GetUserTool fetches one user.
func (s *Service) GetUserTool() *tools.Tool {
	return &tools.Tool{
		Name:        "notion_get_user",
		Description: "Get details about a specific user.",
		Execute:     s.executeGetUser,
		Schema: tools.Schema{
			Required: []string{"user_id"},
			Properties: map[string]tools.Property{
				"user_id": {Type: "string", Description: "User id to fetch."},
			},
		},
	}
}

func (s *Service) executeGetUser(ctx context.Context, args map[string]any) (any, error) {
	userID, err := tools.StringArg(args, "user_id")
	if err != nil {
		return nil, err
	}
	user, err := s.client.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return formatUser(user), nil
}
