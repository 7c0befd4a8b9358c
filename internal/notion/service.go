package notion

import (
	"go.uber.org/zap"

	"workbridge/internal/config"
	"workbridge/internal/tools"
)

// Service wires the Notion client to the tool layer.
type Service struct {
	client *Client
	limits func() config.Limits
	log    *zap.Logger
}

// NewService builds the Notion tool service.
func NewService(client *Client, limits func() config.Limits, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if limits == nil {
		def := config.DefaultLimits()
		limits = func() config.Limits { return def }
	}
	return &Service{client: client, limits: limits, log: log}
}

// RegisterAll registers every Notion tool with the registry.
func (s *Service) RegisterAll(registry *tools.Registry) error {
	all := []*tools.Tool{
		s.QueryDataSourceTool(),
		s.GetDatabaseTool(),
		s.SearchTool(),
		s.GetPageTool(),
		s.GetPageContentTool(),
		s.CreatePageTool(),
		s.UpdatePageTool(),
		s.AppendBlocksTool(),
		s.UpdateBlockTool(),
		s.ListUsersTool(),
		s.GetUserTool(),
	}

	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// clampPageSize bounds a caller-provided page size to the list limit.
func (s *Service) clampPageSize(size int) int {
	max := s.limits().MaxListItems
	if size <= 0 || size > max {
		return max
	}
	return size
}
