package databricks

import "workbridge/internal/tools"

// RegisterAll registers every Databricks tool with the registry.
func (s *Service) RegisterAll(registry *tools.Registry) error {
	all := []*tools.Tool{
		// Notebooks
		s.RunNotebookTool(),
		s.GetRunOutputTool(),
		s.WaitForRunTool(),
		s.ReadNotebookTool(),
		s.WriteNotebookTool(),
		s.ListNotebooksTool(),
		s.UpdateNotebookCellTool(),

		// Jobs
		s.CreateJobTool(),
		s.RunJobTool(),
		s.GetJobRunStatusTool(),
		s.GetRunLogsTool(),
		s.ListJobsTool(),
		s.CancelRunTool(),

		// Clusters
		s.ListClustersTool(),
		s.GetClusterStatusTool(),
		s.StartClusterTool(),
		s.StopClusterTool(),
		s.CreateClusterTool(),
		s.ListClusterPoliciesTool(),

		// Interactive execution
		s.CreateContextTool(),
		s.ExecuteCellTool(),
		s.DestroyContextTool(),
	}

	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
