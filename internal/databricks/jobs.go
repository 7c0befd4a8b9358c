package databricks

import (
	"context"
	"fmt"

	"workbridge/internal/shape"
	"workbridge/internal/tools"
)

// CreateJobTool creates a multi-task notebook job on serverless compute.
func (s *Service) CreateJobTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_create_job",
		Description: "Create a job of notebook tasks on serverless compute. Tasks may declare depends_on edges by task_key.",
		Execute:     s.executeCreateJob,
		Schema: tools.Schema{
			Required: []string{"name", "tasks"},
			Properties: map[string]tools.Property{
				"name": {Type: "string", Description: "Job name."},
				"tasks": {
					Type:        "array",
					Description: "Notebook tasks making up the job.",
					Items: &tools.ItemSchema{
						Type: "object",
						Properties: map[string]tools.Property{
							"task_key":      {Type: "string", Description: "Unique key for the task."},
							"notebook_path": {Type: "string", Description: "Workspace path of the notebook."},
							"parameters": {
								Type:                 "object",
								Description:          "Base parameters for the notebook.",
								AdditionalProperties: &tools.ItemSchema{Type: "string"},
							},
							"depends_on": {
								Type:        "array",
								Description: "task_keys this task depends on.",
								Items:       &tools.ItemSchema{Type: "string"},
							},
						},
						Required: []string{"task_key", "notebook_path"},
					},
				},
			},
		},
	}
}

func (s *Service) executeCreateJob(ctx context.Context, args map[string]any) (any, error) {
	name, err := tools.StringArg(args, "name")
	if err != nil {
		return nil, err
	}
	rawTasks, err := tools.OptSliceArg(args, "tasks")
	if err != nil {
		return nil, err
	}
	if len(rawTasks) == 0 {
		return nil, tools.NewValidationError("tasks", "must contain at least one task")
	}

	jobTasks := make([]jobTask, 0, len(rawTasks))
	for i, raw := range rawTasks {
		tc, ok := raw.(map[string]any)
		if !ok {
			return nil, &tools.ValidationError{Field: "tasks", Index: i, Detail: "each task must be an object"}
		}
		taskKey, err := tools.StringArg(tc, "task_key")
		if err != nil {
			return nil, &tools.ValidationError{Field: "tasks", Index: i, Detail: err.Error()}
		}
		notebookPath, err := tools.StringArg(tc, "notebook_path")
		if err != nil {
			return nil, &tools.ValidationError{Field: "tasks", Index: i, Detail: err.Error()}
		}
		params, err := tools.StringMapArg(tc, "parameters")
		if err != nil {
			return nil, &tools.ValidationError{Field: "tasks", Index: i, Detail: err.Error()}
		}

		task := jobTask{
			TaskKey:        taskKey,
			NotebookTask:   &notebookTask{NotebookPath: notebookPath, BaseParameters: params},
			EnvironmentKey: serverlessEnvKey,
		}
		deps, err := tools.OptSliceArg(tc, "depends_on")
		if err != nil {
			return nil, &tools.ValidationError{Field: "tasks", Index: i, Detail: err.Error()}
		}
		for _, dep := range deps {
			depKey, ok := dep.(string)
			if !ok {
				return nil, &tools.ValidationError{Field: "tasks", Index: i, Detail: "depends_on entries must be strings"}
			}
			task.DependsOn = append(task.DependsOn, taskDependency{TaskKey: depKey})
		}
		jobTasks = append(jobTasks, task)
	}

	jobID, err := s.client.createJob(ctx, createJobRequest{
		Name:  name,
		Tasks: jobTasks,
		Environments: []jobEnvironment{{
			EnvironmentKey: serverlessEnvKey,
			Spec:           environmentSpec{EnvironmentVersion: serverlessEnvVersion},
		}},
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"job_id":     jobID,
		"name":       name,
		"task_count": len(jobTasks),
		"message":    fmt.Sprintf("Job created. Use databricks_run_job with job_id=%d to run it.", jobID),
	}, nil
}

// RunJobTool triggers a run of an existing job.
func (s *Service) RunJobTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_run_job",
		Description: "Trigger a run of an existing job, optionally overriding notebook parameters.",
		Execute:     s.executeRunJob,
		Schema: tools.Schema{
			Required: []string{"job_id"},
			Properties: map[string]tools.Property{
				"job_id": {Type: "integer", Description: "Job id to run."},
				"parameters": {
					Type:                 "object",
					Description:          "Notebook parameter overrides for this run.",
					AdditionalProperties: &tools.ItemSchema{Type: "string"},
				},
			},
		},
	}
}

func (s *Service) executeRunJob(ctx context.Context, args map[string]any) (any, error) {
	jobID, err := tools.Int64Arg(args, "job_id")
	if err != nil {
		return nil, err
	}
	params, err := tools.StringMapArg(args, "parameters")
	if err != nil {
		return nil, err
	}

	run, err := s.client.runNow(ctx, runNowRequest{JobID: jobID, NotebookParams: params})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"run_id":  run.RunID,
		"job_id":  jobID,
		"message": fmt.Sprintf("Job run started. Use databricks_wait_for_run with run_id=%d", run.RunID),
	}, nil
}

// GetJobRunStatusTool reports a run's state including per-task states.
func (s *Service) GetJobRunStatusTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_get_job_run_status",
		Description: "Get a job run's state, including per-task states for multi-task jobs.",
		Execute:     s.executeGetJobRunStatus,
		Schema: tools.Schema{
			Required: []string{"run_id"},
			Properties: map[string]tools.Property{
				"run_id": {Type: "integer", Description: "Run id to inspect."},
			},
		},
	}
}

func (s *Service) executeGetJobRunStatus(ctx context.Context, args map[string]any) (any, error) {
	runID, err := tools.Int64Arg(args, "run_id")
	if err != nil {
		return nil, err
	}

	run, err := s.client.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"run_id":        runID,
		"job_id":        run.JobID,
		"state":         lifeCycleState(run.State),
		"result_state":  resultState(run.State),
		"state_message": stateMessage(run.State),
	}

	if len(run.Tasks) > 0 {
		taskStates := make([]map[string]any, 0, len(run.Tasks))
		for _, task := range run.Tasks {
			info := map[string]any{
				"task_key":     task.TaskKey,
				"state":        lifeCycleState(task.State),
				"result_state": resultState(task.State),
			}
			if task.RunID != 0 {
				info["run_id"] = task.RunID
			}
			taskStates = append(taskStates, info)
		}
		result["tasks"] = taskStates
	}
	return result, nil
}

// GetRunLogsTool reads run logs in offset-addressed chunks.
func (s *Service) GetRunLogsTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_get_run_logs",
		Description: "Get logs from a run. Large logs are read in chunks: pass offset from a previous response to continue.",
		Execute:     s.executeGetRunLogs,
		Schema: tools.Schema{
			Required: []string{"run_id"},
			Properties: map[string]tools.Property{
				"run_id":   {Type: "integer", Description: "Run id whose logs to read."},
				"offset":   {Type: "integer", Description: "Character offset to start reading from.", Default: 0},
				"max_size": {Type: "integer", Description: "Maximum characters to return."},
			},
		},
	}
}

func (s *Service) executeGetRunLogs(ctx context.Context, args map[string]any) (any, error) {
	runID, err := tools.Int64Arg(args, "run_id")
	if err != nil {
		return nil, err
	}
	offset, err := tools.OptIntArg(args, "offset", 0)
	if err != nil {
		return nil, err
	}
	limits := s.limits()
	maxSize, err := tools.OptIntArg(args, "max_size", limits.MaxLogSize)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, tools.NewValidationError("offset", "must be >= 0, got %d", offset)
	}
	if maxSize <= 0 {
		return nil, tools.NewValidationError("max_size", "must be positive, got %d", maxSize)
	}

	output, err := s.client.getRunOutput(ctx, runID)
	if err != nil {
		return nil, err
	}

	logs := output.Logs
	totalSize := len(logs)
	if offset > totalSize {
		offset = totalSize
	}
	logs = logs[offset:]

	truncatedByLimit := false
	if len(logs) > maxSize {
		logs = logs[:maxSize]
		truncatedByLimit = true
		logs += fmt.Sprintf("\n\n[... truncated, showing %d chars starting at offset %d. Total size: %d chars]",
			maxSize, offset, totalSize)
	}
	if logs == "" {
		logs = "No logs available"
	}

	result := map[string]any{
		"run_id":                       runID,
		"logs":                         logs,
		"logs_total_size":              totalSize,
		"logs_offset":                  offset,
		"logs_truncated_by_databricks": output.LogsTruncated,
		"logs_truncated_by_limit":      truncatedByLimit,
	}
	if truncatedByLimit {
		result["next_offset"] = offset + maxSize
		result["truncation_note"] = fmt.Sprintf("Use offset=%d to continue reading logs", offset+maxSize)
	}
	if output.Error != "" {
		result["error"] = output.Error
	}
	if output.ErrorTrace != "" {
		trace, report := shape.BoundText(output.ErrorTrace, limits.MaxTextSize, "error_trace")
		shape.Report(result).Merge(report)
		result["error_trace"] = trace
	}
	return result, nil
}

// ListJobsTool lists jobs, optionally filtered by name.
func (s *Service) ListJobsTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_list_jobs",
		Description: "List jobs in the workspace, optionally filtered by name.",
		Execute:     s.executeListJobs,
		Schema: tools.Schema{
			Properties: map[string]tools.Property{
				"name_filter": {Type: "string", Description: "Only return jobs whose name matches."},
				"limit":       {Type: "integer", Description: "Maximum jobs to return.", Default: 25},
			},
		},
	}
}

func (s *Service) executeListJobs(ctx context.Context, args map[string]any) (any, error) {
	nameFilter, err := tools.OptStringArg(args, "name_filter", "")
	if err != nil {
		return nil, err
	}
	limit, err := tools.OptIntArg(args, "limit", 25)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > shape.MaxListItems {
		limit = shape.MaxListItems
	}

	listing, err := s.client.listJobs(ctx, nameFilter, limit)
	if err != nil {
		return nil, err
	}

	jobs := make([]map[string]any, 0, len(listing.Jobs))
	for _, job := range listing.Jobs {
		name := "Unknown"
		if job.Settings != nil {
			name = job.Settings.Name
		}
		jobs = append(jobs, map[string]any{
			"job_id":       job.JobID,
			"name":         name,
			"created_time": job.CreatedTime,
		})
	}
	return map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	}, nil
}

// CancelRunTool cancels an in-flight run.
func (s *Service) CancelRunTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_cancel_run",
		Description: "Cancel a run.",
		Execute:     s.executeCancelRun,
		Schema: tools.Schema{
			Required: []string{"run_id"},
			Properties: map[string]tools.Property{
				"run_id": {Type: "integer", Description: "Run id to cancel."},
			},
		},
	}
}

func (s *Service) executeCancelRun(ctx context.Context, args map[string]any) (any, error) {
	runID, err := tools.Int64Arg(args, "run_id")
	if err != nil {
		return nil, err
	}
	if err := s.client.cancelRun(ctx, runID); err != nil {
		return nil, err
	}
	return map[string]any{
		"run_id":  runID,
		"status":  "cancelled",
		"message": fmt.Sprintf("Run %d has been cancelled", runID),
	}, nil
}
