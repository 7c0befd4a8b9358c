package databricks

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"workbridge/internal/notebook"
	"workbridge/internal/runwait"
	"workbridge/internal/shape"
	"workbridge/internal/tools"
)

// RunNotebookTool submits a one-off notebook run on serverless compute.
func (s *Service) RunNotebookTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_run_notebook",
		Description: "Run a notebook on serverless compute. Returns a run_id for polling; use databricks_wait_for_run or databricks_get_run_output to collect results.",
		Execute:     s.executeRunNotebook,
		Schema: tools.Schema{
			Required: []string{"notebook_path"},
			Properties: map[string]tools.Property{
				"notebook_path": {Type: "string", Description: "Workspace path of the notebook to run."},
				"parameters": {
					Type:                 "object",
					Description:          "Base parameters passed to the notebook.",
					AdditionalProperties: &tools.ItemSchema{Type: "string"},
				},
				"timeout_minutes": {Type: "integer", Description: "Task timeout in minutes.", Default: 30},
			},
		},
	}
}

func (s *Service) executeRunNotebook(ctx context.Context, args map[string]any) (any, error) {
	notebookPath, err := tools.StringArg(args, "notebook_path")
	if err != nil {
		return nil, err
	}
	params, err := tools.StringMapArg(args, "parameters")
	if err != nil {
		return nil, err
	}
	timeoutMinutes, err := tools.OptIntArg(args, "timeout_minutes", 30)
	if err != nil {
		return nil, err
	}

	run, err := s.client.submitRun(ctx, submitRunRequest{
		RunName: fmt.Sprintf("workbridge %s %s", path.Base(notebookPath), uuid.NewString()[:8]),
		Tasks: []jobTask{{
			TaskKey:        "notebook_task",
			NotebookTask:   &notebookTask{NotebookPath: notebookPath, BaseParameters: params},
			EnvironmentKey: serverlessEnvKey,
			TimeoutSeconds: timeoutMinutes * 60,
		}},
		Environments: []jobEnvironment{{
			EnvironmentKey: serverlessEnvKey,
			Spec:           environmentSpec{EnvironmentVersion: serverlessEnvVersion},
		}},
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"run_id":  run.RunID,
		"message": fmt.Sprintf("Notebook run submitted. Use databricks_wait_for_run or databricks_get_run_output with run_id=%d", run.RunID),
	}, nil
}

// GetRunOutputTool fetches a run's state, notebook result, and logs.
func (s *Service) GetRunOutputTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_get_run_output",
		Description: "Get the output of a run: state, notebook result, error trace, and logs. Large fields are truncated with metadata.",
		Execute:     s.executeGetRunOutput,
		Schema: tools.Schema{
			Required: []string{"run_id"},
			Properties: map[string]tools.Property{
				"run_id": {Type: "integer", Description: "Run id returned by a run or submit call."},
			},
		},
	}
}

func (s *Service) executeGetRunOutput(ctx context.Context, args map[string]any) (any, error) {
	runID, err := tools.Int64Arg(args, "run_id")
	if err != nil {
		return nil, err
	}
	return s.runOutput(ctx, runID)
}

// runOutput builds the shared run-output payload used by get_run_output and
// by wait_for_run on completion.
func (s *Service) runOutput(ctx context.Context, runID int64) (map[string]any, error) {
	run, err := s.client.getRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	output, err := s.client.getRunOutput(ctx, runID)
	if err != nil {
		return nil, err
	}

	limits := s.limits()
	result := map[string]any{
		"run_id":        runID,
		"state":         lifeCycleState(run.State),
		"result_state":  resultState(run.State),
		"state_message": stateMessage(run.State),
	}

	if output.NotebookOutput != nil {
		nbResult, report := shape.BoundText(output.NotebookOutput.Result, limits.MaxTextSize, "notebook_result")
		shape.Report(result).Merge(report)
		result["notebook_output"] = map[string]any{
			"result":    nbResult,
			"truncated": output.NotebookOutput.Truncated,
		}
	}
	if output.Error != "" {
		result["error"] = output.Error
	}
	if output.ErrorTrace != "" {
		trace, report := shape.BoundText(output.ErrorTrace, limits.MaxTextSize, "error_trace")
		shape.Report(result).Merge(report)
		result["error_trace"] = trace
	}
	if output.Logs != "" {
		logs, report := shape.BoundText(output.Logs, limits.MaxLogSize, "logs")
		shape.Report(result).Merge(report)
		result["logs"] = logs
	}
	return result, nil
}

// WaitForRunTool polls a run until it reaches a terminal state.
func (s *Service) WaitForRunTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_wait_for_run",
		Description: "Wait for a run to complete, polling at a fixed interval. Returns the run output on completion, or status TIMEOUT when the budget is exhausted; the run keeps going either way.",
		Execute:     s.executeWaitForRun,
		Schema: tools.Schema{
			Required: []string{"run_id"},
			Properties: map[string]tools.Property{
				"run_id":                {Type: "integer", Description: "Run id to wait for."},
				"timeout_minutes":       {Type: "integer", Description: "Maximum time to wait.", Default: 30},
				"poll_interval_seconds": {Type: "integer", Description: "Seconds between status checks.", Default: 10},
			},
		},
	}
}

func (s *Service) executeWaitForRun(ctx context.Context, args map[string]any) (any, error) {
	runID, err := tools.Int64Arg(args, "run_id")
	if err != nil {
		return nil, err
	}
	limits := s.limits()
	timeoutMinutes, err := tools.OptIntArg(args, "timeout_minutes", limits.DefaultTimeoutMinutes)
	if err != nil {
		return nil, err
	}
	pollSeconds, err := tools.OptIntArg(args, "poll_interval_seconds", limits.DefaultPollSeconds)
	if err != nil {
		return nil, err
	}

	res, err := runwait.Wait(ctx, func(ctx context.Context) (runwait.Status, error) {
		run, err := s.client.getRun(ctx, runID)
		if err != nil {
			return runwait.Status{}, err
		}
		return runStatus(run.State), nil
	}, time.Duration(timeoutMinutes)*time.Minute, time.Duration(pollSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	if res.TimedOut() {
		return map[string]any{
			"run_id":  runID,
			"status":  "TIMEOUT",
			"message": fmt.Sprintf("Run did not complete within %d minutes", timeoutMinutes),
		}, nil
	}
	return s.runOutput(ctx, runID)
}

// runStatus classifies a run state for the waiter. TERMINATED, SKIPPED and
// INTERNAL_ERROR are terminal life cycle states.
func runStatus(state *RunState) runwait.Status {
	if state == nil {
		return runwait.Status{}
	}
	switch state.LifeCycleState {
	case "TERMINATED":
		if state.ResultState == "SUCCESS" {
			return runwait.Status{Terminal: true, Outcome: runwait.OutcomeSuccess}
		}
		return runwait.Status{Terminal: true, Outcome: runwait.OutcomeFailure}
	case "SKIPPED", "INTERNAL_ERROR":
		return runwait.Status{Terminal: true, Outcome: runwait.OutcomeOther}
	default:
		return runwait.Status{}
	}
}

// ReadNotebookTool exports a notebook and returns its cells with pagination.
func (s *Service) ReadNotebookTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_read_notebook",
		Description: "Read a notebook's cells. Supports cell_offset/cell_limit pagination; oversized cells are truncated individually with per-cell metadata.",
		Execute:     s.executeReadNotebook,
		Schema: tools.Schema{
			Required: []string{"notebook_path"},
			Properties: map[string]tools.Property{
				"notebook_path": {Type: "string", Description: "Workspace path of the notebook."},
				"cell_offset":   {Type: "integer", Description: "Index of the first cell to return.", Default: 0},
				"cell_limit":    {Type: "integer", Description: "Maximum number of cells to return. Omit for all remaining cells."},
			},
		},
	}
}

func (s *Service) executeReadNotebook(ctx context.Context, args map[string]any) (any, error) {
	notebookPath, err := tools.StringArg(args, "notebook_path")
	if err != nil {
		return nil, err
	}
	cellOffset, err := tools.OptIntArg(args, "cell_offset", 0)
	if err != nil {
		return nil, err
	}
	cellLimit, err := tools.OptIntArg(args, "cell_limit", -1)
	if err != nil {
		return nil, err
	}
	if cellOffset < 0 {
		return nil, tools.NewValidationError("cell_offset", "must be >= 0, got %d", cellOffset)
	}

	cells, err := s.fetchCells(ctx, notebookPath)
	if err != nil {
		return nil, err
	}
	totalCells := len(cells)

	if cellOffset > totalCells {
		cellOffset = totalCells
	}
	window := cells[cellOffset:]
	if cellLimit >= 0 && cellLimit < len(window) {
		window = window[:cellLimit]
	}

	limits := s.limits()
	out := make([]string, 0, len(window))
	truncated := map[int]map[string]any{}
	for i, cell := range window {
		bounded, report := shape.BoundText(cell, limits.MaxCellContent, "cell")
		out = append(out, bounded)
		if report != nil {
			truncated[cellOffset+i] = map[string]any{
				"truncated":  true,
				"total_size": len(cell),
				"shown_size": limits.MaxCellContent,
			}
		}
	}

	result := map[string]any{
		"path":           notebookPath,
		"total_cells":    totalCells,
		"cells_returned": len(out),
		"cell_offset":    cellOffset,
		"cells":          out,
	}
	if len(truncated) > 0 {
		result["truncated_cells"] = truncated
		result["truncation_note"] = "Some cells were truncated. Use cell_offset/cell_limit to read specific cells."
	}
	if cellOffset+len(out) < totalCells {
		result["has_more"] = true
		result["next_offset"] = cellOffset + len(out)
	}
	return result, nil
}

// fetchCells exports a notebook in SOURCE format and parses its cells.
func (s *Service) fetchCells(ctx context.Context, notebookPath string) ([]string, error) {
	encoded, err := s.client.exportSource(ctx, notebookPath)
	if err != nil {
		return nil, err
	}
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding exported notebook %s: %w", notebookPath, err)
	}
	return notebook.Parse(string(content)), nil
}

// writeSource imports full notebook content as a Python SOURCE notebook.
func (s *Service) writeSource(ctx context.Context, notebookPath, content string, overwrite bool) error {
	return s.client.importSource(ctx, workspaceImportRequest{
		Path:      notebookPath,
		Content:   base64.StdEncoding.EncodeToString([]byte(content)),
		Format:    "SOURCE",
		Language:  "PYTHON",
		Overwrite: overwrite,
	})
}

// WriteNotebookTool replaces a notebook's full content.
func (s *Service) WriteNotebookTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_write_notebook",
		Description: "Write full notebook content to a workspace path as a Python SOURCE notebook.",
		Execute:     s.executeWriteNotebook,
		Schema: tools.Schema{
			Required: []string{"notebook_path", "content"},
			Properties: map[string]tools.Property{
				"notebook_path": {Type: "string", Description: "Workspace path to write to."},
				"content":       {Type: "string", Description: "Full notebook source content."},
				"overwrite":     {Type: "boolean", Description: "Overwrite an existing notebook.", Default: true},
			},
		},
	}
}

func (s *Service) executeWriteNotebook(ctx context.Context, args map[string]any) (any, error) {
	notebookPath, err := tools.StringArg(args, "notebook_path")
	if err != nil {
		return nil, err
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, tools.NewValidationError("content", "must be a string")
	}
	overwrite, err := tools.OptBoolArg(args, "overwrite", true)
	if err != nil {
		return nil, err
	}

	if err := s.writeSource(ctx, notebookPath, content, overwrite); err != nil {
		return nil, err
	}
	return map[string]any{
		"path":    notebookPath,
		"status":  "success",
		"message": fmt.Sprintf("Notebook written to %s", notebookPath),
	}, nil
}

// ListNotebooksTool lists workspace items under a directory with windowing.
func (s *Service) ListNotebooksTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_list_notebooks",
		Description: "List notebooks and directories under a workspace path, windowed by offset/limit.",
		Execute:     s.executeListNotebooks,
		Schema: tools.Schema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path":   {Type: "string", Description: "Workspace directory to list."},
				"limit":  {Type: "integer", Description: "Maximum items to return (max 100).", Default: 100},
				"offset": {Type: "integer", Description: "Index of the first item to return.", Default: 0},
			},
		},
	}
}

func (s *Service) executeListNotebooks(ctx context.Context, args map[string]any) (any, error) {
	dirPath, err := tools.StringArg(args, "path")
	if err != nil {
		return nil, err
	}
	limit, err := tools.OptIntArg(args, "limit", 0)
	if err != nil {
		return nil, err
	}
	offset, err := tools.OptIntArg(args, "offset", 0)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, tools.NewValidationError("offset", "must be >= 0, got %d", offset)
	}

	listing, err := s.client.listWorkspace(ctx, dirPath)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(listing.Objects))
	for _, obj := range listing.Objects {
		item := map[string]any{
			"path": obj.Path,
			"type": orUnknown(obj.ObjectType),
		}
		if obj.Language != "" {
			item["language"] = obj.Language
		}
		items = append(items, item)
	}

	window := shape.Window(items, offset, limit, nil)
	result := map[string]any{
		"path":           dirPath,
		"items":          window.Items,
		"total_count":    window.TotalMatched,
		"returned_count": window.Returned,
		"offset":         window.Offset,
	}
	if window.HasMore {
		result["has_more"] = true
		result["next_offset"] = *window.NextOffset
	}
	if window.LimitClampedTo > 0 {
		result["limit_clamped_to"] = window.LimitClampedTo
	}
	return result, nil
}

// UpdateNotebookCellTool edits cells in place without rewriting unrelated
// content. Single and batch forms are mutually exclusive.
func (s *Service) UpdateNotebookCellTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_update_notebook_cell",
		Description: "Update one cell (cell_index + new_content) or several cells atomically (updates array). All edits are validated before anything is written; any invalid edit rejects the whole batch.",
		Execute:     s.executeUpdateNotebookCell,
		Schema: tools.Schema{
			Required: []string{"notebook_path"},
			Properties: map[string]tools.Property{
				"notebook_path": {Type: "string", Description: "Workspace path of the notebook to edit."},
				"cell_index":    {Type: "integer", Description: "Zero-based index of the cell to replace (single form)."},
				"new_content":   {Type: "string", Description: "Replacement content for cell_index (single form)."},
				"updates": {
					Type:        "array",
					Description: "Batch form: list of {index, content} edits applied atomically.",
					Items: &tools.ItemSchema{
						Type: "object",
						Properties: map[string]tools.Property{
							"index":   {Type: "integer", Description: "Zero-based cell index."},
							"content": {Type: "string", Description: "Replacement content."},
						},
						Required: []string{"index", "content"},
					},
				},
			},
		},
	}
}

func (s *Service) executeUpdateNotebookCell(ctx context.Context, args map[string]any) (any, error) {
	notebookPath, err := tools.StringArg(args, "notebook_path")
	if err != nil {
		return nil, err
	}

	edits, err := collectEdits(args)
	if err != nil {
		return nil, err
	}

	cells, err := s.fetchCells(ctx, notebookPath)
	if err != nil {
		return nil, err
	}

	updated, err := notebook.ApplyEdits(cells, edits)
	if err != nil {
		return nil, err
	}

	if err := s.writeSource(ctx, notebookPath, notebook.Reconstruct(updated), true); err != nil {
		return nil, err
	}

	indices := notebook.Indices(edits)
	return map[string]any{
		"path":          notebookPath,
		"status":        "success",
		"updated_cells": indices,
		"total_cells":   len(updated),
		"message":       fmt.Sprintf("Updated cell(s) %v in %s", indices, notebookPath),
	}, nil
}

// collectEdits normalizes the single and batch argument forms into one edit
// list, rejecting ambiguous combinations before any upstream read.
func collectEdits(args map[string]any) ([]notebook.Edit, error) {
	_, hasSingle := args["cell_index"]
	batch, err := tools.OptSliceArg(args, "updates")
	if err != nil {
		return nil, err
	}
	hasBatch := batch != nil

	switch {
	case hasSingle && hasBatch:
		return nil, tools.NewValidationError("updates", "provide either cell_index+new_content or updates, not both")
	case !hasSingle && !hasBatch:
		return nil, tools.NewValidationError("updates", "provide either cell_index+new_content or an updates array")
	}

	if hasSingle {
		index, err := tools.IntArg(args, "cell_index")
		if err != nil {
			return nil, err
		}
		content, ok := args["new_content"].(string)
		if !ok {
			return nil, tools.NewValidationError("new_content", "required when using cell_index")
		}
		return []notebook.Edit{{Index: index, Content: content}}, nil
	}

	edits := make([]notebook.Edit, 0, len(batch))
	for i, raw := range batch {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, &tools.ValidationError{Field: "updates", Index: i, Detail: "each update must be an object"}
		}
		index, err := tools.IntArg(entry, "index")
		if err != nil {
			return nil, &tools.ValidationError{Field: "updates", Index: i, Detail: err.Error()}
		}
		content, ok := entry["content"].(string)
		if !ok {
			return nil, &tools.ValidationError{Field: "updates", Index: i, Detail: "content must be a string"}
		}
		edits = append(edits, notebook.Edit{Index: index, Content: content})
	}
	return edits, nil
}

func lifeCycleState(state *RunState) string {
	if state == nil {
		return "UNKNOWN"
	}
	return state.LifeCycleState
}

func resultState(state *RunState) any {
	if state == nil || state.ResultState == "" {
		return nil
	}
	return state.ResultState
}

func stateMessage(state *RunState) any {
	if state == nil || state.StateMessage == "" {
		return nil
	}
	return state.StateMessage
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}
