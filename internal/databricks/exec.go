package databricks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"workbridge/internal/runwait"
	"workbridge/internal/shape"
	"workbridge/internal/tools"
)

var execLanguages = map[string]string{
	"python": "python",
	"scala":  "scala",
	"sql":    "sql",
	"r":      "r",
}

func execLanguage(s string) string {
	if lang, ok := execLanguages[strings.ToLower(s)]; ok {
		return lang
	}
	return "python"
}

// CreateContextTool opens an execution context on a running cluster.
func (s *Service) CreateContextTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_create_context",
		Description: "Create an execution context on a running cluster for interactive code execution. Returns a context_id for databricks_execute_cell.",
		Execute:     s.executeCreateContext,
		Schema: tools.Schema{
			Required: []string{"cluster_id"},
			Properties: map[string]tools.Property{
				"cluster_id": {Type: "string", Description: "Cluster to attach the context to."},
				"language": {
					Type:        "string",
					Description: "Context language.",
					Enum:        []string{"python", "scala", "sql", "r"},
					Default:     "python",
				},
			},
		},
	}
}

func (s *Service) executeCreateContext(ctx context.Context, args map[string]any) (any, error) {
	clusterID, err := tools.StringArg(args, "cluster_id")
	if err != nil {
		return nil, err
	}
	languageArg, err := tools.OptStringArg(args, "language", "python")
	if err != nil {
		return nil, err
	}
	language := execLanguage(languageArg)

	created, err := s.client.createContext(ctx, clusterID, language)
	if err != nil {
		return nil, err
	}

	// Contexts start Pending; poll until Running or error.
	var last contextResponse
	res, err := runwait.Wait(ctx, func(ctx context.Context) (runwait.Status, error) {
		status, err := s.client.contextStatus(ctx, clusterID, created.ID)
		if err != nil {
			return runwait.Status{}, err
		}
		last = status
		switch status.Status {
		case "Running":
			return runwait.Status{Terminal: true, Outcome: runwait.OutcomeSuccess}, nil
		case "Error":
			return runwait.Status{Terminal: true, Outcome: runwait.OutcomeFailure}, nil
		default:
			return runwait.Status{}, nil
		}
	}, 5*time.Minute, 2*time.Second)
	if err != nil {
		return nil, err
	}

	if res.Outcome != runwait.OutcomeSuccess {
		status := last.Status
		if res.TimedOut() {
			status = "TIMEOUT"
		}
		return map[string]any{
			"success":    false,
			"cluster_id": clusterID,
			"status":     status,
			"error":      fmt.Sprintf("Context creation failed with status: %s", status),
		}, nil
	}

	return map[string]any{
		"success":    true,
		"context_id": created.ID,
		"cluster_id": clusterID,
		"language":   languageArg,
		"status":     last.Status,
		"message":    fmt.Sprintf("Execution context created. Use databricks_execute_cell with context_id=%s", created.ID),
	}, nil
}

// ExecuteCellTool runs code in an execution context.
func (s *Service) ExecuteCellTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_execute_cell",
		Description: "Execute code in an execution context and wait for the result. Oversized outputs are truncated: table data row-wise, text by characters.",
		Execute:     s.executeExecuteCell,
		Schema: tools.Schema{
			Required: []string{"cluster_id", "context_id", "code"},
			Properties: map[string]tools.Property{
				"cluster_id": {Type: "string", Description: "Cluster the context runs on."},
				"context_id": {Type: "string", Description: "Context id from databricks_create_context."},
				"code":       {Type: "string", Description: "Code to execute."},
				"language": {
					Type:        "string",
					Description: "Language of the code.",
					Enum:        []string{"python", "scala", "sql", "r"},
					Default:     "python",
				},
				"timeout_minutes": {Type: "integer", Description: "Maximum minutes to wait for completion.", Default: 30},
			},
		},
	}
}

func (s *Service) executeExecuteCell(ctx context.Context, args map[string]any) (any, error) {
	clusterID, err := tools.StringArg(args, "cluster_id")
	if err != nil {
		return nil, err
	}
	contextID, err := tools.StringArg(args, "context_id")
	if err != nil {
		return nil, err
	}
	code, err := tools.StringArg(args, "code")
	if err != nil {
		return nil, err
	}
	languageArg, err := tools.OptStringArg(args, "language", "python")
	if err != nil {
		return nil, err
	}
	timeoutMinutes, err := tools.OptIntArg(args, "timeout_minutes", 30)
	if err != nil {
		return nil, err
	}

	cmd, err := s.client.executeCommand(ctx, commandExecuteRequest{
		ClusterID: clusterID,
		ContextID: contextID,
		Language:  execLanguage(languageArg),
		Command:   code,
	})
	if err != nil {
		return nil, err
	}

	var final commandResponse
	res, err := runwait.Wait(ctx, func(ctx context.Context) (runwait.Status, error) {
		status, err := s.client.commandStatus(ctx, clusterID, contextID, cmd.ID)
		if err != nil {
			return runwait.Status{}, err
		}
		final = status
		switch status.Status {
		case "Finished":
			return runwait.Status{Terminal: true, Outcome: runwait.OutcomeSuccess}, nil
		case "Error", "Cancelled":
			return runwait.Status{Terminal: true, Outcome: runwait.OutcomeFailure}, nil
		default:
			return runwait.Status{}, nil
		}
	}, time.Duration(timeoutMinutes)*time.Minute, 2*time.Second)
	if err != nil {
		return nil, err
	}

	if res.TimedOut() {
		return map[string]any{
			"success":    false,
			"status":     "TIMEOUT",
			"command_id": cmd.ID,
			"message":    fmt.Sprintf("Command did not complete within %d minutes", timeoutMinutes),
		}, nil
	}

	isError := final.Status == "Error" ||
		(final.Results != nil && final.Results.ResultType == "error")

	result := map[string]any{
		"success":    !isError,
		"status":     orUnknown(final.Status),
		"command_id": cmd.ID,
	}

	if final.Results != nil {
		results := final.Results
		if results.ResultType != "" {
			result["result_type"] = results.ResultType
		}
		result["truncated_by_databricks"] = results.Truncated

		if results.Data != nil {
			s.boundCommandData(result, results.Data)
		}
		if results.Cause != "" {
			result["error_cause"] = results.Cause
		}
		if results.Summary != "" {
			result["error_summary"] = results.Summary
		}
		if results.Schema != nil {
			result["schema"] = results.Schema
		}
	}
	return result, nil
}

// boundCommandData bounds command output into result. Table data (a list of
// rows) is truncated row-wise using the average row size; anything else is
// bounded as text.
func (s *Service) boundCommandData(result map[string]any, data any) {
	limits := s.limits()

	var dataStr string
	if str, ok := data.(string); ok {
		dataStr = str
	} else if encoded, err := json.Marshal(data); err == nil {
		dataStr = string(encoded)
	} else {
		dataStr = fmt.Sprint(data)
	}

	if len(dataStr) <= limits.MaxTextSize {
		result["data"] = data
		return
	}

	if rows, ok := data.([]any); ok && len(rows) > 0 {
		avgRowSize := len(dataStr) / len(rows)
		rowsToKeep := limits.MaxTextSize / avgRowSize
		if rowsToKeep < 1 {
			rowsToKeep = 1
		}
		if rowsToKeep > len(rows) {
			rowsToKeep = len(rows)
		}
		result["data"] = rows[:rowsToKeep]
		result["data_truncated"] = true
		result["data_total_rows"] = len(rows)
		result["data_shown_rows"] = rowsToKeep
		result["truncation_note"] = fmt.Sprintf("Showing %d of %d rows. Add LIMIT to your query for smaller results.",
			rowsToKeep, len(rows))
		return
	}

	bounded, report := shape.BoundText(dataStr, limits.MaxTextSize, "data")
	shape.Report(result).Merge(report)
	result["data"] = bounded
}

// DestroyContextTool tears down an execution context.
func (s *Service) DestroyContextTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_destroy_context",
		Description: "Destroy an execution context.",
		Execute:     s.executeDestroyContext,
		Schema: tools.Schema{
			Required: []string{"cluster_id", "context_id"},
			Properties: map[string]tools.Property{
				"cluster_id": {Type: "string", Description: "Cluster the context runs on."},
				"context_id": {Type: "string", Description: "Context id to destroy."},
			},
		},
	}
}

func (s *Service) executeDestroyContext(ctx context.Context, args map[string]any) (any, error) {
	clusterID, err := tools.StringArg(args, "cluster_id")
	if err != nil {
		return nil, err
	}
	contextID, err := tools.StringArg(args, "context_id")
	if err != nil {
		return nil, err
	}

	if err := s.client.destroyContext(ctx, clusterID, contextID); err != nil {
		return nil, err
	}
	return map[string]any{
		"context_id": contextID,
		"cluster_id": clusterID,
		"status":     "destroyed",
		"message":    "Execution context has been destroyed",
	}, nil
}
