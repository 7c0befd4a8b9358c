package databricks

import (
	"context"
	"net/url"
	"strconv"
)

// Wire types for the subset of the Databricks REST API the tools touch.

// RunState is the state block shared by runs and their tasks.
type RunState struct {
	LifeCycleState string `json:"life_cycle_state"`
	ResultState    string `json:"result_state,omitempty"`
	StateMessage   string `json:"state_message,omitempty"`
}

type notebookTask struct {
	NotebookPath   string            `json:"notebook_path"`
	BaseParameters map[string]string `json:"base_parameters,omitempty"`
}

type taskDependency struct {
	TaskKey string `json:"task_key"`
}

type jobTask struct {
	TaskKey        string           `json:"task_key"`
	NotebookTask   *notebookTask    `json:"notebook_task,omitempty"`
	EnvironmentKey string           `json:"environment_key,omitempty"`
	TimeoutSeconds int              `json:"timeout_seconds,omitempty"`
	DependsOn      []taskDependency `json:"depends_on,omitempty"`
}

type jobEnvironment struct {
	EnvironmentKey string          `json:"environment_key"`
	Spec           environmentSpec `json:"spec"`
}

type environmentSpec struct {
	EnvironmentVersion string `json:"environment_version"`
}

type submitRunRequest struct {
	RunName      string           `json:"run_name"`
	Tasks        []jobTask        `json:"tasks"`
	Environments []jobEnvironment `json:"environments,omitempty"`
}

type runIDResponse struct {
	RunID int64 `json:"run_id"`
}

type runResponse struct {
	RunID int64     `json:"run_id"`
	JobID int64     `json:"job_id"`
	State *RunState `json:"state"`
	Tasks []struct {
		TaskKey string    `json:"task_key"`
		RunID   int64     `json:"run_id"`
		State   *RunState `json:"state"`
	} `json:"tasks"`
}

type runOutputResponse struct {
	NotebookOutput *struct {
		Result    string `json:"result"`
		Truncated bool   `json:"truncated"`
	} `json:"notebook_output"`
	Error         string `json:"error"`
	ErrorTrace    string `json:"error_trace"`
	Logs          string `json:"logs"`
	LogsTruncated bool   `json:"logs_truncated"`
}

type createJobRequest struct {
	Name         string           `json:"name"`
	Tasks        []jobTask        `json:"tasks"`
	Environments []jobEnvironment `json:"environments,omitempty"`
}

type runNowRequest struct {
	JobID          int64             `json:"job_id"`
	NotebookParams map[string]string `json:"notebook_params,omitempty"`
}

type jobsListResponse struct {
	Jobs []struct {
		JobID    int64 `json:"job_id"`
		Settings *struct {
			Name string `json:"name"`
		} `json:"settings"`
		CreatedTime int64 `json:"created_time"`
	} `json:"jobs"`
}

type workspaceExportResponse struct {
	Content string `json:"content"`
}

type workspaceImportRequest struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Format    string `json:"format"`
	Language  string `json:"language"`
	Overwrite bool   `json:"overwrite"`
}

type workspaceListResponse struct {
	Objects []struct {
		Path       string `json:"path"`
		ObjectType string `json:"object_type"`
		Language   string `json:"language"`
	} `json:"objects"`
}

// ClusterInfo is the cluster detail record returned by the clusters API.
type ClusterInfo struct {
	ClusterID              string `json:"cluster_id"`
	ClusterName            string `json:"cluster_name"`
	State                  string `json:"state"`
	StateMessage           string `json:"state_message,omitempty"`
	SparkVersion           string `json:"spark_version"`
	NodeTypeID             string `json:"node_type_id"`
	DriverNodeTypeID       string `json:"driver_node_type_id,omitempty"`
	NumWorkers             int    `json:"num_workers"`
	AutoterminationMinutes int    `json:"autotermination_minutes"`
	CreatorUserName        string `json:"creator_user_name"`
	StartTime              int64  `json:"start_time,omitempty"`
	TerminatedTime         int64  `json:"terminated_time,omitempty"`
}

type clustersListResponse struct {
	Clusters []ClusterInfo `json:"clusters"`
}

type createClusterRequest struct {
	ClusterName            string            `json:"cluster_name"`
	SparkVersion           string            `json:"spark_version"`
	NodeTypeID             string            `json:"node_type_id"`
	NumWorkers             int               `json:"num_workers"`
	AutoterminationMinutes int               `json:"autotermination_minutes"`
	DataSecurityMode       string            `json:"data_security_mode,omitempty"`
	SingleUserName         string            `json:"single_user_name,omitempty"`
	PolicyID               string            `json:"policy_id,omitempty"`
	CustomTags             map[string]string `json:"custom_tags,omitempty"`
}

type policiesListResponse struct {
	Policies []struct {
		PolicyID    string `json:"policy_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"policies"`
}

type scimMeResponse struct {
	UserName string `json:"userName"`
}

type contextCreateRequest struct {
	ClusterID string `json:"clusterId"`
	Language  string `json:"language"`
}

type contextResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type commandExecuteRequest struct {
	ClusterID string `json:"clusterId"`
	ContextID string `json:"contextId"`
	Language  string `json:"language"`
	Command   string `json:"command"`
}

type commandResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Results *struct {
		ResultType string `json:"resultType"`
		Data       any    `json:"data"`
		Truncated  bool   `json:"truncated"`
		Cause      string `json:"cause"`
		Summary    string `json:"summary"`
		Schema     any    `json:"schema"`
	} `json:"results"`
}

func (c *Client) submitRun(ctx context.Context, req submitRunRequest) (runIDResponse, error) {
	var out runIDResponse
	err := c.post(ctx, "/api/2.1/jobs/runs/submit", req, &out)
	return out, err
}

func (c *Client) getRun(ctx context.Context, runID int64) (runResponse, error) {
	var out runResponse
	err := c.get(ctx, "/api/2.1/jobs/runs/get", url.Values{"run_id": {strconv.FormatInt(runID, 10)}}, &out)
	return out, err
}

func (c *Client) getRunOutput(ctx context.Context, runID int64) (runOutputResponse, error) {
	var out runOutputResponse
	err := c.get(ctx, "/api/2.1/jobs/runs/get-output", url.Values{"run_id": {strconv.FormatInt(runID, 10)}}, &out)
	return out, err
}

func (c *Client) createJob(ctx context.Context, req createJobRequest) (int64, error) {
	var out struct {
		JobID int64 `json:"job_id"`
	}
	err := c.post(ctx, "/api/2.1/jobs/create", req, &out)
	return out.JobID, err
}

func (c *Client) runNow(ctx context.Context, req runNowRequest) (runIDResponse, error) {
	var out runIDResponse
	err := c.post(ctx, "/api/2.1/jobs/run-now", req, &out)
	return out, err
}

func (c *Client) listJobs(ctx context.Context, nameFilter string, limit int) (jobsListResponse, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if nameFilter != "" {
		q.Set("name", nameFilter)
	}
	var out jobsListResponse
	err := c.get(ctx, "/api/2.1/jobs/list", q, &out)
	return out, err
}

func (c *Client) cancelRun(ctx context.Context, runID int64) error {
	return c.post(ctx, "/api/2.1/jobs/runs/cancel", map[string]int64{"run_id": runID}, nil)
}

func (c *Client) exportSource(ctx context.Context, path string) (string, error) {
	var out workspaceExportResponse
	err := c.get(ctx, "/api/2.0/workspace/export", url.Values{
		"path":   {path},
		"format": {"SOURCE"},
	}, &out)
	return out.Content, err
}

func (c *Client) importSource(ctx context.Context, req workspaceImportRequest) error {
	return c.post(ctx, "/api/2.0/workspace/import", req, nil)
}

func (c *Client) listWorkspace(ctx context.Context, path string) (workspaceListResponse, error) {
	var out workspaceListResponse
	err := c.get(ctx, "/api/2.0/workspace/list", url.Values{"path": {path}}, &out)
	return out, err
}

func (c *Client) listClusters(ctx context.Context) (clustersListResponse, error) {
	var out clustersListResponse
	err := c.get(ctx, "/api/2.1/clusters/list", nil, &out)
	return out, err
}

func (c *Client) getCluster(ctx context.Context, clusterID string) (ClusterInfo, error) {
	var out ClusterInfo
	err := c.get(ctx, "/api/2.1/clusters/get", url.Values{"cluster_id": {clusterID}}, &out)
	return out, err
}

func (c *Client) startCluster(ctx context.Context, clusterID string) error {
	return c.post(ctx, "/api/2.1/clusters/start", map[string]string{"cluster_id": clusterID}, nil)
}

func (c *Client) deleteCluster(ctx context.Context, clusterID string) error {
	return c.post(ctx, "/api/2.1/clusters/delete", map[string]string{"cluster_id": clusterID}, nil)
}

func (c *Client) createCluster(ctx context.Context, req createClusterRequest) (string, error) {
	var out struct {
		ClusterID string `json:"cluster_id"`
	}
	err := c.post(ctx, "/api/2.1/clusters/create", req, &out)
	return out.ClusterID, err
}

func (c *Client) listClusterPolicies(ctx context.Context) (policiesListResponse, error) {
	var out policiesListResponse
	err := c.get(ctx, "/api/2.0/policies/clusters/list", nil, &out)
	return out, err
}

func (c *Client) currentUser(ctx context.Context) (string, error) {
	var out scimMeResponse
	err := c.get(ctx, "/api/2.0/preview/scim/v2/Me", nil, &out)
	return out.UserName, err
}

func (c *Client) createContext(ctx context.Context, clusterID, language string) (contextResponse, error) {
	var out contextResponse
	err := c.post(ctx, "/api/1.2/contexts/create", contextCreateRequest{ClusterID: clusterID, Language: language}, &out)
	return out, err
}

func (c *Client) contextStatus(ctx context.Context, clusterID, contextID string) (contextResponse, error) {
	var out contextResponse
	err := c.get(ctx, "/api/1.2/contexts/status", url.Values{
		"clusterId": {clusterID},
		"contextId": {contextID},
	}, &out)
	return out, err
}

func (c *Client) destroyContext(ctx context.Context, clusterID, contextID string) error {
	return c.post(ctx, "/api/1.2/contexts/destroy", map[string]string{
		"clusterId": clusterID,
		"contextId": contextID,
	}, nil)
}

func (c *Client) executeCommand(ctx context.Context, req commandExecuteRequest) (commandResponse, error) {
	var out commandResponse
	err := c.post(ctx, "/api/1.2/commands/execute", req, &out)
	return out, err
}

func (c *Client) commandStatus(ctx context.Context, clusterID, contextID, commandID string) (commandResponse, error) {
	var out commandResponse
	err := c.get(ctx, "/api/1.2/commands/status", url.Values{
		"clusterId": {clusterID},
		"contextId": {contextID},
		"commandId": {commandID},
	}, &out)
	return out, err
}
