package databricks

import (
	"context"
	"fmt"
	"time"

	"workbridge/internal/runwait"
	"workbridge/internal/shape"
	"workbridge/internal/tools"
)

// ListClustersTool lists clusters with optional state filtering.
func (s *Service) ListClustersTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_list_clusters",
		Description: "List clusters, optionally filtered to running or terminated ones. Responses are windowed to at most 100 clusters.",
		Execute:     s.executeListClusters,
		Schema: tools.Schema{
			Properties: map[string]tools.Property{
				"filter_by": {
					Type:        "string",
					Description: "Restrict by state.",
					Enum:        []string{"all", "running", "terminated"},
					Default:     "all",
				},
				"limit":  {Type: "integer", Description: "Maximum clusters to return (max 100).", Default: 25},
				"offset": {Type: "integer", Description: "Index of the first cluster to return.", Default: 0},
			},
		},
	}
}

func (s *Service) executeListClusters(ctx context.Context, args map[string]any) (any, error) {
	filterBy, err := tools.OptStringArg(args, "filter_by", "all")
	if err != nil {
		return nil, err
	}
	switch filterBy {
	case "all", "running", "terminated":
	default:
		return nil, tools.NewValidationError("filter_by", "must be one of all, running, terminated; got %q", filterBy)
	}
	limit, err := tools.OptIntArg(args, "limit", 25)
	if err != nil {
		return nil, err
	}
	offset, err := tools.OptIntArg(args, "offset", 0)
	if err != nil {
		return nil, err
	}

	listing, err := s.client.listClusters(ctx)
	if err != nil {
		return nil, err
	}

	keep := func(c ClusterInfo) bool {
		switch filterBy {
		case "running":
			return c.State == "RUNNING"
		case "terminated":
			return c.State == "TERMINATED"
		default:
			return true
		}
	}

	window := shape.Window(listing.Clusters, offset, limit, keep)
	clusters := make([]map[string]any, 0, len(window.Items))
	for _, c := range window.Items {
		clusters = append(clusters, map[string]any{
			"cluster_id":    c.ClusterID,
			"cluster_name":  c.ClusterName,
			"state":         orUnknown(c.State),
			"spark_version": c.SparkVersion,
			"node_type_id":  c.NodeTypeID,
			"num_workers":   c.NumWorkers,
			"creator":       c.CreatorUserName,
		})
	}

	result := map[string]any{
		"clusters":      clusters,
		"returned":      window.Returned,
		"total_matched": window.TotalMatched,
		"offset":        window.Offset,
	}
	if window.HasMore {
		result["has_more"] = true
		result["next_offset"] = *window.NextOffset
		result["message"] = fmt.Sprintf("Showing %d of %d clusters. Use offset or filter_by to see more.",
			window.Returned, window.TotalMatched)
	}
	if window.LimitClampedTo > 0 {
		result["limit_clamped_to"] = window.LimitClampedTo
	}
	return result, nil
}

// GetClusterStatusTool reports one cluster's detailed state.
func (s *Service) GetClusterStatusTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_get_cluster_status",
		Description: "Get detailed status for one cluster.",
		Execute:     s.executeGetClusterStatus,
		Schema: tools.Schema{
			Required: []string{"cluster_id"},
			Properties: map[string]tools.Property{
				"cluster_id": {Type: "string", Description: "Cluster id to inspect."},
			},
		},
	}
}

func (s *Service) executeGetClusterStatus(ctx context.Context, args map[string]any) (any, error) {
	clusterID, err := tools.StringArg(args, "cluster_id")
	if err != nil {
		return nil, err
	}
	cluster, err := s.client.getCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"cluster_id":              cluster.ClusterID,
		"cluster_name":            cluster.ClusterName,
		"state":                   orUnknown(cluster.State),
		"state_message":           cluster.StateMessage,
		"spark_version":           cluster.SparkVersion,
		"node_type_id":            cluster.NodeTypeID,
		"driver_node_type_id":     cluster.DriverNodeTypeID,
		"num_workers":             cluster.NumWorkers,
		"autotermination_minutes": cluster.AutoterminationMinutes,
		"creator":                 cluster.CreatorUserName,
		"start_time":              cluster.StartTime,
		"terminated_time":         cluster.TerminatedTime,
	}, nil
}

// StartClusterTool starts a terminated cluster, optionally waiting for
// RUNNING.
func (s *Service) StartClusterTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_start_cluster",
		Description: "Start a terminated cluster. By default waits until the cluster is running.",
		Execute:     s.executeStartCluster,
		Schema: tools.Schema{
			Required: []string{"cluster_id"},
			Properties: map[string]tools.Property{
				"cluster_id":      {Type: "string", Description: "Cluster id to start."},
				"wait":            {Type: "boolean", Description: "Wait for the cluster to reach RUNNING.", Default: true},
				"timeout_minutes": {Type: "integer", Description: "Maximum minutes to wait.", Default: 20},
			},
		},
	}
}

func (s *Service) executeStartCluster(ctx context.Context, args map[string]any) (any, error) {
	clusterID, err := tools.StringArg(args, "cluster_id")
	if err != nil {
		return nil, err
	}
	wait, err := tools.OptBoolArg(args, "wait", true)
	if err != nil {
		return nil, err
	}
	timeoutMinutes, err := tools.OptIntArg(args, "timeout_minutes", 20)
	if err != nil {
		return nil, err
	}

	cluster, err := s.client.getCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	if cluster.State == "RUNNING" {
		return map[string]any{
			"cluster_id":   clusterID,
			"cluster_name": cluster.ClusterName,
			"status":       "already_running",
			"state":        "RUNNING",
			"message":      "Cluster is already running",
		}, nil
	}

	if err := s.client.startCluster(ctx, clusterID); err != nil {
		return nil, err
	}

	if !wait {
		return map[string]any{
			"cluster_id":   clusterID,
			"cluster_name": cluster.ClusterName,
			"status":       "starting",
			"state":        "PENDING",
			"message":      fmt.Sprintf("Cluster %s is starting. Use databricks_get_cluster_status to check progress.", cluster.ClusterName),
		}, nil
	}

	res, err := s.waitClusterRunning(ctx, clusterID, timeoutMinutes)
	if err != nil {
		return nil, err
	}
	if res.TimedOut() {
		return map[string]any{
			"cluster_id": clusterID,
			"status":     "TIMEOUT",
			"message":    fmt.Sprintf("Cluster did not reach RUNNING within %d minutes", timeoutMinutes),
		}, nil
	}
	if res.Outcome != runwait.OutcomeSuccess {
		current, err := s.client.getCluster(ctx, clusterID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"cluster_id":    clusterID,
			"cluster_name":  current.ClusterName,
			"status":        "failed",
			"state":         orUnknown(current.State),
			"state_message": current.StateMessage,
		}, nil
	}
	return map[string]any{
		"cluster_id":   clusterID,
		"cluster_name": cluster.ClusterName,
		"status":       "started",
		"state":        "RUNNING",
		"message":      fmt.Sprintf("Cluster %s is now running", cluster.ClusterName),
	}, nil
}

// waitClusterRunning polls cluster state until RUNNING, a dead-end state, or
// timeout.
func (s *Service) waitClusterRunning(ctx context.Context, clusterID string, timeoutMinutes int) (runwait.Result, error) {
	return runwait.Wait(ctx, func(ctx context.Context) (runwait.Status, error) {
		cluster, err := s.client.getCluster(ctx, clusterID)
		if err != nil {
			return runwait.Status{}, err
		}
		switch cluster.State {
		case "RUNNING":
			return runwait.Status{Terminal: true, Outcome: runwait.OutcomeSuccess}, nil
		case "TERMINATED", "ERROR", "UNKNOWN":
			return runwait.Status{Terminal: true, Outcome: runwait.OutcomeFailure}, nil
		default:
			return runwait.Status{}, nil
		}
	}, time.Duration(timeoutMinutes)*time.Minute, s.limits().DefaultPollInterval())
}

// StopClusterTool terminates a cluster.
func (s *Service) StopClusterTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_stop_cluster",
		Description: "Terminate a cluster. The cluster definition is kept and can be started again later.",
		Execute:     s.executeStopCluster,
		Schema: tools.Schema{
			Required: []string{"cluster_id"},
			Properties: map[string]tools.Property{
				"cluster_id": {Type: "string", Description: "Cluster id to terminate."},
			},
		},
	}
}

func (s *Service) executeStopCluster(ctx context.Context, args map[string]any) (any, error) {
	clusterID, err := tools.StringArg(args, "cluster_id")
	if err != nil {
		return nil, err
	}

	cluster, err := s.client.getCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	if err := s.client.deleteCluster(ctx, clusterID); err != nil {
		return nil, err
	}

	return map[string]any{
		"cluster_id":   clusterID,
		"cluster_name": cluster.ClusterName,
		"status":       "terminating",
		"message":      fmt.Sprintf("Cluster %s is being terminated", cluster.ClusterName),
	}, nil
}

// CreateClusterTool creates a cluster with Unity Catalog defaults.
func (s *Service) CreateClusterTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_create_cluster",
		Description: "Create a cluster with sensible defaults: m5.xlarge nodes, autotermination after 120 minutes, SINGLE_USER data security mode assigned to the authenticated user.",
		Execute:     s.executeCreateCluster,
		Schema: tools.Schema{
			Required: []string{"cluster_name"},
			Properties: map[string]tools.Property{
				"cluster_name":            {Type: "string", Description: "Name for the new cluster."},
				"num_workers":             {Type: "integer", Description: "Number of worker nodes.", Default: 1},
				"node_type_id":            {Type: "string", Description: "Node type.", Default: "m5.xlarge"},
				"spark_version":           {Type: "string", Description: "Spark runtime version.", Default: "17.3.x-scala2.12"},
				"policy_id":               {Type: "string", Description: "Cluster policy to apply."},
				"autotermination_minutes": {Type: "integer", Description: "Idle minutes before autotermination.", Default: 120},
				"data_security_mode": {
					Type:        "string",
					Description: "Unity Catalog data security mode.",
					Enum:        []string{"SINGLE_USER", "USER_ISOLATION", "NONE"},
					Default:     "SINGLE_USER",
				},
				"single_user_name": {Type: "string", Description: "User for SINGLE_USER mode. Defaults to the authenticated user."},
				"custom_tags": {
					Type:                 "object",
					Description:          "Custom tags applied to the cluster.",
					AdditionalProperties: &tools.ItemSchema{Type: "string"},
				},
				"wait":            {Type: "boolean", Description: "Wait for the cluster to reach RUNNING.", Default: false},
				"timeout_minutes": {Type: "integer", Description: "Maximum minutes to wait when wait=true.", Default: 20},
			},
		},
	}
}

func (s *Service) executeCreateCluster(ctx context.Context, args map[string]any) (any, error) {
	clusterName, err := tools.StringArg(args, "cluster_name")
	if err != nil {
		return nil, err
	}
	numWorkers, err := tools.OptIntArg(args, "num_workers", 1)
	if err != nil {
		return nil, err
	}
	nodeTypeID, err := tools.OptStringArg(args, "node_type_id", "m5.xlarge")
	if err != nil {
		return nil, err
	}
	sparkVersion, err := tools.OptStringArg(args, "spark_version", "17.3.x-scala2.12")
	if err != nil {
		return nil, err
	}
	policyID, err := tools.OptStringArg(args, "policy_id", "")
	if err != nil {
		return nil, err
	}
	autotermination, err := tools.OptIntArg(args, "autotermination_minutes", 120)
	if err != nil {
		return nil, err
	}
	securityMode, err := tools.OptStringArg(args, "data_security_mode", "SINGLE_USER")
	if err != nil {
		return nil, err
	}
	switch securityMode {
	case "SINGLE_USER", "USER_ISOLATION", "NONE":
	default:
		return nil, tools.NewValidationError("data_security_mode",
			"must be one of SINGLE_USER, USER_ISOLATION, NONE; got %q", securityMode)
	}
	singleUser, err := tools.OptStringArg(args, "single_user_name", "")
	if err != nil {
		return nil, err
	}
	customTags, err := tools.StringMapArg(args, "custom_tags")
	if err != nil {
		return nil, err
	}
	wait, err := tools.OptBoolArg(args, "wait", false)
	if err != nil {
		return nil, err
	}
	timeoutMinutes, err := tools.OptIntArg(args, "timeout_minutes", 20)
	if err != nil {
		return nil, err
	}

	if securityMode == "SINGLE_USER" && singleUser == "" {
		singleUser, err = s.client.currentUser(ctx)
		if err != nil {
			return nil, err
		}
	}

	req := createClusterRequest{
		ClusterName:            clusterName,
		SparkVersion:           sparkVersion,
		NodeTypeID:             nodeTypeID,
		NumWorkers:             numWorkers,
		AutoterminationMinutes: autotermination,
		DataSecurityMode:       securityMode,
		PolicyID:               policyID,
		CustomTags:             customTags,
	}
	if securityMode == "SINGLE_USER" {
		req.SingleUserName = singleUser
	}

	clusterID, err := s.client.createCluster(ctx, req)
	if err != nil {
		return nil, err
	}

	if !wait {
		return map[string]any{
			"cluster_id":   clusterID,
			"cluster_name": clusterName,
			"status":       "creating",
			"message":      fmt.Sprintf("Cluster %q creation started. Use databricks_get_cluster_status to check progress.", clusterName),
		}, nil
	}

	res, err := s.waitClusterRunning(ctx, clusterID, timeoutMinutes)
	if err != nil {
		return nil, err
	}
	if res.TimedOut() {
		return map[string]any{
			"cluster_id": clusterID,
			"status":     "TIMEOUT",
			"message":    fmt.Sprintf("Cluster did not reach RUNNING within %d minutes", timeoutMinutes),
		}, nil
	}
	current, err := s.client.getCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"cluster_id":   clusterID,
		"cluster_name": clusterName,
		"state":        orUnknown(current.State),
		"status":       "created_and_running",
		"message":      fmt.Sprintf("Cluster %q created and is now running", clusterName),
	}, nil
}

// ListClusterPoliciesTool lists available cluster policies.
func (s *Service) ListClusterPoliciesTool() *tools.Tool {
	return &tools.Tool{
		Name:        "databricks_list_cluster_policies",
		Description: "List cluster policies available in the workspace.",
		Execute:     s.executeListClusterPolicies,
		Schema:      tools.Schema{},
	}
}

func (s *Service) executeListClusterPolicies(ctx context.Context, args map[string]any) (any, error) {
	listing, err := s.client.listClusterPolicies(ctx)
	if err != nil {
		return nil, err
	}

	policies := make([]map[string]any, 0, len(listing.Policies))
	for _, p := range listing.Policies {
		policies = append(policies, map[string]any{
			"policy_id":   p.PolicyID,
			"name":        p.Name,
			"description": p.Description,
		})
	}
	return map[string]any{
		"policies": policies,
		"count":    len(policies),
	}, nil
}
