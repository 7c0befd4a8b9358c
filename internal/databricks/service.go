package databricks

import (
	"go.uber.org/zap"

	"workbridge/internal/config"
)

const serverlessEnvKey = "serverless_env"

// serverlessEnvVersion selects the serverless Python environment for
// submitted runs and created jobs.
const serverlessEnvVersion = "2"

// Service wires the workspace client to the tool layer. Limits are read per
// call so live config reloads take effect without a restart.
type Service struct {
	client *Client
	limits func() config.Limits
	log    *zap.Logger
}

// NewService builds the Databricks tool service.
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
