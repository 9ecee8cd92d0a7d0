package daemonctl

import (
	"context"
	"errors"
	"time"

	"singalong/internal/ipc"
	"singalong/internal/preflight"
)

// checkTimeout bounds the local readiness checks run for a status report.
const checkTimeout = 2 * time.Second

// StatusSnapshot joins daemon status with local readiness checks.
type StatusSnapshot struct {
	Daemon    ipc.StatusResponse `json:"daemon"`
	Reachable bool               `json:"reachable"`
	Checks    []preflight.Result `json:"checks"`
}

// Snapshot collects daemon status and runs the preflight checks locally, so
// the report is still useful when the daemon is offline.
func (c *Controller) Snapshot(ctx context.Context) (*StatusSnapshot, error) {
	if c.Config == nil {
		return nil, errors.New("configuration not available")
	}
	snapshot := &StatusSnapshot{}
	if client, err := c.dial(); err == nil {
		if resp, err := client.Status(); err == nil {
			snapshot.Daemon = *resp
			snapshot.Reachable = true
		}
		_ = client.Close()
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	snapshot.Checks = preflight.RunAll(checkCtx, c.Config)
	return snapshot, nil
}
