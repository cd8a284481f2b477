package health

import (
	"context"

	"github.com/sallamaty/rounds-console/pkg/client"
)

// UpstreamChecker probes the rounds backend API
type UpstreamChecker struct {
	client *client.Client
}

// NewUpstreamChecker creates a checker for c's backend
func NewUpstreamChecker(c *client.Client) *UpstreamChecker {
	return &UpstreamChecker{client: c}
}

func (u *UpstreamChecker) Name() string { return "api" }

func (u *UpstreamChecker) Check(ctx context.Context) error {
	return u.client.Health(ctx)
}
