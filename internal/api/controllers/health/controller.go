package health

import (
	"context"
	"time"

	"github.com/openappconfig/openappconfig/internal/api/models/health"
)

// Controller reports on whether the service is up
type Controller interface {
	Check(ctx context.Context) health.Status
}

func New() Controller {
	return &impl{
		getNowUtc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type impl struct {
	getNowUtc func() time.Time
}

func (c *impl) Check(ctx context.Context) health.Status {
	return health.Status{
		Status:    health.Healthy,
		Service:   health.ServiceName,
		Timestamp: c.getNowUtc(),
	}
}
