package app

import (
	"context"
)

type ScheduleUseCase interface {
	Schedule(ctx context.Context, req ScheduleRequest) (*ScheduleResponse, error)
}

type ApplyScheduleUseCase interface {
	Apply(ctx context.Context, resp *ScheduleResponse) (*ApplyResult, error)
}

type PropagateWorkingDaysUseCase interface {
	Run(ctx context.Context, req WorkingDaysChangeRequest) (*WorkingDaysChangeResult, error)
}

// WorkingDaysNotifier is told about every committed calendar change.
type WorkingDaysNotifier interface {
	NotifyWorkingDaysChanged(ctx context.Context, req WorkingDaysChangeRequest) error
}
