package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when the cron expression or timezone is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrAlreadyRunning is returned by Start on a started scheduler
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrGenerationInProgress is returned when another instance holds the
	// generation lock for the tenant and period
	ErrGenerationInProgress = errors.New("invoice generation already in progress for this tenant and period")
)
