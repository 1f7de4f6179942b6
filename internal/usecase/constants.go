package usecase

import "time"

const (
	// DefaultPollInterval is the reconciliation period. Faster polling
	// improves perceived liveness at the cost of remote-store load.
	DefaultPollInterval = 1500 * time.Millisecond

	// PushTimeout bounds a single relay push. Pushes run detached from the
	// originating request, so they carry their own deadline.
	PushTimeout = 10 * time.Second

	// MaxRetryInterval caps the stretched polling interval under sustained
	// fetch failure.
	MaxRetryInterval = 30 * time.Second
)
