package job

import "errors"

var (
	ErrPoolRequired   = errors.New("job: connection pool is required")
	ErrUnknownTask    = errors.New("job: unknown task")
	ErrInvalidPayload = errors.New("job: invalid payload")
	ErrAlreadyStarted = errors.New("job: manager already started")
	ErrNotStarted     = errors.New("job: manager not started")
)
