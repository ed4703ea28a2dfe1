package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Handler processes a typed task payload.
type Handler[T any] func(ctx context.Context, payload T) error

// ScheduledHandler processes a periodic task. Scheduled tasks carry no
// payload; the trigger itself is the signal.
type ScheduledHandler func(ctx context.Context) error

// executor runs a task from its raw JSON payload.
type executor interface {
	Execute(ctx context.Context, payload json.RawMessage) error
}

// typedExecutor decodes the payload into T before invoking the handler.
type typedExecutor[T any] struct {
	handler Handler[T]
}

func (e *typedExecutor[T]) Execute(ctx context.Context, payload json.RawMessage) error {
	var p T
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	return e.handler(ctx, p)
}

// scheduledExecutor ignores the payload entirely.
type scheduledExecutor struct {
	handler ScheduledHandler
}

func (e *scheduledExecutor) Execute(ctx context.Context, _ json.RawMessage) error {
	return e.handler(ctx)
}

type taskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]executor
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{tasks: make(map[string]executor)}
}

func (r *taskRegistry) register(name string, exec executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = exec
}

func (r *taskRegistry) get(name string) (executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.tasks[name]
	return exec, ok
}

func (r *taskRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
