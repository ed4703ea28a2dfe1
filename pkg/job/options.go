package job

import "log/slog"

type scheduledTask struct {
	name     string
	schedule string
	handler  ScheduledHandler
}

type config struct {
	registry   *taskRegistry
	schedules  []scheduledTask
	logger     *slog.Logger
	maxWorkers int
}

func newConfig() *config {
	return &config{registry: newTaskRegistry()}
}

// Option configures the manager at construction.
type Option func(*config)

// WithTask registers a typed task handler under the given name.
func WithTask[T any](name string, handler Handler[T]) Option {
	return func(c *config) {
		c.registry.register(name, &typedExecutor[T]{handler: handler})
	}
}

// WithScheduledTask registers a handler run on a standard cron schedule
// (five fields, or descriptors like @daily).
func WithScheduledTask(name, schedule string, handler ScheduledHandler) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduledTask{
			name:     name,
			schedule: schedule,
			handler:  handler,
		})
	}
}

// WithLogger sets the logger used by the manager and its workers.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMaxWorkers caps concurrent job execution on the default queue.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}
