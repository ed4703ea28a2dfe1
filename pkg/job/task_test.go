package job

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTypedExecutor(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()

		var got payload
		exec := &typedExecutor[payload]{handler: func(_ context.Context, p payload) error {
			got = p
			return nil
		}}

		err := exec.Execute(context.Background(), json.RawMessage(`{"name":"hello"}`))
		require.NoError(t, err)
		require.Equal(t, "hello", got.Name)
	})

	t.Run("empty payload yields zero value", func(t *testing.T) {
		t.Parallel()

		exec := &typedExecutor[payload]{handler: func(_ context.Context, p payload) error {
			require.Empty(t, p.Name)
			return nil
		}}

		require.NoError(t, exec.Execute(context.Background(), nil))
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()

		exec := &typedExecutor[payload]{handler: func(_ context.Context, _ payload) error {
			t.Fatal("handler must not run")
			return nil
		}}

		err := exec.Execute(context.Background(), json.RawMessage(`{broken`))
		require.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	t.Run("payload and options", func(t *testing.T) {
		t.Parallel()

		at := time.Now().Add(time.Hour)
		args, opts, err := buildArgs("cleanup", map[string]string{"k": "v"},
			ScheduledAt(at),
			WithMaxAttempts(3),
			WithUniqueFor(time.Minute),
		)
		require.NoError(t, err)
		require.Equal(t, "cleanup", args.TaskName)
		require.JSONEq(t, `{"k":"v"}`, string(args.Payload))
		require.Equal(t, at, opts.ScheduledAt)
		require.Equal(t, 3, opts.MaxAttempts)
		require.True(t, opts.UniqueOpts.ByArgs)
	})

	t.Run("unserializable payload", func(t *testing.T) {
		t.Parallel()

		_, _, err := buildArgs("cleanup", make(chan int))
		require.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestTaskRegistry(t *testing.T) {
	t.Parallel()

	r := newTaskRegistry()
	require.Zero(t, r.size())

	r.register("a", &scheduledExecutor{handler: func(context.Context) error { return nil }})
	require.Equal(t, 1, r.size())

	_, ok := r.get("a")
	require.True(t, ok)
	_, ok = r.get("b")
	require.False(t, ok)
}
