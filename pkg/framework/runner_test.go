package framework

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerStopsOnError(t *testing.T) {
	failure := errors.New("link closed")
	r := NewRunner()
	r.Go(
		NamedRun("link", RunFunc(func(ctx context.Context) error {
			return failure
		})),
		NamedRun("bridge", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
	)
	err := r.Wait()
	require.Error(t, err)
	require.Equal(t, &RunnerError{Name: "link", Err: failure}, err.(*AggregatedError).Errors[0])
	require.EqualError(t, err, "link: link closed")
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	for i := 0; i < 3; i++ {
		r.Go(RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))
	}
	r.Stop()
	require.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.EqualError(t, errs.Aggregate(), "Multiple errors:\na\nb")
}

type closeRecorder struct {
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	c := &closeRecorder{}
	require.Equal(t, io.EOF, RunWithContextCloser(context.Background(), c, func() error {
		return io.EOF
	}))
	require.Equal(t, 1, c.closed)

	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	cancel()
	err := RunWithContextCloser(ctx, closeFunc(func() { close(block) }), func() error {
		<-block
		return io.ErrClosedPipe
	})
	require.Equal(t, context.Canceled, err)
}

type closeFunc func()

func (f closeFunc) Close() error {
	f()
	return nil
}
