package asyncop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

type countingObserver struct {
	attempts int
	failures int
}

func (o *countingObserver) ObserveAttempt(_ string, _ int, err error) {
	o.attempts++
	if err != nil {
		o.failures++
	}
}

func flaky(failures int, value string) (Func[string, string], *[]string) {
	var seen []string
	calls := 0
	return func(_ context.Context, args string) (string, error) {
		seen = append(seen, args)
		calls++
		if calls <= failures {
			return "", errors.New("temporary failure")
		}
		return value, nil
	}, &seen
}

func TestExecuteSucceedsAfterTransientFailures(t *testing.T) {
	for k := 0; k < 3; k++ {
		fn, seen := flaky(k, "ok")
		sleeper := &recordingSleeper{}
		observer := &countingObserver{}
		op := New(fn, Options{RetryAttempts: 3, RetryDelay: 250 * time.Millisecond, Sleep: sleeper.Sleep, Observer: observer})

		got, err := op.Execute(context.Background(), "page=2")
		require.NoError(t, err)
		assert.Equal(t, "ok", got)

		state := op.State()
		assert.NoError(t, state.Err)
		assert.False(t, state.Loading)
		assert.True(t, state.HasData)
		assert.Equal(t, "ok", state.Data)
		assert.Equal(t, k+1, state.Attempts)

		assert.Len(t, *seen, k+1)
		for _, args := range *seen {
			assert.Equal(t, "page=2", args, "retries reuse the same arguments")
		}
		assert.Len(t, sleeper.delays, k)
		for _, d := range sleeper.delays {
			assert.Equal(t, 250*time.Millisecond, d, "delay is fixed")
		}
		assert.Equal(t, k+1, observer.attempts)
		assert.Equal(t, k, observer.failures)
	}
}

func TestExecuteAlwaysFailingInvokesOnErrorOnce(t *testing.T) {
	failure := errors.New("upstream down")
	calls := 0
	var reported []error
	op := New(func(context.Context, struct{}) (int, error) {
		calls++
		return 0, failure
	}, Options{
		RetryAttempts: 4,
		Sleep:         (&recordingSleeper{}).Sleep,
		OnError:       func(err error) { reported = append(reported, err) },
	})

	got, err := op.Execute(context.Background(), struct{}{})
	assert.ErrorIs(t, err, failure)
	assert.Zero(t, got)
	assert.Equal(t, 4, calls)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], failure)

	state := op.State()
	assert.ErrorIs(t, state.Err, failure)
	assert.False(t, state.Loading)
	assert.False(t, state.HasData)
}

func TestExecuteKeepsPriorDataWhileLoading(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0
	op := New(func(ctx context.Context, n int) (int, error) {
		calls++
		if calls == 2 {
			close(started)
			<-release
		}
		return n * 10, nil
	}, Options{RetryAttempts: 1})

	_, err := op.Execute(context.Background(), 1)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = op.Execute(context.Background(), 2)
	}()
	<-started
	state := op.State()
	assert.True(t, state.Loading)
	assert.Equal(t, 10, state.Data)
	close(release)
	<-done

	assert.Equal(t, 20, op.State().Data)
}

func TestExecuteConvertsPanicToError(t *testing.T) {
	op := New(func(context.Context, int) (int, error) {
		panic("nil map")
	}, Options{Name: "students", RetryAttempts: 2, Sleep: (&recordingSleeper{}).Sleep})

	_, err := op.Execute(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "students panicked: nil map")
	assert.Equal(t, err, op.State().Err)
}

func TestExecuteStopsRetryingWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := New(func(context.Context, int) (int, error) {
		calls++
		cancel()
		return 0, errors.New("boom")
	}, Options{RetryAttempts: 5, RetryDelay: time.Hour})

	_, err := op.Execute(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, op.State().Err, context.Canceled)
}

func TestTerminalLogReportsAttemptsMade(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := New(func(context.Context, int) (int, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return 0, errors.New("boom")
	}, Options{Name: "students.list", RetryAttempts: 5, Logger: zap.New(core), Sleep: (&recordingSleeper{}).Sleep})

	_, err := op.Execute(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)

	failed := logs.FilterMessage("operation failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(2), failed[0].ContextMap()["attempts"])
}

func TestSupersededCallIsStale(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var onError int
	op := New(func(_ context.Context, page int) (int, error) {
		if page == 1 {
			close(started)
			<-release
			return 0, errors.New("slow failure")
		}
		return page, nil
	}, Options{RetryAttempts: 1, OnError: func(error) { onError++ }})

	var (
		wg       sync.WaitGroup
		staleErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleErr = op.Execute(context.Background(), 1)
	}()
	<-started

	got, err := op.Execute(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	close(release)
	wg.Wait()

	assert.ErrorIs(t, staleErr, appErrors.ErrStale)
	assert.Zero(t, onError, "stale completions never report")
	state := op.State()
	assert.Equal(t, 2, state.Data)
	assert.NoError(t, state.Err)
}

func TestRetryReusesLastArguments(t *testing.T) {
	var seen []string
	op := New(func(_ context.Context, q string) (string, error) {
		seen = append(seen, q)
		return q, nil
	}, Options{RetryAttempts: 1})

	_, err := op.Retry(context.Background())
	require.NoError(t, err)
	_, err = op.Execute(context.Background(), "sort=name")
	require.NoError(t, err)
	_, err = op.Retry(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "sort=name", "sort=name"}, seen)
}

func TestResetClearsState(t *testing.T) {
	op := New(func(context.Context, int) (int, error) { return 7, nil }, Options{})
	_, err := op.Execute(context.Background(), 0)
	require.NoError(t, err)
	op.Reset()
	assert.Equal(t, State[int]{}, op.State())
}

func TestNewAppliesDefaults(t *testing.T) {
	op := New(func(context.Context, int) (int, error) { return 0, nil }, Options{RetryAttempts: 0, RetryDelay: -1})
	assert.Equal(t, DefaultRetryAttempts, op.opts.RetryAttempts)
	assert.Equal(t, DefaultRetryDelay, op.opts.RetryDelay)
	assert.Equal(t, "operation", op.opts.Name)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleep(context.Background(), time.Millisecond))
}
