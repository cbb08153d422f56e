package learning_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/2beens/fitcoach/internal/learning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeSweeper struct {
	mu       sync.Mutex
	swept    []int64
	failFor  map[int64]error
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *fakeSweeper) ProcessWeightLearningData(_ context.Context, userID int64) (*learning.SweepResult, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[userID]; err != nil {
		return nil, err
	}
	s.swept = append(s.swept, userID)
	return &learning.SweepResult{UserID: userID}, nil
}

type fakeUsersRepo struct {
	userIDs []int64
	err     error
	since   time.Time
}

func (r *fakeUsersRepo) ListActiveUserIDs(_ context.Context, since time.Time) ([]int64, error) {
	r.since = since
	return r.userIDs, r.err
}

func TestRunner_SweepAll(t *testing.T) {
	sweeper := &fakeSweeper{
		failFor: map[int64]error{3: errors.New("lock timeout")},
	}
	runner := learning.NewRunner(sweeper, &fakeUsersRepo{}, time.Hour, 2)

	results, err := runner.SweepAll(context.Background(), []int64{1, 2, 3, 4, 5})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "user 3")
	assert.Len(t, results, 4)

	sort.Slice(sweeper.swept, func(i, j int) bool { return sweeper.swept[i] < sweeper.swept[j] })
	assert.Equal(t, []int64{1, 2, 4, 5}, sweeper.swept)
	assert.LessOrEqual(t, sweeper.maxSeen.Load(), int32(2))
}

func TestRunner_RunOnce(t *testing.T) {
	sweeper := &fakeSweeper{}
	usersRepo := &fakeUsersRepo{userIDs: []int64{7, 8}}
	runner := learning.NewRunner(sweeper, usersRepo, time.Hour, 0)
	runner.Now = func() time.Time { return testNow }

	results, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, testNow.AddDate(0, 0, -learning.LookbackDays), usersRepo.since)
	assert.Equal(t, int32(1), sweeper.maxSeen.Load())

	usersRepo.err = errors.New("db down")
	_, err = runner.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	sweeper := &fakeSweeper{}
	runner := learning.NewRunner(sweeper, &fakeUsersRepo{userIDs: []int64{1}}, time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		sweeper.mu.Lock()
		defer sweeper.mu.Unlock()
		return len(sweeper.swept) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}
