package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerSerializesPerLobby(t *testing.T) {
	seq := NewSequencer()
	id := uuid.New()

	var running, maxRunning, total int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := seq.Do(context.Background(), id, func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&total, 1)
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxRunning)
	assert.Equal(t, int32(50), total)
	assert.Equal(t, 0, seq.Active())
}

func TestSequencerLobbiesRunIndependently(t *testing.T) {
	seq := NewSequencer()
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = seq.Do(context.Background(), uuid.New(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	done := make(chan error, 1)
	go func() {
		done <- seq.Do(context.Background(), uuid.New(), func(context.Context) error { return nil })
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("a busy lobby blocked another lobby")
	}
	close(release)
}

func TestSequencerReturnsJobError(t *testing.T) {
	seq := NewSequencer()
	boom := errors.New("boom")
	err := seq.Do(context.Background(), uuid.New(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSequencerSkipsCancelledJobs(t *testing.T) {
	seq := NewSequencer()
	id := uuid.New()
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = seq.Do(context.Background(), id, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	done := make(chan error, 1)
	go func() {
		done <- seq.Do(ctx, id, func(context.Context) error {
			ran = true
			return nil
		})
	}()
	cancel()
	err := <-done
	close(release)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
	require.Eventually(t, func() bool { return seq.Active() == 0 }, time.Second, time.Millisecond)
}

func TestSequencerStartedJobOutlivesCancel(t *testing.T) {
	seq := NewSequencer()
	ctx, cancel := context.WithCancel(context.Background())

	err := seq.Do(ctx, uuid.New(), func(jobCtx context.Context) error {
		cancel()
		return jobCtx.Err()
	})
	assert.NoError(t, err)
}

func TestSequencerRepanicsInCaller(t *testing.T) {
	seq := NewSequencer()
	id := uuid.New()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = seq.Do(context.Background(), id, func(context.Context) error { panic("kaboom") })
	})
	assert.NoError(t, seq.Do(context.Background(), id, func(context.Context) error { return nil }))
	assert.Equal(t, 0, seq.Active())
}
