package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePurger struct {
	calls atomic.Int32
}

func (f *fakePurger) PurgeExpiredRevocations(now time.Time) int {
	f.calls.Add(1)
	return 1
}

func TestRunOnce(t *testing.T) {
	s := NewScheduler()
	purger := &fakePurger{}
	RegisterTokenJobs(s, purger, time.Hour)
	s.AddJob("failing", time.Hour, func(ctx context.Context) error { return errors.New("boom") })

	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), purger.calls.Load())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler()
	purger := &fakePurger{}
	RegisterTokenJobs(s, purger, 10*time.Millisecond)

	s.Start()
	s.Start()
	assert.Eventually(t, func() bool { return purger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := purger.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, purger.calls.Load())
}
