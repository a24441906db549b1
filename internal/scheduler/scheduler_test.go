package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/stretchr/testify/assert"
)

type stubLister struct {
	instances []*model.Instance
	listErr   error
	resets    int
}

func (s *stubLister) List(_ context.Context, f model.InstanceFilter) ([]*model.Instance, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.instances, nil
}

func (s *stubLister) ResetDailyCounters(_ context.Context) error {
	s.resets++
	return nil
}

type stubRunner struct {
	ran      []int64
	errFor   map[int64]error
	panicFor map[int64]bool
}

func (s *stubRunner) RunCycle(_ context.Context, instanceID int64) error {
	if s.panicFor[instanceID] {
		panic("boom")
	}
	s.ran = append(s.ran, instanceID)
	if err, ok := s.errFor[instanceID]; ok {
		return err
	}
	return nil
}

func TestScheduler_TickRunsAllInstances(t *testing.T) {
	lister := &stubLister{instances: []*model.Instance{
		{ID: 1, Name: "warm-01"},
		{ID: 2, Name: "warm-02"},
		{ID: 3, Name: "warm-03"},
	}}
	runner := &stubRunner{}

	s := New(lister, runner, time.Minute)
	s.lastDay = s.now().Format("2006-01-02")
	s.Tick(context.Background())

	assert.Equal(t, []int64{1, 2, 3}, runner.ran)
}

func TestScheduler_ErrorDoesNotStopTick(t *testing.T) {
	lister := &stubLister{instances: []*model.Instance{
		{ID: 1, Name: "warm-01"},
		{ID: 2, Name: "warm-02"},
		{ID: 3, Name: "warm-03"},
	}}
	runner := &stubRunner{errFor: map[int64]error{2: errors.New("gateway down")}}

	s := New(lister, runner, time.Minute)
	s.lastDay = s.now().Format("2006-01-02")
	s.Tick(context.Background())

	assert.Equal(t, []int64{1, 2, 3}, runner.ran)
}

func TestScheduler_PanicIsIsolated(t *testing.T) {
	lister := &stubLister{instances: []*model.Instance{
		{ID: 1, Name: "warm-01"},
		{ID: 2, Name: "warm-02"},
		{ID: 3, Name: "warm-03"},
	}}
	runner := &stubRunner{panicFor: map[int64]bool{1: true}}

	s := New(lister, runner, time.Minute)
	s.lastDay = s.now().Format("2006-01-02")
	s.Tick(context.Background())

	assert.Equal(t, []int64{2, 3}, runner.ran)
}

func TestScheduler_ResetsCountersOnDayChange(t *testing.T) {
	lister := &stubLister{}
	runner := &stubRunner{}

	s := New(lister, runner, time.Minute)
	s.lastDay = "2026-08-31"
	s.now = func() time.Time { return time.Date(2026, 9, 1, 0, 1, 0, 0, time.UTC) }

	s.Tick(context.Background())
	assert.Equal(t, 1, lister.resets)
	assert.Equal(t, "2026-09-01", s.lastDay)

	// Same day again, no second reset.
	s.Tick(context.Background())
	assert.Equal(t, 1, lister.resets)
}

func TestScheduler_ListErrorSkipsTick(t *testing.T) {
	lister := &stubLister{listErr: errors.New("db down")}
	runner := &stubRunner{}

	s := New(lister, runner, time.Minute)
	s.lastDay = s.now().Format("2006-01-02")
	s.Tick(context.Background())

	assert.Empty(t, runner.ran)
}

func TestScheduler_StartStop(t *testing.T) {
	lister := &stubLister{instances: []*model.Instance{{ID: 1, Name: "warm-01"}}}
	runner := &stubRunner{}

	s := New(lister, runner, 10*time.Millisecond)
	s.Start()

	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.NotEmpty(t, runner.ran)
}
