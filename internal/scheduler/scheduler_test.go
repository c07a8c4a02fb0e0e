package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexTrend/internal/model"
)

type fakeRunner struct {
	state   model.RunState
	calls   int
	started chan struct{}
	release chan struct{}
	last    *model.RunSummary
}

func (f *fakeRunner) Run(ctx context.Context) (*model.RunSummary, error) {
	f.calls++
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.last = &model.RunSummary{State: f.state, FinishedAt: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)}
	return f.last, nil
}

func (f *fakeRunner) Last() *model.RunSummary { return f.last }

func TestRegister_InvalidExpression(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRunner{}, "Nifty 50", time.UTC)
	assert.Error(t, s.Register("not a cron"))
	assert.NoError(t, s.Register("0 30 18 * * 1-5"))
}

func TestRunNow_SkipsWhileRunning(t *testing.T) {
	r := &fakeRunner{state: model.StateDone, started: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(context.Background(), r, "Nifty 50", time.UTC)

	done := make(chan struct{})
	go func() {
		_, ok := s.RunNow()
		assert.True(t, ok)
		close(done)
	}()
	<-r.started

	sum, ok := s.RunNow()
	assert.False(t, ok)
	assert.Nil(t, sum)
	assert.Equal(t, "⏳ An update is already running", s.HandleCommand("/run"))

	close(r.release)
	<-done
	assert.Equal(t, 1, r.calls)
}

func TestHandleCommand(t *testing.T) {
	r := &fakeRunner{state: model.StateNoNewData}
	s := NewScheduler(context.Background(), r, "Nifty 50", time.UTC)

	assert.Equal(t, "No runs yet", s.HandleCommand("/status"))
	assert.Contains(t, s.HandleCommand("/help"), "/run")

	reply := s.HandleCommand("/run")
	assert.Contains(t, reply, "No new data")
	require.Equal(t, 1, r.calls)

	r.state = model.StateDone
	assert.Empty(t, s.HandleCommand("/run"))
	assert.Contains(t, s.HandleCommand("/status"), "Nifty 50 trend")
}
