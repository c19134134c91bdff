package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/ingest"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
)

func countingPoll(n *atomic.Int32, err error) PollFunc {
	return func(context.Context) (ingest.PollReport, error) {
		n.Add(1)
		return ingest.PollReport{}, err
	}
}

func TestNew_SkipsEmptySpecs(t *testing.T) {
	var n atomic.Int32
	s, err := New("UTC", []Job{
		{Name: "MT940", Spec: "*/5 * * * *", Poll: countingPoll(&n, nil)},
		{Name: "VAN", Spec: "", Poll: countingPoll(&n, nil)},
	}, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs())
}

func TestNew_Errors(t *testing.T) {
	_, err := New("Mars/Olympus", nil, nil)
	assert.ErrorContains(t, err, "invalid timezone")

	_, err = New("UTC", []Job{{Name: "VAN", Spec: "every day", Poll: countingPoll(new(atomic.Int32), nil)}}, nil)
	assert.ErrorContains(t, err, "unable to schedule VAN poll")
}

func TestScheduler_FiresAndLogs(t *testing.T) {
	var ok, failing atomic.Int32
	logger := logging.NewMockLogger()
	s, err := New("Asia/Kolkata", []Job{
		{Name: "MT940", Spec: "@every 1s", Poll: countingPoll(&ok, nil)},
		{Name: "VAN", Spec: "@every 1s", Poll: countingPoll(&failing, errors.New("inbox unreadable"))},
	}, logger)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return ok.Load() > 0 && failing.Load() > 0 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	assert.True(t, logger.HasEntry("INFO", "Scheduled poll finished"))
	assert.True(t, logger.HasEntry("ERROR", "Scheduled poll failed"))
}

func TestScheduler_StopCancelsRunningPoll(t *testing.T) {
	started := make(chan struct{}, 1)
	var cancelled atomic.Bool
	s, err := New("UTC", []Job{{
		Name: "MT940",
		Spec: "@every 1s",
		Poll: func(ctx context.Context) (ingest.PollReport, error) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-ctx.Done()
			cancelled.Store(true)
			return ingest.PollReport{}, ctx.Err()
		},
	}}, logging.NewMockLogger())
	require.NoError(t, err)

	s.Start()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, cancelled.Load())
}
