package jobs

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestStopWaitsForRunningJob(t *testing.T) {
	s := NewScheduler(nil, nil, nil, nil, zerolog.Nop())

	var startedOnce sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	_, err := s.cron.AddFunc("* * * * * *", func() {
		startedOnce.Do(func() { close(started) })
		<-release
		finished.Store(true)
	})
	require.NoError(t, err)
	s.cron.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		close(release)
	}()

	s.Stop()
	require.True(t, finished.Load(), "Stop returned before the running job drained")
}
