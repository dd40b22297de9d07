package schedule

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	runs    int
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	close(j.started)
	<-j.release
	return nil
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	scheduler := NewCronScheduler()
	job := &blockingJob{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	run := scheduler.wrap(job, "* * * * *")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	<-job.started

	// second tick while the first is still running is a no-op
	run()
	job.mu.Lock()
	require.Equal(t, 1, job.runs)
	job.mu.Unlock()

	close(job.release)
	<-done

	// once released the job can run again
	job.started = make(chan struct{})
	job.release = make(chan struct{})
	go run()
	<-job.started
	close(job.release)
	job.mu.Lock()
	require.Equal(t, 2, job.runs)
	job.mu.Unlock()
}
