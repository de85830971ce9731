package scheduler

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	t.Run("accepts standard cron syntax", func(t *testing.T) {
		assert.NoError(t, s.AddJob("0 22 * * 1-5", &countingJob{}))
	})

	t.Run("rejects malformed schedule", func(t *testing.T) {
		err := s.AddJob("every weekday", &countingJob{})
		assert.Error(t, err)
	})
}

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}

	require.NoError(t, s.AddJob("@every 1s", job))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_RunNow(t *testing.T) {
	var buf bytes.Buffer
	s := New(zerolog.New(&buf))

	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())

	// WHY: startup captures run outside cron; their failures must still reach the log.
	failing := &countingJob{err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(failing), "boom")
	assert.Contains(t, buf.String(), `"message":"Job failed"`)
	assert.Contains(t, buf.String(), `"job":"counting"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
}
