package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct {
	mu        sync.Mutex
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(&mockLogger{})
	err := s.AddJob("not a schedule", &countingJob{})
	assert.Error(t, err)
}

func TestAddJob_Valid(t *testing.T) {
	s := New(&mockLogger{})
	require.NoError(t, s.AddJob("15 9 * * MON-FRI", &countingJob{}))
	assert.Len(t, s.cron.Entries(), 1)
	s.Start()
	s.Stop()
}

func TestRunNow(t *testing.T) {
	s := New(&mockLogger{})
	job := &countingJob{err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(job), "boom")
	assert.Equal(t, 1, job.runs)
}

func TestRun_LogsFailure(t *testing.T) {
	logger := &mockLogger{}
	s := New(logger)

	s.run(&countingJob{})
	assert.Empty(t, logger.errorMsgs)

	s.run(&countingJob{err: errors.New("boom")})
	assert.Equal(t, []string{"Job failed"}, logger.errorMsgs)
}
