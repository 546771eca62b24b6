package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/lock"
	"github.com/ci-farm/ci-farm/internal/session"
)

type fakeMonitorSession struct {
	worker *cfg.Worker

	connectErr error
	execErr    error
	output     []string
	delay      time.Duration

	files  map[string][]byte
	closes int
	execs  int
}

func (s *fakeMonitorSession) Connect(context.Context) error { return s.connectErr }
func (s *fakeMonitorSession) Close()                        { s.closes++ }

func (s *fakeMonitorSession) Exec(_ string, opts *session.ExecOpts) (int, error) {
	s.execs++

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if s.execErr != nil {
		return -1, s.execErr
	}

	for _, line := range s.output {
		opts.OnStdout(line)
	}

	return 0, nil
}

func (s *fakeMonitorSession) StatExists(path string) (bool, error) {
	_, exists := s.files[path]
	return exists, nil
}

func (s *fakeMonitorSession) ReadFile(path string) ([]byte, error) {
	content, exists := s.files[path]
	if !exists {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}

	return content, nil
}

func (s *fakeMonitorSession) WriteFile(path string, data []byte) error {
	s.files[path] = data
	return nil
}

func (s *fakeMonitorSession) RemoveFile(path string) error {
	delete(s.files, path)
	return nil
}

func (s *fakeMonitorSession) EnsureDir(string) error { return nil }

func testCollector(sessions map[string]*fakeMonitorSession) *Collector {
	collector := NewCollector()
	collector.newSession = func(worker *cfg.Worker) Session {
		return sessions[worker.Name]
	}

	return collector
}

func testWorkers(names ...string) []*cfg.Worker {
	var workers []*cfg.Worker

	for _, name := range names {
		workers = append(workers, &cfg.Worker{
			Name:     name,
			Host:     name + ".local",
			User:     "ci",
			Port:     22,
			BuildDir: "/tmp/ci-farm-builds",
		})
	}

	return workers
}

func TestCollectAllPreservesWorkerOrder(t *testing.T) {
	sessions := map[string]*fakeMonitorSession{
		// the slowest worker comes first, a later worker must not
		// overtake its result slot
		"slow":   {output: sampleOutput, delay: 50 * time.Millisecond, files: map[string][]byte{}},
		"fast":   {output: sampleOutput, files: map[string][]byte{}},
		"medium": {output: sampleOutput, delay: 10 * time.Millisecond, files: map[string][]byte{}},
	}

	collector := testCollector(sessions)
	defer collector.Close()

	results := collector.CollectAll(context.Background(), testWorkers("slow", "fast", "medium"))

	require.Len(t, results, 3)
	assert.Equal(t, "slow", results[0].Worker.Name)
	assert.Equal(t, "fast", results[1].Worker.Name)
	assert.Equal(t, "medium", results[2].Worker.Name)

	for _, metrics := range results {
		assert.True(t, metrics.Online)
		assert.Equal(t, 4, metrics.CPUCores)
	}
}

func TestCollectAllEmptyWorkerList(t *testing.T) {
	collector := testCollector(nil)

	assert.Nil(t, collector.CollectAll(context.Background(), nil))
}

func TestCollectMarksUnreachableWorkerOffline(t *testing.T) {
	sessions := map[string]*fakeMonitorSession{
		"down": {connectErr: errors.New("connection refused"), files: map[string][]byte{}},
	}

	collector := testCollector(sessions)

	results := collector.CollectAll(context.Background(), testWorkers("down"))

	require.Len(t, results, 1)
	assert.False(t, results[0].Online)
	assert.Contains(t, results[0].Err, "connection refused")
}

func TestCollectReusesCachedSession(t *testing.T) {
	sess := &fakeMonitorSession{output: sampleOutput, files: map[string][]byte{}}
	sessions := map[string]*fakeMonitorSession{"w": sess}

	collector := testCollector(sessions)
	defer collector.Close()

	workers := testWorkers("w")

	collector.CollectAll(context.Background(), workers)
	collector.CollectAll(context.Background(), workers)

	assert.Equal(t, 2, sess.execs, "metrics probe ran twice")
	assert.Zero(t, sess.closes, "the session stays open between collections")
}

func TestCollectReconnectsWhenCachedSessionDied(t *testing.T) {
	sess := &fakeMonitorSession{output: sampleOutput, files: map[string][]byte{}}
	sessions := map[string]*fakeMonitorSession{"w": sess}

	collector := testCollector(sessions)
	defer collector.Close()

	workers := testWorkers("w")

	results := collector.CollectAll(context.Background(), workers)
	assert.True(t, results[0].Online)

	sess.execErr = errors.New("connection lost")
	results = collector.CollectAll(context.Background(), workers)
	assert.False(t, results[0].Online)

	// the connection recovered, the next collection reconnects
	sess.execErr = nil
	results = collector.CollectAll(context.Background(), workers)
	assert.True(t, results[0].Online)
}

func TestCollectReportsBusyWorker(t *testing.T) {
	sess := &fakeMonitorSession{output: sampleOutput, files: map[string][]byte{}}
	require.NoError(t, lock.Acquire(sess, "/tmp/ci-farm-builds", "myapp"))

	collector := testCollector(map[string]*fakeMonitorSession{"w": sess})
	defer collector.Close()

	results := collector.CollectAll(context.Background(), testWorkers("w"))

	require.Len(t, results, 1)
	assert.True(t, results[0].Online)
	assert.True(t, results[0].Busy)
	assert.Equal(t, "myapp", results[0].BusyProject)
	assert.Less(t, results[0].BusyFor, time.Minute)
}

func TestRenderContainsWorkerStates(t *testing.T) {
	workers := testWorkers("online-w", "offline-w")

	allMetrics := []*Metrics{
		{Worker: workers[0], Online: true, Busy: true, BusyProject: "myapp", CPUCores: 4},
		{Worker: workers[1], Err: "connection refused"},
	}

	out := Render(allMetrics, 2*time.Second)

	assert.Contains(t, out, "online-w")
	assert.Contains(t, out, "offline-w")
	assert.Contains(t, out, "myapp")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "1 online")
	assert.Contains(t, out, "1 offline")
	assert.Contains(t, out, "1 building")
	assert.True(t, strings.Contains(out, "Press Ctrl+C to exit"))
}
