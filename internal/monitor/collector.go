// Package monitor collects and renders live worker metrics.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/lock"
	"github.com/ci-farm/ci-farm/internal/routines"
	"github.com/ci-farm/ci-farm/internal/session"
)

// metricsScript gathers all metric sources with a single remote invocation.
// Sections are delimited with ---NAME--- markers, sources that are missing
// on a worker degrade to "N/A" instead of failing the whole probe.
const metricsScript = "echo '---LOADAVG---'; " +
	"cat /proc/loadavg 2>/dev/null || echo 'N/A'; " +
	"echo '---MEMINFO---'; " +
	"grep -E '^(MemTotal|MemAvailable|MemFree|Buffers|Cached):' /proc/meminfo 2>/dev/null || echo 'N/A'; " +
	"echo '---UPTIME---'; " +
	"cat /proc/uptime 2>/dev/null || echo 'N/A'; " +
	"echo '---TEMP---'; " +
	"cat /sys/class/thermal/thermal_zone0/temp 2>/dev/null || vcgencmd measure_temp 2>/dev/null || echo 'N/A'; " +
	"echo '---DISK---'; " +
	"df -k / 2>/dev/null | tail -1 || echo 'N/A'; " +
	"echo '---UNAME---'; " +
	"uname -snrm 2>/dev/null || echo 'N/A'; " +
	"echo '---NPROC---'; " +
	"nproc 2>/dev/null || sysctl -n hw.ncpu 2>/dev/null || echo 'N/A'; " +
	"echo '---END---'"

// Session is the part of session.Session the collector uses.
type Session interface {
	lock.Client
	Connect(ctx context.Context) error
	Close()
	Exec(command string, opts *session.ExecOpts) (int, error)
}

// Metrics are the collected values of a single worker.
type Metrics struct {
	Worker *cfg.Worker

	Online bool
	Err    string

	OSInfo   string
	CPUCores int

	Load1  float64
	Load5  float64
	Load15 float64

	MemTotal uint64
	MemUsed  uint64

	DiskTotal uint64
	DiskUsed  uint64

	// Temperature in degrees celsius, HasTemperature is false when the
	// worker exposes no thermal sensor.
	Temperature    float64
	HasTemperature bool

	Uptime time.Duration

	Busy        bool
	BusyProject string
	BusyFor     time.Duration
}

// Collector gathers metrics from workers.
// It keeps one persistent session per worker between CollectAll calls, dead
// connections are reestablished on the next collection.
type Collector struct {
	mu       sync.Mutex
	sessions map[string]Session

	newSession func(worker *cfg.Worker) Session
}

// NewCollector returns a collector without any open sessions.
func NewCollector() *Collector {
	return &Collector{
		sessions:   map[string]Session{},
		newSession: func(worker *cfg.Worker) Session { return session.New(worker) },
	}
}

// CollectAll gathers metrics from all workers concurrently, one goroutine
// per worker. The returned slice has the same order as workers.
func (c *Collector) CollectAll(ctx context.Context, workers []*cfg.Worker) []*Metrics {
	if len(workers) == 0 {
		return nil
	}

	results := make([]*Metrics, len(workers))

	pool := routines.NewPool(uint(len(workers)))

	for i, worker := range workers {
		i, worker := i, worker

		pool.Queue(func() {
			results[i] = c.collect(ctx, worker)
		})
	}

	pool.Wait()

	return results
}

func (c *Collector) collect(ctx context.Context, worker *cfg.Worker) *Metrics {
	metrics := &Metrics{Worker: worker}

	sess, cached, err := c.session(ctx, worker)
	if err != nil {
		metrics.Err = err.Error()
		return metrics
	}

	lines, err := runMetricsScript(sess)
	if err != nil && cached {
		// the cached connection may have died since the last collection
		c.dropSession(worker.Name)

		sess, _, err = c.session(ctx, worker)
		if err == nil {
			lines, err = runMetricsScript(sess)
		}
	}

	if err != nil {
		c.dropSession(worker.Name)
		metrics.Err = err.Error()

		return metrics
	}

	parseMetrics(lines, metrics)

	if busy, err := lock.IsBusy(sess, worker.BuildDir); err == nil && busy {
		metrics.Busy = true

		if record, err := lock.Inspect(sess, worker.BuildDir); err == nil && record != nil {
			metrics.BusyProject = record.Project
			metrics.BusyFor = time.Since(record.AcquiredAt)
		}
	}

	metrics.Online = true

	return metrics
}

func runMetricsScript(sess Session) ([]string, error) {
	var lines []string

	exitCode, err := sess.Exec(metricsScript, &session.ExecOpts{
		OnStdout: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		return nil, err
	}

	if exitCode != 0 {
		return nil, fmt.Errorf("metrics probe exited with code %d", exitCode)
	}

	return lines, nil
}

// session returns the cached session of the worker or connects a new one.
// cached is true when an existing session was reused.
func (c *Collector) session(ctx context.Context, worker *cfg.Worker) (sess Session, cached bool, err error) {
	c.mu.Lock()
	sess, cached = c.sessions[worker.Name]
	c.mu.Unlock()

	if cached {
		return sess, true, nil
	}

	sess = c.newSession(worker)
	if err := sess.Connect(ctx); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.sessions[worker.Name] = sess
	c.mu.Unlock()

	return sess, false, nil
}

func (c *Collector) dropSession(name string) {
	c.mu.Lock()
	sess := c.sessions[name]
	delete(c.sessions, name)
	c.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
}

// Close closes all cached sessions.
func (c *Collector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, sess := range c.sessions {
		sess.Close()
		delete(c.sessions, name)
	}
}
