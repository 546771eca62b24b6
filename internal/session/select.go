package session

import (
	"context"
	"fmt"
	"time"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/lock"
)

// CheckAvailable connects to the worker and checks whether it is free to run
// a build. The second return value describes why the worker is unavailable.
func CheckAvailable(ctx context.Context, worker *cfg.Worker) (bool, string) {
	sess := New(worker)

	if err := sess.Connect(ctx); err != nil {
		return false, err.Error()
	}
	defer sess.Close()

	busy, err := lock.IsBusy(sess, worker.BuildDir)
	if err != nil {
		return false, fmt.Sprintf("checking lock state failed: %s", err)
	}

	if !busy {
		return true, ""
	}

	record, err := lock.Inspect(sess, worker.BuildDir)
	if err == nil && record != nil {
		elapsed := time.Since(record.AcquiredAt).Round(time.Second)
		return false, fmt.Sprintf("busy with %q for %s", record.Project, elapsed)
	}

	return false, "busy"
}

type availabilityProbe func(ctx context.Context, worker *cfg.Worker) (bool, string)

// FindAvailable returns the first worker in the list that is reachable and
// not busy. Workers are probed sequentially, in list order.
// It returns nil if no worker is available.
func FindAvailable(ctx context.Context, workers []*cfg.Worker) *cfg.Worker {
	return findAvailable(ctx, workers, CheckAvailable)
}

func findAvailable(ctx context.Context, workers []*cfg.Worker, probe availabilityProbe) *cfg.Worker {
	for _, worker := range workers {
		if available, _ := probe(ctx, worker); available {
			return worker
		}
	}

	return nil
}
