package dag

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is the unit of work the Engine runs for one node.
type Task func(ctx context.Context, nodeID string) error

// Engine runs a task per node, level by level. Nodes of one level run
// concurrently; a level starts only after the previous one finished.
type Engine struct {
	// MaxParallel limits concurrent nodes per level (0 = unlimited).
	MaxParallel int
}

// Run executes task for every node of levels. A failing task is recorded in
// its NodeResult and does not stop its siblings or later levels. Run returns
// an error only when ctx is done before all levels have run.
func (e *Engine) Run(ctx context.Context, levels [][]string, task Task) (*Result, error) {
	start := time.Now()
	result := &Result{NodeResults: make(map[string]NodeResult)}

	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.runLevel(ctx, level, task, result)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (e *Engine) runLevel(ctx context.Context, ids []string, task Task, result *Result) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency(len(ids)))

	for _, id := range ids {
		g.Go(func() error {
			nr := runNode(gctx, id, task)
			mu.Lock()
			result.NodeResults[id] = nr
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func runNode(ctx context.Context, id string, task Task) NodeResult {
	start := time.Now()
	err := task(ctx, id)
	duration := time.Since(start)

	if err != nil {
		return NodeResult{Name: id, Status: StatusFailed, Duration: duration, Error: err}
	}
	return NodeResult{Name: id, Status: StatusCompleted, Duration: duration}
}

func (e *Engine) concurrency(levelSize int) int {
	if e.MaxParallel <= 0 || e.MaxParallel > levelSize {
		return max(levelSize, 1)
	}
	return e.MaxParallel
}
