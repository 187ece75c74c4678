package renderer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile   *Tile
	TaskID int // Index into the tile grid
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  TileStats
	Err    error // ctx.Err() when the tile was abandoned
}

// TileFunc renders one tile. It must return promptly once ctx is done.
type TileFunc func(ctx context.Context, task TileTask) TileResult

// WorkerPool runs tile tasks on a fixed number of goroutines
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	numWorkers  int
	render      TileFunc
	group       *errgroup.Group
	ctx         context.Context
}

// NewWorkerPool creates a worker pool. numWorkers <= 0 means one worker per CPU.
// queueSize bounds how many tasks and results can be buffered.
func NewWorkerPool(numWorkers, queueSize int, render TileFunc) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		taskQueue:   make(chan TileTask, queueSize),
		resultQueue: make(chan TileResult, queueSize),
		numWorkers:  numWorkers,
		render:      render,
	}
}

// Start launches the workers. They stop when the task queue is closed by Stop.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.group, wp.ctx = errgroup.WithContext(ctx)
	for i := 0; i < wp.numWorkers; i++ {
		wp.group.Go(wp.run)
	}
}

// Submit queues a tile task
func (wp *WorkerPool) Submit(task TileTask) {
	wp.taskQueue <- task
}

// Result retrieves a completed tile result. It reports false after Stop.
func (wp *WorkerPool) Result() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// Stop closes the task queue and waits for every worker to acknowledge
func (wp *WorkerPool) Stop() error {
	close(wp.taskQueue)
	err := wp.group.Wait()
	close(wp.resultQueue)
	return err
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (wp *WorkerPool) run() error {
	for task := range wp.taskQueue {
		wp.resultQueue <- wp.render(wp.ctx, task)
	}
	return nil
}
