package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/df07/go-global-illumination/pkg/core"
	"github.com/df07/go-global-illumination/pkg/loaders"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Ctx    context.Context // Cancelled tasks are skipped
	Tile   Tile
	TaskID int
	Image  *loaders.ImageData // Shared output image
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  TileStats
	Error  error
}

// WorkerPool manages parallel tile rendering
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker renders tiles with its own random stream
type Worker struct {
	ID          int
	renderer    *TileRenderer
	sampler     *core.RandomSampler
	taskQueue   chan TileTask
	resultQueue chan TileResult
}

// NewWorkerPool creates a pool sized for numTiles tasks. numWorkers <= 0
// selects the CPU count.
func NewWorkerPool(rt *RayTracer, numTiles, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, numTiles),
		resultQueue: make(chan TileResult, numTiles),
		numWorkers:  numWorkers,
	}

	tileRenderer := NewTileRenderer(rt)
	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			renderer:    tileRenderer,
			sampler:     core.NewSeededSampler(int64(i)),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}
	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop closes the task queue, waits for the workers, and closes the results
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		result := TileResult{TaskID: task.TaskID}
		if err := task.Ctx.Err(); err != nil {
			result.Error = err
			w.resultQueue <- result
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					result.Error = fmt.Errorf("tile %d: %v", task.Tile.ID, r)
				}
			}()
			result.Stats = w.renderer.RenderTile(task.Tile, task.Image, w.sampler)
			result.Stats.Worker = w.ID
		}()
		w.resultQueue <- result
	}
}

// RenderImage renders the full image in parallel tiles of Params.BlockSize
// using Params.NumWorkers workers. Every tile reseeds its worker's stream,
// so the output is identical for any worker count.
func RenderImage(ctx context.Context, rt *RayTracer, logger core.Logger) (*loaders.ImageData, RenderStats, error) {
	p := rt.scene.Params
	img := loaders.NewImageData(p.Width, p.Height)
	tiles := NewTileGrid(p.Width, p.Height, p.BlockSize)

	pool := NewWorkerPool(rt, len(tiles), p.NumWorkers)
	stats := RenderStats{
		Width:      p.Width,
		Height:     p.Height,
		NumWorkers: pool.GetNumWorkers(),
		Tiles:      make([]TileStats, len(tiles)),
	}

	logger.Printf("Rendering %dx%d in %d tiles using %d workers...\n", p.Width, p.Height, len(tiles), pool.GetNumWorkers())
	start := time.Now()
	pool.Start()
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Ctx: ctx, Tile: tile, TaskID: i, Image: img})
	}
	// queues are sized for every tile, so stopping here never blocks a worker
	defer pool.Stop()

	var firstErr error
	for range tiles {
		result, ok := pool.GetResult()
		if !ok {
			return nil, stats, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats.Tiles[result.TaskID] = result.Stats
		stats.TotalPixels += result.Stats.Pixels
		stats.TotalSamples += result.Stats.Samples
	}
	stats.Duration = time.Since(start)
	if firstErr != nil {
		return nil, stats, firstErr
	}

	logger.Printf("Rendered %d pixels in %v\n", stats.TotalPixels, stats.Duration)
	return img, stats, nil
}

// RenderToFile renders the full image and writes it as PPM or PNG
func RenderToFile(ctx context.Context, rt *RayTracer, path string, logger core.Logger) (RenderStats, error) {
	img, stats, err := RenderImage(ctx, rt, logger)
	if err != nil {
		return stats, err
	}
	if err := loaders.SaveImage(img, path); err != nil {
		return stats, fmt.Errorf("saving %s: %w", path, err)
	}
	logger.Printf("Saved %s\n", path)
	return stats, nil
}
