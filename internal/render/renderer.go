package render

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kdpath/tracer/internal/geom"
	"github.com/kdpath/tracer/internal/integrator"
	"github.com/kdpath/tracer/internal/material"
	"github.com/kdpath/tracer/internal/sampler"
	"github.com/kdpath/tracer/internal/scene"
)

// cacheLinePad is the typical hardware destructive-interference size: the
// padding that keeps two workers' progress counters off the same cache
// line.
const cacheLinePad = 64

// progressCounter is a single-writer, many-reader pixel count, padded to
// avoid false sharing between adjacent workers' counters in the backing
// array.
type progressCounter struct {
	n   uint64
	_   [cacheLinePad - 8]byte
}

// Config carries everything the renderer needs beyond the built world:
// camera, output dimensions (taken from the camera), sample count, worker
// count, recursion depth, and the debug/determinism switch.
type Config struct {
	Camera      Camera
	World       *scene.World
	NSamples    int
	ConcThreads int
	RecLvl      int
	Debug       bool
	SamplerFor  func(mat material.Material) sampler.Sampler
	BRDF        integrator.BSDF
}

// Result is what Render returns: the filled pixel grid and the elapsed
// wall-clock time across all workers.
type Result struct {
	Pixels  *PixelBuffer
	Elapsed time.Duration
}

// Render partitions the image's pixels into concThreads FIFOs after a
// deterministic shuffle, launches one worker per FIFO, and polls their
// combined progress at roughly 1 Hz until every pixel is filled.
func Render(ctx context.Context, cfg Config) (*Result, error) {
	conc := cfg.ConcThreads
	if conc <= 0 {
		conc = runtime.NumCPU()
	}
	if conc < 1 {
		conc = 1
	}

	w, h := cfg.Camera.Width, cfg.Camera.Height
	total := w * h

	queues := partitionPixels(w, h, conc, cfg.Debug)
	counters := make([]progressCounter, conc)
	pixels := NewPixelBuffer(w, h)

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()

	var endMu sync.Mutex
	var end time.Time

	for i := 0; i < conc; i++ {
		i := i
		g.Go(func() error {
			err := runWorker(gctx, cfg, pixels, queues[i], &counters[i], i)
			now := time.Now()
			endMu.Lock()
			if now.After(end) {
				end = now
			}
			endMu.Unlock()
			return err
		})
	}

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			sum := uint64(0)
			for i := range counters {
				sum += counters[i].n
			}
			if sum >= uint64(total) {
				return
			}
			select {
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\rrendering: %d%%", sum*100/uint64(total))
			case <-gctx.Done():
				return
			}
		}
	}()

	err := g.Wait()
	<-pollDone
	if err != nil {
		return nil, err
	}

	endMu.Lock()
	elapsed := end.Sub(start)
	endMu.Unlock()
	return &Result{Pixels: pixels, Elapsed: elapsed}, nil
}

// partitionPixels flattens pixel coordinates [0, W*H), shuffles them
// deterministically, and deals them round-robin into conc FIFOs so that
// heavy regions of the image are spread evenly across workers.
func partitionPixels(w, h, conc int, debug bool) [][]int {
	flat := make([]int, w*h)
	for i := range flat {
		flat[i] = i
	}

	var seed int64 = 42
	if !debug {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(flat), func(i, j int) { flat[i], flat[j] = flat[j], flat[i] })

	queues := make([][]int, conc)
	for i, p := range flat {
		q := i % conc
		queues[q] = append(queues[q], p)
	}
	return queues
}

func runWorker(ctx context.Context, cfg Config, pixels *PixelBuffer, queue []int, progress *progressCounter, workerIdx int) error {
	// Fixed per-worker seeds in debug mode still need to differ across
	// workers, else every worker draws the same correlated RNG stream;
	// folding in the worker index keeps the run reproducible while giving
	// each worker its own stream.
	seed := int64(42 + workerIdx)
	if !cfg.Debug {
		seed = time.Now().UnixNano() + int64(workerIdx) + int64(len(queue))
	}
	rng := rand.New(rand.NewSource(seed))

	est := &integrator.Estimator{
		World:      cfg.World,
		BRDF:       cfg.BRDF,
		SamplerFor: cfg.SamplerFor,
		RecLvl:     cfg.RecLvl,
	}

	for _, flat := range queue {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		px, py := flat%pixels.Width, flat/pixels.Width
		r := cfg.Camera.PrimaryRay(px, py)

		sum := geom.Vec3{}
		for s := 0; s < cfg.NSamples; s++ {
			sum = geom.Add(sum, est.L(rng, r, cfg.RecLvl))
		}
		pixels.Set(px, py, geom.Scale(1/float32(cfg.NSamples), sum))
		progress.n++
	}
	return nil
}
