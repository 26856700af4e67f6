// Package dispatch implements the §4.7 work dispatcher: a fixed worker
// pool that renders leaf tiles and composites their ancestors once all
// required children finish. It is grounded directly on the teacher's C++
// counterpart, original_source/src/mapcraftercore/thread/impl/multithreading.h
// (ThreadManager/ThreadWorker/MultiThreadingDispatcher): work_queue plus
// work_extra_queue plus result_queue, a mutex and two condition variables
// (one for workers waiting on jobs, one for consumers waiting on results),
// and a rendered_tiles set used both for dedup and for ancestor-readiness
// checks.
package dispatch

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/mapcrafter-go/mapcrafter/internal/logging"
	"github.com/mapcrafter-go/mapcrafter/internal/render"
	"github.com/mapcrafter-go/mapcrafter/internal/tileset"
)

// Status is a work item's lifecycle state (§4.7).
type Status int

const (
	Queued Status = iota
	InProgress
	Done
	FailedRetrying
)

// Kind distinguishes a leaf tile (rendered from world data) from a
// composite tile (assembled from up to four children).
type Kind int

const (
	Leaf Kind = iota
	Composite
)

// Work is one item pulled off a queue: a tile path to produce, and enough
// information to know how to produce it.
type Work struct {
	Path tileset.TilePath
	Kind Kind
	Leaf tileset.TilePos // valid iff Kind == Leaf
}

// Result is what a worker reports back after finishing a Work item. Img is
// nil and Err non-nil on failure (§7: render errors are recorded, the tile
// is omitted from its parent composite as if transparent, and logged).
type Result struct {
	Work Work
	Img  *image.RGBA
	Err  error
}

// ProgressHandler receives result_queue drain events (§4.7's "progress
// reporter"). Implementations must not block the dispatcher for long.
type ProgressHandler interface {
	Progress(r Result, done, total int)
}

// Manager is the synchronized queue trio a ThreadManager owns: work_queue,
// work_extra_queue (drained first, used to inject newly-eligible
// composites), and result_queue, plus the two condition variables the
// teacher's ThreadManager uses instead of separate wait channels.
type Manager struct {
	mu          sync.Mutex
	condJobs    *sync.Cond
	condResults *sync.Cond

	workQueue      []Work
	workExtraQueue []Work
	resultQueue    []Result

	finished bool
}

// NewManager returns an empty Manager, its condition variables bound to a
// shared mutex per the teacher's single-mutex design.
func NewManager() *Manager {
	m := &Manager{}
	m.condJobs = sync.NewCond(&m.mu)
	m.condResults = sync.NewCond(&m.mu)
	return m
}

// seedWork enqueues the initial batch of leaf work (§4.7 step 1).
func (m *Manager) seedWork(items []Work) {
	m.mu.Lock()
	m.workQueue = append(m.workQueue, items...)
	m.mu.Unlock()
	m.condJobs.Broadcast()
}

// enqueueExtra pushes a newly-eligible composite onto work_extra_queue,
// waking one idle worker.
func (m *Manager) enqueueExtra(w Work) {
	m.mu.Lock()
	m.workExtraQueue = append(m.workExtraQueue, w)
	m.mu.Unlock()
	m.condJobs.Signal()
}

// getWork blocks until an item is available or the manager is finished.
// work_extra_queue is drained before work_queue, matching the teacher's
// "composite items as children finish" priority.
func (m *Manager) getWork() (Work, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.workExtraQueue) == 0 && len(m.workQueue) == 0 && !m.finished {
		m.condJobs.Wait()
	}
	if len(m.workExtraQueue) > 0 {
		w := m.workExtraQueue[0]
		m.workExtraQueue = m.workExtraQueue[1:]
		return w, true
	}
	if len(m.workQueue) > 0 {
		w := m.workQueue[0]
		m.workQueue = m.workQueue[1:]
		return w, true
	}
	return Work{}, false
}

// pushResult appends r to result_queue and wakes the result consumer.
func (m *Manager) pushResult(r Result) {
	m.mu.Lock()
	m.resultQueue = append(m.resultQueue, r)
	m.mu.Unlock()
	m.condResults.Signal()
}

// getResult blocks until a result is available or the manager is finished
// and result_queue is drained.
func (m *Manager) getResult() (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.resultQueue) == 0 && !m.finished {
		m.condResults.Wait()
	}
	if len(m.resultQueue) == 0 {
		return Result{}, false
	}
	r := m.resultQueue[0]
	m.resultQueue = m.resultQueue[1:]
	return r, true
}

// setFinished wakes every idle worker and result consumer; in-flight tiles
// still complete (§4.7 step 4, §5 cancellation).
func (m *Manager) setFinished() {
	m.mu.Lock()
	m.finished = true
	m.mu.Unlock()
	m.condJobs.Broadcast()
	m.condResults.Broadcast()
}

// Dispatcher owns one render run: a worker pool pulling from a Manager,
// compositing ancestors as their children complete, until every required
// leaf and composite has reached DONE.
type Dispatcher struct {
	manager  *Manager
	renderer render.TileRenderer
	ts       *tileset.TileSet
	threads  int
	log      logging.Logger

	mu            sync.Mutex
	renderedTiles map[string]struct{} // TilePath.String() of every completed tile; not consulted for dedup, readiness is tracked by pending
	images        map[string]*image.RGBA
	pending       map[string]int // composite path -> remaining required children
	failed        error
}

// New returns a Dispatcher that will render ts's render_leaves and
// require_composites using renderer, spread across the given worker count.
func New(renderer render.TileRenderer, ts *tileset.TileSet, threads int, log logging.Logger) *Dispatcher {
	if threads < 1 {
		threads = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{
		manager:       NewManager(),
		renderer:      renderer,
		ts:            ts,
		threads:       threads,
		log:           log,
		renderedTiles: make(map[string]struct{}),
		images:        make(map[string]*image.RGBA),
		pending:       make(map[string]int),
	}
}

// Run seeds the queues, starts the worker pool, drains results until every
// required tile is done, and returns the root composite's image (nil if no
// tile was ever required). progress, if non-nil, is invoked once per
// result.
func (d *Dispatcher) Run(ctx context.Context, progress ProgressHandler) (*image.RGBA, error) {
	// workSet holds every path this run will actually dispatch (render
	// leaves plus require_composites). A required child that is NOT in
	// workSet was already rendered in a previous run and isn't
	// reproduced here, so a composite must not wait on it: this
	// dispatcher has no component that loads an existing tile PNG back
	// off disk to feed into compositing, so such a child is instead
	// treated as transparent, same as a genuinely absent one. Wiring a
	// disk-backed tile loader is a real gap for a production
	// incremental run; see DESIGN.md.
	workSet := make(map[string]struct{})
	for _, t := range d.ts.RenderLeaves() {
		workSet[d.ts.PathForLeaf(t).String()] = struct{}{}
	}
	for _, p := range d.ts.RequireComposites() {
		workSet[p.String()] = struct{}{}
	}

	for p := range uniquePaths(d.ts.RequireComposites()) {
		pending := 0
		for _, c := range d.ts.RequiredChildren(p) {
			if _, inWorkSet := workSet[c.String()]; inWorkSet {
				pending++
			}
		}
		d.pending[p.String()] = pending
	}

	var seed []Work
	for _, t := range d.ts.RenderLeaves() {
		seed = append(seed, Work{Path: d.ts.PathForLeaf(t), Kind: Leaf, Leaf: t})
	}
	total := len(d.ts.RenderLeaves()) + len(d.ts.RequireComposites())
	d.manager.seedWork(seed)

	var wg sync.WaitGroup
	for i := 0; i < d.threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx)
		}()
	}

	done := 0
	for done < total {
		r, ok := d.manager.getResult()
		if !ok {
			break
		}
		done++
		if progress != nil {
			progress.Progress(r, done, total)
		}
		d.workFinished(r)
	}
	d.manager.setFinished()
	wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failed != nil {
		return nil, d.failed
	}
	return d.images[tileset.RootPath().String()], nil
}

// worker is the teacher's ThreadWorker::operator(): pull, render, report,
// repeat until getWork reports the manager is finished.
func (d *Dispatcher) worker(ctx context.Context) {
	for {
		w, ok := d.manager.getWork()
		if !ok {
			return
		}
		var img *image.RGBA
		var err error
		switch w.Kind {
		case Leaf:
			img, err = d.renderer.RenderTile(ctx, w.Leaf)
		case Composite:
			img, err = d.buildComposite(w.Path)
		default:
			err = fmt.Errorf("dispatch: unknown work kind %d", w.Kind)
		}
		d.manager.pushResult(Result{Work: w, Img: img, Err: err})
	}
}

// workFinished records a completed tile and, if it was the last required
// child of its parent, enqueues the parent as composite work (§4.7 step 2).
// A failed tile is still recorded as rendered_tiles so its parent can
// proceed, but with a nil image (treated as transparent per §7).
func (d *Dispatcher) workFinished(r Result) {
	if r.Err != nil {
		d.log.Warn("tile failed, treating as transparent", "path", r.Work.Path.String(), "err", r.Err)
	}

	d.mu.Lock()
	key := r.Work.Path.String()
	d.renderedTiles[key] = struct{}{}
	d.images[key] = r.Img
	parent, hasParent := r.Work.Path.Parent()
	d.mu.Unlock()

	if !hasParent {
		return
	}

	d.mu.Lock()
	pkey := parent.String()
	d.pending[pkey]--
	ready := d.pending[pkey] <= 0
	d.mu.Unlock()

	if ready {
		d.manager.enqueueExtra(Work{Path: parent, Kind: Composite})
	}
}

// buildComposite assembles path's image from its (possibly absent)
// children, downsampling each rendered child into its quadrant (§6:
// "each composite is the 2x2 downsample of its four children; missing
// children = transparent").
func (d *Dispatcher) buildComposite(path tileset.TilePath) (*image.RGBA, error) {
	children := path.Children()

	d.mu.Lock()
	imgs := [4]*image.RGBA{}
	tileWidth := 0
	for i, c := range children {
		if img, ok := d.images[c.String()]; ok && img != nil {
			imgs[i] = img
			if tileWidth == 0 {
				tileWidth = img.Bounds().Dx()
			}
		}
	}
	d.mu.Unlock()

	if tileWidth == 0 {
		// No child produced a usable image; the composite is fully transparent.
		return nil, nil
	}

	out := image.NewRGBA(image.Rect(0, 0, tileWidth, tileWidth))
	half := tileWidth / 2
	quads := [4]tileset.Quadrant{tileset.TopLeft, tileset.TopRight, tileset.BottomLeft, tileset.BottomRight}
	for i, q := range quads {
		child := imgs[i]
		if child == nil {
			continue
		}
		dx, dy := q.Dx()*half, q.Dy()*half
		dst := image.Rect(dx, dy, dx+half, dy+half)
		xdraw.BiLinear.Scale(out, dst, child, child.Bounds(), draw.Over, nil)
	}
	return out, nil
}

func uniquePaths(paths []tileset.TilePath) map[tileset.TilePath]struct{} {
	m := make(map[tileset.TilePath]struct{}, len(paths))
	for _, p := range paths {
		m[p] = struct{}{}
	}
	return m
}
