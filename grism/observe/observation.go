package observe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-grism/grism/core"
	"github.com/cwbudde/algo-grism/grism/diag"
	"github.com/cwbudde/algo-grism/grism/disperse"
	"github.com/cwbudde/algo-grism/grism/sens"
)

var (
	ErrNilModel        = errors.New("observe: dispersion model is nil")
	ErrNilTransform    = errors.New("observe: geometric transform is nil")
	ErrDuplicateSource = errors.New("observe: duplicate source id")
	ErrUnknownSource   = errors.New("observe: unknown source id")
	ErrMissingOffset   = errors.New("observe: no placement offset for source")
)

// Config wires an Observation. Model and Transform are required; a nil
// Sink defaults to diag.Nop.
type Config struct {
	Model       *disperse.Model
	Transform   disperse.Transform
	Parallelism Parallelism
	Sink        diag.Sink
}

// Observation holds the sources of one exposure and disperses them onto
// shared-size simulated frames. The source set and the id-to-index table
// are fixed at construction, so the full-frame pass and the later
// per-source passes always agree on addressing.
type Observation struct {
	model   *disperse.Model
	tr      disperse.Transform
	par     Parallelism
	sink    diag.Sink
	runID   string
	sources []disperse.Source
	index   map[int]int
}

// New builds an Observation over the given sources.
func New(sources []disperse.Source, cfg Config) (*Observation, error) {
	if cfg.Model == nil {
		return nil, ErrNilModel
	}
	if cfg.Transform == nil {
		return nil, ErrNilTransform
	}
	sink := cfg.Sink
	if sink == nil {
		sink = diag.Nop{}
	}

	index := make(map[int]int, len(sources))
	for i, s := range sources {
		if s.Template == nil {
			return nil, fmt.Errorf("%w: source %d", disperse.ErrNilTemplate, s.ID)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSource, s.ID)
		}
		index[s.ID] = i
	}

	o := &Observation{
		model:   cfg.Model,
		tr:      cfg.Transform,
		par:     cfg.Parallelism,
		sink:    sink,
		runID:   uuid.NewString(),
		sources: make([]disperse.Source, len(sources)),
		index:   index,
	}
	copy(o.sources, sources)
	return o, nil
}

// RunID returns the correlation id attached to this observation's
// diagnostic events.
func (o *Observation) RunID() string { return o.runID }

// NumSources returns the number of sources in the observation.
func (o *Observation) NumSources() int { return len(o.sources) }

// DisperseAll disperses every source at the given order and sums the
// contributions into one full-frame composite. Offsets must contain an
// entry for every source id; a missing entry fails before any dispersion
// work starts. Any dispersion error or context cancellation aborts the
// whole call; no partial composite is ever returned.
//
// The composite is independent of source processing order up to
// floating-point summation drift.
func (o *Observation) DisperseAll(ctx context.Context, order int, wmin, wmax float64, curve *sens.Curve, offsets map[int]disperse.Offset) (*core.Frame, disperse.Stats, error) {
	var stats disperse.Stats

	for _, s := range o.sources {
		if _, ok := offsets[s.ID]; !ok {
			return nil, stats, fmt.Errorf("%w: %d", ErrMissingOffset, s.ID)
		}
	}

	workers := o.par.Workers()
	if workers > len(o.sources) {
		workers = len(o.sources)
	}
	if workers < 1 {
		workers = 1
	}
	o.sink.Event("disperse all",
		"run", o.runID, "order", order, "sources", len(o.sources), "workers", workers)

	width, height := o.model.Dims()
	composite := core.NewFrame(width, height)

	if workers == 1 {
		for _, s := range o.sources {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
			frame, st, err := o.model.Disperse(s, order, wmin, wmax, curve, o.tr, offsets[s.ID])
			if err != nil {
				return nil, stats, fmt.Errorf("observe: source %d: %w", s.ID, err)
			}
			composite.Add(frame)
			stats.Merge(st)
		}
		o.sink.Event("disperse all done", "run", o.runID, "order", order,
			"nonfinite", stats.NonFinite, "offframe", stats.OffFrame)
		return composite, stats, nil
	}

	// Map-reduce: workers disperse independent sources into private
	// partial frames; the coordinator sums the partials afterwards.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type partial struct {
		frame *core.Frame
		stats disperse.Stats
	}

	jobs := make(chan int)
	partials := make(chan partial, workers)

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			acc := core.NewFrame(width, height)
			var st disperse.Stats
			for {
				select {
				case <-ctx.Done():
					return
				case i, ok := <-jobs:
					if !ok {
						partials <- partial{frame: acc, stats: st}
						return
					}
					s := o.sources[i]
					frame, fst, err := o.model.Disperse(s, order, wmin, wmax, curve, o.tr, offsets[s.ID])
					if err != nil {
						fail(fmt.Errorf("observe: source %d: %w", s.ID, err))
						return
					}
					acc.Add(frame)
					st.Merge(fst)
				}
			}
		}()
	}

feed:
	for i := range o.sources {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	close(partials)

	mu.Lock()
	err := firstErr
	mu.Unlock()
	if err != nil {
		return nil, disperse.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, disperse.Stats{}, err
	}

	for p := range partials {
		composite.Add(p.frame)
		stats.Merge(p.stats)
	}
	o.sink.Event("disperse all done", "run", o.runID, "order", order,
		"nonfinite", stats.NonFinite, "offframe", stats.OffFrame)
	return composite, stats, nil
}

// DisperseChunk recomputes the full-frame dispersed image of a single
// source. The result equals that source's term inside DisperseAll
// bit-for-bit: both paths call the same pure dispersion with the same
// inputs. An unknown source id is a fatal lookup error.
func (o *Observation) DisperseChunk(sourceID, order int, wmin, wmax float64, curve *sens.Curve, off disperse.Offset) (*core.Frame, disperse.Stats, error) {
	i, ok := o.index[sourceID]
	if !ok {
		return nil, disperse.Stats{}, fmt.Errorf("%w: %d", ErrUnknownSource, sourceID)
	}
	o.sink.Event("disperse chunk", "run", o.runID, "source", sourceID, "order", order)
	frame, stats, err := o.model.Disperse(o.sources[i], order, wmin, wmax, curve, o.tr, off)
	if err != nil {
		return nil, stats, fmt.Errorf("observe: source %d: %w", sourceID, err)
	}
	return frame, stats, nil
}
