// Package contam recovers clean per-source spectra from a wide-field
// slitless exposure. It simulates the dispersed spectrum of every source
// on a shared full-size frame, isolates everyone-else's flux inside each
// source's extraction window, and subtracts that contamination estimate
// from the source's observed data.
package contam

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-grism/grism/core"
	"github.com/cwbudde/algo-grism/grism/disperse"
	"github.com/cwbudde/algo-grism/grism/observe"
	"github.com/cwbudde/algo-grism/grism/sens"
)

var (
	ErrNilObservation = errors.New("contam: observation is nil")
	ErrNilTable       = errors.New("contam: calibration table is nil")
	ErrNoOrders       = errors.New("contam: no spectral orders defined for filter")
	ErrNilSlitData    = errors.New("contam: slit has no data")
	ErrSlitShape      = errors.New("contam: slit data does not match its window")
)

// Slit is one source's rectangular spectral cutout plus the metadata
// carried forward from extraction.
type Slit struct {
	SourceID            int
	Name                string
	SourceType          string
	SourceXPos          float64
	SourceYPos          float64
	SpectralOrder       int
	DispersionDirection int
	Window              core.Window
	Data                *core.Frame
}

// withData copies every metadata field of s onto a new slit holding data.
func (s Slit) withData(data *core.Frame) Slit {
	out := s
	out.Data = data
	return out
}

// Status is the completion flag reported to the pipeline.
type Status int

const (
	StatusComplete Status = iota
	StatusSkipped
)

// String returns the pipeline bookkeeping value for the status.
func (s Status) String() string {
	if s == StatusSkipped {
		return "SKIPPED"
	}
	return "COMPLETE"
}

// Result holds the three outputs of a correction run.
type Result struct {
	// Corrected carries each input slit with contamination subtracted
	// from its data. Input slits are never mutated.
	Corrected []Slit
	// Simulated is the full-frame composite of all sources across all
	// orders.
	Simulated *core.Frame
	// Estimates holds one contamination-estimate slit per source,
	// shape-matched to that source's window.
	Estimates []Slit
	// Stats aggregates dispersion diagnostics over the whole run.
	Stats disperse.Stats
	// Status is StatusComplete, or StatusSkipped when there was nothing
	// to correct.
	Status Status
}

// Correct runs the simulate-then-subtract contamination correction over
// all slits of one exposure.
//
// The full composite is built per spectral order with obs.DisperseAll and
// summed across orders; per slit, the source's own contribution is
// recomputed with obs.DisperseChunk and the contamination estimate is the
// composite minus that contribution, cut out at the slit window. The
// estimate slit and the corrected slit are derived from the same cutout
// value. A slit window reaching outside the detector frame is a fatal
// bounds error: it means upstream placement is inconsistent.
//
// With no slits the run is skipped; a filter with no non-zero spectral
// orders in the table is a configuration error.
func Correct(ctx context.Context, slits []Slit, obs *observe.Observation, table *sens.Table, filter string) (Result, error) {
	if obs == nil {
		return Result{}, ErrNilObservation
	}
	if table == nil {
		return Result{}, ErrNilTable
	}
	if len(slits) == 0 {
		return Result{Status: StatusSkipped}, nil
	}

	orders := table.Orders(filter)
	if len(orders) == 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrNoOrders, filter)
	}

	for _, s := range slits {
		if s.Data == nil {
			return Result{}, fmt.Errorf("%w: source %d", ErrNilSlitData, s.SourceID)
		}
		if s.Data.Width != s.Window.XSize || s.Data.Height != s.Window.YSize {
			return Result{}, fmt.Errorf("%w: source %d has %dx%d data in a %dx%d window",
				ErrSlitShape, s.SourceID, s.Data.Width, s.Data.Height, s.Window.XSize, s.Window.YSize)
		}
	}

	// Sources are placed on the shared frame at their slit windows.
	offsets := make(map[int]disperse.Offset, len(slits))
	for _, s := range slits {
		offsets[s.SourceID] = disperse.Offset{X: s.Window.XStart, Y: s.Window.YStart}
	}

	var (
		result   Result
		simulAll *core.Frame
	)
	for _, order := range orders {
		r, err := table.RangeFor(filter, order)
		if err != nil {
			return Result{}, err
		}
		curve, err := table.CurveFor(filter, order)
		if err != nil {
			return Result{}, err
		}
		composite, stats, err := obs.DisperseAll(ctx, order, r.WMin, r.WMax, curve, offsets)
		if err != nil {
			return Result{}, err
		}
		result.Stats.Merge(stats)
		if simulAll == nil {
			simulAll = composite
		} else {
			simulAll.Add(composite)
		}
	}

	corrected := make([]Slit, 0, len(slits))
	estimates := make([]Slit, 0, len(slits))
	for _, s := range slits {
		order := s.SpectralOrder
		r, err := table.RangeFor(filter, order)
		if err != nil {
			return Result{}, fmt.Errorf("contam: source %d order %d: %w", s.SourceID, order, err)
		}
		curve, err := table.CurveFor(filter, order)
		if err != nil {
			return Result{}, fmt.Errorf("contam: source %d order %d: %w", s.SourceID, order, err)
		}

		own, stats, err := obs.DisperseChunk(s.SourceID, order, r.WMin, r.WMax, curve, offsets[s.SourceID])
		if err != nil {
			return Result{}, err
		}
		result.Stats.Merge(stats)

		contamFull := simulAll.Clone()
		contamFull.Sub(own)

		cutout, err := contamFull.Cutout(s.Window)
		if err != nil {
			return Result{}, fmt.Errorf("contam: source %d window: %w", s.SourceID, err)
		}

		// Estimate and correction derive from the same cutout value.
		estimates = append(estimates, s.withData(cutout))

		clean := s.Data.Clone()
		clean.Sub(cutout)
		corrected = append(corrected, s.withData(clean))
	}

	result.Corrected = corrected
	result.Simulated = simulAll
	result.Estimates = estimates
	result.Status = StatusComplete
	return result, nil
}
