package disperse

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-grism/grism/core"
	"github.com/cwbudde/algo-grism/grism/sens"
)

var (
	ErrNilTemplate  = errors.New("disperse: source template is nil")
	ErrEmptyFrame   = errors.New("disperse: frame dimensions must be positive")
	ErrBadWaveRange = errors.New("disperse: wmin must be below wmax")
	ErrNilCurve     = errors.New("disperse: sensitivity curve is nil")
	ErrNilTransform = errors.New("disperse: geometric transform is nil")
)

// Transform maps a direct-image pixel position and a wavelength to the
// detector position where that wavelength lands for the given spectral
// order. It is supplied by the caller; this package treats it as opaque.
type Transform func(x, y, wavelength float64, order int) (xd, yd float64)

// Source is one detected object: an integer id and its spatial flux
// template cut from the direct image. Immutable once constructed.
type Source struct {
	ID       int
	Template *core.Frame
}

// NewSource validates and builds a source.
func NewSource(id int, template *core.Frame) (Source, error) {
	if template == nil {
		return Source{}, ErrNilTemplate
	}
	if template.Width <= 0 || template.Height <= 0 {
		return Source{}, ErrEmptyFrame
	}
	return Source{ID: id, Template: template}, nil
}

// Offset places a source template on the shared detector frame.
type Offset struct {
	X int
	Y int
}

// Stats counts contributions that could not land on the frame.
type Stats struct {
	NonFinite int     // transform produced NaN/Inf positions
	OffFrame  int     // mapped outside the detector
	LostFlux  float64 // flux carried by OffFrame contributions
}

// Merge accumulates other into s.
func (s *Stats) Merge(other Stats) {
	s.NonFinite += other.NonFinite
	s.OffFrame += other.OffFrame
	s.LostFlux += other.LostFlux
}

const defaultSamples = 100

// Config holds dispersion parameters. Width and Height are the detector
// dimensions; Samples is the number of wavelength samples across the
// dispersed range (default 100).
type Config struct {
	Width   int
	Height  int
	Samples int
}

// Model disperses source templates onto full-size detector frames.
type Model struct {
	cfg Config
}

// NewModel creates a dispersion model. Zero Samples gets the default.
func NewModel(cfg Config) (*Model, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmptyFrame
	}
	if cfg.Samples <= 0 {
		cfg.Samples = defaultSamples
	}
	return &Model{cfg: cfg}, nil
}

// Dims returns the detector frame dimensions.
func (m *Model) Dims() (width, height int) {
	return m.cfg.Width, m.cfg.Height
}

// Samples returns the wavelength sample count per dispersed pixel.
func (m *Model) Samples() int {
	return m.cfg.Samples
}

// Disperse computes the full-frame dispersed contribution of one source
// at one spectral order over [wmin, wmax].
//
// Each flux-bearing template pixel is sampled at the midpoints of a
// uniform wavelength grid; every sample lands at the transform's mapped
// position, binned to the nearest pixel, carrying
// flux * response(w) / nSamples. With a flat unit response the template
// flux is conserved exactly, up to contributions mapped off the frame
// (counted in Stats). Negative template flux is treated as zero.
//
// Non-finite mapped positions are skipped and counted, never fatal: a
// locally degenerate transform must not corrupt the accumulation.
// The returned frame is freshly allocated; Disperse has no side effects.
func (m *Model) Disperse(src Source, order int, wmin, wmax float64, curve *sens.Curve, tr Transform, off Offset) (*core.Frame, Stats, error) {
	var stats Stats
	if src.Template == nil {
		return nil, stats, ErrNilTemplate
	}
	if wmin >= wmax {
		return nil, stats, ErrBadWaveRange
	}
	if curve == nil {
		return nil, stats, ErrNilCurve
	}
	if tr == nil {
		return nil, stats, ErrNilTransform
	}

	n := m.cfg.Samples
	dw := (wmax - wmin) / float64(n)

	// Midpoint wavelength grid and per-sample weights, fixed for the
	// whole call so repeated dispersions of the same source cancel
	// exactly.
	waves := make([]float64, n)
	weights := make([]float64, n)
	for k := 0; k < n; k++ {
		waves[k] = wmin + (float64(k)+0.5)*dw
		weights[k] = curve.Eval(waves[k])
	}
	vecmath.ScaleBlock(weights, weights, 1/float64(n))

	out := core.NewFrame(m.cfg.Width, m.cfg.Height)
	tpl := src.Template

	for ty := 0; ty < tpl.Height; ty++ {
		for tx := 0; tx < tpl.Width; tx++ {
			flux := tpl.At(tx, ty)
			if flux <= 0 {
				continue
			}
			x0 := float64(off.X + tx)
			y0 := float64(off.Y + ty)
			for k := 0; k < n; k++ {
				if weights[k] == 0 {
					continue
				}
				xd, yd := tr(x0, y0, waves[k], order)
				if !core.IsFinite(xd) || !core.IsFinite(yd) {
					stats.NonFinite++
					continue
				}
				xi := int(math.Round(xd))
				yi := int(math.Round(yd))
				v := flux * weights[k]
				if !out.Contains(xi, yi) {
					stats.OffFrame++
					stats.LostFlux += v
					continue
				}
				out.AddAt(xi, yi, v)
			}
		}
	}
	return out, stats, nil
}
