package sens

import (
	"errors"
	"sort"
)

var (
	ErrNoSamples      = errors.New("sens: sensitivity curve has no samples")
	ErrLengthMismatch = errors.New("sens: wavelength and response sample counts differ")
	ErrUnordered      = errors.New("sens: sample wavelengths must be strictly increasing")
	ErrBadRange       = errors.New("sens: wavelength range min must be below max")
	ErrUnknownEntry   = errors.New("sens: no entry for filter and spectral order")
)

// Curve is a sampled sensitivity curve: response as a function of
// wavelength. Samples are immutable after construction.
type Curve struct {
	waves    []float64
	response []float64
}

// NewCurve builds a curve from parallel wavelength/response samples.
// Wavelengths must be strictly increasing.
func NewCurve(waves, response []float64) (*Curve, error) {
	if len(waves) == 0 {
		return nil, ErrNoSamples
	}
	if len(waves) != len(response) {
		return nil, ErrLengthMismatch
	}
	for i := 1; i < len(waves); i++ {
		if waves[i] <= waves[i-1] {
			return nil, ErrUnordered
		}
	}
	c := &Curve{
		waves:    make([]float64, len(waves)),
		response: make([]float64, len(response)),
	}
	copy(c.waves, waves)
	copy(c.response, response)
	return c, nil
}

// Domain returns the sampled wavelength extent [min, max].
func (c *Curve) Domain() (min, max float64) {
	return c.waves[0], c.waves[len(c.waves)-1]
}

// Eval returns the linearly interpolated response at wavelength w.
// Wavelengths outside the sampled domain evaluate to 0.
func (c *Curve) Eval(w float64) float64 {
	if w < c.waves[0] || w > c.waves[len(c.waves)-1] {
		return 0
	}
	i := sort.SearchFloat64s(c.waves, w)
	if i < len(c.waves) && c.waves[i] == w {
		return c.response[i]
	}
	// w lies strictly between waves[i-1] and waves[i].
	frac := (w - c.waves[i-1]) / (c.waves[i] - c.waves[i-1])
	return c.response[i-1] + frac*(c.response[i]-c.response[i-1])
}

// Range is the valid dispersion extent for one spectral order.
type Range struct {
	WMin float64
	WMax float64
}

// Validate checks WMin < WMax.
func (r Range) Validate() error {
	if r.WMin >= r.WMax {
		return ErrBadRange
	}
	return nil
}

type key struct {
	filter string
	order  int
}

// Table maps (filter, spectral order) to wavelength ranges and
// sensitivity curves. Populate with Add during setup; lookups afterwards
// are read-only and stable for the whole run.
type Table struct {
	ranges map[key]Range
	curves map[key]*Curve
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		ranges: make(map[key]Range),
		curves: make(map[key]*Curve),
	}
}

// Add registers the range and curve for one (filter, order) entry.
func (t *Table) Add(filter string, order int, r Range, c *Curve) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if c == nil {
		return ErrNoSamples
	}
	k := key{filter: filter, order: order}
	t.ranges[k] = r
	t.curves[k] = c
	return nil
}

// RangeFor returns the wavelength range for (filter, order).
func (t *Table) RangeFor(filter string, order int) (Range, error) {
	r, ok := t.ranges[key{filter: filter, order: order}]
	if !ok {
		return Range{}, ErrUnknownEntry
	}
	return r, nil
}

// CurveFor returns the sensitivity curve for (filter, order).
func (t *Table) CurveFor(filter string, order int) (*Curve, error) {
	c, ok := t.curves[key{filter: filter, order: order}]
	if !ok {
		return nil, ErrUnknownEntry
	}
	return c, nil
}

// Orders returns the spectral orders defined for filter, sorted
// ascending. Order 0 entries are ignored; they carry no dispersed flux.
func (t *Table) Orders(filter string) []int {
	var orders []int
	for k := range t.ranges {
		if k.filter == filter && k.order != 0 {
			orders = append(orders, k.order)
		}
	}
	sort.Ints(orders)
	return orders
}
