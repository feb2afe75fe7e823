package testutil

import (
	"math/rand"

	"github.com/cwbudde/algo-grism/grism/core"
	"github.com/cwbudde/algo-grism/grism/disperse"
	"github.com/cwbudde/algo-grism/grism/sens"
)

// PointTemplate builds a 1x1 template carrying the given flux.
func PointTemplate(flux float64) *core.Frame {
	f := core.NewFrame(1, 1)
	f.Set(0, 0, flux)
	return f
}

// BoxTemplate builds a width x height template with every pixel set to flux.
func BoxTemplate(width, height int, flux float64) *core.Frame {
	f := core.NewFrame(width, height)
	for i := range f.Data {
		f.Data[i] = flux
	}
	return f
}

// NoiseTemplate builds a template of uniform random flux in [0, amplitude)
// with a fixed seed for reproducibility.
func NoiseTemplate(seed int64, width, height int, amplitude float64) *core.Frame {
	f := core.NewFrame(width, height)
	rng := rand.New(rand.NewSource(seed))
	for i := range f.Data {
		f.Data[i] = rng.Float64() * amplitude
	}
	return f
}

// FlatCurve builds a sensitivity curve with constant response over
// [wmin, wmax].
func FlatCurve(wmin, wmax, response float64) *sens.Curve {
	c, err := sens.NewCurve([]float64{wmin, wmax}, []float64{response, response})
	if err != nil {
		panic(err)
	}
	return c
}

// ShiftTransform returns a transform that keeps y fixed and shifts x by
// pixelsPerWave * (wavelength - wzero), a linear horizontal dispersion.
// The spectral order scales the shift, so different orders land at
// different positions.
func ShiftTransform(wzero, pixelsPerWave float64) disperse.Transform {
	return func(x, y, wavelength float64, order int) (float64, float64) {
		return x + float64(order)*pixelsPerWave*(wavelength-wzero), y
	}
}
