// Package disperse simulates how a spectrometer spreads a source's light
// across the detector. Given one source's direct-image flux template, a
// spectral order and a forward wavelength-to-pixel transform, the model
// produces that source's full-frame dispersed contribution, weighted by
// the order's sensitivity curve.
//
// Dispersion is a pure function of its inputs: a fixed midpoint wavelength
// grid over [wmin, wmax] is splatted with nearest-pixel binning, so two
// calls with identical inputs produce bit-identical frames. The
// compositing layer relies on this to cancel a source's own contribution
// exactly when estimating contamination.
package disperse
