// Package sens holds the per-order calibration tables consumed by the
// dispersion engine: valid wavelength ranges and sampled sensitivity
// (response) curves, keyed by filter name and spectral order.
//
// Tables are populated once at construction time and are read-only for the
// rest of the run. Response lookups outside a curve's sampled domain
// evaluate to exactly zero, so dispersed flux never extrapolates beyond
// the calibrated range.
package sens
