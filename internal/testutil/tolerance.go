package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-grism/grism/core"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFrameNearlyEqual fails t if the frames differ in shape or any
// pixel pair exceeds eps (absolute tolerance).
func RequireFrameNearlyEqual(t *testing.T, got, want *core.Frame, eps float64) {
	t.Helper()
	if got.Width != want.Width || got.Height != want.Height {
		t.Fatalf("shape mismatch: got %dx%d, want %dx%d", got.Width, got.Height, want.Width, want.Height)
	}
	for i := range got.Data {
		diff := math.Abs(got.Data[i] - want.Data[i])
		if diff > eps {
			t.Fatalf("pixel (%d,%d): got %v, want %v (diff %v > eps %v)",
				i%got.Width, i/got.Width, got.Data[i], want.Data[i], diff, eps)
		}
	}
}

// RequireFrameZero fails t if any pixel deviates from 0 by more than eps.
func RequireFrameZero(t *testing.T, f *core.Frame, eps float64) {
	t.Helper()
	for i, v := range f.Data {
		if math.Abs(v) > eps {
			t.Fatalf("pixel (%d,%d): got %v, want 0 (eps %v)", i%f.Width, i/f.Width, v, eps)
		}
	}
}

// MaxAbsDiff returns the maximum absolute pixel difference between two
// frames. Returns an error if the frames differ in shape.
func MaxAbsDiff(a, b *core.Frame) (float64, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, fmt.Errorf("shape mismatch: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	maxDiff := 0.0
	for i := range a.Data {
		d := math.Abs(a.Data[i] - b.Data[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
